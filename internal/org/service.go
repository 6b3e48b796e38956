package org

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muaina/portal/internal/models"
)

var ErrNotFound = errors.New("organization not found")

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

const orgColumns = "id, name, slug, is_active, created_at, updated_at"

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var o models.Organization
	err := s.db.QueryRow(ctx,
		"SELECT "+orgColumns+" FROM organizations WHERE id = $1", id,
	).Scan(&o.ID, &o.Name, &o.Slug, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &o, nil
}

// ListActive backs the one explicitly public endpoint.
func (s *Service) ListActive(ctx context.Context) ([]models.Organization, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+orgColumns+" FROM organizations WHERE is_active ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []models.Organization
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.IsActive, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

func (s *Service) Create(ctx context.Context, name, slug string) (*models.Organization, error) {
	var o models.Organization
	err := s.db.QueryRow(ctx,
		`INSERT INTO organizations (name, slug) VALUES ($1, $2)
		 RETURNING `+orgColumns,
		name, slug,
	).Scan(&o.ID, &o.Name, &o.Slug, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	return &o, nil
}

const userColumns = "id, organization_id, role, email, full_name, is_active, last_login_at, created_at"

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id,
	).Scan(&u.ID, &u.OrganizationID, &u.Role, &u.Email, &u.FullName, &u.IsActive, &u.LastLoginAt, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email,
	).Scan(&u.ID, &u.OrganizationID, &u.Role, &u.Email, &u.FullName, &u.IsActive, &u.LastLoginAt, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// DeactivateUser flips is_active off. Users are never deleted.
func (s *Service) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "UPDATE users SET is_active = false WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLastLogin is the target of the fire-and-forget last-seen task.
func (s *Service) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.Exec(ctx, "UPDATE users SET last_login_at = $2 WHERE id = $1", id, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
