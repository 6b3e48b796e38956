package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muaina/portal/internal/models"
)

var ErrNotFound = errors.New("doctor not found")

// Service manages the global doctor registry, reference data shared by
// all organizations.
type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, name, specialty, licenseNo string, createdBy uuid.UUID) (*models.Doctor, error) {
	var d models.Doctor
	err := s.db.QueryRow(ctx,
		`INSERT INTO doctors (name, specialty, license_no, created_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, specialty, license_no, created_by, created_at`,
		name, specialty, licenseNo, createdBy,
	).Scan(&d.ID, &d.Name, &d.Specialty, &d.LicenseNo, &d.CreatedBy, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return &d, nil
}

func (s *Service) List(ctx context.Context) ([]models.Doctor, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, specialty, license_no, created_by, created_at
		 FROM doctors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var doctors []models.Doctor
	for rows.Next() {
		var d models.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty, &d.LicenseNo, &d.CreatedBy, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM doctors WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
