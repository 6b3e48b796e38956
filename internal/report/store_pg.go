package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muaina/portal/internal/models"
)

const reportColumns = `id, organization_id, original_file, ai_analysis, muaina_interpretation,
	patient_info, review_status, reviewed_at, reviewed_by, created_by, created_at`

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Insert(ctx context.Context, r *models.Report) error {
	patient, err := json.Marshal(r.PatientInfo)
	if err != nil {
		return fmt.Errorf("marshal patient info: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO reports (id, organization_id, original_file, patient_info, review_status, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		r.ID, r.OrganizationID, r.OriginalFile, patient, r.ReviewStatus, r.CreatedBy,
	).Scan(&r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	r, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

func (s *PGStore) List(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports`
	args := []interface{}{}
	if orgID != uuid.Nil {
		query += ` WHERE organization_id = $1`
		args = append(args, orgID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

func (s *PGStore) ListSince(ctx context.Context, orgID uuid.UUID, since time.Time) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE created_at >= $1`
	args := []interface{}{since}
	if orgID != uuid.Nil {
		query += ` AND organization_id = $2`
		args = append(args, orgID)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports since %s: %w", since.Format(time.RFC3339), err)
	}
	defer rows.Close()
	return scanReports(rows)
}

func (s *PGStore) SetAnalysis(ctx context.Context, id uuid.UUID, aiAnalysis, interpretation json.RawMessage) error {
	_, err := s.db.Exec(ctx,
		`UPDATE reports SET ai_analysis = $2, muaina_interpretation = $3 WHERE id = $1`,
		id, aiAnalysis, interpretation,
	)
	if err != nil {
		return fmt.Errorf("set analysis: %w", err)
	}
	return nil
}

func (s *PGStore) TransitionReview(ctx context.Context, id uuid.UUID, from, to string, reviewedBy uuid.UUID, reviewedAt time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE reports SET review_status = $3, reviewed_at = $4, reviewed_by = $5
		 WHERE id = $1 AND review_status = $2`,
		id, from, to, reviewedAt, reviewedBy,
	)
	if err != nil {
		return false, fmt.Errorf("transition review: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	query := `DELETE FROM reports WHERE id = $1`
	args := []interface{}{id}
	if orgID != uuid.Nil {
		query += ` AND organization_id = $2`
		args = append(args, orgID)
	}
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReport(row pgx.Row) (*models.Report, error) {
	var r models.Report
	var patient []byte
	err := row.Scan(&r.ID, &r.OrganizationID, &r.OriginalFile, &r.AIAnalysis, &r.MuainaInterpretation,
		&patient, &r.ReviewStatus, &r.ReviewedAt, &r.ReviewedBy, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(patient) > 0 {
		if err := json.Unmarshal(patient, &r.PatientInfo); err != nil {
			return nil, fmt.Errorf("unmarshal patient info: %w", err)
		}
	}
	return &r, nil
}

func scanReports(rows pgx.Rows) ([]models.Report, error) {
	var reports []models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}
