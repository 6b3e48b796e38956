package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muaina/portal/internal/models"
	"github.com/muaina/portal/internal/principal"
)

// Audited actions.
const (
	ActionReportUpload   = "report.upload"
	ActionReviewApprove  = "report.approve"
	ActionReviewReject   = "report.reject"
	ActionReportExport   = "report.export"
	ActionReportDelete   = "report.delete"
	ActionAccessDenied   = "access.denied"
	ActionUserDeactivate = "user.deactivate"
	ActionLogin          = "auth.login"
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

type LogEntry struct {
	OrganizationID uuid.UUID
	UserID         *uuid.UUID
	Action         string
	ResourceType   string
	ResourceID     *uuid.UUID
	Details        map[string]interface{}
	IPAddress      string
}

// Log writes one audit row. Callers on the request path should prefer
// the async task so an audit insert never delays a response.
func (s *Service) Log(ctx context.Context, entry LogEntry) error {
	if entry.UserID == nil {
		if u := principal.UserFromContext(ctx); u != nil {
			entry.UserID = &u.ID
		}
	}

	details, _ := json.Marshal(entry.Details)

	var ip *netip.Addr
	if entry.IPAddress != "" {
		parsed, err := netip.ParseAddr(entry.IPAddress)
		if err == nil {
			ip = &parsed
		}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_logs (organization_id, user_id, action, resource_type, resource_id, details, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.OrganizationID, entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID, details, ip,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

type Query struct {
	OrganizationID uuid.UUID
	StartDate      *time.Time
	EndDate        *time.Time
	Action         string
	Limit          int
	Offset         int
}

func (s *Service) List(ctx context.Context, q Query) ([]models.AuditLog, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	query := `SELECT id, organization_id, user_id, action, resource_type, resource_id, details, ip_address, created_at
			  FROM audit_logs WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if q.OrganizationID != uuid.Nil {
		query += fmt.Sprintf(" AND organization_id = $%d", argIdx)
		args = append(args, q.OrganizationID)
		argIdx++
	}
	if q.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, q.Action)
		argIdx++
	}
	if q.StartDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *q.StartDate)
		argIdx++
	}
	if q.EndDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *q.EndDate)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.OrganizationID, &l.UserID, &l.Action, &l.ResourceType, &l.ResourceID, &l.Details, &l.IPAddress, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
