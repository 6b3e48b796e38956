package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/muaina/portal/internal/models"
)

// Store is the persistence boundary for reports. orgID scopes a query to
// one organization; uuid.Nil leaves it unscoped (admin access paths).
type Store interface {
	Insert(ctx context.Context, r *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	List(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]models.Report, error)

	// ListSince returns an organization's reports created at or after the
	// cutoff, for the aggregators. Aggregation runs over this snapshot
	// and needs no locking.
	ListSince(ctx context.Context, orgID uuid.UUID, since time.Time) ([]models.Report, error)

	SetAnalysis(ctx context.Context, id uuid.UUID, aiAnalysis, interpretation json.RawMessage) error

	// TransitionReview applies the optimistic precondition: the row is
	// updated only if its status still equals from. Returns false when
	// another reviewer already won the race.
	TransitionReview(ctx context.Context, id uuid.UUID, from, to string, reviewedBy uuid.UUID, reviewedAt time.Time) (bool, error)

	Delete(ctx context.Context, orgID, id uuid.UUID) error
}
