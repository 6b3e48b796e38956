package report

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/muaina/portal/internal/authz"
	"github.com/muaina/portal/internal/models"
)

// Review actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, actor *models.User, originalFile string, patient models.PatientInfo) (*models.Report, error) {
	if actor.OrganizationID == nil {
		return nil, authz.ErrCrossTenant
	}
	if err := authz.Authorize(actor, authz.CapReportUpload, actor.OrganizationID); err != nil {
		return nil, err
	}

	r := &models.Report{
		ID:             uuid.New(),
		OrganizationID: *actor.OrganizationID,
		OriginalFile:   originalFile,
		PatientInfo:    patient,
		ReviewStatus:   models.ReviewPending,
		CreatedBy:      &actor.ID,
	}
	if err := s.store.Insert(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Get loads a report and enforces tenant isolation. A cross-tenant
// denial surfaces as ErrNotFound so existence is never leaked.
func (s *Service) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Report, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.CapReportRead, &r.OrganizationID); err != nil {
		if errors.Is(err, authz.ErrCrossTenant) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

// List returns the actor's organization's reports; admins see all.
func (s *Service) List(ctx context.Context, actor *models.User, limit, offset int) ([]models.Report, error) {
	if err := authz.Authorize(actor, authz.CapReportRead, nil); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	orgID := uuid.Nil
	if actor.Role != authz.RoleAdmin {
		if actor.OrganizationID == nil {
			return nil, nil
		}
		orgID = *actor.OrganizationID
	}
	return s.store.List(ctx, orgID, limit, offset)
}

// Transition moves a pending report to approved or rejected. Both
// outcomes are terminal: re-submission creates a new report. The update
// carries an optimistic precondition so concurrent reviews resolve to
// exactly one winner; the loser gets ErrInvalidTransition.
func (s *Service) Transition(ctx context.Context, actor *models.User, id uuid.UUID, action string) (*models.Report, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.CapReportReview, &r.OrganizationID); err != nil {
		if errors.Is(err, authz.ErrCrossTenant) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var to string
	switch action {
	case ActionApprove:
		to = models.ReviewApproved
	case ActionReject:
		to = models.ReviewRejected
	default:
		return nil, ErrInvalidTransition
	}

	ok, err := s.store.TransitionReview(ctx, id, models.ReviewPending, to, actor.ID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	return s.store.GetByID(ctx, id)
}

// ForExport re-reads the report and re-checks the approval gate at
// generation time; an approval observed earlier in the request must not
// be trusted.
func (s *Service) ForExport(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Report, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.CapReportExport, &r.OrganizationID); err != nil {
		if errors.Is(err, authz.ErrCrossTenant) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !CanExport(r) {
		return nil, ErrNotApproved
	}
	return r, nil
}

// CanExport reports whether PDF export and insurance disclosure are
// unlocked for this report.
func CanExport(r *models.Report) bool {
	return r != nil && r.ReviewStatus == models.ReviewApproved
}

// Delete removes a report's file record. Admin/director only, tenant
// scoped for non-admins.
func (s *Service) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(actor, authz.CapFileDelete, &r.OrganizationID); err != nil {
		if errors.Is(err, authz.ErrCrossTenant) {
			return ErrNotFound
		}
		return err
	}

	orgID := uuid.Nil
	if actor.Role != authz.RoleAdmin {
		orgID = *actor.OrganizationID
	}
	return s.store.Delete(ctx, orgID, id)
}

// ListSince exposes the aggregation snapshot for the usage and
// classification endpoints.
func (s *Service) ListSince(ctx context.Context, orgID uuid.UUID, since time.Time) ([]models.Report, error) {
	return s.store.ListSince(ctx, orgID, since)
}

// ForAnalysis loads a report for the worker path, which runs without a
// request principal.
func (s *Service) ForAnalysis(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	return s.store.GetByID(ctx, id)
}

// AttachAnalysis stores the producer's blobs; called from the worker.
func (s *Service) AttachAnalysis(ctx context.Context, id uuid.UUID, out AnalysisBlobs) error {
	return s.store.SetAnalysis(ctx, id, out.Analysis, out.Interpretation)
}

type AnalysisBlobs struct {
	Analysis       []byte
	Interpretation []byte
}
