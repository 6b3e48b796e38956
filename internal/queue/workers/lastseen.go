package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/muaina/portal/internal/org"
	"github.com/muaina/portal/internal/queue"
)

// LastSeenWorker applies best-effort last-login updates. A failure here
// is logged and retried once by asynq, and never surfaces to the login
// response that dispatched it.
type LastSeenWorker struct {
	orgs *org.Service
}

func NewLastSeenWorker(orgs *org.Service) *LastSeenWorker {
	return &LastSeenWorker{orgs: orgs}
}

func (w *LastSeenWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.LastSeenPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("parse user ID: %w", err)
	}

	seenAt, err := time.Parse(time.RFC3339, payload.SeenAt)
	if err != nil {
		seenAt = time.Now().UTC()
	}

	if err := w.orgs.UpdateLastLogin(ctx, userID, seenAt); err != nil {
		slog.Warn("last-seen update failed", "user_id", userID, "error", err)
		return err
	}
	return nil
}
