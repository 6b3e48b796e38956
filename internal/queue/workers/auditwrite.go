package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/muaina/portal/internal/audit"
	"github.com/muaina/portal/internal/queue"
)

// AuditWriteWorker persists audit entries dispatched from the request
// path, keeping the insert off the response's critical path.
type AuditWriteWorker struct {
	audits *audit.Service
}

func NewAuditWriteWorker(audits *audit.Service) *AuditWriteWorker {
	return &AuditWriteWorker{audits: audits}
}

func (w *AuditWriteWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AuditWritePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	entry := audit.LogEntry{
		Action:       payload.Action,
		ResourceType: payload.ResourceType,
		Details:      payload.Details,
		IPAddress:    payload.IPAddress,
	}
	if id, err := uuid.Parse(payload.OrganizationID); err == nil {
		entry.OrganizationID = id
	}
	if id, err := uuid.Parse(payload.UserID); err == nil {
		entry.UserID = &id
	}
	if id, err := uuid.Parse(payload.ResourceID); err == nil {
		entry.ResourceID = &id
	}

	return w.audits.Log(ctx, entry)
}
