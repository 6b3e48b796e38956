package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/muaina/portal/internal/authz"
	"github.com/muaina/portal/internal/metering"
	"github.com/muaina/portal/internal/principal"
	"github.com/muaina/portal/internal/queue"
	"github.com/muaina/portal/internal/report"
)

type UsageHandler struct {
	reports *report.Service
	queue   *queue.Client
}

func NewUsageHandler(reports *report.Service, qc *queue.Client) *UsageHandler {
	return &UsageHandler{reports: reports, queue: qc}
}

// Summary folds the caller's organization's AI usage over a trailing
// window (default 30 days). Admins may inspect any organization via the
// organization_id parameter.
func (h *UsageHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())

	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 365 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = parsed
	}

	orgID := principal.OrgIDFromContext(r.Context())
	if v := r.URL.Query().Get("organization_id"); v != "" {
		parsed, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid organization_id")
			return
		}
		orgID = parsed
	}

	if err := authz.Authorize(user, authz.CapUsageRead, &orgID); err != nil {
		auditDenial(h.queue, user, err, r)
		writeServiceError(w, err)
		return
	}

	now := time.Now().UTC()
	reports, err := h.reports.ListSince(r.Context(), orgID, now.AddDate(0, 0, -days))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, metering.Aggregate(reports, days, now))
}
