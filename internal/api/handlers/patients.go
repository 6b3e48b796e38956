package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/muaina/portal/internal/authz"
	"github.com/muaina/portal/internal/classify"
	"github.com/muaina/portal/internal/principal"
	"github.com/muaina/portal/internal/queue"
	"github.com/muaina/portal/internal/report"
)

type PatientHandler struct {
	reports *report.Service
	queue   *queue.Client
}

func NewPatientHandler(reports *report.Service, qc *queue.Client) *PatientHandler {
	return &PatientHandler{reports: reports, queue: qc}
}

// Classifications is the insurance-facing rollup. The target
// organization comes from an explicit organization_id parameter, not the
// caller's membership: insurance reviewers service organizations by
// request. Only approved reports are disclosed.
func (h *PatientHandler) Classifications(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())

	orgParam := r.URL.Query().Get("organization_id")
	if orgParam == "" {
		writeError(w, http.StatusBadRequest, "organization_id required")
		return
	}
	orgID, err := uuid.Parse(orgParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid organization_id")
		return
	}

	if err := authz.Authorize(user, authz.CapPatientSearch, &orgID); err != nil {
		auditDenial(h.queue, user, err, r)
		writeServiceError(w, err)
		return
	}

	reports, err := h.reports.ListSince(r.Context(), orgID, time.Time{})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	approved := reports[:0]
	for _, rpt := range reports {
		if rpt.Approved() {
			approved = append(approved, rpt)
		}
	}

	summaries := classify.Aggregate(approved, r.URL.Query().Get("name"))
	if summaries == nil {
		summaries = []classify.PatientSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"patients": summaries})
}
