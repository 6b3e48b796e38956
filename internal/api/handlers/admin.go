package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/muaina/portal/internal/audit"
	"github.com/muaina/portal/internal/auth"
	"github.com/muaina/portal/internal/authz"
	"github.com/muaina/portal/internal/models"
	"github.com/muaina/portal/internal/org"
	"github.com/muaina/portal/internal/principal"
	"github.com/muaina/portal/internal/queue"
)

type AdminHandler struct {
	audits   *audit.Service
	orgs     *org.Service
	sessions *auth.Sessions
	queue    *queue.Client
}

func NewAdminHandler(audits *audit.Service, orgs *org.Service, sessions *auth.Sessions, qc *queue.Client) *AdminHandler {
	return &AdminHandler{audits: audits, orgs: orgs, sessions: sessions, queue: qc}
}

func (h *AdminHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())
	if err := authz.Authorize(user, authz.CapAuditRead, nil); err != nil {
		auditDenial(h.queue, user, err, r)
		writeServiceError(w, err)
		return
	}

	q := audit.Query{Action: r.URL.Query().Get("action")}
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	q.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	if v := r.URL.Query().Get("organization_id"); v != "" {
		orgID, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid organization_id")
			return
		}
		q.OrganizationID = orgID
	}
	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_date must be RFC3339")
			return
		}
		q.StartDate = &t
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_date must be RFC3339")
			return
		}
		q.EndDate = &t
	}

	logs, err := h.audits.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"audit_logs": logs})
}

// DeactivateUser flips the account off and revokes any live session so
// outstanding tokens stop working before they expire.
func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())
	if err := authz.Authorize(user, authz.CapUserManage, nil); err != nil {
		auditDenial(h.queue, user, err, r)
		writeServiceError(w, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	if err := h.orgs.DeactivateUser(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	_ = h.sessions.Revoke(r.Context(), id)

	dispatchAudit(h.queue, user, audit.ActionUserDeactivate, "user", id.String(), nil, r)
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "deactivated"})
}
