package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/muaina/portal/internal/audit"
	"github.com/muaina/portal/internal/auth"
	"github.com/muaina/portal/internal/authz"
	"github.com/muaina/portal/internal/models"
	"github.com/muaina/portal/internal/obs"
	"github.com/muaina/portal/internal/org"
	"github.com/muaina/portal/internal/queue"
	"github.com/muaina/portal/internal/registry"
	"github.com/muaina/portal/internal/report"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the error taxonomy onto HTTP statuses. 401 is
// reserved for missing/invalid identity, 403 for a valid identity with
// insufficient capability; the two are never conflated. Denials carry no
// resource details.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		obs.AuthzDenied.WithLabelValues("unauthenticated").Inc()
		writeError(w, http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, authz.ErrDeactivated):
		obs.AuthzDenied.WithLabelValues("deactivated").Inc()
		writeError(w, http.StatusUnauthorized, "account deactivated")
	case errors.Is(err, auth.ErrBadCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, authz.ErrCrossTenant):
		obs.AuthzDenied.WithLabelValues("cross_tenant").Inc()
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, authz.ErrInsufficientRole):
		obs.AuthzDenied.WithLabelValues("insufficient_role").Inc()
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, report.ErrNotFound), errors.Is(err, org.ErrNotFound), errors.Is(err, registry.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, report.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid review transition")
	case errors.Is(err, report.ErrNotApproved):
		writeError(w, http.StatusConflict, "report not approved")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "operation timed out")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// dispatchAudit hands the audit entry to the worker queue. Auditing is
// off the response path: a dispatch failure is logged and the response
// proceeds.
func dispatchAudit(qc *queue.Client, actor *models.User, action, resourceType, resourceID string, details map[string]interface{}, r *http.Request) {
	payload := queue.AuditWritePayload{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		IPAddress:    requestIP(r),
	}
	if actor != nil {
		payload.UserID = actor.ID.String()
		if actor.OrganizationID != nil {
			payload.OrganizationID = actor.OrganizationID.String()
		}
	}
	if err := qc.EnqueueAuditWrite(payload); err != nil {
		slog.Warn("audit dispatch failed", "action", action, "error", err)
	}
}

// auditDenial leaves an access.denied trail for a failed authorization
// check. Counting happens in writeServiceError; this adds the audit row
// for handlers that carry a queue. Non-authz errors are ignored.
func auditDenial(qc *queue.Client, actor *models.User, err error, r *http.Request) {
	if !errors.Is(err, authz.ErrCrossTenant) && !errors.Is(err, authz.ErrInsufficientRole) {
		return
	}
	dispatchAudit(qc, actor, audit.ActionAccessDenied, "", "", map[string]interface{}{
		"reason": err.Error(),
		"path":   r.URL.Path,
	}, r)
}

func requestIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
