package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/muaina/portal/internal/auth"
	"github.com/muaina/portal/internal/authz"
	"github.com/muaina/portal/internal/obs"
	"github.com/muaina/portal/internal/report"
)

func TestWriteServiceErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unauthenticated", authz.ErrUnauthenticated, http.StatusUnauthorized},
		{"deactivated", authz.ErrDeactivated, http.StatusUnauthorized},
		{"bad credentials", auth.ErrBadCredentials, http.StatusUnauthorized},
		{"cross tenant", authz.ErrCrossTenant, http.StatusForbidden},
		{"insufficient role", authz.ErrInsufficientRole, http.StatusForbidden},
		{"not found", report.ErrNotFound, http.StatusNotFound},
		{"invalid transition", report.ErrInvalidTransition, http.StatusConflict},
		{"not approved", report.ErrNotApproved, http.StatusConflict},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tc.err)
			if rec.Code != tc.status {
				t.Errorf("got status %d, want %d", rec.Code, tc.status)
			}
		})
	}
}

func TestWriteServiceErrorCountsDenials(t *testing.T) {
	cases := []struct {
		reason string
		err    error
	}{
		{"unauthenticated", authz.ErrUnauthenticated},
		{"deactivated", authz.ErrDeactivated},
		{"cross_tenant", authz.ErrCrossTenant},
		{"insufficient_role", authz.ErrInsufficientRole},
	}

	for _, tc := range cases {
		t.Run(tc.reason, func(t *testing.T) {
			counter := obs.AuthzDenied.WithLabelValues(tc.reason)
			before := testutil.ToFloat64(counter)

			writeServiceError(httptest.NewRecorder(), tc.err)

			if got := testutil.ToFloat64(counter); got != before+1 {
				t.Errorf("AuthzDenied[%s] = %v, want %v", tc.reason, got, before+1)
			}
		})
	}

	// Denials are the only errors counted.
	other := testutil.ToFloat64(obs.AuthzDenied.WithLabelValues("insufficient_role"))
	writeServiceError(httptest.NewRecorder(), report.ErrNotFound)
	if got := testutil.ToFloat64(obs.AuthzDenied.WithLabelValues("insufficient_role")); got != other {
		t.Error("non-authz error incremented the denial counter")
	}
}
