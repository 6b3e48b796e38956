package principal

import (
	"context"

	"github.com/google/uuid"

	"github.com/muaina/portal/internal/models"
)

type contextKey string

const (
	userKey contextKey = "user"
	orgKey  contextKey = "organization"
)

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

func WithOrganization(ctx context.Context, o *models.Organization) context.Context {
	return context.WithValue(ctx, orgKey, o)
}

func OrganizationFromContext(ctx context.Context) *models.Organization {
	o, _ := ctx.Value(orgKey).(*models.Organization)
	return o
}

// OrgIDFromContext returns the caller's own organization, uuid.Nil when
// the principal has no membership (admins, insurance without a tenant).
func OrgIDFromContext(ctx context.Context) uuid.UUID {
	if u := UserFromContext(ctx); u != nil && u.OrganizationID != nil {
		return *u.OrganizationID
	}
	return uuid.Nil
}
