package authz

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/muaina/portal/internal/models"
)

func activeUser(role string, org *uuid.UUID) *models.User {
	return &models.User{ID: uuid.New(), Role: role, OrganizationID: org, IsActive: true}
}

func TestAuthorize(t *testing.T) {
	orgA := uuid.New()
	orgB := uuid.New()

	tests := []struct {
		name        string
		principal   *models.User
		cap         Capability
		resourceOrg *uuid.UUID
		wantErr     error
	}{
		{
			name:    "nil principal is unauthenticated",
			cap:     CapReportRead,
			wantErr: ErrUnauthenticated,
		},
		{
			name: "deactivated principal rejected regardless of role",
			principal: &models.User{
				ID: uuid.New(), Role: RoleAdmin, IsActive: false,
			},
			cap:     CapReportRead,
			wantErr: ErrDeactivated,
		},
		{
			name:        "pathologist reads own organization",
			principal:   activeUser(RolePathologist, &orgA),
			cap:         CapReportRead,
			resourceOrg: &orgA,
		},
		{
			name:        "pathologist denied another organization",
			principal:   activeUser(RolePathologist, &orgA),
			cap:         CapReportRead,
			resourceOrg: &orgB,
			wantErr:     ErrCrossTenant,
		},
		{
			name:        "principal without membership denied tenant resource",
			principal:   activeUser(RolePathologist, nil),
			cap:         CapReportRead,
			resourceOrg: &orgA,
			wantErr:     ErrCrossTenant,
		},
		{
			name:        "admin crosses tenants",
			principal:   activeUser(RoleAdmin, &orgA),
			cap:         CapReportRead,
			resourceOrg: &orgB,
		},
		{
			name:        "insurance searches any organization by request",
			principal:   activeUser(RoleInsurance, &orgA),
			cap:         CapPatientSearch,
			resourceOrg: &orgB,
		},
		{
			name:        "insurance may not review",
			principal:   activeUser(RoleInsurance, &orgA),
			cap:         CapReportReview,
			resourceOrg: &orgA,
			wantErr:     ErrInsufficientRole,
		},
		{
			name:      "pathologist may not write reference data",
			principal: activeUser(RolePathologist, &orgA),
			cap:       CapReferenceWrite,
			wantErr:   ErrInsufficientRole,
		},
		{
			name:      "director writes reference data",
			principal: activeUser(RoleDirector, &orgA),
			cap:       CapReferenceWrite,
		},
		{
			name:      "admin writes reference data",
			principal: activeUser(RoleAdmin, nil),
			cap:       CapReferenceWrite,
		},
		{
			name:        "pathologist may not delete files",
			principal:   activeUser(RolePathologist, &orgA),
			cap:         CapFileDelete,
			resourceOrg: &orgA,
			wantErr:     ErrInsufficientRole,
		},
		{
			name:      "unknown role has no capabilities",
			principal: activeUser("intern", &orgA),
			cap:       CapReportRead,
			wantErr:   ErrInsufficientRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.principal, tt.cap, tt.resourceOrg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTenantIsolationPrecedesRoleCheck(t *testing.T) {
	orgA := uuid.New()
	orgB := uuid.New()

	// An insurance principal lacking review capability on a foreign org
	// must see the tenant denial, not a role hint about the resource.
	err := Authorize(activeUser(RolePathologist, &orgA), CapReportReview, &orgB)
	if !errors.Is(err, ErrCrossTenant) {
		t.Fatalf("got %v, want ErrCrossTenant", err)
	}
}
