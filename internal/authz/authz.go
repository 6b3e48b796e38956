package authz

import (
	"github.com/google/uuid"

	"github.com/muaina/portal/internal/models"
)

// Authorize decides whether principal may exercise cap against a resource
// owned by resourceOrg (nil for resources without an owning organization).
// Rules run in order: authentication, active status, tenant isolation,
// then the role capability matrix. A nil return is a pure Allow.
func Authorize(principal *models.User, cap Capability, resourceOrg *uuid.UUID) error {
	if principal == nil {
		return ErrUnauthenticated
	}
	if !principal.IsActive {
		return ErrDeactivated
	}

	if resourceOrg != nil && principal.Role != RoleAdmin && !crossTenantExempt(principal.Role, cap) {
		if principal.OrganizationID == nil || *principal.OrganizationID != *resourceOrg {
			return ErrCrossTenant
		}
	}

	if principal.Role == RoleAdmin {
		return nil
	}
	if !roleCapabilities[principal.Role][cap] {
		return ErrInsufficientRole
	}
	return nil
}

// crossTenantExempt covers the one sanctioned exemption from tenant
// isolation: insurance reviewers service organizations by explicit
// request, not by membership, so their search endpoint names the target
// organization in the query itself.
func crossTenantExempt(role string, cap Capability) bool {
	return role == RoleInsurance && (cap == CapPatientSearch || cap == CapReportRead)
}
