package authz

import "errors"

var (
	// ErrUnauthenticated maps to 401: no verified principal on the request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrDeactivated maps to 401: credentials were valid but the principal
	// has been deactivated. Any live session must be invalidated.
	ErrDeactivated = errors.New("account deactivated")

	// ErrCrossTenant maps to 403. Handlers must not reveal whether the
	// resource exists when this is the reason for denial.
	ErrCrossTenant = errors.New("cross-tenant access denied")

	// ErrInsufficientRole maps to 403: authenticated, wrong role.
	ErrInsufficientRole = errors.New("insufficient role")
)
