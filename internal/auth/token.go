package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/muaina/portal/internal/models"
)

type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Role  string `json:"role"`
	OrgID string `json:"organization_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken mints the portal session token for a verified principal.
// Credential verification itself belongs to the identity provider.
func IssueToken(secret []byte, u *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Sub:   u.ID.String(),
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if u.OrganizationID != nil {
		claims.OrgID = u.OrganizationID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
