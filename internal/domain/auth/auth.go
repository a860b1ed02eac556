package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrIncompleteClaims = errors.New("token claims cannot scope a request")
)

// clockSkew tolerates small clock drift against the issuing service.
const clockSkew = 30 * time.Second

type Claims struct {
	UserID       string `json:"uid"`
	TenantID     string `json:"tid"`
	RoleName     string `json:"role"`
	ContractorID string `json:"cid,omitempty"`
	jwt.RegisteredClaims
}

// Validate runs as part of parsing. A token must name a user, a tenant
// and a known role, and a contractor token must name its contractor.
func (c Claims) Validate() error {
	switch {
	case c.UserID == "" || c.TenantID == "":
		return fmt.Errorf("%w: user and tenant are required", ErrIncompleteClaims)
	case !KnownRole(c.RoleName):
		return fmt.Errorf("%w: unknown role %q", ErrIncompleteClaims, c.RoleName)
	case c.RoleName == RoleContractor && c.ContractorID == "":
		return fmt.Errorf("%w: contractor token without contractor id", ErrIncompleteClaims)
	}
	return nil
}

func (c Claims) User() UserContext {
	return UserContext{
		UserID:       c.UserID,
		TenantID:     c.TenantID,
		RoleName:     c.RoleName,
		ContractorID: c.ContractorID,
	}
}

// UserContext is the authenticated caller attached to a request.
type UserContext struct {
	UserID       string
	TenantID     string
	RoleName     string
	ContractorID string
}

func (u UserContext) IsContractor() bool {
	return u.RoleName == RoleContractor
}

// GenerateToken signs claims with HS256. Tokens are normally issued by the
// identity service; this exists for tests and local tooling.
func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}
