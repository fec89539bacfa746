// Package auth issues and validates the JWTs that identify callers. The
// ingestion core never inspects credentials itself; it only receives the
// Identity extracted here.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload. Role distinguishes interactive users from
// devices; DeviceID is set only on device tokens.
type Claims struct {
	Role     string `json:"role"`
	DeviceID string `json:"device_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller as seen by services: an opaque subject
// plus a coarse role. A nil *Identity means an anonymous caller.
type Identity struct {
	Subject string
	Role    string
}

// Manager signs and validates tokens with a shared HMAC secret.
type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Issue creates a signed token for the subject with the given role and TTL.
// deviceID may be empty for interactive users.
func (m *Manager) Issue(subject, role, deviceID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:     role,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, returning its claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return &claims, nil
}

// IdentityFromClaims reduces validated claims to the opaque caller identity
// consumed by the ingestion core.
func IdentityFromClaims(c *Claims) *Identity {
	if c == nil {
		return nil
	}
	return &Identity{Subject: c.Subject, Role: c.Role}
}
