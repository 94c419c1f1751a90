// Package token mints and verifies the signed access tokens that carry an
// account identity between sign-in and authenticated requests.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/ParkPassport/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an access token.
type Claims struct {
	AccountID int64  `json:"accountId"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 tokens with a shared secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager. A zero ttl issues tokens without expiry.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints a token for acc.
func (m *Manager) Issue(acc models.Account) (string, error) {
	now := m.now()
	claims := Claims{
		AccountID: acc.ID,
		Username:  acc.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  fmt.Sprint(acc.ID),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses raw and returns its claims if the signature and expiry are valid.
func (m *Manager) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if claims.AccountID <= 0 {
		return nil, errors.New("verify token: missing account id")
	}
	return claims, nil
}
