// Package auth mints and verifies the signed session tokens carried in the
// session cookie. A token is an HS256 JWT holding the account id and a random
// jti; the jti keys a server-side session row so logout can revoke a token
// before it expires.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid session token")

type SessionClaims struct {
	AccountID string `json:"sub"`
	Email     string `json:"email"`
	JTI       string `json:"jti"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL reports the configured session lifetime; the cookie MaxAge mirrors it.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a session token for the account. The returned jti identifies
// the session row, expiresAt bounds both the token and the row.
func (m *Manager) Issue(accountID, email string) (raw string, jti string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	jti = uuid.NewString()
	expiresAt = now.Add(m.ttl)

	claims := SessionClaims{
		AccountID: accountID,
		Email:     email,
		JTI:       jti,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   accountID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	raw, err = token.SignedString(m.secret)

	return
}

// Verify checks signature and expiry and returns the claims. Revocation is
// the session store's concern, not handled here.
func (m *Manager) Verify(tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)

	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.JTI == "" || claims.AccountID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// HashToken is a deterministic HMAC of the raw token, keyed by the signing
// secret. Only this digest is stored server-side, never the raw token.
func (m *Manager) HashToken(raw string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}
