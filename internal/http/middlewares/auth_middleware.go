package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contacthub/contacthub/internal/auth"
	"github.com/contacthub/contacthub/internal/config"
	"github.com/contacthub/contacthub/internal/domain/account"
	"github.com/contacthub/contacthub/internal/repo/postgres"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

// Small interfaces so tests can fake each collaborator independently.
type TokenVerifier interface {
	Verify(token string) (*auth.SessionClaims, error)
	HashToken(raw string) string
}

type SessionStore interface {
	Get(ctx context.Context, id string) (postgres.SessionRow, error)
}

type AccountReader interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

type AuthMiddleware struct {
	tokens   TokenVerifier
	sessions SessionStore
	accounts AccountReader
}

func NewAuthMiddleware(tokens TokenVerifier, sessions SessionStore, accounts AccountReader) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		sessions: sessions,
		accounts: accounts,
	}
}

// RequireSession resolves the session cookie to an account before the
// handler runs. Every failure mode collapses into the same 401; protected
// handlers never execute without a resolved account on the context.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookieName)

		if err != nil || raw == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := m.tokens.Verify(raw)

		if err != nil {
			abortUnauthorized(c)
			return
		}

		cctx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		row, err := m.sessions.Get(cctx, claims.JTI)

		if err != nil {
			abortUnauthorized(c)
			return
		}

		if row.RevokedAt != nil || time.Now().UTC().After(row.ExpiresAt) {
			abortUnauthorized(c)
			return
		}

		// prevents token substitution against a live session row
		if row.TokenHash != m.tokens.HashToken(raw) {
			abortUnauthorized(c)
			return
		}

		acct, err := m.accounts.GetByID(cctx, row.AccountID)

		if err != nil {
			// account deleted after the session was issued
			abortUnauthorized(c)
			return
		}

		c.Set(CtxAccountID, acct.ID)
		c.Set(CtxEmail, acct.Email)
		c.Set(CtxSessionJTI, row.ID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": "Unauthorized",
		},
	})
}

// Helpers so handlers don't need to know the magic keys.

func AccountIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxAccountID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxEmail)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}

func SessionJTIFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxSessionJTI)
	if !ok {
		return "", false
	}
	jti, ok := v.(string)
	return jti, ok && jti != ""
}
