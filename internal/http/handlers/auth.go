package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contacthub/contacthub/internal/auth"
	"github.com/contacthub/contacthub/internal/config"
	"github.com/contacthub/contacthub/internal/domain/account"
	"github.com/contacthub/contacthub/internal/http/middlewares"
	"github.com/contacthub/contacthub/internal/repo/postgres"
	"github.com/contacthub/contacthub/internal/security"
	"github.com/contacthub/contacthub/internal/validate"
)

type AccountReader interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
}

type AccountWriter interface {
	Create(ctx context.Context, email, passwordHash string) (account.Account, error)
}

type SessionWriter interface {
	Create(ctx context.Context, row postgres.SessionRow) error
	Revoke(ctx context.Context, id string) error
}

type AuthHandler struct {
	accounts      AccountReader
	accountWriter AccountWriter
	sessions      SessionWriter
	jwt           *auth.Manager
	cfg           config.Config
}

func NewAuthHandler(accounts AccountReader, accountWriter AccountWriter, sessions SessionWriter, jwtManager *auth.Manager, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		accounts:      accounts,
		accountWriter: accountWriter,
		sessions:      sessions,
		jwt:           jwtManager,
		cfg:           cfg,
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req account.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	err := validate.PasswordPolicy(req.Password)

	if err != nil {
		RespondBadRequest(ctx, "weak_password", err.Error())
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create account")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	_, err = h.accountWriter.Create(cctx, req.Email, hash)

	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			RespondBadRequest(ctx, "email_taken", "User already exists")
			return
		}

		RespondInternal(ctx, "Could not create account")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"success": true})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req account.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	acct, err := h.accounts.GetByEmail(cctx, req.Email)

	if err != nil {
		// unknown email and wrong password are indistinguishable to the caller
		RespondUnAuthorized(ctx, "invalid_credentials", "Invalid credentials")
		return
	}

	err = security.CheckPassword(acct.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Invalid credentials")
		return
	}

	raw, jti, expiresAt, err := h.jwt.Issue(acct.ID, acct.Email)

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	row := postgres.SessionRow{
		ID:        jti,
		AccountID: acct.ID,
		TokenHash: h.jwt.HashToken(raw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	err = h.sessions.Create(cctx, row)

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.setSessionCookie(ctx, raw)

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw, err := ctx.Cookie(middlewares.SessionCookieName)

	if err != nil || raw == "" {
		// still clear cookie to be safe
		h.clearSessionCookie(ctx)
		ctx.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	claims, err := h.jwt.Verify(raw)

	if err != nil {
		h.clearSessionCookie(ctx)
		ctx.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	// revoke is idempotent
	_ = h.sessions.Revoke(cctx, claims.JTI)

	h.clearSessionCookie(ctx)
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	id, ok := middlewares.AccountIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Unauthorized")
		return
	}

	email, _ := middlewares.EmailFromContext(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"id":    id,
		"email": email,
	})
}

// Cookie helpers

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, raw string) {
	secure := h.cfg.Env == "prod"

	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		middlewares.SessionCookieName,
		raw,
		int(h.jwt.TTL().Seconds()),
		"/",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		middlewares.SessionCookieName,
		"",
		-1,
		"/",
		"",
		secure,
		true,
	)
}
