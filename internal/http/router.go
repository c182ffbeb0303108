package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/contacthub/contacthub/internal/auth"
	"github.com/contacthub/contacthub/internal/cache"
	"github.com/contacthub/contacthub/internal/config"
	"github.com/contacthub/contacthub/internal/http/handlers"
	"github.com/contacthub/contacthub/internal/http/middlewares"
	"github.com/contacthub/contacthub/internal/observability"
	"github.com/contacthub/contacthub/internal/repo/postgres"
)

const maxRequestBody = 1 << 20 // 1 MiB

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, listCache cache.Cache, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// metrics registry with process/go collectors plus our own series
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxRequestBody))
	r.Use(otelgin.Middleware("contacthub"))
	r.Use(prom.GinHandleMiddleware())

	// health
	ping := func(ctx context.Context) error {
		if pool == nil {
			return nil
		}

		pctx, cancel := context.WithTimeout(ctx, 1*time.Second)
		defer cancel()

		return pool.Ping(pctx)
	}

	healthHandler := handlers.NewHealthHandler(ping)
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories
	accountsRepo := postgres.NewAccountsRepo(pool, prom)
	contactsRepo := postgres.NewContactsRepo(pool, prom)
	sessionsRepo := postgres.NewSessionsRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.SessionSecret, cfg.SessionTTL)

	authHandler := handlers.NewAuthHandler(accountsRepo, accountsRepo, sessionsRepo, jwtManager, cfg)
	contactsHandler := handlers.NewContactsHandler(contactsRepo, listCache)

	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)

	// everything below requires a live session
	authMw := middlewares.NewAuthMiddleware(jwtManager, sessionsRepo, accountsRepo)

	protected := r.Group("/", authMw.RequireSession())
	protected.GET("/me", authHandler.Me)
	protected.GET("/contacts", contactsHandler.ListContacts)
	protected.POST("/contacts", contactsHandler.CreateContact)
	protected.GET("/contacts/:id", contactsHandler.GetContactById)
	protected.PUT("/contacts/:id", contactsHandler.UpdateContact)
	protected.DELETE("/contacts/:id", contactsHandler.DeleteContact)

	return r
}
