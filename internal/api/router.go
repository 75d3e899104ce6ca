package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/skypro/simplebanking/internal/api/handler"
	"github.com/skypro/simplebanking/internal/api/middleware"
	"github.com/skypro/simplebanking/internal/config"
	"github.com/skypro/simplebanking/internal/domain"
	"github.com/skypro/simplebanking/internal/service"
)

type Router struct {
	cfg      *config.Config
	logger   *zap.Logger
	pool     *pgxpool.Pool
	auth     *middleware.Auth
	users    *service.UserService
	accounts *service.AccountService
}

func NewRouter(cfg *config.Config, logger *zap.Logger, pool *pgxpool.Pool, users *service.UserService, accounts *service.AccountService) *Router {
	return &Router{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		auth:     middleware.NewAuth(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AdminBootstrapKey),
		users:    users,
		accounts: accounts,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))

	authHandler := handler.NewAuthHandler(api.users, api.auth)
	userHandler := handler.NewUserHandler(api.users)
	accountHandler := handler.NewAccountHandler(api.accounts)
	healthHandler := handler.NewHealthHandler(api.pool)

	// Public routes
	r.Get("/healthz", healthHandler.Healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/auth/login", authHandler.Login)

	// User creation is admitted by the bootstrap key header or an ADMIN token.
	r.With(api.auth.AdminGate).Post("/user", userHandler.CreateUser)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(api.auth.Middleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/user", userHandler.ListUsers)
		r.With(api.auth.RequireRole(domain.RoleAdmin)).Delete("/user/{id}", userHandler.DeleteUser)

		r.Get("/account", accountHandler.ListAccounts)
		r.Get("/account/{id}", accountHandler.GetAccount)
		r.With(api.auth.RequireRole(domain.RoleUser)).Post("/account/deposit/{id}", accountHandler.Deposit)
		r.With(api.auth.RequireRole(domain.RoleUser)).Post("/account/withdraw/{id}", accountHandler.Withdraw)
		r.With(api.auth.RequireRole(domain.RoleUser)).Put("/account/{srcId}/transfer/{dstId}/{amount}", accountHandler.Transfer)
	})

	return r
}
