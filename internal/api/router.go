package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tobenna/launchpad/internal/api/handler"
	"github.com/tobenna/launchpad/internal/api/middleware"
	"github.com/tobenna/launchpad/internal/config"
	"github.com/tobenna/launchpad/internal/idempotency"
	"github.com/tobenna/launchpad/internal/service"
)

// Router wires middleware and handlers into the HTTP surface.
type Router struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *pgxpool.Pool
	redis     redis.Cmdable
	idemStore *idempotency.Store
	auth      *handler.AuthHandler
	health    *handler.HealthHandler
	wallets   *handler.WalletHandler
	projects  *handler.ProjectHandler
	launch    *handler.LaunchHandler
	disperse  *handler.DisperseHandler
}

type Services struct {
	Projects     *service.ProjectService
	Funding      *service.FundingService
	Disperser    *service.DisperseService
	Orchestrator *service.LaunchOrchestrator
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, redisClient redis.Cmdable, idemStore *idempotency.Store, custodianHandler *handler.WalletHandler, svcs Services) *Router {
	return &Router{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		redis:     redisClient,
		idemStore: idemStore,
		auth:      handler.NewAuthHandler(),
		health:    handler.NewHealthHandler(db, redisClient),
		wallets:   custodianHandler,
		projects:  handler.NewProjectHandler(svcs.Projects, svcs.Funding),
		launch:    handler.NewLaunchHandler(svcs.Projects, svcs.Orchestrator),
		disperse:  handler.NewDisperseHandler(svcs.Disperser),
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(chiMiddleware.NoCache)

	// Operational endpoints, no auth.
	r.Get("/healthz", api.health.Live)
	r.Get("/readyz", api.health.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/v1/auth/login", api.auth.Login)
	})

	// Protected routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Route("/v1/wallets", func(r chi.Router) {
			r.Get("/", api.wallets.List)
			r.Post("/", api.wallets.Create)
			r.Post("/import", api.wallets.Import)
			r.Get("/mnemonic", api.wallets.GenerateMnemonic)
			r.Put("/{id}/creator", api.wallets.SetCreator)
			r.Delete("/{id}", api.wallets.Delete)
		})

		r.Route("/v1/projects", func(r chi.Router) {
			r.Get("/", api.projects.List)
			r.Post("/", api.projects.Create)
			r.Get("/{id}", api.projects.Get)
			r.Get("/{id}/assignments", api.projects.Assignments)
			r.Post("/{id}/funding", api.projects.ConfigureFunding)
			r.Get("/{id}/funding", api.projects.VerifyFunding)
			r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).Post("/{id}/fund", api.projects.Fund)
			r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).Post("/{id}/launch", api.launch.Launch)
		})

		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).Post("/v1/disperse", api.disperse.Disperse)
	})

	return r
}
