// AngelaMos | 2026
// app.go

package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/auratrack/auratrack-api/internal/admin"
	"github.com/auratrack/auratrack-api/internal/audit"
	"github.com/auratrack/auratrack-api/internal/auth"
	"github.com/auratrack/auratrack-api/internal/config"
	"github.com/auratrack/auratrack-api/internal/core"
	"github.com/auratrack/auratrack-api/internal/graph"
	"github.com/auratrack/auratrack-api/internal/health"
	"github.com/auratrack/auratrack-api/internal/metric"
	"github.com/auratrack/auratrack-api/internal/middleware"
	"github.com/auratrack/auratrack-api/internal/server"
	"github.com/auratrack/auratrack-api/internal/user"
)

const drainDelay = 5 * time.Second

// app owns every long-lived resource. Closers run in reverse order of
// acquisition.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	srv     *server.Server
	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, log: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	logger.Info("starting auratrack",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("tracing disabled", "error", telErr)
		} else {
			a.onClose(tel.Shutdown)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return db.Close() })

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	master, err := user.SeedMasterAdmin(ctx, db.DB, cfg.Admin.MasterEmail, cfg.Admin.MasterPassword)
	if err != nil {
		return nil, err
	}
	logger.Info("master admin ready", "user_id", master.ID)

	rdb, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return rdb.Close() })

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return nil, err
	}
	logger.Info("session signing key loaded", "key_id", jwtManager.GetKeyID())

	userSvc := user.NewService(user.NewRepository(db.DB))
	authSvc := auth.NewService(jwtManager, userSvc, rdb.Client, cfg.Session)

	auditRepo := audit.NewRepository(db.DB)
	auditSvc := audit.NewService(auditRepo)
	adminSvc := admin.NewService(userSvc, audit.NewRecorder(auditRepo))

	metricSvc := metric.NewService(
		metric.NewRedisStore(rdb.Client, cfg.Redis.MetricPrefix),
		metric.NewLogRepository(db.DB),
	)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "postgres", Pinger: db},
		health.Dependency{Name: "redis", Pinger: rdb},
	)

	a.srv = server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	r := a.srv.Router()
	r.Use(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recoverer,
		middleware.Metrics,
		middleware.SecurityHeaders(cfg.IsProduction()),
		middleware.CORS(cfg.CORS),
		middleware.Identify(authSvc, cfg.Session.CookieName),
		middleware.NewRateLimiter(rdb.Client, middleware.RateLimitConfig{
			Limit:   middleware.LimitFromConfig(cfg.RateLimit),
			KeyFunc: middleware.KeyByUser,
			Skip:    middleware.SkipOperational,
		}).Handler,
	)

	healthHandler.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	gql := graph.NewHandler(graph.NewSchema(graph.NewResolver(graph.Services{
		Auth:    authSvc,
		Admins:  adminSvc,
		Audit:   auditSvc,
		Metrics: metricSvc,
	}), cfg.GraphQL))
	r.Method(http.MethodGet, cfg.GraphQL.Path, gql)
	r.Method(http.MethodPost, cfg.GraphQL.Path, gql)

	ops := admin.NewHandler(adminSvc, auditSvc,
		admin.Dependency{Name: "postgres", Ping: db.Ping, Pool: admin.PostgresPool(db.Stats)},
		admin.Dependency{Name: "redis", Ping: rdb.Ping, Pool: admin.RedisPool(rdb.PoolStats)},
	)
	r.Route("/v1", func(r chi.Router) {
		ops.RegisterRoutes(r, middleware.RequireAdmin)
	})

	return a, nil
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// serve blocks until the listener fails or ctx is cancelled, then drains.
func (a *app) serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- a.srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down", "drain", drainDelay)

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		a.cfg.Server.ShutdownTimeout+drainDelay)
	defer cancel()

	return a.srv.Shutdown(shutdownCtx, drainDelay)
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Error("release resource", "error", err)
		}
	}
	a.closers = nil
	a.log.Info("auratrack stopped")
}
