package main

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/retainflow/agent/orchestrator"
	"github.com/BaSui01/retainflow/api/handlers"
	"github.com/BaSui01/retainflow/internal/metrics"
	"github.com/BaSui01/retainflow/internal/server"
	"github.com/BaSui01/retainflow/internal/telemetry"
	"github.com/BaSui01/retainflow/session"
	"github.com/BaSui01/retainflow/store/audit"
)

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs, configPath := commandFlags("serve", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting RetainFlow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	providers, err := telemetry.Init(ctx, cfg.Telemetry, Version, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := providers.Shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", zap.Error(err))
			}
		}()
	}

	a, err := newApp(ctx, cfg, logger, appOptions{metrics: metrics.NewCollector("retainflow", logger)})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()

	srv, err := newServer(a)
	if err != nil {
		return err
	}
	err = srv.Run(ctx)
	logger.Info("RetainFlow stopped")
	return err
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// healthPaths 不需要认证与限流
var healthPaths = []string{"/health", "/healthz", "/ready", "/readyz", "/version", "/metrics"}

type apiServer struct {
	app      *app
	store    session.Store
	sessions *session.Manager
	health   *handlers.HealthHandler
	logger   *zap.Logger
}

func newServer(a *app) (*apiServer, error) {
	store, err := session.NewStore(a.cfg.Session, a.redisClient(), a.logger)
	if err != nil {
		return nil, err
	}

	health := handlers.NewHealthHandler(a.logger)
	if a.pool != nil {
		health.RegisterCheck(handlers.NewCheck("database", a.pool.Ping))
	}
	if a.redis != nil {
		health.RegisterCheck(handlers.NewCheck("redis", a.redis.Ping))
	}

	return &apiServer{
		app:      a,
		store:    store,
		sessions: session.NewManager(store, a.logger),
		health:   health,
		logger:   a.logger,
	}, nil
}

// Handler builds the routed API handler wrapped in the middleware chain.
func (s *apiServer) Handler(ctx context.Context, withMetrics bool) http.Handler {
	cfg := s.app.cfg
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health.HandleHealth)
	mux.HandleFunc("GET /healthz", s.health.HandleHealth)
	mux.HandleFunc("GET /ready", s.health.HandleReady)
	mux.HandleFunc("GET /readyz", s.health.HandleReady)
	mux.HandleFunc("GET /version", s.health.HandleVersion(Version, BuildTime, GitCommit))
	if withMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	conv := handlers.NewConversationHandler(s.app.router, s.sessions, orchestrator.Greeting, s.logger)
	mux.HandleFunc("POST /api/v1/conversations", conv.HandleStart)
	mux.HandleFunc("GET /api/v1/conversations/{id}", conv.HandleGet)
	mux.HandleFunc("DELETE /api/v1/conversations/{id}", conv.HandleEnd)
	mux.HandleFunc("POST /api/v1/conversations/{id}/messages", conv.HandleMessage)

	if s.app.db != nil && cfg.HasAuditSink(audit.SinkDatabase) {
		auditHandler := handlers.NewAuditHandler(audit.NewGormSink(s.app.db), s.logger)
		mux.HandleFunc("GET /api/v1/customers/{id}/audit", auditHandler.HandleList)
	}

	mux.Handle("GET /api/v1/ws", handlers.NewWSHandler(s.app.router, orchestrator.Greeting, handlers.WSConfig{
		OriginPatterns: cfg.Server.CORSAllowedOrigins,
	}, s.logger))

	chain := []Middleware{
		Recovery(s.logger),
		RequestID(),
		ClientIP(),
		OTelTracing(),
		RequestLogger(s.logger),
	}
	if s.app.metrics != nil {
		chain = append(chain, MetricsMiddleware(s.app.metrics))
	}
	chain = append(chain,
		SecurityHeaders(),
		CORS(cfg.Server.CORSAllowedOrigins),
		Auth(cfg.Auth, healthPaths, s.logger),
		RateLimiter(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, s.logger),
	)
	return Chain(mux, chain...)
}

// Run serves the API (and the metrics endpoint on its own port when
// configured) and watches the policy directory until ctx is done.
func (s *apiServer) Run(ctx context.Context) error {
	cfg := s.app.cfg
	separateMetrics := cfg.Server.MetricsPort > 0 && cfg.Server.MetricsPort != cfg.Server.HTTPPort

	g, gctx := errgroup.WithContext(ctx)

	api := server.NewManager("api", s.Handler(gctx, !separateMetrics), server.FromServerConfig(cfg.Server, cfg.Server.HTTPPort), s.logger)
	g.Go(func() error { return api.Run(gctx) })

	if separateMetrics {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		metricsCfg := server.FromServerConfig(cfg.Server, cfg.Server.MetricsPort)
		metricsCfg.CertFile, metricsCfg.KeyFile = "", ""
		m := server.NewManager("metrics", mux, metricsCfg, s.logger)
		g.Go(func() error { return m.Run(gctx) })
	}

	if mem, ok := s.store.(*session.MemoryStore); ok {
		g.Go(func() error { return sweepSessions(gctx, mem, time.Minute, s.logger) })
	}

	if cfg.Retrieval.ReloadInterval > 0 {
		g.Go(func() error { return s.app.policies.Watch(gctx, cfg.Retrieval.ReloadInterval) })
	}

	return g.Wait()
}

// sweepSessions drops expired in-memory conversations until ctx is done.
func sweepSessions(ctx context.Context, store *session.MemoryStore, interval time.Duration, logger *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				logger.Debug("expired conversations removed", zap.Int("count", n))
			}
		}
	}
}
