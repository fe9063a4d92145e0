package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/retainflow/agent/identity"
	"github.com/BaSui01/retainflow/agent/intent"
	"github.com/BaSui01/retainflow/agent/orchestrator"
	"github.com/BaSui01/retainflow/agent/processor"
	"github.com/BaSui01/retainflow/agent/retention"
	"github.com/BaSui01/retainflow/config"
	"github.com/BaSui01/retainflow/internal/cache"
	"github.com/BaSui01/retainflow/internal/database"
	"github.com/BaSui01/retainflow/internal/metrics"
	"github.com/BaSui01/retainflow/internal/migration"
	"github.com/BaSui01/retainflow/llm"
	"github.com/BaSui01/retainflow/llm/providers/openaicompat"
	"github.com/BaSui01/retainflow/llm/retry"
	"github.com/BaSui01/retainflow/llm/tokenizer"
	"github.com/BaSui01/retainflow/rag"
	"github.com/BaSui01/retainflow/store/audit"
	"github.com/BaSui01/retainflow/store/customer"
	"github.com/BaSui01/retainflow/workflow"
)

// =============================================================================
// 🧩 组件装配
// =============================================================================

// app holds every long-lived component built from the config.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Collector

	redis     *cache.Manager
	db        *gorm.DB
	pool      *database.PoolManager
	customers customer.Store
	audit     *audit.Multi
	policies  *policyIndex
	provider  *openaicompat.Provider
	router    *workflow.Router

	closers []func() error
}

type appOptions struct {
	// metrics 为 nil 时不记录指标
	metrics *metrics.Collector
	// caller 覆盖默认的 OpenAI 兼容 provider（测试使用）
	caller llm.Caller
	// tokenizer 覆盖按模型选择的分词器
	tokenizer tokenizer.Tokenizer
	// onRateLimitWait 在每次限流等待前调用（CLI 打印提示）
	onRateLimitWait func(retry, maxRetries int, delay time.Duration)
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts appOptions) (a *app, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a = &app{cfg: cfg, logger: logger, metrics: opts.metrics}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	if err = a.openBackends(ctx); err != nil {
		return nil, err
	}
	if err = a.openStores(ctx); err != nil {
		return nil, err
	}

	a.policies = newPolicyIndex(cfg.Retrieval, logger)
	if _, err = a.policies.Reload(ctx); err != nil {
		return nil, fmt.Errorf("build policy index: %w", err)
	}

	if err = a.buildRouter(opts); err != nil {
		return nil, err
	}
	return a, nil
}

// openBackends 连接 Redis 与数据库（按需）
func (a *app) openBackends(ctx context.Context) error {
	connect := connectRetryer(a.cfg.Retry, a.logger)

	if a.cfg.NeedsRedis() {
		m, err := retry.DoTyped(ctx, connect, func() (*cache.Manager, error) {
			return cache.NewManager(ctx, cache.FromRedisConfig(a.cfg.Redis), a.logger)
		})
		if err != nil {
			return err
		}
		a.redis = m
		a.closers = append(a.closers, m.Close)
	}

	if a.cfg.NeedsDatabase() {
		db, pool, err := openDatabase(ctx, a.cfg.Database, connect, a.logger)
		if err != nil {
			return err
		}
		a.db, a.pool = db, pool
		a.closers = append(a.closers, pool.Close)
		if a.metrics != nil {
			stats := pool.Stats()
			a.metrics.RecordDBConnections(a.cfg.Database.Driver, stats.OpenConnections, stats.Idle)
		}
	}
	return nil
}

// openStores 构建客户存储、审计 sink
func (a *app) openStores(ctx context.Context) error {
	store, err := customer.New(a.cfg.Customers, a.db, a.logger)
	if err != nil {
		return err
	}
	if a.cfg.Customers.CacheTTL > 0 {
		store = cache.NewCustomerCache(store, a.redis, a.cfg.Customers.CacheTTL, a.logger)
	}
	a.customers = store

	var observer audit.ResultObserver
	if a.metrics != nil {
		observer = a.metrics
	}
	sinks, err := audit.Build(ctx, a.cfg, audit.Deps{
		DB:       a.db,
		Redis:    a.redisClient(),
		Observer: observer,
		Logger:   a.logger,
	})
	if err != nil {
		return fmt.Errorf("build audit sinks: %w", err)
	}
	a.audit = sinks
	a.closers = append(a.closers, sinks.Close)
	a.logger.Info("audit sinks ready", zap.Strings("sinks", sinks.Names()))
	return nil
}

// buildRouter 构建 LLM 调用链、各 agent 与路由器
func (a *app) buildRouter(opts appOptions) error {
	cfg := a.cfg

	caller := opts.caller
	if caller == nil {
		a.provider = openaicompat.New(openaicompat.Config{
			ProviderName:      cfg.LLM.Provider,
			APIKey:            cfg.LLM.APIKey,
			BaseURL:           cfg.LLM.BaseURL,
			DefaultModel:      cfg.LLM.Model,
			Timeout:           cfg.LLM.Timeout,
			RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		}, a.logger)
		caller = a.provider
	}
	if a.metrics != nil {
		caller = llm.Instrument(caller, cfg.LLM.Provider, a.metrics)
	}

	onWait := opts.onRateLimitWait
	if a.metrics != nil {
		record, notify := a.metrics.RecordRateLimitWait, opts.onRateLimitWait
		onWait = func(retry, maxRetries int, delay time.Duration) {
			record(retry, maxRetries, delay)
			if notify != nil {
				notify(retry, maxRetries, delay)
			}
		}
	}
	caller = retry.NewRateLimitRetryer(caller, retry.RateLimitPolicy{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay,
		OnWait:     onWait,
	}, a.logger)

	rules, err := retention.LoadRules(cfg.Policy.RulesPath)
	if err != nil {
		a.logger.Warn("retention rules unavailable, using default offers",
			zap.String("path", cfg.Policy.RulesPath), zap.Error(err))
		rules = nil
	}

	tok := opts.tokenizer
	if tok == nil {
		tok = tokenizer.ForModel(cfg.LLM.Model, a.logger)
	}

	retainer := retention.NewAgent(
		caller,
		retention.NewCalculator(rules),
		rag.NewSafeSearcher(a.policies, a.logger),
		tok,
		retention.Config{
			Model:           cfg.LLM.Model,
			Temperature:     cfg.LLM.Temperature,
			PolicyTopK:      cfg.Retrieval.TopK,
			PolicyMaxTokens: cfg.Retrieval.MaxTokens,
			OfferSoftCap:    cfg.Policy.OfferSoftCap,
		},
		a.logger,
	)

	deps := workflow.Deps{
		Identifier: identity.New(a.customers, a.logger),
		Classifier: intent.New(caller, intent.Config{
			Model:            cfg.LLM.Model,
			Temperature:      cfg.LLM.Temperature,
			TechnicalLexicon: cfg.Policy.TechnicalLexicon,
		}, a.logger),
		Orchestrator: orchestrator.New(caller, orchestrator.Config{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
		}, a.logger),
		Retention: retainer,
		Escalation: retention.NewEscalationPolicy(retention.Lexicon{
			Insistence: cfg.Policy.Insistence,
			Refusal:    cfg.Policy.Refusal,
		}, cfg.Policy.MinOffersBeforeEscalation),
		Processor: processor.New(a.audit, a.customers, caller, processor.Config{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
		}, a.logger),
	}
	if a.metrics != nil {
		deps.Metrics = a.metrics
	}

	router, err := workflow.NewRouter(deps, workflow.Options{Logger: a.logger})
	if err != nil {
		return err
	}
	a.router = router
	return nil
}

func (a *app) redisClient() redis.UniversalClient {
	if a.redis == nil {
		return nil
	}
	return a.redis.Client()
}

// Close releases everything in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// =============================================================================
// 🗄️ 数据库
// =============================================================================

// connectRetryer waits for databases and Redis at startup.
func connectRetryer(cfg config.RetryConfig, logger *zap.Logger) retry.Retryer {
	policy := retry.DefaultBackoffPolicy()
	policy.MaxRetries = cfg.ConnectRetries
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("dependency not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}
	return retry.NewBackoffRetryer(policy, logger)
}

// openDatabase opens the configured database, applies pool limits and runs
// migrations when auto_migrate is set. Open and ping are retried by connect.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, connect retry.Retryer, logger *zap.Logger) (*gorm.DB, *database.PoolManager, error) {
	var (
		db   *gorm.DB
		pool *database.PoolManager
	)
	err := connect.Do(ctx, func() error {
		var err error
		if db, err = database.Open(cfg, logger); err != nil {
			return err
		}
		if pool, err = database.NewPoolManager(db, database.PoolConfigFrom(cfg), logger); err != nil {
			return err
		}
		if err = pool.Ping(ctx); err != nil {
			_ = pool.Close()
			return fmt.Errorf("database ping failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if cfg.AutoMigrate {
		if err := migrateUp(ctx, cfg, db, logger); err != nil {
			_ = pool.Close()
			return nil, nil, err
		}
	}
	return db, pool, nil
}

func newMigrator(cfg config.DatabaseConfig, db *gorm.DB, logger *zap.Logger) (migration.Migrator, error) {
	return migration.New(cfg, db, logger, &customer.Customer{}, &audit.Entry{})
}

func migrateUp(ctx context.Context, cfg config.DatabaseConfig, db *gorm.DB, logger *zap.Logger) error {
	m, err := newMigrator(cfg, db, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(ctx); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}
	logger.Info("database migrated", zap.String("driver", cfg.Driver))
	return nil
}
