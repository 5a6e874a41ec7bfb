package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contact-gateway/contact"
	"contact-gateway/contact/application"
	"contact-gateway/contact/domain"
	"contact-gateway/contact/infra"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("gateway stopped", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	b, err := openBackends(gctx, cfg, logger, g)
	if err != nil {
		return err
	}
	defer b.close()

	verifier := infra.NewTurnstileVerifier(
		infra.WithEndpoint(cfg.TurnstileVerifyURL),
		infra.WithTimeout(cfg.TurnstileTimeout),
		infra.WithCallRate(cfg.TurnstileRPS, cfg.TurnstileBurst),
	)
	if cfg.TurnstileSecret == "" && cfg.TurnstileBypass != application.BypassFlagValue {
		logger.Warn("TURNSTILE_SECRET_KEY is not set; every submission will be rejected with 503")
	}

	if hint := cfg.productionDomainHint(); hint != "" {
		logger.Warn(hint)
	}

	dcfg := cfg.domainConfig()
	gw := application.NewGateway(dcfg, application.Deps{
		Verifier:    verifier,
		Counters:    b.counters,
		Submissions: b.submissions,
		Secret:      cfg.TurnstileSecret,
		Bypass:      cfg.TurnstileBypass,
		Logger:      logger,
	})

	prom := infra.NewPrometheusStats()
	stats := infra.MultiStats{prom}
	if b.stats != nil {
		stats = append(stats, b.stats)
	}

	keyFn := contact.ClientIP(cfg.ClientIPHeader, cfg.TrustXFF)

	var h http.Handler = contact.NewHandler(contact.Options{
		Gateway:      gw,
		Stats:        stats,
		KeyFn:        keyFn,
		Logger:       logger,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	h = contact.Routes(cfg.ContactPath, application.NewOriginPolicy(dcfg), h)
	h = contact.ConcurrencyMiddleware(contact.ConcurrencyOptions{
		Max:            cfg.ConcurrencyMax,
		AcquireTimeout: cfg.ConcurrencyTimeout,
		Stats:          stats,
		Logger:         logger,
		KeyFn:          keyFn,
	})(h)
	h = contact.RequestLogger(logger, keyFn)(h)
	h = contact.Recover(logger)(h)

	servers := []*http.Server{newServer(cfg.ListenAddr, h)}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", prom.Handler())
		servers = append(servers, newServer(cfg.MetricsAddr, mux))
	}

	logger.Info("contact gateway starting",
		zap.String("addr", cfg.ListenAddr),
		zap.String("path", cfg.ContactPath),
		zap.String("productionOrigin", cfg.ProductionOrigin),
		zap.String("kvBackend", cfg.KVBackend),
		zap.String("submissionBackend", cfg.SubmissionBackend),
		zap.Int("rateLimit", cfg.RateLimit),
		zap.Duration("rateWindow", cfg.RateWindow),
		zap.Int("concurrencyMax", cfg.ConcurrencyMax),
		zap.Bool("statsEnabled", cfg.StatsEnabled),
		zap.String("metricsAddr", cfg.MetricsAddr),
	)

	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		logger.Info("contact gateway stopped")
		return errors.Join(errs...)
	})

	return g.Wait()
}

func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}

// backends guarda os stores abertos e o que precisa ser fechado no fim.
type backends struct {
	counters    domain.KVStore
	submissions domain.KVStore
	stats       domain.StatsStore
	closers     []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends abre cada backend uma única vez, mesmo que counters e
// submissions usem o mesmo. Tarefas de manutenção (janitor, purge) rodam no g.
func openBackends(ctx context.Context, cfg config, logger *zap.Logger, g *errgroup.Group) (*backends, error) {
	b := &backends{}
	opened := map[string]domain.KVStore{}

	var rdb *redis.Client
	redisClient := func() (*redis.Client, error) {
		if rdb != nil {
			return rdb, nil
		}
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		b.closers = append(b.closers, func() { _ = rdb.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if _, err := rdb.Ping(pingCtx).Result(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return rdb, nil
	}

	open := func(name string) (domain.KVStore, error) {
		if s, ok := opened[name]; ok {
			return s, nil
		}
		var store domain.KVStore
		switch name {
		case backendMemory:
			mem := infra.NewMemoryKV()
			mem.StartJanitor(ctx)
			logger.Warn("memory KV backend: counters and submissions are lost on restart")
			store = mem

		case backendRedis:
			c, err := redisClient()
			if err != nil {
				return nil, err
			}
			store = infra.NewRedisKV(c, infra.WithKeyPrefix(cfg.RedisPrefix))

		case backendPostgres:
			pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("postgres connect: %w", err)
			}
			b.closers = append(b.closers, pool.Close)

			pg := infra.NewPostgresKV(pool, infra.WithTable(cfg.PGTable))
			if err := pg.EnsureSchema(ctx); err != nil {
				return nil, err
			}
			g.Go(func() error {
				purgeExpired(ctx, pg, cfg.RateWindow, logger)
				return nil
			})
			store = pg

		case backendS3:
			client, err := infra.NewS3Client(ctx, infra.S3Settings{
				Region:    cfg.S3Region,
				Endpoint:  cfg.S3Endpoint,
				AccessKey: cfg.S3AccessKey,
				SecretKey: cfg.S3SecretKey,
			})
			if err != nil {
				return nil, err
			}
			store = infra.NewS3KV(client, cfg.S3Bucket, infra.WithObjectPrefix(cfg.S3Prefix))

		default:
			return nil, fmt.Errorf("unknown backend %q", name)
		}
		opened[name] = store
		return store, nil
	}

	var err error
	if b.counters, err = open(cfg.KVBackend); err != nil {
		b.close()
		return nil, err
	}
	if b.submissions, err = open(cfg.SubmissionBackend); err != nil {
		b.close()
		return nil, err
	}

	if cfg.StatsEnabled {
		c, err := redisClient()
		if err != nil {
			b.close()
			return nil, err
		}
		b.stats = infra.NewRedisStatsStore(
			c,
			infra.WithStatsPrefix(cfg.StatsPrefix),
			infra.WithStatsTTL(cfg.StatsTTL),
			infra.WithStatsBucket(cfg.StatsBucket),
			infra.WithStatsTrackKeys(cfg.StatsTrackKeys),
		)
	}
	return b, nil
}

// purgeExpired apaga buckets vencidos do Postgres a cada janela até o ctx encerrar.
func purgeExpired(ctx context.Context, pg *infra.PostgresKV, every time.Duration, logger *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := pg.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("postgres purge failed", zap.Error(err))
				continue
			}
			logger.Debug("postgres purge", zap.Int64("rows", n))
		}
	}
}
