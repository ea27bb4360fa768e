package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/nihongowow/arcade/internal/audit"
	"github.com/nihongowow/arcade/internal/config"
	"github.com/nihongowow/arcade/internal/database"
	"github.com/nihongowow/arcade/internal/handler/health"
	"github.com/nihongowow/arcade/internal/hint"
	"github.com/nihongowow/arcade/internal/kana"
	"github.com/nihongowow/arcade/internal/migrations"
	"github.com/nihongowow/arcade/internal/play"
	"github.com/nihongowow/arcade/internal/provider"
	"github.com/nihongowow/arcade/internal/ratelimit"
	"github.com/nihongowow/arcade/internal/reading"
	"github.com/nihongowow/arcade/internal/server"
	"github.com/nihongowow/arcade/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite journal ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	version, err := migrations.Run(ctx, db)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath, "schema_version", version)
	journal := store.New(db)

	checks := []health.Check{{Name: "sqlite", Checker: database.Checker{DB: db}}}

	// --- Rate limits ---
	var limiter ratelimit.Limiter
	memLimiter := ratelimit.NewMemory()
	limiter = memLimiter
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")
		limiter = ratelimit.NewRedis(rdb, "arcade:ratelimit:")
		checks = append(checks, health.Check{Name: "redis", Checker: redisChecker{rdb}, Optional: true})
	}

	// --- Backend API ---
	api := provider.New(cfg.APIURL, cfg.APITimeout, logger)
	checks = append(checks, health.Check{Name: "api", Checker: health.CheckFunc(api.Ping)})

	var kanaSrc server.KanaTables = api
	if cfg.KanaSource == config.KanaLocal {
		kanaSrc = kana.Local{}
	}

	var hints play.Hinter = api
	if cfg.HintSource == config.HintsGemini {
		gen, err := hint.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("creating gemini client: %w", err)
		}
		hints = hint.New(gen, api)
		logger.Info("generating hints locally", "model", cfg.GeminiModel)
	}

	var readings *reading.Analyzer
	if cfg.ReadingsEnabled {
		if readings, err = reading.Shared(); err != nil {
			return fmt.Errorf("loading reading dictionary: %w", err)
		}
	}

	trail := audit.Nop()
	if cfg.AuditLog {
		if trail, err = audit.New(); err != nil {
			return fmt.Errorf("creating audit log: %w", err)
		}
		defer trail.Sync()
	}

	// --- Rounds ---
	rounds := play.NewManager(play.Deps{
		Kana:           kanaSrc,
		Vocabulary:     api,
		Quiz:           api,
		Hints:          hints,
		Speech:         api,
		Settings:       api,
		Preferences:    api,
		Scores:         api,
		Journal:        journal,
		Logger:         logger,
		SaladTimeLimit: cfg.SaladTimeLimit,
		SaladKana:      cfg.SaladKanaPerRound,
	})

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, server.Deps{
		Logger:   logger,
		API:      api,
		Rounds:   rounds,
		Kana:     kanaSrc,
		History:  journal,
		Limiter:  limiter,
		Audit:    trail,
		Readings: readings,
		Checks:   checks,
		SPADir:   cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return rounds.Run(gctx, time.Minute, cfg.RoundTTL)
	})

	g.Go(func() error {
		maintain(gctx, logger, journal, memLimiter, cfg.JournalRetention)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// maintain prunes the journal and the in-memory limiter every hour.
func maintain(ctx context.Context, logger *slog.Logger, journal *store.Store, limiter *ratelimit.Memory, retention time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		n, err := journal.Prune(ctx, time.Now().Add(-retention))
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Error("pruning journal", "error", err)
		case n > 0:
			logger.Info("pruned journal", "rounds", n)
		}
		limiter.Prune()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
