package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/typerace/internal/config"
	"github.com/playperu/typerace/internal/database"
	"github.com/playperu/typerace/internal/game"
	"github.com/playperu/typerace/internal/handler/health"
	"github.com/playperu/typerace/internal/handler/play"
	"github.com/playperu/typerace/internal/handler/score"
	"github.com/playperu/typerace/internal/handler/text"
	"github.com/playperu/typerace/internal/migrations"
	"github.com/playperu/typerace/internal/scores"
	"github.com/playperu/typerace/internal/server"
	"github.com/playperu/typerace/internal/textpool"
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

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	checks := map[string]health.Checker{"sqlite": database.Checker{DB: db}}
	var store scores.Store = scores.NewSQLiteStore(db)

	// --- Redis (optional leaderboard cache) ---
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		checks["redis"] = scores.RedisChecker{Client: rdb}
		store = scores.NewCachedStore(store, rdb, cfg.LeaderboardCacheTTL, logger)
	}

	// --- Race rooms ---
	hub := game.NewHub(logger)
	texts := textpool.Default()
	coord := game.NewCoordinator(logger, game.NewRegistry(nil), hub, texts,
		game.WithTimings(game.Timings{
			CountdownFrom:     cfg.CountdownFrom,
			CountdownInterval: cfg.CountdownInterval,
			RaceDuration:      cfg.RaceDuration,
			Retention:         cfg.RoomRetention,
		}),
	)

	// --- HTTP Server ---
	srv := server.New(server.Config{
		Addr:           cfg.HTTPAddr,
		AllowedOrigins: cfg.AllowedOrigins,
		SPADir:         cfg.SPADir,
	}, logger, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
		r.Mount("/api/text", text.NewHandler(logger, texts).Routes())
		r.Mount("/api/score", score.NewHandler(logger, store).Routes())
		r.Mount("/ws", play.NewHandler(logger, coord, hub,
			play.WithOriginPatterns(originPatterns(cfg.AllowedOrigins)...),
			play.WithRateLimit(cfg.WSMessageRate, cfg.WSMessageBurst),
		).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		err := srv.Shutdown(context.Background())
		coord.Shutdown()
		return err
	})

	return g.Wait()
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

// originPatterns turns configured origins into the host patterns the
// websocket handshake matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return patterns
}
