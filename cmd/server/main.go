package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whisperly/backend/internal/auth"
	"github.com/whisperly/backend/internal/config"
	"github.com/whisperly/backend/internal/inbox"
	"github.com/whisperly/backend/internal/middleware"
	"github.com/whisperly/backend/internal/server"
	"github.com/whisperly/backend/internal/story"
	"github.com/whisperly/backend/internal/store"
)

func main() {
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.PostgresDSN == "" {
		fatal("POSTGRES_DSN environment variable is not set", nil)
	}

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		fatal("postgres connect", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		fatal("postgres migrate", err)
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		fatal("redis connect", err)
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb)

	// ── Services ─────────────────────────────────────────────
	inboxSvc := inbox.NewService(pgStore)
	storySvc := story.NewService(pgStore)

	if cfg.StoryPurgeInterval > 0 {
		go storySvc.RunPurger(ctx, cfg.StoryPurgeInterval)
	}

	limiter := middleware.NewIPRateLimiter(ctx, cfg.AuthRateLimit, cfg.AuthRateWindow, middleware.CleanupOpts{
		TTL:      10 * time.Minute,
		Interval: time.Minute,
	})

	// ── Router ───────────────────────────────────────────────
	handler := server.NewRouter(server.Deps{
		Auth:        auth.NewHandler(pgStore, sessions, cfg.CookieSecure),
		Inbox:       inbox.NewHandler(inboxSvc),
		Stories:     story.NewHandler(storySvc),
		Sessions:    sessions,
		AuthLimiter: limiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("backend listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Error("shutdown", slog.Any("error", err))
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
