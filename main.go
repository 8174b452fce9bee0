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

	"github.com/mattn/go-isatty"

	"github.com/inho1628/korea-community-website/board"
	"github.com/inho1628/korea-community-website/config"
	"github.com/inho1628/korea-community-website/digest"
	"github.com/inho1628/korea-community-website/notify"
	"github.com/inho1628/korea-community-website/preview"
	"github.com/inho1628/korea-community-website/ranker"
	"github.com/inho1628/korea-community-website/scheduler"
	"github.com/inho1628/korea-community-website/storage"
	"github.com/inho1628/korea-community-website/web"
)

const sessionCleanupInterval = time.Hour

func main() {
	configPath := config.GetConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.SlogLevel())
	slog.SetDefault(logger)
	slog.Info("starting korea community board", "config", configPath)

	// Set up context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, storage.Options{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.DSN,
	})
	if err != nil {
		slog.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage opened", "driver", cfg.Storage.Driver)

	repo := storage.NewRepository(
		storage.Instrument(store, cfg.Storage.Driver, storage.WithLogger(logger)),
		storage.WithRepositoryLogger(logger),
	)

	opts := []board.Option{
		board.WithLogger(logger),
		board.WithRanker(ranker.NewRanker(ranker.WithFeaturedThreshold(cfg.FeaturedThreshold))),
		board.WithSessionTTL(cfg.SessionTTL()),
		board.WithBestCommentLimit(cfg.BestCommentLimit),
		board.WithPreviewer(previewAdapter{preview.NewFetcher(preview.WithTimeout(cfg.PreviewTimeout()))}),
		board.WithAdminPasswordHash([]byte(cfg.Admin.PasswordHash)),
	}

	var tg *notify.Telegram
	if cfg.Telegram.Enabled() {
		tg, err = notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, notify.WithLogger(logger))
		if err != nil {
			slog.Error("failed to initialize telegram", "error", err)
			os.Exit(1)
		}
		opts = append(opts, board.WithNotifier(tg))
		slog.Info("telegram notifications enabled", "chat_id", cfg.Telegram.ChatID)
	} else {
		opts = append(opts, board.WithNotifier(notify.Log{Logger: logger}))
		slog.Info("telegram not configured, notifications will be logged")
	}

	if cfg.Admin.PasswordHash == "" {
		slog.Warn("admin.password_hash not set, administrator login is disabled")
	}

	svc := board.New(repo, opts...)
	if err := svc.Seed(ctx); err != nil {
		slog.Error("failed to seed board", "error", err)
		os.Exit(1)
	}

	sched, err := scheduler.NewScheduler(cfg.Timezone, scheduler.WithLogger(logger))
	if err != nil {
		slog.Error("failed to initialize scheduler", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}
	if err := sched.Every("session-cleanup", sessionCleanupInterval, func(ctx context.Context) error {
		n, err := svc.CleanupSessions(ctx)
		if n > 0 {
			slog.Info("expired sessions removed", "count", n)
		}
		return err
	}); err != nil {
		slog.Error("failed to schedule session cleanup", "error", err)
		os.Exit(1)
	}

	if tg != nil {
		tg.ServeHotFeed(svc, cfg.HotFeedSize)
		runner := digest.NewRunner(svc, tg,
			digest.WithChatID(cfg.Telegram.ChatID),
			digest.WithPostCount(cfg.DigestCount),
			digest.WithLogger(logger),
		)
		if err := sched.Daily("digest", cfg.DigestTime, runner.Run); err != nil {
			slog.Error("failed to schedule digest", "error", err)
			os.Exit(1)
		}
		slog.Info("digest scheduled", "time", cfg.DigestTime, "timezone", cfg.Timezone)
		go tg.Listen(ctx)
	}

	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           web.New(svc,
			web.WithLogger(logger),
			web.WithHotFeedSize(cfg.HotFeedSize),
			web.WithSecureCookies(cfg.SecureCookies),
		).Handler(),
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	slog.Info("board stopped")
}

// newLogger writes readable text on a terminal and JSON otherwise.
func newLogger(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

type previewAdapter struct {
	f *preview.Fetcher
}

func (p previewAdapter) Preview(ctx context.Context, url string) (*board.LinkPreview, error) {
	res, err := p.f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return &board.LinkPreview{
		Title:    res.Title,
		Excerpt:  res.Excerpt,
		SiteName: res.SiteName,
		Image:    res.Image,
	}, nil
}
