package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vmunix/felscan/internal/api"
	"github.com/vmunix/felscan/internal/approval"
	"github.com/vmunix/felscan/internal/capability"
	"github.com/vmunix/felscan/internal/collection"
	"github.com/vmunix/felscan/internal/config"
	"github.com/vmunix/felscan/internal/coordinator"
	"github.com/vmunix/felscan/internal/events"
	"github.com/vmunix/felscan/internal/extractor"
	"github.com/vmunix/felscan/internal/monitor"
	"github.com/vmunix/felscan/internal/plexclient"
	"github.com/vmunix/felscan/internal/qbittorrent"
	"github.com/vmunix/felscan/internal/radarr"
	"github.com/vmunix/felscan/internal/store"
	"github.com/vmunix/felscan/internal/telegram"
	"github.com/vmunix/felscan/internal/tracker"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// qbittorrentAdapter adapts qbittorrent.Client's AddTorrentRequest to
// coordinator.DownloadRequest so internal/coordinator never imports
// internal/qbittorrent directly.
type qbittorrentAdapter struct {
	client *qbittorrent.Client
}

func (a *qbittorrentAdapter) AddTorrent(ctx context.Context, req coordinator.DownloadRequest) error {
	return a.client.AddTorrent(ctx, qbittorrent.AddTorrentRequest{
		URL:                req.URL,
		SavePath:           req.SavePath,
		Category:           req.Category,
		Paused:             req.Paused,
		SequentialDownload: req.SequentialDownload,
	})
}

func runServer(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	capabilityStore := capability.NewStore(db)
	eventLog := events.NewEventLog(db)
	bus := events.NewBus(eventLog, logger.With("component", "events"))
	defer func() { _ = bus.Close() }()

	plexClient := plexclient.New(cfg.Plex.URL, cfg.Plex.Token)
	radarrClient := radarr.New(cfg.Radarr.URL, cfg.Radarr.APIKey)
	telegramClient := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	qbClient, err := qbittorrent.New(cfg.QBittorrent.URL, cfg.QBittorrent.Username, cfg.QBittorrent.Password)
	if err != nil {
		return fmt.Errorf("create qbittorrent client: %w", err)
	}
	loginCtx, loginCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = qbClient.Login(loginCtx)
	loginCancel()
	if err != nil {
		return fmt.Errorf("qbittorrent login: %w", err)
	}

	policyStore := config.NewPolicyStore(cfg.Policy)

	coord := coordinator.New(
		capabilityStore,
		radarrClient,
		&qbittorrentAdapter{client: qbClient},
		nil, // proposer wired below, after the Dialogue exists
		bus,
		policyStore.Get,
		logger,
	)

	dialogue := approval.New(telegramClient, coord, capabilityStore, logger)
	coord.SetProposer(dialogue)

	if err := dialogue.Recover(); err != nil {
		logger.Error("approval recovery failed", "error", err)
	}

	ext := extractor.New(plexClient, capabilityStore, bus, logger)
	reconciler := collection.New(capabilityStore, plexClient, bus, logger)
	collections := collection.Definitions(cfg.Collections.AllDV, cfg.Collections.Profile7FEL, cfg.Collections.TrueHDAtmos)

	feed := tracker.New(cfg.Tracker.URL)

	runner := monitor.New(monitor.Config{
		ScanFrequency:       time.Duration(cfg.Scheduler.ScanFrequencyHours) * time.Hour,
		TrackerPollInterval: cfg.Tracker.PollInterval,
		PlexSection:         cfg.Plex.Section,
	}, ext, reconciler, coord, feed, collections, bus, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("monitor runner exited", "error", err)
		}
	}()

	mux := http.NewServeMux()
	apiServer, err := api.New(api.ServerDeps{
		Store:     capabilityStore,
		Scheduler: runner,
		Policy:    policyStore,
		Approvals: api.NewApprovals(coord),
	})
	if err != nil {
		return fmt.Errorf("create api: %w", err)
	}
	apiServer.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"database", cfg.Database.Path,
		"log_level", cfg.Server.LogLevel,
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           logRequests(mux, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
