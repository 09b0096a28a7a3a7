package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/Segu-g/NicomView/internal/broadcast"
	"github.com/Segu-g/NicomView/internal/comment"
	"github.com/Segu-g/NicomView/internal/domain"
	"github.com/Segu-g/NicomView/internal/httpserver"
	"github.com/Segu-g/NicomView/internal/platform/config"
	"github.com/Segu-g/NicomView/internal/platform/logging"
	"github.com/Segu-g/NicomView/internal/plugin"
	"github.com/Segu-g/NicomView/internal/provider"
	"github.com/Segu-g/NicomView/internal/tts"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *httpserver.Server, pushServer *http.Server, supervisor *comment.Manager, hub *broadcast.Hub, ttsManager *tts.Manager) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		supervisor.Disconnect()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
		if err := pushServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Push server shutdown error", "error", err)
		}

		hub.Stop()
		ttsManager.Dispose()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "http_port", cfg.HTTPPort, "push_port", cfg.PushPort)

	plugins := plugin.NewManager(cfg.UserDataDir, cfg.BuiltinPluginDir, cfg.ExternalPluginDir)

	ttsManager := tts.NewManager(cfg.UserDataDir, clock)
	ttsManager.RegisterAdapter(tts.NewBouyomichanAdapter(nil))
	ttsManager.RegisterAdapter(tts.NewVoicevoxAdapter(nil, tts.NewCommandPlayer(cfg.AudioPlayerCommand)))

	hub := broadcast.NewHub(clock, cfg.MaxOverlayClients)

	factory := provider.NewWebSocketFactory(cfg.ProviderURL)
	supervisor := comment.NewManager(factory, hub, ttsManager, func(state domain.ConnectionState) {
		slog.Info("Connection state changed", "state", state)
	})

	srv := httpserver.NewServer(cfg, supervisor, plugins, ttsManager, hub)
	pushServer := &http.Server{
		Addr:              ":" + cfg.PushPort,
		Handler:           hub,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := runGracefulShutdown(srv, pushServer, supervisor, hub, ttsManager)

	var group errgroup.Group
	group.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		slog.Info("Starting push server", "port", cfg.PushPort)
		if err := pushServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
