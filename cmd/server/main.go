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

	"github.com/harrison001/NexusBot/internal/bot"
	"github.com/harrison001/NexusBot/internal/config"
	"github.com/harrison001/NexusBot/internal/logging"
	"github.com/harrison001/NexusBot/internal/media"
	"github.com/harrison001/NexusBot/internal/pdf"
	"github.com/harrison001/NexusBot/internal/server"
	"github.com/harrison001/NexusBot/internal/session"
	"github.com/harrison001/NexusBot/internal/telegram"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupBot(cfg *config.Config) *telegram.Client {
	client, err := telegram.NewClient(cfg.BotToken)
	if err != nil {
		slog.Error("Failed to create bot client", "error", err)
		os.Exit(1)
	}
	slog.Info("Bot authenticated", "username", client.Username())
	return client
}

func registerWebhook(cfg *config.Config, client *telegram.Client) {
	url := cfg.WebhookURL + "/webhook"
	if err := client.SetWebhook(url, cfg.WebhookSecretToken); err != nil {
		slog.Error("Failed to register webhook", "url", url, "error", err)
		os.Exit(1)
	}
	if cfg.WebhookSecretToken != "" {
		slog.Info("Webhook registered", "url", url, "secret_token", "set")
	} else {
		slog.Info("Webhook registered", "url", url, "secret_token", "none")
	}
}

func runGracefulShutdown(srv *server.Server, pool *server.DispatchPool, reaper *session.Reaper) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		pool.Stop()
		reaper.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	botClient := setupBot(cfg)

	formats := media.DetectFormats()
	slog.Info("Supported formats", "extensions", formats.Describe())

	store := session.NewStore(cfg.ScratchRoot, clock)
	reaper := session.NewReaper(store, clock, cfg.ReaperInterval, cfg.SessionIdleTTL)
	reaper.Start()

	pipeline := media.NewPipeline(botClient, formats, clock, cfg.MaxImagesPerSession, cfg.DownloadTimeout)
	assembler := pdf.NewAssembler(formats)
	dispatcher := bot.NewDispatcher(botClient, store, pipeline, assembler, formats, clock, cfg.MaxImagesPerSession)
	pool := server.NewDispatchPool(dispatcher, cfg.DispatchQueueSize, cfg.DispatchWorkers)

	if cfg.WebhookURL != "" {
		registerWebhook(cfg, botClient)
	}

	srv := server.NewServer(cfg, pool)
	done := runGracefulShutdown(srv, pool, reaper)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
