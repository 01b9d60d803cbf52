package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	socketio "github.com/googollee/go-socket.io"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"github.com/itsinfi/prompt-with-friends-backend/internal/api"
	"github.com/itsinfi/prompt-with-friends-backend/internal/config"
	"github.com/itsinfi/prompt-with-friends-backend/internal/factory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := factory.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
		}
	}()

	// Real-time transport
	sockets := socketio.NewServer(nil)
	app.Sockets.Mount(sockets)
	go func() {
		if err := sockets.Serve(); err != nil {
			logger.Error("socket server error", slog.String("error", err.Error()))
		}
	}()
	defer sockets.Close()

	go app.Collector.Run(ctx)

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		SessionController: app.SessionController,
		GameController:    app.GameController,
		Gateway:           app.Gateway,
	})

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", sockets)
	mux.Handle("/", apiRouter)

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(mux)

	server := api.NewServer(handler, api.DefaultServerConfig(cfg.Addr()), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.String("ai_provider", cfg.AIProvider),
	)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
		}
	}

	logger.Info("server stopped")
}

// newLogger builds a JSON logger, or a colored console logger for LOG_FORMAT=text
func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.Level()
	if cfg.LogFormat == config.LogFormatText {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
