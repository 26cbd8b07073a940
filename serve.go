package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/TWRT/tg-asana/internal/api"
	"github.com/TWRT/tg-asana/internal/client/asana"
	"github.com/TWRT/tg-asana/internal/client/telegram"
	"github.com/TWRT/tg-asana/internal/config"
	"github.com/TWRT/tg-asana/internal/logutil"
	"github.com/TWRT/tg-asana/internal/metrics"
	"github.com/TWRT/tg-asana/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram webhook receiver",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	asana    *asana.AsanaClient
	telegram *telegram.TelegramClient
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logutil.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	tg, err := telegram.NewTelegramClient(cfg.TelegramToken, httpClient)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		asana:    asana.NewAsanaClient(cfg.AsanaToken, asana.WithBaseURL(cfg.AsanaBaseURL), asana.WithHTTPClient(httpClient)),
		telegram: tg,
	}, nil
}

func runServe(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	cfg, logger := a.cfg, a.logger

	username := cfg.BotUsername
	if username == "" {
		me, err := a.telegram.Me(ctx)
		if err != nil {
			logger.Warn("could not resolve bot username, any mention will address the bot", "error", err)
		} else {
			username = me.Username
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	intake := service.NewIntakeService(
		service.NewClassifier(username, cfg.AllowedUserIDs),
		service.NewFormatter(cfg.DueDate),
		a.asana,
		a.telegram,
		cfg.AsanaProjectID,
		m,
		logger,
	)

	router := api.SetupRouter(api.RouterConfig{
		Intake:        intake,
		WebhookSecret: cfg.WebhookSecret,
		BotUsername:   username,
		ProjectId:     cfg.AsanaProjectID,
		Metrics:       m,
		Gatherer:      reg,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"addr", srv.Addr,
			"bot", username,
			"project", cfg.AsanaProjectID,
			"whitelist_size", len(cfg.AllowedUserIDs),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
