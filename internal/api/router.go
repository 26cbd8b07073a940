package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TWRT/tg-asana/internal/api/handlers"
	"github.com/TWRT/tg-asana/internal/logutil"
	"github.com/TWRT/tg-asana/internal/metrics"
)

type RouterConfig struct {
	Intake        handlers.MessageHandler
	WebhookSecret string
	BotUsername   string
	ProjectId     string
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Logger        *slog.Logger
}

func SetupRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logutil.Discard()
	}

	webhookHandler := handlers.NewWebhookHandler(cfg.Intake, cfg.WebhookSecret, cfg.Metrics, logger)
	healthHandler := handlers.NewHealthHandler(cfg.BotUsername, cfg.ProjectId)

	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler.Health)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/", webhookHandler.HandleUpdate)
	r.Post("/webhook", webhookHandler.HandleUpdate)

	return r
}
