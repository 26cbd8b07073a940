package handlers

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mymmrac/telego"

	"github.com/TWRT/tg-asana/internal/logutil"
	"github.com/TWRT/tg-asana/internal/metrics"
	"github.com/TWRT/tg-asana/internal/service"
)

const (
	maxUpdateBytes = 1 << 20
	secretHeader   = "X-Telegram-Bot-Api-Secret-Token"
)

type MessageHandler interface {
	HandleMessage(ctx context.Context, msg *telego.Message) (service.Result, error)
}

type WebhookHandler struct {
	intake  MessageHandler
	secret  string
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewWebhookHandler(intake MessageHandler, secret string, m *metrics.Metrics, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = logutil.Discard()
	}
	return &WebhookHandler{
		intake:  intake,
		secret:  secret,
		metrics: m,
		logger:  logger,
	}
}

func (h *WebhookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	log := logutil.FromContext(r.Context(), h.logger)

	if h.intake == nil {
		log.Error("webhook called without a configured intake service")
		writeError(w, http.StatusInternalServerError, "Configuration error")
		return
	}

	if h.secret != "" {
		token := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(h.secret), []byte(token)) != 1 {
			log.Warn("webhook secret mismatch")
			writeError(w, http.StatusUnauthorized, "invalid webhook secret token")
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "update too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Error trying to read the body: "+err.Error())
		return
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		h.metrics.RecordUpdate("invalid")
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}

	var update telego.Update
	if err := json.Unmarshal(trimmed, &update); err != nil {
		h.metrics.RecordUpdate("invalid")
		writeError(w, http.StatusBadRequest, "JSON error: "+err.Error())
		return
	}

	log = log.With("update_id", update.UpdateID)
	log.Debug("raw payload", "payload", json.RawMessage(trimmed))

	if update.Message == nil {
		h.metrics.RecordUpdate("no_message")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	ctx := logutil.WithLogger(r.Context(), log)
	if _, err := h.intake.HandleMessage(ctx, update.Message); err != nil {
		if errors.Is(err, service.ErrTaskCreation) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		log.Error("failed to handle update", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
