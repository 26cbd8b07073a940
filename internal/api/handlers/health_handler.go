package handlers

import "net/http"

type HealthHandler struct {
	botUsername string
	projectId   string
}

func NewHealthHandler(botUsername, projectId string) *HealthHandler {
	return &HealthHandler{
		botUsername: botUsername,
		projectId:   projectId,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"bot":     h.botUsername,
		"project": h.projectId,
	})
}
