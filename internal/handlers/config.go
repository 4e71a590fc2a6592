package handlers

import (
	"net/http"

	"calmi-backend/internal/config"
	"calmi-backend/internal/models"
)

type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// PublicConfig reports which integrations are set up. Secret values never leave the server.
func (h *ConfigHandler) PublicConfig(w http.ResponseWriter, r *http.Request) {
	resp := models.PublicConfig{
		HuggingFaceConfigured: h.cfg.ActiveAPIKey() != "",
		UpstreamProvider:      h.cfg.UpstreamProvider,
	}
	if h.cfg.PaystackPublicKey != "" {
		key := h.cfg.PaystackPublicKey
		resp.PaystackPublicKey = &key
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ConfigHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": h.cfg.PingMessage})
}
