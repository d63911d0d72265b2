package api

import (
	"encoding/json"
	"net/http"

	"github.com/dialboard/backend/internal/kpi"
	"github.com/rs/zerolog"
)

// ConfigHandler exposes the KPI calculation parameters
type ConfigHandler struct {
	engine *kpi.Engine
	logger zerolog.Logger
}

// NewConfigHandler creates a new ConfigHandler
func NewConfigHandler(engine *kpi.Engine, logger zerolog.Logger) *ConfigHandler {
	return &ConfigHandler{
		engine: engine,
		logger: logger,
	}
}

// GetKPIConfig returns the active KPI parameters
func (h *ConfigHandler) GetKPIConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.engine.Config())
}

// UpdateKPIConfig replaces the KPI parameters. Invalid values are rejected
// and the previous configuration stays active.
func (h *ConfigHandler) UpdateKPIConfig(w http.ResponseWriter, r *http.Request) {
	var cfg kpi.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	if !h.engine.UpdateConfig(cfg) {
		http.Error(w, `{"error":"invalid kpi configuration"}`, http.StatusBadRequest)
		return
	}

	h.logger.Info().
		Int("service_level_target", cfg.ServiceLevelTargetSeconds).
		Float64("working_hours", cfg.WorkingHours).
		Msg("kpi configuration updated")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.engine.Config())
}
