package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dialboard/backend/internal/syncer"
	"github.com/rs/zerolog"
)

// SyncHandler exposes manual sync triggering and sync status
type SyncHandler struct {
	orchestrator *syncer.Orchestrator
	logger       zerolog.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(o *syncer.Orchestrator, logger zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		orchestrator: o,
		logger:       logger,
	}
}

// TriggerSync runs a sync immediately. A sync already in progress is
// reported as a conflict, not queued.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if err := h.orchestrator.SyncNow(r.Context()); err != nil {
		if errors.Is(err, syncer.ErrSyncInProgress) {
			http.Error(w, `{"error":"sync already in progress"}`, http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Msg("manual sync failed")
		http.Error(w, `{"error":"sync failed"}`, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.orchestrator.Status())
}

// GetStatus returns the current sync status
func (h *SyncHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.orchestrator.Status())
}
