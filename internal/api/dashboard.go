package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dialboard/backend/internal/cache"
	"github.com/dialboard/backend/internal/source"
	"github.com/dialboard/backend/internal/syncer"
	"github.com/dialboard/backend/internal/types"
	"github.com/rs/zerolog"
)

// DashboardHandler serves the computed dashboard state out of the cache
type DashboardHandler struct {
	cache        *cache.TieredCache
	orchestrator *syncer.Orchestrator
	src          source.Source
	logger       zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(c *cache.TieredCache, o *syncer.Orchestrator, src source.Source, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		cache:        c,
		orchestrator: o,
		src:          src,
		logger:       logger,
	}
}

// GetDashboard serves the latest snapshot. A cold cache triggers a sync
// before answering; if that also fails there is nothing to serve yet.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	data, ok := h.cache.Get(syncer.KeySnapshot)
	if !ok {
		if err := h.orchestrator.SyncNow(r.Context()); err != nil && !errors.Is(err, syncer.ErrSyncInProgress) {
			h.logger.Error().Err(err).Msg("on-demand sync failed")
			http.Error(w, `{"error":"no dashboard data available"}`, http.StatusServiceUnavailable)
			return
		}
		if data, ok = h.cache.Get(syncer.KeySnapshot); !ok {
			http.Error(w, `{"error":"no dashboard data available"}`, http.StatusServiceUnavailable)
			return
		}
	}

	var snapshot types.Snapshot
	if err := cache.Decode(data, &snapshot); err != nil {
		h.logger.Error().Err(err).Msg("failed to decode cached snapshot")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// ListSources returns the datasets offered by the upstream source
func (h *DashboardHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	infos, err := h.src.ListSources(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list sources")
		http.Error(w, `{"error":"source unavailable"}`, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(infos)
}
