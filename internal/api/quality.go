package api

import (
	"encoding/json"
	"net/http"

	"github.com/dialboard/backend/internal/cache"
	"github.com/dialboard/backend/internal/syncer"
	"github.com/dialboard/backend/internal/types"
	"github.com/rs/zerolog"
)

// QualityHandler serves the latest data quality report
type QualityHandler struct {
	cache  *cache.TieredCache
	logger zerolog.Logger
}

// NewQualityHandler creates a new QualityHandler
func NewQualityHandler(c *cache.TieredCache, logger zerolog.Logger) *QualityHandler {
	return &QualityHandler{
		cache:  c,
		logger: logger,
	}
}

// GetQuality serves the quality report from the last completed sync
func (h *QualityHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	data, ok := h.cache.Get(syncer.KeyQuality)
	if !ok {
		http.Error(w, `{"error":"no quality report available"}`, http.StatusNotFound)
		return
	}

	var report types.QualityReport
	if err := cache.Decode(data, &report); err != nil {
		h.logger.Error().Err(err).Msg("failed to decode cached quality report")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
