package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dialboard/backend/internal/syncer"
	"github.com/dialboard/backend/internal/types"
	"github.com/rs/zerolog"
)

// RowsHandler receives raw row batches pushed by external exporters,
// bypassing the spreadsheet source entirely.
type RowsHandler struct {
	orchestrator *syncer.Orchestrator
	logger       zerolog.Logger
	batchesTotal int64
	rowsTotal    int64
	lastReceived time.Time
	mu           sync.RWMutex
}

// NewRowsHandler creates a new RowsHandler
func NewRowsHandler(o *syncer.Orchestrator, logger zerolog.Logger) *RowsHandler {
	return &RowsHandler{
		orchestrator: o,
		logger:       logger,
	}
}

// rowsRequest is the pushed payload, first row included as headers
type rowsRequest struct {
	Rows []types.RawRow `json:"rows"`
}

// HandleRows ingests one pushed batch and runs the full pipeline over it
func (h *RowsHandler) HandleRows(w http.ResponseWriter, r *http.Request) {
	var req rowsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("failed to decode rows batch")
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if len(req.Rows) < 2 {
		http.Error(w, `{"error":"need a header row and at least one data row"}`, http.StatusBadRequest)
		return
	}

	if err := h.orchestrator.ProcessRows(req.Rows); err != nil {
		h.logger.Error().Err(err).Msg("failed to process pushed rows")
		http.Error(w, `{"error":"failed to process rows"}`, http.StatusUnprocessableEntity)
		return
	}

	atomic.AddInt64(&h.batchesTotal, 1)
	atomic.AddInt64(&h.rowsTotal, int64(len(req.Rows)-1))
	h.mu.Lock()
	h.lastReceived = time.Now()
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "rows accepted",
		"rows":    len(req.Rows) - 1,
	})
}

// GetStats returns receiver statistics
func (h *RowsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	lastReceived := h.lastReceived
	h.mu.RUnlock()

	stats := map[string]interface{}{
		"batches_received": atomic.LoadInt64(&h.batchesTotal),
		"rows_received":    atomic.LoadInt64(&h.rowsTotal),
		"last_received":    lastReceived,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
