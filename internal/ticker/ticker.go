package ticker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dialboard/backend/internal/websocket"
	"github.com/rs/zerolog"
)

// Heartbeat is the periodic liveness message sent to clients. Dashboards
// use it to detect a stale connection without waiting for the next snapshot.
type Heartbeat struct {
	Type       string `json:"type"`
	Timestamp  string `json:"timestamp"`
	ServerTime int64  `json:"serverTime"`
}

// Ticker periodically broadcasts heartbeats to the hub
type Ticker struct {
	hub      *websocket.Hub
	interval time.Duration
	logger   zerolog.Logger
}

// NewTicker creates a new Ticker
func NewTicker(hub *websocket.Hub, interval time.Duration, logger zerolog.Logger) *Ticker {
	return &Ticker{
		hub:      hub,
		interval: interval,
		logger:   logger,
	}
}

// Start begins broadcasting heartbeats
func (t *Ticker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info().Dur("interval", t.interval).Msg("ticker started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("ticker stopped")
			return

		case now := <-ticker.C:
			message := Heartbeat{
				Type:       "heartbeat",
				Timestamp:  now.Format(time.RFC3339),
				ServerTime: now.Unix(),
			}

			data, err := json.Marshal(message)
			if err != nil {
				t.logger.Error().Err(err).Msg("failed to marshal heartbeat")
				continue
			}

			t.hub.Broadcast(data)
			t.logger.Debug().
				Str("timestamp", message.Timestamp).
				Int("clients", t.hub.ClientCount()).
				Msg("broadcasted heartbeat")
		}
	}
}
