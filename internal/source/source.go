package source

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dialboard/backend/internal/types"
)

// ErrUnavailable signals that the upstream source failed its connectivity
// check before any row was fetched
var ErrUnavailable = errors.New("upstream source unavailable")

// Info describes one dataset offered by an upstream source
type Info struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Source is an upstream provider of raw call rows. The pipeline treats it
// purely as rows of strings (first row = headers) and does not care how
// they were fetched.
type Source interface {
	Ping(ctx context.Context) error
	ListSources(ctx context.Context) ([]Info, error)
	GetRows(ctx context.Context, sourceID string) ([]types.RawRow, error)
}

// FetchRows pulls rows from src with a hard timeout and bounded
// exponential-backoff retries. Retries stay within one call; across sync
// runs every tick starts fresh.
func FetchRows(ctx context.Context, src Source, sourceID string, timeout time.Duration) ([]types.RawRow, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var rows []types.RawRow

	op := func() error {
		var err error
		rows, err = src.GetRows(ctx, sourceID)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = timeout

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return rows, nil
}
