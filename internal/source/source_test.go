package source

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dialboard/backend/internal/types"
	"github.com/rs/zerolog"
)

// flakySource fails a set number of calls before succeeding
type flakySource struct {
	failures int
	calls    int
	rows     []types.RawRow
}

func (f *flakySource) Ping(ctx context.Context) error { return nil }

func (f *flakySource) ListSources(ctx context.Context) ([]Info, error) {
	return nil, nil
}

func (f *flakySource) GetRows(ctx context.Context, sourceID string) ([]types.RawRow, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient failure")
	}
	return f.rows, nil
}

func TestFetchRowsRetriesTransientFailures(t *testing.T) {
	src := &flakySource{
		failures: 2,
		rows:     []types.RawRow{{"Data", "Operador"}},
	}

	rows, err := FetchRows(context.Background(), src, "", 5*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(rows))
	}
	if src.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", src.calls)
	}
}

func TestFetchRowsGivesUpAtTimeout(t *testing.T) {
	src := &flakySource{failures: 1 << 30}

	start := time.Now()
	_, err := FetchRows(context.Background(), src, "", 200*time.Millisecond)
	if err == nil {
		t.Fatal("expected error after timeout")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("retries ran far past the timeout: %v", elapsed)
	}
	if src.calls < 1 {
		t.Error("expected at least one attempt")
	}
}

func TestSpreadsheetSourcePing(t *testing.T) {
	s := NewSpreadsheetSource(filepath.Join(t.TempDir(), "missing.xlsx"), zerolog.Nop())

	err := s.Ping(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestSpreadsheetSourceCancelledContext(t *testing.T) {
	s := NewSpreadsheetSource("irrelevant.xlsx", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Ping(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context error from Ping, got %v", err)
	}
	if _, err := s.GetRows(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context error from GetRows, got %v", err)
	}
}
