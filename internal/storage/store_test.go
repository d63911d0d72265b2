package storage

import (
	"context"
	"testing"
)

func TestNoopStore(t *testing.T) {
	s := NewNoopStore()
	ctx := context.Background()

	if err := s.Write(ctx, "key", "value"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Writes vanish; every read is a miss
	if _, ok, err := s.Read(ctx, "key"); err != nil || ok {
		t.Errorf("expected miss, got ok=%v err=%v", ok, err)
	}

	entries, err := s.List(ctx)
	if err != nil || len(entries) != 0 {
		t.Errorf("expected empty list, got %v (%v)", entries, err)
	}

	if err := s.Remove(ctx, "key"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := s.Wipe(ctx); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadDynamoConfig(t *testing.T) {
	t.Run("defaults to none", func(t *testing.T) {
		cfg := LoadDynamoConfig()
		if cfg.Mode != DynamoModeNone {
			t.Errorf("expected none mode, got %q", cfg.Mode)
		}
	})

	t.Run("invalid mode coerced to none", func(t *testing.T) {
		t.Setenv("DYNAMO_MODE", "bogus")
		cfg := LoadDynamoConfig()
		if cfg.Mode != DynamoModeNone {
			t.Errorf("expected none mode, got %q", cfg.Mode)
		}
	})

	t.Run("local mode", func(t *testing.T) {
		t.Setenv("DYNAMO_MODE", "local")
		t.Setenv("DYNAMO_ENDPOINT", "http://dynamo:8000")
		cfg := LoadDynamoConfig()
		if cfg.Mode != DynamoModeLocal {
			t.Errorf("expected local mode, got %q", cfg.Mode)
		}
		if cfg.Endpoint != "http://dynamo:8000" {
			t.Errorf("unexpected endpoint %q", cfg.Endpoint)
		}
	})
}
