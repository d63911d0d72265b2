package storage

import "context"

// Entry is one persisted key/value pair
type Entry struct {
	Key   string
	Value string
}

// Store is the durable key/value store backing the persisted cache tier.
// Values are opaque strings (JSON envelopes produced by the cache).
type Store interface {
	Read(ctx context.Context, key string) (string, bool, error)
	Write(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	List(ctx context.Context) ([]Entry, error)
	Wipe(ctx context.Context) error
}

// NoopStore is a no-op implementation when persistence is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) Read(_ context.Context, _ string) (string, bool, error) { return "", false, nil }
func (s *NoopStore) Write(_ context.Context, _, _ string) error             { return nil }
func (s *NoopStore) Remove(_ context.Context, _ string) error               { return nil }
func (s *NoopStore) List(_ context.Context) ([]Entry, error)                { return nil, nil }
func (s *NoopStore) Wipe(_ context.Context) error                           { return nil }
