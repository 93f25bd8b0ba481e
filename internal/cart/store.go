package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type snapshotBackend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(terminalID string) string
}

// SnapshotStore persists cart snapshots in Redis so open carts survive a
// process restart.
type SnapshotStore struct {
	backend snapshotBackend
	ttl     time.Duration
	isNil   func(error) bool
}

// NewSnapshotStore wraps the redis backend with the configured snapshot TTL.
func NewSnapshotStore(backend snapshotBackend, ttl time.Duration, isNil func(error) bool) (*SnapshotStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("snapshot backend required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("snapshot ttl must be positive")
	}
	if isNil == nil {
		isNil = func(error) bool { return false }
	}
	return &SnapshotStore{backend: backend, ttl: ttl, isNil: isNil}, nil
}

// Save writes the full line set for a terminal.
func (s *SnapshotStore) Save(ctx context.Context, terminalID string, lines []Line) error {
	if len(lines) == 0 {
		return s.Delete(ctx, terminalID)
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	return s.backend.Set(ctx, s.backend.CartKey(terminalID), string(data), s.ttl)
}

// Load returns the stored lines, or nil when no snapshot exists.
func (s *SnapshotStore) Load(ctx context.Context, terminalID string) ([]Line, error) {
	raw, err := s.backend.Get(ctx, s.backend.CartKey(terminalID))
	if err != nil {
		if s.isNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	return lines, nil
}

// Delete removes the snapshot.
func (s *SnapshotStore) Delete(ctx context.Context, terminalID string) error {
	return s.backend.Del(ctx, s.backend.CartKey(terminalID))
}
