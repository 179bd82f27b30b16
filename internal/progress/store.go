// Package progress tracks per-run workflow progress in Redis so thin
// presentation layers can poll it by run id. The store is write-only from
// the engine's perspective and safe for concurrent use.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run statuses surfaced to presentation layers.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// DefaultTTL bounds how long finished-run progress lingers.
const DefaultTTL = 24 * time.Hour

// Progress is the observation published after each stage transition.
type Progress struct {
	Status        string    `json:"status"`
	CurrentStep   string    `json:"current_step"`
	RevisionCount int       `json:"revision_count"`
	Score         float64   `json:"score"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store is the keyed progress sink. A nil *Store is a valid no-op sink.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStore connects to Redis and verifies the connection.
func NewStore(addr, password string, logger *zap.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Store{client: client, ttl: DefaultTTL, logger: logger}, nil
}

// Close releases the redis connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}

// Client exposes the redis handle for health checks.
func (s *Store) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// Set writes the progress record for a run, replacing any previous value.
func (s *Store) Set(ctx context.Context, runID string, p Progress) error {
	if s == nil {
		return nil
	}
	p.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := s.client.Set(ctx, key(runID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("write progress for %s: %w", runID, err)
	}
	return nil
}

// Get returns the progress record for a run, or (nil, nil) when none.
func (s *Store) Get(ctx context.Context, runID string) (*Progress, error) {
	if s == nil {
		return nil, nil
	}
	data, err := s.client.Get(ctx, key(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress for %s: %w", runID, err)
	}
	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode progress for %s: %w", runID, err)
	}
	return &p, nil
}

// Delete removes the progress record for a run.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if s == nil {
		return nil
	}
	if err := s.client.Del(ctx, key(runID)).Err(); err != nil {
		return fmt.Errorf("delete progress for %s: %w", runID, err)
	}
	return nil
}

func key(runID string) string {
	return "progress:" + runID
}
