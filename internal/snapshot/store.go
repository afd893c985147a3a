// Package snapshot persists serialised carts in Redis so a session survives restarts.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "cart:snapshot:"

type cmdable interface {
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Store keeps one JSON snapshot per session with a sliding TTL.
type Store struct {
	store  cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

func New(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *Store {
	return newStore(client, ttl, logger)
}

func newStore(store cmdable, ttl time.Duration, logger *zerolog.Logger) *Store {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{store: store, ttl: ttl, logger: l}
}

// Key returns the Redis key for a session.
func Key(sessionID string) string {
	return keyPrefix + strings.TrimSpace(sessionID)
}

func (s *Store) Save(ctx context.Context, sessionID string, data []byte) error {
	if sessionID == "" {
		return errors.New("snapshot: empty session id")
	}
	if err := s.store.Set(ctx, Key(sessionID), data, s.ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("snapshot: save")
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns ok=false when no snapshot exists for the session.
func (s *Store) Load(ctx context.Context, sessionID string) ([]byte, bool, error) {
	data, err := s.store.Get(ctx, Key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("snapshot: load")
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}
	return data, true, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Del(ctx, Key(sessionID)).Err(); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("snapshot: delete")
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
