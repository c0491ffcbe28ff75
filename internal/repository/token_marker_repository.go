package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/rosterpilot/internal/domain"
	"github.com/yourorg/rosterpilot/internal/infrastructure/redis"
)

// TokenMarkerRepository implements domain.TokenMarkerStore using Redis.
// A marker lives exactly as long as the proposal it guards could still
// verify, so Redis expiry keeps the keyspace bounded.
type TokenMarkerRepository struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewTokenMarkerRepository creates a new token marker repository
func NewTokenMarkerRepository(redisClient *redis.Client, ttl time.Duration, logger *slog.Logger) *TokenMarkerRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenMarkerRepository{redis: redisClient, ttl: ttl, logger: logger}
}

// MarkConsumed records the token hash with SETNX semantics.
// Returns true only for the first caller; a second commit of the same
// token sees false.
func (r *TokenMarkerRepository) MarkConsumed(ctx context.Context, tokenHash string) (bool, error) {
	key := "proposal:consumed:" + tokenHash
	first, err := r.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), r.ttl)
	if err != nil {
		return false, domain.NewStoreError("failed to mark proposal token consumed", err)
	}
	if !first {
		r.logger.Warn("proposal token replay detected", slog.String("token_hash", tokenHash))
	}
	return first, nil
}

// Release drops the marker so the proposal can be committed again.
// Called when execution failed without writing any entry.
func (r *TokenMarkerRepository) Release(ctx context.Context, tokenHash string) error {
	key := "proposal:consumed:" + tokenHash
	if err := r.redis.Delete(ctx, key); err != nil {
		return domain.NewStoreError("failed to release proposal token marker", err)
	}
	return nil
}
