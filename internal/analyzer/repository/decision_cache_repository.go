package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/pkg/common"

	"github.com/redis/go-redis/v9"
)

type decisionCacheRepository struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewDecisionCacheRepository creates a redis backed DecisionCacheRepository.
func NewDecisionCacheRepository(client redis.Cmdable, ttl time.Duration) DecisionCacheRepository {
	return &decisionCacheRepository{client: client, ttl: ttl}
}

func decisionKey(pair string, strategy dto.StrategyName) string {
	return fmt.Sprintf(common.RedisKeyLatestDecision, pair, strategy)
}

func (r *decisionCacheRepository) Set(ctx context.Context, decision *dto.CombinedDecision) error {
	data, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}
	if err := r.client.Set(ctx, decisionKey(decision.Pair, decision.Strategy), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache decision: %w", err)
	}
	return nil
}

// Get returns nil without error on a cache miss.
func (r *decisionCacheRepository) Get(ctx context.Context, pair string, strategy dto.StrategyName) (*dto.CombinedDecision, error) {
	data, err := r.client.Get(ctx, decisionKey(pair, strategy)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached decision: %w", err)
	}

	var decision dto.CombinedDecision
	if err := json.Unmarshal(data, &decision); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached decision: %w", err)
	}
	return &decision, nil
}
