package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/pkg/common"

	"github.com/redis/go-redis/v9"
)

// JobQueueRepository publishes analysis jobs to the redis stream.
type JobQueueRepository interface {
	Enqueue(ctx context.Context, job dto.StreamDataAnalysisJob) (string, error)
}

type jobQueueRepository struct {
	client redis.Cmdable
	maxLen int64
}

func NewJobQueueRepository(client redis.Cmdable, maxLen int64) JobQueueRepository {
	return &jobQueueRepository{client: client, maxLen: maxLen}
}

// Enqueue returns the stream message id.
func (r *jobQueueRepository) Enqueue(ctx context.Context, job dto.StreamDataAnalysisJob) (string, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamAnalysisJob,
		Values: map[string]interface{}{"payload": string(payload)},
		MaxLen: r.maxLen, // Limit the stream size
		Approx: true,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}
	return id, nil
}
