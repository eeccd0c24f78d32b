package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const hostingCleanupKey = "deploy:cleanup:projects"

// CleanupQueue holds hosting project names whose deletion must be retried.
type CleanupQueue struct {
	client *redis.Client
}

func NewCleanupQueue(client *redis.Client) *CleanupQueue {
	return &CleanupQueue{client: client}
}

func (q *CleanupQueue) Push(ctx context.Context, name string) error {
	if err := q.client.SAdd(ctx, hostingCleanupKey, name).Err(); err != nil {
		return fmt.Errorf("failed to queue hosting cleanup: %w", err)
	}
	return nil
}

// Pop removes and returns up to n queued names.
func (q *CleanupQueue) Pop(ctx context.Context, n int) ([]string, error) {
	names, err := q.client.SPopN(ctx, hostingCleanupKey, int64(n)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop hosting cleanup: %w", err)
	}
	return names, nil
}

func (q *CleanupQueue) Len(ctx context.Context) (int64, error) {
	return q.client.SCard(ctx, hostingCleanupKey).Result()
}
