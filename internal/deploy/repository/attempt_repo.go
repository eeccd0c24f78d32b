package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/domain"
)

const (
	attemptKeyPrefix     = "deploy:attempt:" // deploy:attempt:{attempt_id}
	projectAttemptPrefix = "deploy:project:" // latest attempt id for a project: deploy:project:{project_id}
	attemptTTL           = time.Hour
)

// AttemptRepository keeps short-lived deploy progress snapshots in Redis.
type AttemptRepository struct {
	client *redis.Client
}

func NewAttemptRepository(client *redis.Client) *AttemptRepository {
	return &AttemptRepository{client: client}
}

// Save overwrites the snapshot and refreshes its TTL.
func (r *AttemptRepository) Save(ctx context.Context, attempt *domain.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.attemptKey(attempt.ID), data, attemptTTL)
	if attempt.ProjectID != "" {
		pipe.Set(ctx, r.projectKey(attempt.ProjectID), attempt.ID, attemptTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	return nil
}

// Get returns the snapshot for id.
func (r *AttemptRepository) Get(ctx context.Context, id string) (*domain.Attempt, error) {
	data, err := r.client.Get(ctx, r.attemptKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	var attempt domain.Attempt
	if err := json.Unmarshal([]byte(data), &attempt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempt: %w", err)
	}
	return &attempt, nil
}

// LatestForProject returns the most recent snapshot for a project.
func (r *AttemptRepository) LatestForProject(ctx context.Context, projectID string) (*domain.Attempt, error) {
	id, err := r.client.Get(ctx, r.projectKey(projectID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest attempt: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *AttemptRepository) attemptKey(id string) string {
	return attemptKeyPrefix + id
}

func (r *AttemptRepository) projectKey(projectID string) string {
	return projectAttemptPrefix + projectID
}
