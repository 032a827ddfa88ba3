package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
)

const (
	runKeyPrefix     = "heat:run:"         // run data: heat:run:{run_id}
	userRunSetPrefix = "heat:user:"        // set of run IDs per user: heat:user:{user_id}
	runTTL           = 7 * 24 * time.Hour  // run records expire after 7 days
)

// RunRepository handles Redis operations for sizing runs.
type RunRepository struct {
	client *redis.Client
	ctx    context.Context
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(client *redis.Client) *RunRepository {
	return &RunRepository{
		client: client,
		ctx:    context.Background(),
	}
}

// Create stores a new sizing run and indexes it for its user.
func (r *RunRepository) Create(run *domain.SizingRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = time.Now()
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run data: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(r.ctx, r.runKey(run.RunID), data, runTTL)
	if run.UserID != "" {
		userKey := r.userRunSetKey(run.UserID)
		pipe.SAdd(r.ctx, userKey, run.RunID)
		pipe.Expire(r.ctx, userKey, runTTL)
	}
	if _, err := pipe.Exec(r.ctx); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run by its ID.
func (r *RunRepository) GetByRunID(runID string) (*domain.SizingRun, error) {
	data, err := r.client.Get(r.ctx, r.runKey(runID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run domain.SizingRun
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run data: %w", err)
	}
	return &run, nil
}

// Update overwrites an existing run record.
func (r *RunRepository) Update(run *domain.SizingRun) error {
	if _, err := r.GetByRunID(run.RunID); err != nil {
		return err
	}
	run.UpdatedAt = time.Now()

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run data: %w", err)
	}
	if err := r.client.Set(r.ctx, r.runKey(run.RunID), data, runTTL).Err(); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// ListByUserID retrieves all run IDs for a user.
func (r *RunRepository) ListByUserID(userID string) ([]string, error) {
	ids, err := r.client.SMembers(r.ctx, r.userRunSetKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return ids, nil
}

// Delete removes a run record.
func (r *RunRepository) Delete(runID string) error {
	run, err := r.GetByRunID(runID)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Del(r.ctx, r.runKey(runID))
	if run.UserID != "" {
		pipe.SRem(r.ctx, r.userRunSetKey(run.UserID), runID)
	}
	if _, err := pipe.Exec(r.ctx); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

func (r *RunRepository) runKey(runID string) string {
	return runKeyPrefix + runID
}

func (r *RunRepository) userRunSetKey(userID string) string {
	return userRunSetPrefix + userID
}
