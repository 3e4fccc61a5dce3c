package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshJob asks the worker to re-resolve one saved source.
type RefreshJob struct {
	SourceID   int64     `json:"source_id"`
	Reason     string    `json:"reason"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// RefreshQueue is the Redis list holding pending refresh jobs.
const RefreshQueue = Prefix + "jobs:refresh"

// Enqueue LPUSHes job onto queue.
func Enqueue(ctx context.Context, r *Redis, queue string, job RefreshJob) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue encode: %w", err)
	}
	return r.client.LPush(ctx, queue, data).Err()
}

// Dequeue waits up to timeout for the oldest job. It returns (nil, nil) on
// timeout or when ctx is done, so workers can loop and check for shutdown.
func Dequeue(ctx context.Context, r *Redis, queue string, timeout time.Duration) (*RefreshJob, error) {
	result, err := r.client.BRPop(ctx, timeout, queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("queue dequeue: %w", err)
	}
	// [key, value]
	if len(result) < 2 {
		return nil, nil
	}
	var job RefreshJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("queue decode: %w", err)
	}
	return &job, nil
}

// QueueLen returns the number of pending jobs.
func QueueLen(ctx context.Context, r *Redis, queue string) (int64, error) {
	return r.client.LLen(ctx, queue).Result()
}
