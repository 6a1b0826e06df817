// Package queue – Redis backend
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is a self-hosted Queue on Redis lists using the reliable-queue
// pattern: Publish LPUSHes onto <key>:pending, Receive atomically moves the
// oldest element onto <key>:processing, and Delete removes it from there.
// Elements left in processing longer than a visibility timeout are moved
// back by Requeue, which gives SQS-like redelivery.
type Redis struct {
	rdb        redis.Cmdable
	pending    string
	processing string
	since      string
	wait       time.Duration
	now        func() time.Time
}

// envelope is the stored list element.
type envelope struct {
	ID         string    `json:"id"`
	Body       string    `json:"body"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewRedis returns a Redis queue rooted at key. wait bounds how long
// Receive blocks; zero means do not block.
func NewRedis(rdb redis.Cmdable, key string, wait time.Duration) *Redis {
	return &Redis{
		rdb:        rdb,
		pending:    key + ":pending",
		processing: key + ":processing",
		since:      key + ":since",
		wait:       wait,
		now:        time.Now,
	}
}

// Publish implements Publisher.
func (q *Redis) Publish(ctx context.Context, body []byte) (string, error) {
	env := envelope{ID: uuid.NewString(), Body: string(body), EnqueuedAt: q.now().UTC()}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	if err := q.rdb.LPush(ctx, q.pending, raw).Err(); err != nil {
		return "", fmt.Errorf("redis lpush: %w", err)
	}
	return env.ID, nil
}

// Receive implements Receiver.
func (q *Redis) Receive(ctx context.Context) (*Message, error) {
	var (
		raw string
		err error
	)
	if q.wait > 0 {
		raw, err = q.rdb.BLMove(ctx, q.pending, q.processing, "RIGHT", "LEFT", q.wait).Result()
	} else {
		raw, err = q.rdb.LMove(ctx, q.pending, q.processing, "RIGHT", "LEFT").Result()
	}
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis receive: %w", err)
	}
	if err := q.rdb.HSet(ctx, q.since, raw, q.now().Unix()).Err(); err != nil {
		return nil, fmt.Errorf("redis mark in-flight: %w", err)
	}

	m := &Message{Receipt: raw}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		// Not ours; hand it over as-is so the consumer can drop it.
		m.Body = []byte(raw)
		return m, nil
	}
	m.ID = env.ID
	m.Body = []byte(env.Body)
	return m, nil
}

// Delete implements Receiver.
func (q *Redis) Delete(ctx context.Context, m *Message) error {
	pipe := q.rdb.TxPipeline()
	pipe.LRem(ctx, q.processing, 1, m.Receipt)
	pipe.HDel(ctx, q.since, m.Receipt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete %s: %w", m.ID, err)
	}
	return nil
}

// Requeue moves messages that have been in flight for longer than olderThan
// back to the head of the pending list and returns how many were moved.
func (q *Redis) Requeue(ctx context.Context, olderThan time.Duration) (int, error) {
	items, err := q.rdb.LRange(ctx, q.processing, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis list in-flight: %w", err)
	}
	cutoff := q.now().Add(-olderThan).Unix()
	moved := 0
	for _, raw := range items {
		ts, err := q.rdb.HGet(ctx, q.since, raw).Result()
		if errors.Is(err, redis.Nil) {
			// Received but not yet stamped; start its clock now.
			if err := q.rdb.HSetNX(ctx, q.since, raw, q.now().Unix()).Err(); err != nil {
				return moved, fmt.Errorf("redis stamp in-flight: %w", err)
			}
			continue
		}
		if err != nil {
			return moved, fmt.Errorf("redis in-flight time: %w", err)
		}
		if at, _ := strconv.ParseInt(ts, 10, 64); at > cutoff {
			continue
		}
		// Only the caller that wins the LREM puts the element back, so a
		// concurrent Delete or Requeue cannot resurrect it twice.
		n, err := q.rdb.LRem(ctx, q.processing, 1, raw).Result()
		if err != nil {
			return moved, fmt.Errorf("redis requeue: %w", err)
		}
		if n == 0 {
			continue
		}
		pipe := q.rdb.TxPipeline()
		pipe.RPush(ctx, q.pending, raw)
		pipe.HDel(ctx, q.since, raw)
		if _, err := pipe.Exec(ctx); err != nil {
			return moved, fmt.Errorf("redis requeue: %w", err)
		}
		moved++
	}
	return moved, nil
}

// Ping implements Queue.
func (q *Redis) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}
