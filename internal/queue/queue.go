package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TypeLateArrival is published when a student checks in late.
	TypeLateArrival = "attendance.late"
	// TypeUpcomingClasses carries a student's summary of tomorrow's classes.
	TypeUpcomingClasses = "attendance.upcoming"
	// DefaultKey is the Redis list used when none is configured.
	DefaultKey = "attendance:events"
)

// Message represents work to be processed.
type Message struct {
	Type string
	Body []byte
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan Message
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

// Publish enqueues a message.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for workers. It closes when ctx ends.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue is a Redis list-backed queue. Payloads that cannot be decoded
// are moved to a dead-letter list instead of being dropped.
type RedisQueue struct {
	client *redis.Client
	key    string
	dead   string
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics on key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultKey
	}
	return &RedisQueue{client: client, key: key, dead: key + ":dead"}
}

// wireMessage is the JSON form stored in Redis.
type wireMessage struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

// Publish enqueues a message. Bodies must be JSON.
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	raw, err := json.Marshal(wireMessage{Type: msg.Type, Body: msg.Body})
	if err != nil {
		return fmt.Errorf("queue: encode %s: %w", msg.Type, err)
	}
	return q.client.LPush(ctx, q.key, raw).Err()
}

// Consume streams messages using BRPOP. The channel closes when ctx ends.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !errors.Is(err, redis.Nil) {
					log.Printf("queue: brpop %s: %v", q.key, err)
					select {
					case <-time.After(time.Second):
					case <-ctx.Done():
						return
					}
				}
				continue
			}
			if len(res) != 2 {
				continue
			}
			var w wireMessage
			if err := json.Unmarshal([]byte(res[1]), &w); err != nil || w.Type == "" {
				log.Printf("queue: undecodable message moved to %s", q.dead)
				if err := q.client.LPush(ctx, q.dead, res[1]).Err(); err != nil && ctx.Err() == nil {
					log.Printf("queue: dead-letter push: %v", err)
				}
				continue
			}
			select {
			case out <- Message{Type: w.Type, Body: []byte(w.Body)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// DeadLetters returns how many undecodable messages are parked.
func (q *RedisQueue) DeadLetters(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.dead).Result()
}
