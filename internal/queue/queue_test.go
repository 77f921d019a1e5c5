package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func roundTrip(t *testing.T, q Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	want := Message{Type: TypeLateArrival, Body: []byte(`{"student_id":"s1","period":"P|1"}`)}
	if err := q.Publish(ctx, want); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case got := <-msgs:
		if got.Type != want.Type || string(got.Body) != string(want.Body) {
			t.Fatalf("got %q/%q", got.Type, got.Body)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestInMemoryQueue(t *testing.T) {
	roundTrip(t, NewInMemory(4))
}

func TestRedisQueue(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	roundTrip(t, NewRedisQueue(rdb, ""))
}

func TestConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	msgs, _ := NewInMemory(1).Consume(ctx)
	cancel()
	select {
	case _, ok := <-msgs:
		if ok {
			t.Fatal("unexpected message")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestRedisQueueParksUndecodableMessages(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	q := NewRedisQueue(rdb, "events")
	if err := rdb.LPush(ctx, "events", "attendance.late|legacy").Err(); err != nil {
		t.Fatal(err)
	}
	msgs, _ := q.Consume(ctx)
	want := Message{Type: TypeLateArrival, Body: []byte(`{"period":"P1"}`)}
	if err := q.Publish(ctx, want); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case got := <-msgs:
		if got.Type != want.Type || string(got.Body) != string(want.Body) {
			t.Fatalf("got %q/%q", got.Type, got.Body)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
	n, err := q.DeadLetters(ctx)
	if err != nil || n != 1 {
		t.Fatalf("dead letters = %d, %v; want 1", n, err)
	}
}

func TestRedisQueueRejectsNonJSONBody(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	err = NewRedisQueue(rdb, "").Publish(context.Background(), Message{Type: TypeLateArrival, Body: []byte("not json")})
	if err == nil {
		t.Fatal("expected encode error")
	}
}
