package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"attendclient/internal/attendance"
	"attendclient/internal/config"
	"attendclient/internal/queue"
	"attendclient/internal/store"
)

// Worker drains late arrival events from Redis and stores faculty
// notifications in Postgres.
func main() {
	cfg := config.LoadBackend()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required for the worker")
	}
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	db, err := store.NewDB(pingCtx, cfg.DatabaseURL)
	pingCancel()
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient, err := store.NewRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatalf("redis config: %v", err)
	}
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis at %s not reachable, will keep retrying", cfg.RedisAddr)
	}

	q := queue.NewRedisQueue(redisClient.Client, "")
	if n, err := q.DeadLetters(ctx); err == nil && n > 0 {
		log.Printf("%d undecodable events parked in %s:dead", n, queue.DefaultKey)
	}
	repo := attendance.NewRepository(db.Client)

	log.Println("worker started, waiting for late arrival events...")
	if err := attendance.RunNotifier(ctx, q, repo); err != nil && ctx.Err() == nil {
		log.Fatalf("notifier failed: %v", err)
	}
	log.Println("worker stopped")
}
