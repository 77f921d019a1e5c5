package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"attendclient/internal/attendance"
	"attendclient/internal/config"
	"attendclient/internal/handler"
	"attendclient/internal/queue"
	"attendclient/internal/store"
)

const issuer = "attendance-api"

func main() {
	backupDir := flag.String("backup-db", "", "dump the database into this directory and exit")
	restoreFile := flag.String("restore-db", "", "restore the database from this dump and exit")
	flag.Parse()
	cfg := config.LoadBackend()

	if *backupDir != "" || *restoreFile != "" {
		if err := maintain(cfg, *backupDir, *restoreFile); err != nil {
			log.Fatal(err)
		}
		return
	}

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

// maintain runs the one-shot database backup or restore.
func maintain(cfg config.Backend, backupDir, restoreFile string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if backupDir != "" {
		file, err := store.Backup(ctx, store.ExecRunner, cfg.DatabaseURL, backupDir, time.Now())
		if err != nil {
			return err
		}
		log.Printf("Database backed up to %s", file)
		return nil
	}
	if err := store.Restore(ctx, store.ExecRunner, cfg.DatabaseURL, restoreFile); err != nil {
		return err
	}
	log.Printf("Database restored from %s", restoreFile)
	return nil
}

func runHTTP(cfg config.Backend) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]handler.HealthCheck{}

	var repo attendance.Repository
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set, using in-memory repository")
		repo = attendance.NewMemory()
	} else {
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		db, err := store.NewDB(pingCtx, cfg.DatabaseURL)
		pingCancel()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := attendance.Migrate(ctx, db.Client); err != nil {
			return err
		}
		repo = attendance.NewRepository(db.Client)
		checks["db"] = db.Healthy
	}

	var q queue.Queue
	runNotifier := true
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		redisClient, err := store.NewRedis(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		q = queue.NewRedisQueue(redisClient.Client, "")
		checks["redis"] = redisClient.Healthy
		// the worker binary drains the shared queue
		runNotifier = false
	}
	if runNotifier {
		go func() {
			if err := attendance.RunNotifier(ctx, q, repo); err != nil && ctx.Err() == nil {
				log.Printf("notifier stopped: %v", err)
			}
		}()
	}

	svc := attendance.NewService(repo, q, attendance.Options{
		SigningKey:    cfg.JWTSigningKey,
		Issuer:        issuer,
		TokenTTL:      cfg.TokenTTL,
		ResetTTL:      cfg.ResetTTL,
		LateAfter:     cfg.LateAfter,
		DetainedBelow: cfg.DetainedBelow,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := handler.NewRouter(handler.New(svc, checks), handler.RouterOptions{
		SigningKey:      cfg.JWTSigningKey,
		Issuer:          issuer,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Registry:        reg,
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
