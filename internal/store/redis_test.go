package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisHealthy(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	r, err := NewRedis(mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if !r.Healthy(context.Background()) {
		t.Fatal("expected healthy redis")
	}

	mr.Close()
	if r.Healthy(context.Background()) {
		t.Fatal("expected unhealthy redis after shutdown")
	}
}

func TestNilHandlesAreUnhealthy(t *testing.T) {
	var r *Redis
	if r.Healthy(context.Background()) {
		t.Fatal("nil redis reported healthy")
	}
	var d *DB
	if d.Healthy(context.Background()) {
		t.Fatal("nil db reported healthy")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close nil db: %v", err)
	}
}

func TestNewDBRequiresURL(t *testing.T) {
	if _, err := NewDB(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestNewRedisAcceptsURLs(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	r, err := NewRedis("redis://" + mr.Addr() + "/3")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if got := r.Client.Options().DB; got != 3 {
		t.Fatalf("db = %d, want 3", got)
	}
	if r.Client.Options().DialTimeout != 2*time.Second {
		t.Fatalf("dial timeout = %s", r.Client.Options().DialTimeout)
	}
	if err := r.Client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatal(err)
	}
	mr.Select(3)
	if v, _ := mr.Get("k"); v != "v" {
		t.Fatalf("value not written to db 3, got %q", v)
	}

	if _, err := NewRedis("redis://" + mr.Addr() + "/notanumber"); err == nil {
		t.Fatal("expected error for invalid database number")
	}
}
