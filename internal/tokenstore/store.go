// Package tokenstore persists the session credential and related keys on the
// device running the client.
package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"attendclient/internal/store"
)

// Well-known keys.
const (
	TokenKey = "token"
	RoleKey  = "role"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("tokenstore: key not found")

// Store is a small durable key/value store. Implementations must allow
// concurrent reads.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Open builds a store for the named backend: "memory", "file" or "redis".
func Open(backend, path, redisAddr string) (Store, error) {
	switch backend {
	case "memory":
		return NewMemory(), nil
	case "file", "":
		return NewFile(path)
	case "redis":
		r, err := store.NewRedis(redisAddr)
		if err != nil {
			return nil, fmt.Errorf("tokenstore: %w", err)
		}
		return NewRedis(r.Client, ""), nil
	default:
		return nil, fmt.Errorf("tokenstore: unknown backend %q", backend)
	}
}
