package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Runner executes an external command. ExecRunner is the real one.
type Runner func(ctx context.Context, name string, args ...string) error

// ExecRunner runs the command with its output on stderr.
func ExecRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Backup writes a custom-format pg_dump of dbURL into dir and returns the
// file path. Files are named backup_YYYYMMDD_HHMMSS.sql.
func Backup(ctx context.Context, run Runner, dbURL, dir string, now time.Time) (string, error) {
	if dbURL == "" {
		return "", errors.New("database url required")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	file := filepath.Join(dir, "backup_"+now.Format("20060102_150405")+".sql")
	if err := run(ctx, "pg_dump", "--format=custom", "--blobs", "--verbose", "--file="+file, dbURL); err != nil {
		_ = os.Remove(file)
		return "", fmt.Errorf("backup failed: %w", err)
	}
	return file, nil
}

// Restore loads a Backup file into dbURL with pg_restore.
func Restore(ctx context.Context, run Runner, dbURL, file string) error {
	if dbURL == "" {
		return errors.New("database url required")
	}
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("backup file: %w", err)
	}
	if err := run(ctx, "pg_restore", "--verbose", "--dbname="+dbURL, file); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	return nil
}
