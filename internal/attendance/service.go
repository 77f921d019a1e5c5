package attendance

import (
	"context"
	"errors"
	"log"
	"time"

	"attendclient/internal/queue"
)

// Options tunes the attendance rules.
type Options struct {
	SigningKey    string
	Issuer        string
	TokenTTL      time.Duration
	ResetTTL      time.Duration
	LateAfter     time.Duration
	DetainedBelow float64
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service implements the student, faculty and account flows on top of a
// Repository. Late arrivals are published to events when it is set and
// handled inline otherwise.
type Service struct {
	repo   Repository
	events queue.Queue
	opts   Options
	now    func() time.Time
}

// NewService creates a service backed by a repository.
func NewService(repo Repository, events queue.Queue, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	if opts.LateAfter < 0 {
		opts.LateAfter = 0
	}
	if opts.DetainedBelow <= 0 {
		opts.DetainedBelow = 75
	}
	if opts.Issuer == "" {
		opts.Issuer = "attendance"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, events: events, opts: opts, now: now}
}

// Issuer is the token issuer the service signs with.
func (s *Service) Issuer() string { return s.opts.Issuer }

func (s *Service) logActivity(ctx context.Context, userID, activity, details string) {
	if err := s.repo.LogActivity(ctx, userID, activity, details, s.now()); err != nil {
		log.Printf("log activity %s for %s: %v", activity, userID, err)
	}
}

func (s *Service) student(ctx context.Context, userID string) (*User, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Student not found")
	}
	if u.Role != RoleStudent {
		return nil, notFound("Student not found")
	}
	return u, nil
}

func (s *Service) faculty(ctx context.Context, userID, deniedMsg string) (*User, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, storeError(err, "")
	}
	if u == nil || u.Role != RoleFaculty {
		return nil, forbidden(deniedMsg)
	}
	return u, nil
}
