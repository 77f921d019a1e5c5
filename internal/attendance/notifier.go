package attendance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"attendclient/internal/queue"
)

// LateArrival is the payload of a queue.TypeLateArrival message.
type LateArrival struct {
	StudentID string    `json:"student_id"`
	Period    string    `json:"period"`
	At        time.Time `json:"at"`
}

// UpcomingClasses is the payload of a queue.TypeUpcomingClasses message.
type UpcomingClasses struct {
	StudentID string    `json:"student_id"`
	Summary   string    `json:"summary"`
	At        time.Time `json:"at"`
}

// publish hands evt to the queue. Without a queue, or when publishing
// fails, deliver runs inline.
func (s *Service) publish(ctx context.Context, typ, studentID string, evt any, deliver func() error) {
	if s.events != nil {
		body, err := json.Marshal(evt)
		if err == nil {
			err = s.events.Publish(ctx, queue.Message{Type: typ, Body: body})
		}
		if err == nil {
			return
		}
		log.Printf("publish %s for %s: %v; delivering inline", typ, studentID, err)
	}
	if err := deliver(); err != nil {
		log.Printf("deliver %s for %s: %v", typ, studentID, err)
	}
}

func (s *Service) announceLate(ctx context.Context, evt LateArrival) {
	s.publish(ctx, queue.TypeLateArrival, evt.StudentID, evt, func() error {
		return NotifyLate(ctx, s.repo, evt)
	})
}

// NotifyLate stores a notification for the faculty member whose department
// matches the student's branch. Students without such a faculty member are
// skipped.
func NotifyLate(ctx context.Context, repo Repository, evt LateArrival) error {
	student, err := repo.GetUser(ctx, evt.StudentID)
	if err != nil {
		return fmt.Errorf("load student %s: %w", evt.StudentID, err)
	}
	faculty, err := repo.ListUsers(ctx, RoleFaculty)
	if err != nil {
		return fmt.Errorf("list faculty: %w", err)
	}
	for _, f := range faculty {
		if f.Department == "" || f.Department != student.Branch {
			continue
		}
		n := &Notification{
			RecipientID: f.UserID,
			StudentID:   student.UserID,
			Message:     fmt.Sprintf("Student %s is late for %s class.", student.Name, evt.Period),
			CreatedAt:   evt.At,
		}
		if err := repo.InsertNotification(ctx, n); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
		return nil
	}
	log.Printf("no faculty for branch %q, dropping late notice for %s", student.Branch, student.UserID)
	return nil
}

// NotifyUpcoming stores the class summary in the student's own inbox.
func NotifyUpcoming(ctx context.Context, repo Repository, evt UpcomingClasses) error {
	n := &Notification{
		RecipientID: evt.StudentID,
		StudentID:   evt.StudentID,
		Message:     evt.Summary,
		CreatedAt:   evt.At,
	}
	if err := repo.InsertNotification(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// RunNotifier consumes notification events until ctx ends.
func RunNotifier(ctx context.Context, q queue.Queue, repo Repository) error {
	msgs, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for msg := range msgs {
		if err := deliver(ctx, repo, msg); err != nil {
			log.Printf("notifier: %v", err)
		}
	}
	return ctx.Err()
}

func deliver(ctx context.Context, repo Repository, msg queue.Message) error {
	switch msg.Type {
	case queue.TypeLateArrival:
		var evt LateArrival
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			return fmt.Errorf("bad %s payload: %w", msg.Type, err)
		}
		return NotifyLate(ctx, repo, evt)
	case queue.TypeUpcomingClasses:
		var evt UpcomingClasses
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			return fmt.Errorf("bad %s payload: %w", msg.Type, err)
		}
		return NotifyUpcoming(ctx, repo, evt)
	default:
		log.Printf("notifier: skipping message type %q", msg.Type)
		return nil
	}
}
