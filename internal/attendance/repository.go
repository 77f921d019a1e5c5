package attendance

import (
	"context"
	"time"
)

// Repository persists accounts, attendance and timetable data.
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, userID string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
	ListUsers(ctx context.Context, role string) ([]User, error)
	LogActivity(ctx context.Context, userID, activity, details string, at time.Time) error

	InsertRecord(ctx context.Context, r *Record) error
	GetRecord(ctx context.Context, id int64) (*Record, error)
	OpenRecord(ctx context.Context, userID string) (*Record, error)
	UpdateRecord(ctx context.Context, r *Record) error
	ListRecords(ctx context.Context, f RecordFilter) ([]Record, error)

	InsertTimetable(ctx context.Context, e *TimetableEntry) error
	ListTimetable(ctx context.Context, f TimetableFilter) ([]TimetableEntry, error)

	InsertCorrection(ctx context.Context, c *CorrectionRequest) error
	ListCorrections(ctx context.Context, status string) ([]CorrectionRequest, error)

	InsertNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, recipientID string, id int64) error
}
