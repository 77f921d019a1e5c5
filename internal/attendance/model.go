package attendance

import (
	"errors"
	"time"
)

// Roles.
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
)

// Attendance statuses.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

// FreePeriod is recorded when a check-in matches no timetable slot.
const FreePeriod = "free_period"

// Repository sentinels.
var (
	ErrNotFound   = errors.New("attendance: not found")
	ErrDuplicate  = errors.New("attendance: duplicate key")
	ErrForeignKey = errors.New("attendance: referenced row missing")
)

// User is a student or faculty account.
type User struct {
	ID           int64
	UserID       string
	Name         string
	Role         string
	Email        string
	Year         string
	Branch       string
	Department   string
	PasswordHash string
	ResetToken   string
	ResetExpiry  *time.Time
	CreatedAt    time.Time
}

// Record is one check-in, optionally closed by a checkout.
type Record struct {
	ID        int64
	UserID    string
	CheckIn   time.Time
	CheckOut  *time.Time
	BlockName string
	Period    string
	WifiName  string
	Duration  *int // minutes
	Status    string
}

// TimetableEntry is a period slot for a student, entered by a faculty member.
type TimetableEntry struct {
	ID        int64
	UserID    string
	CreatedBy string
	Day       string
	Period    string
	StartTime string // HH:MM
	EndTime   string
	BlockName string
	WifiName  string
}

// CorrectionRequest asks faculty to revisit one attendance record.
type CorrectionRequest struct {
	ID           int64
	UserID       string
	AttendanceID int64
	Reason       string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Notification is an unread-until-marked message for one user: late
// arrivals for faculty, upcoming class summaries for students.
type Notification struct {
	ID        int64
	RecipientID string
	StudentID string
	Message   string
	CreatedAt time.Time
	IsRead    bool
}

// RecordFilter narrows ListRecords. Zero values match everything.
type RecordFilter struct {
	UserID string
	From   time.Time
	To     time.Time
}

// TimetableFilter narrows ListTimetable.
type TimetableFilter struct {
	UserID    string
	CreatedBy string
}
