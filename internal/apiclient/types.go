package apiclient

import "encoding/json"

// Envelope is the wrapper every backend endpoint replies with. Which payload
// field carries the result depends on the endpoint.
type Envelope struct {
	Status        string          `json:"status"`
	Message       string          `json:"message,omitempty"`
	Code          string          `json:"code,omitempty"`
	Token         string          `json:"token,omitempty"`
	ResetToken    string          `json:"reset_token,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
	Timetable     json.RawMessage `json:"timetable,omitempty"`
	Notifications json.RawMessage `json:"notifications,omitempty"`

	// Pagination, attendance history only.
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

// StatusSuccess marks a usable envelope.
const StatusSuccess = "success"

// Role is the session role chosen at login.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
)

type LoginResult struct {
	Token  string `json:"token"`
	Status string `json:"status"`
}

// RegisterRequest is forwarded verbatim; the client does not check that
// role-specific fields are present.
type RegisterRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Year       string `json:"year,omitempty"`
	Branch     string `json:"branch,omitempty"`
	Department string `json:"department,omitempty"`
}

type ResetPasswordRequest struct {
	UserID      string `json:"user_id"`
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

type StudentProfile struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Year   string `json:"year"`
	Branch string `json:"branch"`
}

type FacultyProfile struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

// StudentProfileUpdate sends only the non-nil fields.
type StudentProfileUpdate struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Year   *string `json:"year,omitempty"`
	Branch *string `json:"branch,omitempty"`
}

// FacultyProfileUpdate sends only the non-nil fields.
type FacultyProfileUpdate struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Department *string `json:"department,omitempty"`
}

// TimetableEntry is one period slot. UserID is the student the slot belongs
// to; the student timetable endpoint leaves it and ID empty.
type TimetableEntry struct {
	ID        int64  `json:"id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Day       string `json:"day"`
	Period    string `json:"period"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	BlockName string `json:"block_name"`
	WifiName  string `json:"wifi_name"`
}

type AttendanceRecord struct {
	ID           int64   `json:"id"`
	CheckInTime  *string `json:"check_in_time"`
	CheckOutTime *string `json:"check_out_time"`
	BlockName    string  `json:"block_name"`
	Period       string  `json:"period"`
	WifiName     string  `json:"wifi_name"`
	Duration     *string `json:"duration"`
	Status       string  `json:"status"`
}

type HistoryPage struct {
	Records    []AttendanceRecord
	Page       int
	PerPage    int
	TotalPages int
	TotalItems int
}

type AttendanceAnalytics struct {
	OverallAttendanceRate float64            `json:"overall_attendance_rate"`
	DailyAttendanceRates  map[string]float64 `json:"daily_attendance_rates"`
}

type WeeklyReport struct {
	Week            int `json:"week"`
	TotalPeriods    int `json:"total_periods"`
	AttendedPeriods int `json:"attended_periods"`
}

type AttendanceReport struct {
	WeeklyReport []WeeklyReport `json:"weekly_report"`
}

type SearchQuery struct {
	Query     string
	StartDate string // YYYY-MM-DD
	EndDate   string
}

type SearchResult struct {
	ID           int64   `json:"id"`
	Date         string  `json:"date"`
	Period       string  `json:"period"`
	BlockName    string  `json:"block_name"`
	Status       string  `json:"status"`
	CheckInTime  string  `json:"check_in_time"`
	CheckOutTime *string `json:"check_out_time"`
}

type OverallAnalytics struct {
	Attendance float64 `json:"attendance"`
}

type StudentAttendance struct {
	UserID               string  `json:"user_id"`
	Name                 string  `json:"name"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

type CorrectionRequest struct {
	ID           int64  `json:"id"`
	UserID       string `json:"user_id"`
	AttendanceID int64  `json:"attendance_id"`
	Reason       string `json:"reason"`
	CreatedAt    string `json:"created_at"`
}

type StudentStat struct {
	UserID               string  `json:"user_id"`
	Name                 string  `json:"name"`
	TotalClasses         int     `json:"total_classes"`
	AttendedClasses      int     `json:"attended_classes"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

type TrendPoint struct {
	Date           string  `json:"date"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// ZoneDistribution buckets students by attendance: green >= 75%,
// yellow 60-75%, red < 60%.
type ZoneDistribution struct {
	Green  int `json:"green"`
	Yellow int `json:"yellow"`
	Red    int `json:"red"`
}

type StudentAnalytics struct {
	Students         []StudentStat    `json:"students"`
	AttendanceTrend  []TrendPoint     `json:"attendance_trend"`
	ZoneDistribution ZoneDistribution `json:"zone_distribution"`
}

type PeriodStatistic struct {
	Period        string `json:"period"`
	TotalStudents int    `json:"total_students"`
	PresentCount  int    `json:"present_count"`
}

type ExportOptions struct {
	Format    string // csv (default)
	StartDate string
	EndDate   string
}

// ExportResult is the downloaded report file.
type ExportResult struct {
	ContentType string
	Filename    string
	Body        []byte
}

type Notification struct {
	ID        int64  `json:"id"`
	StudentID string `json:"student_id"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}
