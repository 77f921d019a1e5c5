package attendance

import (
	"strconv"
	"time"
)

// isoLayout matches the timestamps the mobile clients already parse.
const isoLayout = "2006-01-02T15:04:05"

const dateLayout = "2006-01-02"

type RegisterInput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Year       string `json:"year"`
	Branch     string `json:"branch"`
	Department string `json:"department"`
}

type ResetInput struct {
	UserID      string `json:"user_id"`
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

// ProfileUpdate carries only the fields the caller wants changed.
type ProfileUpdate struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Year       *string `json:"year"`
	Branch     *string `json:"branch"`
	Department *string `json:"department"`
}

type TimetableInput struct {
	StudentID string `json:"timetable_user_id"`
	Day       string `json:"day"`
	Period    string `json:"period"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	BlockName string `json:"block_name"`
	WifiName  string `json:"wifi_name"`
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

// Slot is a rendered timetable entry. ID and UserID are only filled for
// faculty views.
type Slot struct {
	ID        int64  `json:"id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Day       string `json:"day"`
	Period    string `json:"period"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	BlockName string `json:"block_name"`
	WifiName  string `json:"wifi_name"`
}

type RecordView struct {
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
	Records    []RecordView
	Page       int
	PerPage    int
	TotalPages int
	TotalItems int
}

type Analytics struct {
	OverallAttendanceRate float64            `json:"overall_attendance_rate"`
	DailyAttendanceRates  map[string]float64 `json:"daily_attendance_rates"`
}

type WeeklyReport struct {
	Week            int `json:"week"`
	TotalPeriods    int `json:"total_periods"`
	AttendedPeriods int `json:"attended_periods"`
}

type Report struct {
	WeeklyReport []WeeklyReport `json:"weekly_report"`
}

type SearchInput struct {
	Query     string
	StartDate string
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

type Overall struct {
	Attendance float64 `json:"attendance"`
}

type StudentPercentage struct {
	UserID               string  `json:"user_id"`
	Name                 string  `json:"name"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

type PendingRequest struct {
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

type Zones struct {
	Green  int `json:"green"`
	Yellow int `json:"yellow"`
	Red    int `json:"red"`
}

type StudentAnalytics struct {
	Students         []StudentStat `json:"students"`
	AttendanceTrend  []TrendPoint  `json:"attendance_trend"`
	ZoneDistribution Zones         `json:"zone_distribution"`
}

type PeriodStat struct {
	Period        string `json:"period"`
	TotalStudents int    `json:"total_students"`
	PresentCount  int    `json:"present_count"`
}

type ExportInput struct {
	Format    string
	StartDate string
	EndDate   string
}

// ExportFile is a ready-to-download report.
type ExportFile struct {
	ContentType string
	Filename    string
	Body        []byte
}

type NotificationView struct {
	ID        int64  `json:"id"`
	StudentID string `json:"student_id"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

func isoPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(isoLayout)
	return &s
}

func recordView(r Record) RecordView {
	checkIn := r.CheckIn.Format(isoLayout)
	v := RecordView{
		ID:           r.ID,
		CheckInTime:  &checkIn,
		CheckOutTime: isoPtr(r.CheckOut),
		BlockName:    r.BlockName,
		Period:       r.Period,
		WifiName:     r.WifiName,
		Status:       r.Status,
	}
	if r.Duration != nil && *r.Duration > 0 {
		d := strconv.Itoa(*r.Duration)
		v.Duration = &d
	}
	return v
}

func slotView(e TimetableEntry, withOwner bool) Slot {
	s := Slot{
		Day:       e.Day,
		Period:    e.Period,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		BlockName: e.BlockName,
		WifiName:  e.WifiName,
	}
	if withOwner {
		s.ID = e.ID
		s.UserID = e.UserID
	}
	return s
}

func notificationViews(ns []Notification) []NotificationView {
	out := make([]NotificationView, 0, len(ns))
	for _, n := range ns {
		out = append(out, NotificationView{
			ID:        n.ID,
			StudentID: n.StudentID,
			Message:   n.Message,
			CreatedAt: n.CreatedAt.Format(isoLayout),
		})
	}
	return out
}
