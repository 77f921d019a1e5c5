package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) GetStudentProfile(ctx context.Context) (StudentProfile, error) {
	return getData[StudentProfile](ctx, c, "get_student_profile", "/student/profile", nil)
}

func (c *Client) UpdateStudentProfile(ctx context.Context, update StudentProfileUpdate) (string, error) {
	return c.message(ctx, "update_student_profile", http.MethodPut, "/student/profile", update)
}

// MarkAttendance checks the student in from the given network and block.
func (c *Client) MarkAttendance(ctx context.Context, wifiName, blockName string) (string, error) {
	return c.message(ctx, "mark_attendance", http.MethodPost, "/student/mark_attendance", map[string]string{
		"wifi_name":  wifiName,
		"block_name": blockName,
	})
}

// Checkout closes the student's open attendance record.
func (c *Client) Checkout(ctx context.Context) (string, error) {
	return c.message(ctx, "checkout", http.MethodPost, "/student/checkout", struct{}{})
}

// GetTimetable returns the student's timetable, which this endpoint sends
// under "timetable" rather than "data".
func (c *Client) GetTimetable(ctx context.Context) ([]TimetableEntry, error) {
	const op = "get_timetable"
	env, err := c.call(ctx, request{op: op, method: http.MethodGet, path: "/student/view_timetable"})
	if err != nil {
		return nil, err
	}
	return decodeField[[]TimetableEntry](op, env.Timetable)
}

// GetAttendanceHistory returns the first page of attendance records.
func (c *Client) GetAttendanceHistory(ctx context.Context) ([]AttendanceRecord, error) {
	return getData[[]AttendanceRecord](ctx, c, "get_attendance_history", "/student/attendance_history", nil)
}

// GetAttendanceHistoryPage returns one page of records with the paging totals.
func (c *Client) GetAttendanceHistoryPage(ctx context.Context, page, perPage int) (HistoryPage, error) {
	const op = "get_attendance_history"
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	env, err := c.call(ctx, request{op: op, method: http.MethodGet, path: "/student/attendance_history", query: q})
	if err != nil {
		return HistoryPage{}, err
	}
	records, err := decodeField[[]AttendanceRecord](op, env.Data)
	if err != nil {
		return HistoryPage{}, err
	}
	return HistoryPage{
		Records:    records,
		Page:       env.Page,
		PerPage:    env.PerPage,
		TotalPages: env.TotalPages,
		TotalItems: env.TotalItems,
	}, nil
}

func (c *Client) GetAttendanceAnalytics(ctx context.Context) (AttendanceAnalytics, error) {
	return getData[AttendanceAnalytics](ctx, c, "get_attendance_analytics", "/student/attendance_analytics", nil)
}

func (c *Client) GetAttendanceReport(ctx context.Context) (AttendanceReport, error) {
	return getData[AttendanceReport](ctx, c, "get_attendance_report", "/student/attendance_report", nil)
}

// RequestAttendanceCorrection files a correction request for one record.
func (c *Client) RequestAttendanceCorrection(ctx context.Context, attendanceID int64, reason string) (string, error) {
	return c.message(ctx, "request_attendance_correction", http.MethodPost, "/student/request_correction", map[string]any{
		"attendance_id": attendanceID,
		"reason":        reason,
	})
}

// SearchAttendance filters the student's records by text and date range.
func (c *Client) SearchAttendance(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	q := url.Values{}
	if query.Query != "" {
		q.Set("query", query.Query)
	}
	if query.StartDate != "" {
		q.Set("start_date", query.StartDate)
	}
	if query.EndDate != "" {
		q.Set("end_date", query.EndDate)
	}
	return getData[[]SearchResult](ctx, c, "search_attendance", "/student/search", q)
}

// NotifyUpcomingClasses asks the server to send the student a summary of
// tomorrow's classes.
func (c *Client) NotifyUpcomingClasses(ctx context.Context) (string, error) {
	return c.message(ctx, "notify_upcoming_classes", http.MethodGet, "/student/notify_upcoming_classes", nil)
}

// GetStudentNotifications returns the student's unread notifications.
func (c *Client) GetStudentNotifications(ctx context.Context) ([]Notification, error) {
	const op = "get_student_notifications"
	env, err := c.call(ctx, request{op: op, method: http.MethodGet, path: "/student/notifications"})
	if err != nil {
		return nil, err
	}
	return decodeField[[]Notification](op, env.Notifications)
}
