package apiclient

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

func (c *Client) GetFacultyProfile(ctx context.Context) (FacultyProfile, error) {
	return getData[FacultyProfile](ctx, c, "get_faculty_profile", "/faculty/profile", nil)
}

func (c *Client) UpdateFacultyProfile(ctx context.Context, update FacultyProfileUpdate) (string, error) {
	return c.message(ctx, "update_faculty_profile", http.MethodPut, "/faculty/profile", update)
}

// GetTimetableEntries returns the entries the faculty member entered,
// wrapped in "data".
func (c *Client) GetTimetableEntries(ctx context.Context) ([]TimetableEntry, error) {
	return getData[[]TimetableEntry](ctx, c, "get_timetable_entries", "/faculty/view_timetable", nil)
}

// EnterTimetable adds a period slot for the student named in entry.UserID.
func (c *Client) EnterTimetable(ctx context.Context, entry TimetableEntry) (string, error) {
	return c.message(ctx, "enter_timetable", http.MethodPost, "/faculty/enter_timetable", map[string]string{
		"timetable_user_id": entry.UserID,
		"day":               entry.Day,
		"period":            entry.Period,
		"start_time":        entry.StartTime,
		"end_time":          entry.EndTime,
		"block_name":        entry.BlockName,
		"wifi_name":         entry.WifiName,
	})
}

func (c *Client) GetOverallAnalytics(ctx context.Context) (OverallAnalytics, error) {
	return getData[OverallAnalytics](ctx, c, "get_overall_analytics", "/faculty/overall_analytics", nil)
}

func (c *Client) GetDetainedStudents(ctx context.Context) ([]StudentAttendance, error) {
	return getData[[]StudentAttendance](ctx, c, "get_detained_students", "/faculty/detained_students", nil)
}

func (c *Client) GetPendingRequests(ctx context.Context) ([]CorrectionRequest, error) {
	return getData[[]CorrectionRequest](ctx, c, "get_pending_requests", "/faculty/pending_requests", nil)
}

func (c *Client) GetStudentAnalytics(ctx context.Context) (StudentAnalytics, error) {
	return getData[StudentAnalytics](ctx, c, "get_student_analytics", "/faculty/student_analytics", nil)
}

// GetStudentsByAttendance lists students at or below percentage attendance.
func (c *Client) GetStudentsByAttendance(ctx context.Context, percentage float64) ([]StudentAttendance, error) {
	q := url.Values{"percentage": {strconv.FormatFloat(percentage, 'f', -1, 64)}}
	return getData[[]StudentAttendance](ctx, c, "get_students_by_attendance", "/faculty/students_by_attendance", q)
}

func (c *Client) GetAttendanceStatistics(ctx context.Context) ([]PeriodStatistic, error) {
	return getData[[]PeriodStatistic](ctx, c, "get_attendance_statistics", "/faculty/attendance_statistics", nil)
}

// UpdateAttendance sets a record's status: present, absent or late.
func (c *Client) UpdateAttendance(ctx context.Context, attendanceID int64, newStatus string) (string, error) {
	return c.message(ctx, "update_attendance", http.MethodPost, "/faculty/update_attendance", map[string]any{
		"attendance_id": attendanceID,
		"new_status":    newStatus,
	})
}

// ExportAttendance downloads the attendance report. The server answers with
// a file on success and with an envelope on failure.
func (c *Client) ExportAttendance(ctx context.Context, opts ExportOptions) (ExportResult, error) {
	const op = "export_attendance"
	start := time.Now()
	res, err := c.export(ctx, opts)
	c.metrics.observe(op, start, err)
	return res, err
}

func (c *Client) export(ctx context.Context, opts ExportOptions) (ExportResult, error) {
	const op = "export_attendance"
	q := url.Values{}
	if opts.Format != "" {
		q.Set("format", opts.Format)
	}
	if opts.StartDate != "" {
		q.Set("start_date", opts.StartDate)
	}
	if opts.EndDate != "" {
		q.Set("end_date", opts.EndDate)
	}
	resp, err := c.send(ctx, request{op: op, method: http.MethodGet, path: "/faculty/export_attendance", query: q})
	if err != nil {
		return ExportResult{}, err
	}

	contentType := resp.header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if resp.status >= 200 && resp.status < 300 && mediaType != "application/json" {
		return ExportResult{
			ContentType: contentType,
			Filename:    attachmentName(resp.header.Get("Content-Disposition")),
			Body:        resp.body,
		}, nil
	}

	env, err := decodeEnvelope(op, resp)
	if err != nil {
		return ExportResult{}, err
	}
	return ExportResult{ContentType: contentType, Body: env.Data}, nil
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["filename"])
}

// GetNotifications returns unread late-arrival notifications.
func (c *Client) GetNotifications(ctx context.Context) ([]Notification, error) {
	const op = "get_notifications"
	env, err := c.call(ctx, request{op: op, method: http.MethodGet, path: "/faculty/notifications"})
	if err != nil {
		return nil, err
	}
	return decodeField[[]Notification](op, env.Notifications)
}

func (c *Client) MarkNotificationRead(ctx context.Context, notificationID int64) (string, error) {
	return c.message(ctx, "mark_notification_read", http.MethodPost, "/faculty/notifications", map[string]int64{
		"notification_id": notificationID,
	})
}
