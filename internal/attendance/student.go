package attendance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"attendclient/internal/queue"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
	searchLimit    = 50
	analyticsDays  = 30
	reportWeeks    = 4
)

func (s *Service) StudentProfile(ctx context.Context, userID string) (StudentProfile, error) {
	u, err := s.student(ctx, userID)
	if err != nil {
		return StudentProfile{}, err
	}
	return StudentProfile{UserID: u.UserID, Name: u.Name, Email: u.Email, Year: u.Year, Branch: u.Branch}, nil
}

// UpdateStudentProfile applies the non-empty fields of upd.
func (s *Service) UpdateStudentProfile(ctx context.Context, userID string, upd ProfileUpdate) error {
	u, err := s.student(ctx, userID)
	if err != nil {
		return err
	}
	set(&u.Name, upd.Name)
	set(&u.Email, upd.Email)
	set(&u.Year, upd.Year)
	set(&u.Branch, upd.Branch)
	return s.saveProfile(ctx, u)
}

func (s *Service) saveProfile(ctx context.Context, u *User) error {
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return &Error{Status: http.StatusBadRequest, Message: "Email already registered.", Code: CodeDuplicateKey, Err: err}
		}
		return storeError(err, "User not found.")
	}
	s.logActivity(ctx, u.UserID, "profile_update", "")
	return nil
}

func set(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

// MarkAttendance checks the student in. The current timetable slot, if any,
// names the period; arriving more than LateAfter past its start marks the
// record late and notifies faculty.
func (s *Service) MarkAttendance(ctx context.Context, userID, wifiName, blockName string) error {
	if wifiName == "" || blockName == "" {
		return badRequest("Wi-Fi name and block name are required.")
	}
	if _, err := s.student(ctx, userID); err != nil {
		return err
	}
	now := s.now()
	entries, err := s.repo.ListTimetable(ctx, TimetableFilter{UserID: userID})
	if err != nil {
		return storeError(err, "")
	}

	rec := &Record{
		UserID:    userID,
		CheckIn:   now,
		BlockName: blockName,
		WifiName:  wifiName,
		Period:    FreePeriod,
		Status:    StatusPresent,
	}
	if slot, start, ok := currentSlot(entries, now); ok {
		rec.Period = slot.Period
		if sinceMidnight(now) > start+s.opts.LateAfter {
			rec.Status = StatusLate
		}
	}
	if err := s.repo.InsertRecord(ctx, rec); err != nil {
		return storeError(err, "")
	}
	s.logActivity(ctx, userID, "mark_attendance", rec.Period)
	if rec.Status == StatusLate {
		s.announceLate(ctx, LateArrival{StudentID: userID, Period: rec.Period, At: now})
	}
	return nil
}

// currentSlot finds today's entry whose window contains now.
func currentSlot(entries []TimetableEntry, now time.Time) (TimetableEntry, time.Duration, bool) {
	day := strings.ToLower(now.Weekday().String())
	t := sinceMidnight(now)
	for _, e := range entries {
		if e.Day != day {
			continue
		}
		start, ok1 := clock(e.StartTime)
		end, ok2 := clock(e.EndTime)
		if !ok1 || !ok2 {
			continue
		}
		if start <= t && t <= end {
			return e, start, true
		}
	}
	return TimetableEntry{}, 0, false
}

// Checkout closes the open record and stores its length in minutes. A late
// record stays late.
func (s *Service) Checkout(ctx context.Context, userID string) error {
	rec, err := s.repo.OpenRecord(ctx, userID)
	if err != nil {
		return storeError(err, "No active attendance record found.")
	}
	now := s.now()
	minutes := int(now.Sub(rec.CheckIn) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	rec.CheckOut = &now
	rec.Duration = &minutes
	if rec.Status != StatusLate {
		rec.Status = StatusPresent
	}
	if err := s.repo.UpdateRecord(ctx, rec); err != nil {
		return storeError(err, "No active attendance record found.")
	}
	s.logActivity(ctx, userID, "checkout", "")
	return nil
}

// StudentTimetable lists the student's slots in weekday order.
func (s *Service) StudentTimetable(ctx context.Context, userID string) ([]Slot, error) {
	entries, err := s.repo.ListTimetable(ctx, TimetableFilter{UserID: userID})
	if err != nil {
		return nil, storeError(err, "")
	}
	if len(entries) == 0 {
		return nil, notFound("Timetable not found.")
	}
	out := make([]Slot, 0, len(entries))
	for _, e := range entries {
		out = append(out, slotView(e, false))
	}
	return out, nil
}

// History pages through the student's records, newest first.
func (s *Service) History(ctx context.Context, userID string, page, perPage int) (HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	records, err := s.repo.ListRecords(ctx, RecordFilter{UserID: userID})
	if err != nil {
		return HistoryPage{}, storeError(err, "")
	}
	total := len(records)
	res := HistoryPage{
		Records:    []RecordView{},
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
		TotalItems: total,
	}
	// Checked before multiplying so huge page numbers cannot overflow.
	if page > res.TotalPages {
		return res, nil
	}
	start := (page - 1) * perPage
	end := min(start+perPage, total)
	for _, r := range records[start:end] {
		res.Records = append(res.Records, recordView(r))
	}
	return res, nil
}

// Analytics reports daily attendance rates over the last 30 days.
func (s *Service) Analytics(ctx context.Context, userID string) (Analytics, error) {
	now := s.now()
	records, err := s.repo.ListRecords(ctx, RecordFilter{
		UserID: userID,
		From:   now.AddDate(0, 0, -analyticsDays),
		To:     now,
	})
	if err != nil {
		return Analytics{}, storeError(err, "")
	}
	rates := dailyRates(records)
	return Analytics{OverallAttendanceRate: meanRate(rates), DailyAttendanceRates: rates}, nil
}

// Report summarizes the four most recent weeks with attendance.
func (s *Service) Report(ctx context.Context, userID string) (Report, error) {
	records, err := s.repo.ListRecords(ctx, RecordFilter{UserID: userID})
	if err != nil {
		return Report{}, storeError(err, "")
	}
	return Report{WeeklyReport: weeklyReport(records, reportWeeks)}, nil
}

// RequestCorrection files a pending correction for one of the student's
// own records.
func (s *Service) RequestCorrection(ctx context.Context, userID string, attendanceID int64, reason string) error {
	if attendanceID <= 0 || strings.TrimSpace(reason) == "" {
		return badRequest("Attendance ID and reason are required.")
	}
	rec, err := s.repo.GetRecord(ctx, attendanceID)
	if err != nil {
		return storeError(err, "Attendance record not found")
	}
	if rec.UserID != userID {
		return notFound("Attendance record not found")
	}
	now := s.now()
	c := &CorrectionRequest{
		UserID:       userID,
		AttendanceID: attendanceID,
		Reason:       reason,
		Status:       "pending",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.InsertCorrection(ctx, c); err != nil {
		return storeError(err, "")
	}
	s.logActivity(ctx, userID, "request_correction", reason)
	return nil
}

// Search filters the student's records by text and an inclusive date range.
func (s *Service) Search(ctx context.Context, userID string, in SearchInput) ([]SearchResult, error) {
	from, to, err := s.dateRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListRecords(ctx, RecordFilter{UserID: userID, From: from, To: to})
	if err != nil {
		return nil, storeError(err, "")
	}
	q := strings.ToLower(in.Query)
	out := []SearchResult{}
	for _, r := range records {
		if q != "" && !strings.Contains(strings.ToLower(r.Period), q) &&
			!strings.Contains(strings.ToLower(r.BlockName), q) &&
			!strings.Contains(strings.ToLower(r.Status), q) {
			continue
		}
		out = append(out, SearchResult{
			ID:           r.ID,
			Date:         r.CheckIn.Format(dateLayout),
			Period:       r.Period,
			BlockName:    r.BlockName,
			Status:       r.Status,
			CheckInTime:  r.CheckIn.Format(isoLayout),
			CheckOutTime: isoPtr(r.CheckOut),
		})
		if len(out) == searchLimit {
			break
		}
	}
	return out, nil
}

// dateRange parses YYYY-MM-DD bounds. The end day is included whole.
func (s *Service) dateRange(start, end string) (time.Time, time.Time, error) {
	var from, to time.Time
	loc := s.now().Location()
	if start != "" {
		t, err := time.ParseInLocation(dateLayout, start, loc)
		if err != nil {
			return from, to, badRequest("Invalid date format. Use YYYY-MM-DD.")
		}
		from = t
	}
	if end != "" {
		t, err := time.ParseInLocation(dateLayout, end, loc)
		if err != nil {
			return from, to, badRequest("Invalid date format. Use YYYY-MM-DD.")
		}
		to = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return from, to, nil
}

// NotifyUpcomingClasses summarises the student's classes for tomorrow and
// delivers the summary to their notification inbox. It returns the summary.
func (s *Service) NotifyUpcomingClasses(ctx context.Context, userID string) (string, error) {
	if _, err := s.student(ctx, userID); err != nil {
		return "", err
	}
	entries, err := s.repo.ListTimetable(ctx, TimetableFilter{UserID: userID})
	if err != nil {
		return "", storeError(err, "")
	}
	now := s.now()
	tomorrow := strings.ToLower(now.AddDate(0, 0, 1).Weekday().String())
	var classes []TimetableEntry
	for _, e := range entries {
		if e.Day == tomorrow {
			classes = append(classes, e)
		}
	}
	if len(classes) == 0 {
		return "", notFound("No classes found for tomorrow.")
	}
	SortTimetable(classes)

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d classes tomorrow:", len(classes))
	for _, c := range classes {
		fmt.Fprintf(&b, "\n%s at %s in %s", c.Period, c.StartTime, c.BlockName)
	}
	evt := UpcomingClasses{StudentID: userID, Summary: b.String(), At: now}
	s.publish(ctx, queue.TypeUpcomingClasses, userID, evt, func() error {
		return NotifyUpcoming(ctx, s.repo, evt)
	})
	s.logActivity(ctx, userID, "notify_upcoming_classes", "")
	return evt.Summary, nil
}

// StudentNotifications lists the student's unread notifications.
func (s *Service) StudentNotifications(ctx context.Context, userID string) ([]NotificationView, error) {
	if _, err := s.student(ctx, userID); err != nil {
		return nil, err
	}
	ns, err := s.repo.ListNotifications(ctx, userID, true)
	if err != nil {
		return nil, storeError(err, "")
	}
	return notificationViews(ns), nil
}
