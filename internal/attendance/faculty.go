package attendance

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

const (
	accessDenied = "Access denied"
	trendDays    = 7
)

func (s *Service) FacultyProfile(ctx context.Context, userID string) (FacultyProfile, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return FacultyProfile{}, storeError(err, "Faculty not found")
	}
	if u.Role != RoleFaculty {
		return FacultyProfile{}, notFound("Faculty not found")
	}
	return FacultyProfile{UserID: u.UserID, Name: u.Name, Email: u.Email, Department: u.Department}, nil
}

func (s *Service) UpdateFacultyProfile(ctx context.Context, userID string, upd ProfileUpdate) error {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return storeError(err, "Faculty not found")
	}
	if u.Role != RoleFaculty {
		return notFound("Faculty not found")
	}
	set(&u.Name, upd.Name)
	set(&u.Email, upd.Email)
	set(&u.Department, upd.Department)
	return s.saveProfile(ctx, u)
}

// EnterTimetable adds a slot for a student on behalf of a faculty member.
func (s *Service) EnterTimetable(ctx context.Context, facultyID string, in TimetableInput) error {
	if in.StudentID == "" || in.Day == "" || in.Period == "" || in.StartTime == "" ||
		in.EndTime == "" || in.WifiName == "" {
		return badRequest("All fields are required.")
	}
	if _, err := s.faculty(ctx, facultyID, "Only faculty can enter timetable."); err != nil {
		return err
	}
	day := strings.ToLower(strings.TrimSpace(in.Day))
	start, ok1 := clock(in.StartTime)
	end, ok2 := clock(in.EndTime)
	if _, known := dayOrder[day]; !known || !ok1 || !ok2 || end <= start {
		return badRequest("Invalid day or time.")
	}
	e := &TimetableEntry{
		UserID:    in.StudentID,
		CreatedBy: facultyID,
		Day:       day,
		Period:    in.Period,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		BlockName: in.BlockName,
		WifiName:  in.WifiName,
	}
	if err := s.repo.InsertTimetable(ctx, e); err != nil {
		return storeError(err, "")
	}
	s.logActivity(ctx, facultyID, "enter_timetable", in.StudentID)
	return nil
}

// FacultyTimetable lists the slots the faculty member has entered.
func (s *Service) FacultyTimetable(ctx context.Context, facultyID string) ([]Slot, error) {
	if _, err := s.faculty(ctx, facultyID, accessDenied); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListTimetable(ctx, TimetableFilter{CreatedBy: facultyID})
	if err != nil {
		return nil, storeError(err, "")
	}
	out := make([]Slot, 0, len(entries))
	for _, e := range entries {
		out = append(out, slotView(e, true))
	}
	return out, nil
}

// OverallAnalytics is the share of all records marked present.
func (s *Service) OverallAnalytics(ctx context.Context, facultyID string) (Overall, error) {
	if _, err := s.faculty(ctx, facultyID, accessDenied); err != nil {
		return Overall{}, err
	}
	records, err := s.repo.ListRecords(ctx, RecordFilter{})
	if err != nil {
		return Overall{}, storeError(err, "")
	}
	return Overall{Attendance: tallyRecords(records).percentage()}, nil
}

// StudentAnalytics covers the students of the faculty member's department.
func (s *Service) StudentAnalytics(ctx context.Context, facultyID string) (StudentAnalytics, error) {
	f, err := s.faculty(ctx, facultyID, accessDenied)
	if err != nil {
		return StudentAnalytics{}, err
	}
	students, err := s.repo.ListUsers(ctx, RoleStudent)
	if err != nil {
		return StudentAnalytics{}, storeError(err, "")
	}
	records, err := s.repo.ListRecords(ctx, RecordFilter{})
	if err != nil {
		return StudentAnalytics{}, storeError(err, "")
	}
	byUser := tallyByUser(records)

	res := StudentAnalytics{Students: []StudentStat{}}
	inDept := make(map[string]bool)
	for _, st := range students {
		if st.Branch != f.Department {
			continue
		}
		inDept[st.UserID] = true
		t := tally{}
		if bt, ok := byUser[st.UserID]; ok {
			t = *bt
		}
		res.Students = append(res.Students, StudentStat{
			UserID:               st.UserID,
			Name:                 st.Name,
			TotalClasses:         t.total,
			AttendedClasses:      t.attended,
			AttendancePercentage: t.percentage(),
		})
	}
	var deptRecords []Record
	for _, r := range records {
		if inDept[r.UserID] {
			deptRecords = append(deptRecords, r)
		}
	}
	res.AttendanceTrend = trend(deptRecords, s.now(), trendDays)
	res.ZoneDistribution = zonesFor(res.Students)
	return res, nil
}

// Detained lists students below the detention threshold.
func (s *Service) Detained(ctx context.Context, facultyID string) ([]StudentPercentage, error) {
	if _, err := s.faculty(ctx, facultyID, accessDenied); err != nil {
		return nil, err
	}
	return s.studentPercentages(ctx, RecordFilter{}, func(p float64) bool { return p < s.opts.DetainedBelow })
}

// ByAttendance lists students at or below percentage.
func (s *Service) ByAttendance(ctx context.Context, facultyID string, percentage float64) ([]StudentPercentage, error) {
	if _, err := s.faculty(ctx, facultyID, accessDenied); err != nil {
		return nil, err
	}
	return s.studentPercentages(ctx, RecordFilter{}, func(p float64) bool { return p <= percentage })
}

// studentPercentages reports students with at least one record whose
// percentage satisfies keep.
func (s *Service) studentPercentages(ctx context.Context, f RecordFilter, keep func(float64) bool) ([]StudentPercentage, error) {
	stats, err := s.studentTallies(ctx, f)
	if err != nil {
		return nil, err
	}
	out := []StudentPercentage{}
	for _, st := range stats {
		if keep(st.AttendancePercentage) {
			out = append(out, StudentPercentage{UserID: st.UserID, Name: st.Name, AttendancePercentage: st.AttendancePercentage})
		}
	}
	return out, nil
}

func (s *Service) studentTallies(ctx context.Context, f RecordFilter) ([]StudentStat, error) {
	students, err := s.repo.ListUsers(ctx, RoleStudent)
	if err != nil {
		return nil, storeError(err, "")
	}
	records, err := s.repo.ListRecords(ctx, f)
	if err != nil {
		return nil, storeError(err, "")
	}
	byUser := tallyByUser(records)
	var out []StudentStat
	for _, st := range students {
		t, ok := byUser[st.UserID]
		if !ok {
			continue
		}
		out = append(out, StudentStat{
			UserID:               st.UserID,
			Name:                 st.Name,
			TotalClasses:         t.total,
			AttendedClasses:      t.attended,
			AttendancePercentage: t.percentage(),
		})
	}
	return out, nil
}

// Statistics groups the faculty member's slots by period and counts the
// students who checked in for it and the present records.
func (s *Service) Statistics(ctx context.Context, facultyID string) ([]PeriodStat, error) {
	if _, err := s.faculty(ctx, facultyID, accessDenied); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListTimetable(ctx, TimetableFilter{CreatedBy: facultyID})
	if err != nil {
		return nil, storeError(err, "")
	}
	records, err := s.repo.ListRecords(ctx, RecordFilter{})
	if err != nil {
		return nil, storeError(err, "")
	}
	enrolled := make(map[string]map[string]bool)
	for _, e := range entries {
		if enrolled[e.Period] == nil {
			enrolled[e.Period] = make(map[string]bool)
		}
		enrolled[e.Period][e.UserID] = true
	}
	type agg struct {
		students map[string]bool
		present  int
	}
	periods := make(map[string]*agg, len(enrolled))
	for p := range enrolled {
		periods[p] = &agg{students: make(map[string]bool)}
	}
	for _, r := range records {
		if !enrolled[r.Period][r.UserID] {
			continue
		}
		a := periods[r.Period]
		a.students[r.UserID] = true
		if r.Status == StatusPresent {
			a.present++
		}
	}
	out := make([]PeriodStat, 0, len(periods))
	for p, a := range periods {
		out = append(out, PeriodStat{Period: p, TotalStudents: len(a.students), PresentCount: a.present})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func (s *Service) PendingRequests(ctx context.Context, facultyID string) ([]PendingRequest, error) {
	if _, err := s.faculty(ctx, facultyID, accessDenied); err != nil {
		return nil, err
	}
	reqs, err := s.repo.ListCorrections(ctx, "pending")
	if err != nil {
		return nil, storeError(err, "")
	}
	out := make([]PendingRequest, 0, len(reqs))
	for _, c := range reqs {
		out = append(out, PendingRequest{
			ID:           c.ID,
			UserID:       c.UserID,
			AttendanceID: c.AttendanceID,
			Reason:       c.Reason,
			CreatedAt:    c.CreatedAt.Format(isoLayout),
		})
	}
	return out, nil
}

// UpdateAttendance overrides a record's status.
func (s *Service) UpdateAttendance(ctx context.Context, facultyID string, attendanceID int64, status string) error {
	if status != StatusPresent && status != StatusAbsent && status != StatusLate {
		return badRequest("Invalid status")
	}
	if _, err := s.faculty(ctx, facultyID, accessDenied); err != nil {
		return err
	}
	rec, err := s.repo.GetRecord(ctx, attendanceID)
	if err != nil {
		return storeError(err, "Attendance record not found")
	}
	rec.Status = status
	if err := s.repo.UpdateRecord(ctx, rec); err != nil {
		return storeError(err, "Attendance record not found")
	}
	s.logActivity(ctx, facultyID, "update_attendance", strconv.FormatInt(attendanceID, 10)+":"+status)
	return nil
}

var exportHeader = []string{"User ID", "Name", "Total Classes", "Attended Classes", "Attendance Percentage"}

// Export renders per-student totals as CSV.
func (s *Service) Export(ctx context.Context, facultyID string, in ExportInput) (*ExportFile, error) {
	if _, err := s.faculty(ctx, facultyID, accessDenied); err != nil {
		return nil, err
	}
	format := strings.ToLower(in.Format)
	if format == "" {
		format = "csv"
	}
	if format != "csv" {
		return nil, badRequest("Unsupported export format")
	}
	from, to, err := s.dateRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	stats, err := s.studentTallies(ctx, RecordFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, storeError(err, "")
	}
	for _, st := range stats {
		row := []string{
			st.UserID,
			st.Name,
			strconv.Itoa(st.TotalClasses),
			strconv.Itoa(st.AttendedClasses),
			strconv.FormatFloat(st.AttendancePercentage, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return nil, storeError(err, "")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, storeError(err, "")
	}
	return &ExportFile{ContentType: "text/csv", Filename: "attendance_report.csv", Body: buf.Bytes()}, nil
}

// Notifications lists unread notifications, newest first.
func (s *Service) Notifications(ctx context.Context, facultyID string) ([]NotificationView, error) {
	if _, err := s.faculty(ctx, facultyID, accessDenied); err != nil {
		return nil, err
	}
	ns, err := s.repo.ListNotifications(ctx, facultyID, true)
	if err != nil {
		return nil, storeError(err, "")
	}
	return notificationViews(ns), nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, facultyID string, id int64) error {
	if _, err := s.faculty(ctx, facultyID, accessDenied); err != nil {
		return err
	}
	if id <= 0 {
		return badRequest("Notification ID is required")
	}
	if err := s.repo.MarkNotificationRead(ctx, facultyID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(http.StatusNotFound, "Notification not found")
		}
		return storeError(err, "")
	}
	return nil
}
