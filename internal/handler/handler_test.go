package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"attendclient/internal/apiclient"
	"attendclient/internal/attendance"
	"attendclient/internal/handler"
	"attendclient/internal/tokenstore"
)

const (
	signingKey = "handler-test-key"
	issuer     = "attend-test"
	password   = "Passw0rdOK"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type stack struct {
	srv   *httptest.Server
	repo  *attendance.Memory
	clock *clock
}

// newStack serves the API over the in-memory repository. The clock starts
// on Monday 2 March 2099 at 09:20 UTC so issued tokens stay valid.
func newStack(t *testing.T, rateLimit int) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := &stack{
		repo:  attendance.NewMemory(),
		clock: &clock{now: time.Date(2099, 3, 2, 9, 20, 0, 0, time.UTC)},
	}
	svc := attendance.NewService(st.repo, nil, attendance.Options{
		SigningKey: signingKey,
		Issuer:     issuer,
		LateAfter:  10 * time.Minute,
		Now:        st.clock.Now,
	})
	h := handler.New(svc, map[string]handler.HealthCheck{
		"db": func(context.Context) bool { return true },
	})
	r := handler.NewRouter(h, handler.RouterOptions{
		SigningKey:      signingKey,
		Issuer:          issuer,
		RateLimitPerMin: rateLimit,
		Registry:        prometheus.NewRegistry(),
		Quiet:           true,
	})
	st.srv = httptest.NewServer(r)
	t.Cleanup(st.srv.Close)
	return st
}

func (s *stack) client() *apiclient.Client {
	return apiclient.New(apiclient.Config{BaseURL: s.srv.URL, Timeout: 5 * time.Second}, tokenstore.NewMemory())
}

func mustMessage(t *testing.T, want string) func(string, error) {
	return func(got string, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("expected %q, got error %v", want, err)
		}
		if got != want {
			t.Fatalf("message = %q, want %q", got, want)
		}
	}
}

func signUp(t *testing.T, s *stack) (student, faculty *apiclient.Client) {
	t.Helper()
	ctx := context.Background()
	anon := s.client()
	mustMessage(t, "User registered successfully.")(anon.Register(ctx, apiclient.RegisterRequest{
		ID: "f1", Name: "Prof One", Role: apiclient.RoleFaculty, Email: "f1@uni.test", Password: password, Department: "CSE",
	}))
	mustMessage(t, "User registered successfully.")(anon.Register(ctx, apiclient.RegisterRequest{
		ID: "s1", Name: "Sam", Role: apiclient.RoleStudent, Email: "s1@uni.test", Password: password, Year: "2", Branch: "CSE",
	}))

	faculty, student = s.client(), s.client()
	if _, err := faculty.Login(ctx, "f1", password); err != nil {
		t.Fatalf("faculty login: %v", err)
	}
	if _, err := student.Login(ctx, "s1", password); err != nil {
		t.Fatalf("student login: %v", err)
	}
	return student, faculty
}

func TestStudentAndFacultyFlow(t *testing.T) {
	s := newStack(t, 0)
	ctx := context.Background()
	student, faculty := signUp(t, s)

	if _, err := student.GetTimetable(ctx); err == nil || err.Error() != "Timetable not found." {
		t.Fatalf("empty timetable: %v", err)
	}

	mustMessage(t, "Timetable entered successfully.")(faculty.EnterTimetable(ctx, apiclient.TimetableEntry{
		UserID: "s1", Day: "Monday", Period: "P1", StartTime: "09:00", EndTime: "10:00", BlockName: "B1", WifiName: "campus",
	}))
	entries, err := faculty.GetTimetableEntries(ctx)
	if err != nil || len(entries) != 1 || entries[0].UserID != "s1" || entries[0].Day != "monday" {
		t.Fatalf("faculty timetable = %+v, %v", entries, err)
	}
	slots, err := student.GetTimetable(ctx)
	if err != nil || len(slots) != 1 || slots[0].Period != "P1" {
		t.Fatalf("student timetable = %+v, %v", slots, err)
	}

	mustMessage(t, "Attendance marked successfully.")(student.MarkAttendance(ctx, "campus", "B1"))
	s.clock.Advance(40 * time.Minute)
	mustMessage(t, "Checked out successfully.")(student.Checkout(ctx))
	if _, err := student.Checkout(ctx); err == nil || err.Error() != "No active attendance record found." {
		t.Fatalf("second checkout: %v", err)
	}

	history, err := student.GetAttendanceHistoryPage(ctx, 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if history.TotalItems != 1 || history.PerPage != 5 || len(history.Records) != 1 {
		t.Fatalf("history = %+v", history)
	}
	rec := history.Records[0]
	if rec.Status != "late" || rec.Duration == nil || *rec.Duration != "40" || rec.CheckOutTime == nil {
		t.Fatalf("record = %+v", rec)
	}

	analytics, err := student.GetAttendanceAnalytics(ctx)
	if err != nil || len(analytics.DailyAttendanceRates) != 1 {
		t.Fatalf("analytics = %+v, %v", analytics, err)
	}
	report, err := student.GetAttendanceReport(ctx)
	if err != nil || len(report.WeeklyReport) != 1 || report.WeeklyReport[0].TotalPeriods != 1 {
		t.Fatalf("report = %+v, %v", report, err)
	}
	found, err := student.SearchAttendance(ctx, apiclient.SearchQuery{Query: "b1", StartDate: "2099-03-02", EndDate: "2099-03-02"})
	if err != nil || len(found) != 1 || found[0].Date != "2099-03-02" {
		t.Fatalf("search = %+v, %v", found, err)
	}
	mustMessage(t, "Correction request submitted")(student.RequestAttendanceCorrection(ctx, rec.ID, "bus was late"))

	notes, err := faculty.GetNotifications(ctx)
	if err != nil || len(notes) != 1 || notes[0].StudentID != "s1" {
		t.Fatalf("notifications = %+v, %v", notes, err)
	}
	mustMessage(t, "Notification marked as read")(faculty.MarkNotificationRead(ctx, notes[0].ID))

	pending, err := faculty.GetPendingRequests(ctx)
	if err != nil || len(pending) != 1 || pending[0].AttendanceID != rec.ID {
		t.Fatalf("pending = %+v, %v", pending, err)
	}
	detained, err := faculty.GetDetainedStudents(ctx)
	if err != nil || len(detained) != 1 {
		t.Fatalf("detained = %+v, %v", detained, err)
	}
	mustMessage(t, "Attendance updated successfully")(faculty.UpdateAttendance(ctx, rec.ID, "present"))

	overall, err := faculty.GetOverallAnalytics(ctx)
	if err != nil || overall.Attendance != 100 {
		t.Fatalf("overall = %+v, %v", overall, err)
	}
	below, err := faculty.GetStudentsByAttendance(ctx, 50)
	if err != nil || len(below) != 0 {
		t.Fatalf("by attendance = %+v, %v", below, err)
	}
	stats, err := faculty.GetAttendanceStatistics(ctx)
	if err != nil || len(stats) != 1 || stats[0].PresentCount != 1 {
		t.Fatalf("statistics = %+v, %v", stats, err)
	}
	sa, err := faculty.GetStudentAnalytics(ctx)
	if err != nil || len(sa.Students) != 1 || sa.ZoneDistribution.Green != 1 {
		t.Fatalf("student analytics = %+v, %v", sa, err)
	}

	file, err := faculty.ExportAttendance(ctx, apiclient.ExportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if file.Filename != "attendance_report.csv" || !strings.Contains(string(file.Body), "s1,Sam,1,1,100") {
		t.Fatalf("export = %+v / %s", file, file.Body)
	}
	if _, err := faculty.ExportAttendance(ctx, apiclient.ExportOptions{Format: "pdf"}); err == nil || err.Error() != "Unsupported export format" {
		t.Fatalf("pdf export: %v", err)
	}
}

func TestProfilesAndAccountRecovery(t *testing.T) {
	s := newStack(t, 0)
	ctx := context.Background()
	student, faculty := signUp(t, s)

	name := "Samantha"
	mustMessage(t, "Profile updated successfully.")(student.UpdateStudentProfile(ctx, apiclient.StudentProfileUpdate{Name: &name}))
	p, err := student.GetStudentProfile(ctx)
	if err != nil || p.Name != "Samantha" || p.Branch != "CSE" {
		t.Fatalf("profile = %+v, %v", p, err)
	}
	fp, err := faculty.GetFacultyProfile(ctx)
	if err != nil || fp.Department != "CSE" {
		t.Fatalf("faculty profile = %+v, %v", fp, err)
	}
	if _, err := student.GetFacultyProfile(ctx); err == nil || err.Error() != "Faculty not found" {
		t.Fatalf("student reading faculty profile: %v", err)
	}

	if _, err := student.RefreshToken(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	anon := s.client()
	token, err := anon.ForgotPassword(ctx, "s1")
	if err != nil || token == "" {
		t.Fatalf("forgot: %q, %v", token, err)
	}
	mustMessage(t, "Password reset successfully.")(anon.ResetPassword(ctx, apiclient.ResetPasswordRequest{
		UserID: "s1", ResetToken: token, NewPassword: "Brand9New",
	}))
	if _, err := anon.Login(ctx, "s1", password); err == nil || err.Error() != "Invalid username or password" {
		t.Fatalf("old password: %v", err)
	}
	if _, err := anon.Login(ctx, "s1", "Brand9New"); err != nil {
		t.Fatalf("new password: %v", err)
	}
}

func TestErrorsReachTheClientNormalized(t *testing.T) {
	s := newStack(t, 0)
	ctx := context.Background()
	student, faculty := signUp(t, s)

	anon := s.client()
	_, err := anon.GetStudentProfile(ctx)
	if !apiclient.IsUnauthorized(err) || err.Error() != "Token is missing!" || !errors.Is(err, apiclient.ErrServer) {
		t.Fatalf("anonymous call: %v", err)
	}

	_, err = faculty.EnterTimetable(ctx, apiclient.TimetableEntry{
		UserID: "ghost", Day: "monday", Period: "P1", StartTime: "09:00", EndTime: "10:00", WifiName: "w",
	})
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || apiErr.Code != apiclient.CodeForeignKey {
		t.Fatalf("foreign key: %#v", err)
	}
	if got := apiclient.Describe(err); got != "The referenced record does not exist." {
		t.Fatalf("describe = %q", got)
	}

	_, err = student.EnterTimetable(ctx, apiclient.TimetableEntry{
		UserID: "s1", Day: "monday", Period: "P1", StartTime: "09:00", EndTime: "10:00", WifiName: "w",
	})
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("student entering timetable: %v", err)
	}

	_, err = anon.Register(ctx, apiclient.RegisterRequest{ID: "s1", Name: "x", Role: apiclient.RoleStudent, Email: "x@uni.test", Password: password})
	if err == nil || err.Error() != "User ID already exists." {
		t.Fatalf("duplicate register: %v", err)
	}

	if err := student.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := student.GetStudentProfile(ctx); !apiclient.IsUnauthorized(err) {
		t.Fatalf("after logout: %v", err)
	}
}

func TestSharedRoutesAreRateLimited(t *testing.T) {
	s := newStack(t, 2)
	ctx := context.Background()
	c := s.client()
	for i := 0; i < 2; i++ {
		if _, err := c.Login(ctx, "nobody", password); err == nil || err.Error() != "Invalid username or password" {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	_, err := c.Login(ctx, "nobody", password)
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if apiErr.Message != "Too many requests. Please slow down." {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newStack(t, 0)
	resp, err := http.Get(s.srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(s.srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `attendance_http_requests_total{method="GET",route="/healthz",status="200"} 1`) {
		t.Fatalf("metrics missing healthz counter:\n%s", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newStack(t, 0)
	req, err := http.NewRequest(http.MethodOptions, s.srv.URL+"/student/profile", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Origin", "http://app.example.edu")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		t.Fatalf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q, want *", got)
	}
}

func TestUpcomingClassesReachStudentInbox(t *testing.T) {
	s := newStack(t, 0)
	student, faculty := signUp(t, s)
	ctx := context.Background()

	_, err := student.NotifyUpcomingClasses(ctx)
	if !errors.Is(err, apiclient.ErrServer) || err.Error() != "No classes found for tomorrow." {
		t.Fatalf("no classes: %v", err)
	}

	// The stack clock is a Monday.
	mustMessage(t, "Timetable entered successfully.")(faculty.EnterTimetable(ctx, apiclient.TimetableEntry{
		UserID: "s1", Day: "tuesday", Period: "P3", StartTime: "13:00", EndTime: "14:00", BlockName: "C2", WifiName: "campus",
	}))
	mustMessage(t, "Notification sent")(student.NotifyUpcomingClasses(ctx))

	notes, err := student.GetStudentNotifications(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Message != "You have 1 classes tomorrow:\nP3 at 13:00 in C2" {
		t.Fatalf("student inbox = %+v", notes)
	}
	if _, err := faculty.GetStudentNotifications(ctx); !errors.Is(err, apiclient.ErrServer) {
		t.Fatalf("faculty reading student inbox: %v", err)
	}
}

func TestHugeHistoryPageIsEmptyNotAnError(t *testing.T) {
	s := newStack(t, 0)
	student, _ := signUp(t, s)

	page, err := student.GetAttendanceHistoryPage(context.Background(), 100000000000000000, 100)
	if err != nil {
		t.Fatalf("huge page: %v", err)
	}
	if len(page.Records) != 0 || page.PerPage != 100 {
		t.Fatalf("huge page = %+v", page)
	}
}
