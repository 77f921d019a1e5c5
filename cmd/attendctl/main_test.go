package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"attendclient/internal/attendance"
	"attendclient/internal/handler"
)

const password = "Passw0rdOK"

type cli struct {
	t       *testing.T
	server  string
	session string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	gin.SetMode(gin.TestMode)
	now := time.Date(2099, 3, 2, 9, 20, 0, 0, time.UTC)
	svc := attendance.NewService(attendance.NewMemory(), nil, attendance.Options{
		SigningKey: "cli-test-key",
		Issuer:     "cli-test",
		LateAfter:  10 * time.Minute,
		Now:        func() time.Time { return now },
	})
	r := handler.NewRouter(handler.New(svc, nil), handler.RouterOptions{
		SigningKey: "cli-test-key",
		Issuer:     "cli-test",
		Quiet:      true,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &cli{t: t, server: srv.URL, session: filepath.Join(t.TempDir(), "session.json")}
}

// as runs attendctl with a per-user session file.
func (c *cli) as(user string, args ...string) (string, string, int) {
	c.t.Helper()
	full := append([]string{
		"-server", c.server,
		"-token-backend", "file",
		"-token-file", c.session + "." + user,
	}, args...)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func (c *cli) ok(user string, args ...string) string {
	c.t.Helper()
	out, errOut, code := c.as(user, args...)
	if code != 0 {
		c.t.Fatalf("attendctl %v exited %d: %s", args, code, errOut)
	}
	return out
}

func (c *cli) signUp() {
	c.t.Helper()
	c.ok("anon", "register", "-id", "f1", "-name", "Prof One", "-role", "faculty",
		"-email", "f1@uni.test", "-password", password, "-department", "CSE")
	c.ok("anon", "register", "-id", "s1", "-name", "Sam", "-role", "student",
		"-email", "s1@uni.test", "-password", password, "-year", "2", "-branch", "CSE")
	if out := c.ok("f1", "login", "-u", "f1", "-p", password, "-role", "faculty"); out != "Logged in as faculty.\n" {
		c.t.Fatalf("login output = %q", out)
	}
	c.ok("s1", "login", "-u", "s1@uni.test", "-p", password, "-role", "student")
}

func TestProfileFollowsStoredRole(t *testing.T) {
	c := newCLI(t)
	c.signUp()

	if out := c.ok("s1", "profile"); !strings.Contains(out, `"branch": "CSE"`) {
		t.Fatalf("student profile output:\n%s", out)
	}
	if out := c.ok("f1", "profile"); !strings.Contains(out, `"department": "CSE"`) {
		t.Fatalf("faculty profile output:\n%s", out)
	}

	c.ok("s1", "update-profile", "-name", "Samuel")
	if out := c.ok("s1", "profile"); !strings.Contains(out, `"name": "Samuel"`) {
		t.Fatalf("profile not updated:\n%s", out)
	}

	if out := c.ok("s1", "logout"); out != "Logged out.\n" {
		t.Fatalf("logout output = %q", out)
	}
	_, errOut, code := c.as("s1", "profile")
	if code != 1 || !strings.Contains(errOut, "no role stored") {
		t.Fatalf("profile after logout: code %d, stderr %q", code, errOut)
	}
}

func TestAttendanceRoundTrip(t *testing.T) {
	c := newCLI(t)
	c.signUp()

	_, errOut, code := c.as("s1", "timetable")
	if code != 1 || !strings.Contains(errOut, "Timetable not found.") {
		t.Fatalf("empty timetable: code %d, stderr %q", code, errOut)
	}

	c.ok("f1", "enter-timetable", "-student", "s1", "-day", "Monday", "-period", "P1",
		"-start", "09:00", "-end", "10:00", "-block", "B1", "-wifi", "LAB-WIFI")
	if out := c.ok("s1", "timetable"); !strings.Contains(out, `"period": "P1"`) {
		t.Fatalf("student timetable:\n%s", out)
	}

	c.ok("s1", "mark", "-wifi", "LAB-WIFI", "-block", "B1")
	if out := c.ok("f1", "notifications"); !strings.Contains(out, "Student Sam is late for P1 class.") {
		t.Fatalf("late notification missing:\n%s", out)
	}

	report := filepath.Join(t.TempDir(), "report.csv")
	if out := c.ok("f1", "export", "-o", report); !strings.HasPrefix(out, "Saved ") {
		t.Fatalf("export output = %q", out)
	}
	body, err := os.ReadFile(report)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(body), "User ID,Name,Total Classes") || !strings.Contains(string(body), "s1,Sam,1,") {
		t.Fatalf("unexpected csv:\n%s", body)
	}

	_, errOut, code = c.as("f1", "export", "-format", "pdf")
	if code != 1 || !strings.Contains(errOut, "Unsupported export format") {
		t.Fatalf("pdf export: code %d, stderr %q", code, errOut)
	}
}

func TestUsageErrors(t *testing.T) {
	c := newCLI(t)

	if _, _, code := c.as("x"); code != 2 {
		t.Fatalf("no command: code %d, want 2", code)
	}
	if _, errOut, code := c.as("x", "teleport"); code != 2 || !strings.Contains(errOut, `unknown command "teleport"`) {
		t.Fatalf("unknown command: code %d, stderr %q", code, errOut)
	}
	if _, errOut, code := c.as("x", "login", "-u", "s1"); code != 2 || !strings.Contains(errOut, "missing -p, -role") {
		t.Fatalf("missing flags: code %d, stderr %q", code, errOut)
	}
	if _, errOut, code := c.as("x", "login", "-u", "s1", "-p", "x", "-role", "admin"); code != 2 || !strings.Contains(errOut, "student or faculty") {
		t.Fatalf("bad role: code %d, stderr %q", code, errOut)
	}
}

func TestUnreachableServerIsDescribed(t *testing.T) {
	c := &cli{t: t, server: "http://127.0.0.1:1", session: filepath.Join(t.TempDir(), "s")}
	_, errOut, code := c.as("s1", "-timeout", "1s", "checkout")
	if code != 1 || errOut == "" {
		t.Fatalf("code %d, stderr %q", code, errOut)
	}
}

func TestUpcomingClassesAndMetricsDump(t *testing.T) {
	c := newCLI(t)
	c.signUp()

	_, errOut, code := c.as("s1", "upcoming")
	if code != 1 || !strings.Contains(errOut, "No classes found for tomorrow.") {
		t.Fatalf("no classes: code %d, stderr %q", code, errOut)
	}

	c.ok("f1", "enter-timetable", "-student", "s1", "-day", "tuesday", "-period", "P2",
		"-start", "10:00", "-end", "11:00", "-block", "B1", "-wifi", "LAB-WIFI")
	out, errOut, code := c.as("s1", "-metrics-dump", "upcoming")
	if code != 0 || out != "Notification sent\n" {
		t.Fatalf("upcoming: code %d, stdout %q, stderr %q", code, out, errOut)
	}
	if !strings.Contains(errOut, `attendclient_requests_total{operation="notify_upcoming_classes",outcome="success"} 1`) {
		t.Fatalf("metrics dump missing request counter:\n%s", errOut)
	}

	if out := c.ok("s1", "notifications"); !strings.Contains(out, `P2 at 10:00 in B1`) {
		t.Fatalf("student notifications:\n%s", out)
	}
}
