package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"attendclient/internal/apiclient"
	"attendclient/internal/tokenstore"
)

type runner func(ctx context.Context, a *app) (any, error)

type command struct {
	help  string
	setup func(fs *flag.FlagSet) runner
}

// noFlags wraps commands that take no arguments.
func noFlags(fn runner) func(*flag.FlagSet) runner {
	return func(*flag.FlagSet) runner { return fn }
}

func optional(s *string) *string {
	if *s == "" {
		return nil
	}
	return s
}

var commands = map[string]command{
	"register": {"create an account", func(fs *flag.FlagSet) runner {
		var req apiclient.RegisterRequest
		role := fs.String("role", "", "student or faculty")
		fs.StringVar(&req.ID, "id", "", "user id")
		fs.StringVar(&req.Name, "name", "", "full name")
		fs.StringVar(&req.Email, "email", "", "email address")
		fs.StringVar(&req.Password, "password", "", "password")
		fs.StringVar(&req.Year, "year", "", "study year (students)")
		fs.StringVar(&req.Branch, "branch", "", "branch (students)")
		fs.StringVar(&req.Department, "department", "", "department (faculty)")
		return func(ctx context.Context, a *app) (any, error) {
			req.Role = apiclient.Role(*role)
			return a.client.Register(ctx, req)
		}
	}},

	"login": {"log in and remember the session", func(fs *flag.FlagSet) runner {
		user := fs.String("u", "", "user id or email")
		pass := fs.String("p", "", "password")
		role := fs.String("role", "", "student or faculty")
		return func(ctx context.Context, a *app) (any, error) {
			if err := required("u", *user, "p", *pass, "role", *role); err != nil {
				return nil, err
			}
			if r := apiclient.Role(*role); r != apiclient.RoleStudent && r != apiclient.RoleFaculty {
				return nil, usageError("-role must be student or faculty")
			}
			if _, err := a.client.Login(ctx, *user, *pass); err != nil {
				return nil, err
			}
			if err := a.tokens.Set(ctx, tokenstore.RoleKey, *role); err != nil {
				return nil, err
			}
			return "Logged in as " + *role + ".", nil
		}
	}},

	"logout": {"forget the stored session", noFlags(func(ctx context.Context, a *app) (any, error) {
		if err := a.client.Logout(ctx); err != nil {
			return nil, err
		}
		if err := a.tokens.Delete(ctx, tokenstore.RoleKey); err != nil {
			return nil, err
		}
		return "Logged out.", nil
	})},

	"refresh": {"renew the session token", noFlags(func(ctx context.Context, a *app) (any, error) {
		if _, err := a.client.RefreshToken(ctx); err != nil {
			return nil, err
		}
		return "Session refreshed.", nil
	})},

	"forgot-password": {"request a password reset token", func(fs *flag.FlagSet) runner {
		id := fs.String("id", "", "user id")
		return func(ctx context.Context, a *app) (any, error) {
			if err := required("id", *id); err != nil {
				return nil, err
			}
			token, err := a.client.ForgotPassword(ctx, *id)
			if err != nil {
				return nil, err
			}
			return map[string]string{"reset_token": token}, nil
		}
	}},

	"reset-password": {"set a new password with a reset token", func(fs *flag.FlagSet) runner {
		var req apiclient.ResetPasswordRequest
		fs.StringVar(&req.UserID, "id", "", "user id")
		fs.StringVar(&req.ResetToken, "token", "", "reset token")
		fs.StringVar(&req.NewPassword, "new-password", "", "new password")
		return func(ctx context.Context, a *app) (any, error) {
			return a.client.ResetPassword(ctx, req)
		}
	}},

	"profile": {"show your profile", noFlags(func(ctx context.Context, a *app) (any, error) {
		role, err := a.role(ctx)
		if err != nil {
			return nil, err
		}
		if role == apiclient.RoleFaculty {
			return a.client.GetFacultyProfile(ctx)
		}
		return a.client.GetStudentProfile(ctx)
	})},

	"update-profile": {"change profile fields", func(fs *flag.FlagSet) runner {
		name := fs.String("name", "", "new name")
		email := fs.String("email", "", "new email")
		year := fs.String("year", "", "new year (students)")
		branch := fs.String("branch", "", "new branch (students)")
		dept := fs.String("department", "", "new department (faculty)")
		return func(ctx context.Context, a *app) (any, error) {
			role, err := a.role(ctx)
			if err != nil {
				return nil, err
			}
			if role == apiclient.RoleFaculty {
				return a.client.UpdateFacultyProfile(ctx, apiclient.FacultyProfileUpdate{
					Name: optional(name), Email: optional(email), Department: optional(dept),
				})
			}
			return a.client.UpdateStudentProfile(ctx, apiclient.StudentProfileUpdate{
				Name: optional(name), Email: optional(email), Year: optional(year), Branch: optional(branch),
			})
		}
	}},

	"mark": {"check in to the current period", func(fs *flag.FlagSet) runner {
		wifi := fs.String("wifi", "", "Wi-Fi network name")
		block := fs.String("block", "", "block name")
		return func(ctx context.Context, a *app) (any, error) {
			return a.client.MarkAttendance(ctx, *wifi, *block)
		}
	}},

	"checkout": {"close the open attendance record", noFlags(func(ctx context.Context, a *app) (any, error) {
		return a.client.Checkout(ctx)
	})},

	"timetable": {"show your timetable", noFlags(func(ctx context.Context, a *app) (any, error) {
		role, err := a.role(ctx)
		if err != nil {
			return nil, err
		}
		if role == apiclient.RoleFaculty {
			return a.client.GetTimetableEntries(ctx)
		}
		return a.client.GetTimetable(ctx)
	})},

	"enter-timetable": {"add a timetable slot for a student", func(fs *flag.FlagSet) runner {
		var e apiclient.TimetableEntry
		fs.StringVar(&e.UserID, "student", "", "student user id")
		fs.StringVar(&e.Day, "day", "", "weekday")
		fs.StringVar(&e.Period, "period", "", "period name")
		fs.StringVar(&e.StartTime, "start", "", "start time HH:MM")
		fs.StringVar(&e.EndTime, "end", "", "end time HH:MM")
		fs.StringVar(&e.BlockName, "block", "", "block name")
		fs.StringVar(&e.WifiName, "wifi", "", "Wi-Fi network name")
		return func(ctx context.Context, a *app) (any, error) {
			return a.client.EnterTimetable(ctx, e)
		}
	}},

	"history": {"list attendance records", func(fs *flag.FlagSet) runner {
		page := fs.Int("page", 1, "page number")
		perPage := fs.Int("per-page", 10, "records per page")
		return func(ctx context.Context, a *app) (any, error) {
			return a.client.GetAttendanceHistoryPage(ctx, *page, *perPage)
		}
	}},

	"analytics": {"attendance rates for the last 30 days", noFlags(func(ctx context.Context, a *app) (any, error) {
		return a.client.GetAttendanceAnalytics(ctx)
	})},

	"report": {"weekly attendance report", noFlags(func(ctx context.Context, a *app) (any, error) {
		return a.client.GetAttendanceReport(ctx)
	})},

	"correction": {"ask faculty to correct a record", func(fs *flag.FlagSet) runner {
		id := fs.Int64("id", 0, "attendance record id")
		reason := fs.String("reason", "", "why the record is wrong")
		return func(ctx context.Context, a *app) (any, error) {
			return a.client.RequestAttendanceCorrection(ctx, *id, *reason)
		}
	}},

	"search": {"search attendance records", func(fs *flag.FlagSet) runner {
		var q apiclient.SearchQuery
		fs.StringVar(&q.Query, "q", "", "text to match in period, block or status")
		fs.StringVar(&q.StartDate, "from", "", "start date YYYY-MM-DD")
		fs.StringVar(&q.EndDate, "to", "", "end date YYYY-MM-DD")
		return func(ctx context.Context, a *app) (any, error) {
			return a.client.SearchAttendance(ctx, q)
		}
	}},

	"overall": {"overall attendance rate", noFlags(func(ctx context.Context, a *app) (any, error) {
		return a.client.GetOverallAnalytics(ctx)
	})},

	"student-analytics": {"per-student attendance for your department", noFlags(func(ctx context.Context, a *app) (any, error) {
		return a.client.GetStudentAnalytics(ctx)
	})},

	"detained": {"students below the attendance threshold", noFlags(func(ctx context.Context, a *app) (any, error) {
		return a.client.GetDetainedStudents(ctx)
	})},

	"by-attendance": {"students at or below a percentage", func(fs *flag.FlagSet) runner {
		pct := fs.Float64("percentage", -1, "attendance percentage")
		return func(ctx context.Context, a *app) (any, error) {
			if *pct < 0 {
				return nil, usageError("missing -percentage")
			}
			return a.client.GetStudentsByAttendance(ctx, *pct)
		}
	}},

	"statistics": {"per-period attendance counts", noFlags(func(ctx context.Context, a *app) (any, error) {
		return a.client.GetAttendanceStatistics(ctx)
	})},

	"pending": {"pending correction requests", noFlags(func(ctx context.Context, a *app) (any, error) {
		return a.client.GetPendingRequests(ctx)
	})},

	"update-attendance": {"change a record's status", func(fs *flag.FlagSet) runner {
		id := fs.Int64("id", 0, "attendance record id")
		status := fs.String("status", "", "present, absent or late")
		return func(ctx context.Context, a *app) (any, error) {
			return a.client.UpdateAttendance(ctx, *id, *status)
		}
	}},

	"export": {"download the attendance report", func(fs *flag.FlagSet) runner {
		var opts apiclient.ExportOptions
		fs.StringVar(&opts.Format, "format", "csv", "report format")
		fs.StringVar(&opts.StartDate, "from", "", "start date YYYY-MM-DD")
		fs.StringVar(&opts.EndDate, "to", "", "end date YYYY-MM-DD")
		out := fs.String("o", "", "output file (default: the server's file name)")
		return func(ctx context.Context, a *app) (any, error) {
			res, err := a.client.ExportAttendance(ctx, opts)
			if err != nil {
				return nil, err
			}
			path := *out
			if path == "" {
				path = res.Filename
			}
			if path == "" || path == "-" {
				_, err := a.out.Write(res.Body)
				return nil, err
			}
			if err := os.WriteFile(path, res.Body, 0o644); err != nil {
				return nil, err
			}
			return fmt.Sprintf("Saved %d bytes to %s.", len(res.Body), path), nil
		}
	}},

	"notifications": {"unread notifications", noFlags(func(ctx context.Context, a *app) (any, error) {
		role, err := a.role(ctx)
		if err != nil {
			return nil, err
		}
		if role == apiclient.RoleFaculty {
			return a.client.GetNotifications(ctx)
		}
		return a.client.GetStudentNotifications(ctx)
	})},

	"upcoming": {"send yourself a summary of tomorrow's classes", noFlags(func(ctx context.Context, a *app) (any, error) {
		return a.client.NotifyUpcomingClasses(ctx)
	})},

	"read-notification": {"mark a notification as read", func(fs *flag.FlagSet) runner {
		id := fs.Int64("id", 0, "notification id")
		return func(ctx context.Context, a *app) (any, error) {
			return a.client.MarkNotificationRead(ctx, *id)
		}
	}},
}
