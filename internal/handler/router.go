package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendclient/internal/auth"
	"attendclient/internal/httpmiddleware"
)

// RouterOptions wires the cross-cutting pieces of the API.
type RouterOptions struct {
	SigningKey string
	Issuer     string
	// RateLimitPerMin bounds /shared requests per client IP. Zero disables it.
	RateLimitPerMin int
	// Registry receives the HTTP metrics and backs /metrics. Nil disables both.
	Registry *prometheus.Registry
	// Quiet drops the request logger, for tests.
	Quiet bool
}

// NewRouter builds the gin engine serving the attendance API.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if !opts.Quiet {
		r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
			SkipPaths: []string{"/healthz", "/metrics"},
		}))
	}
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:   []string{"Content-Disposition"},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(securityHeaders())

	if opts.Registry != nil {
		r.Use(NewMetrics(opts.Registry).Middleware())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}
	r.GET("/healthz", h.Healthz)

	shared := r.Group("/shared")
	if opts.RateLimitPerMin > 0 {
		shared.Use(httpmiddleware.NewClientLimiter(opts.RateLimitPerMin, opts.RateLimitPerMin).GinMiddleware())
	}
	requireToken := auth.BearerAuth(opts.SigningKey, opts.Issuer)
	{
		shared.POST("/register", h.Register)
		shared.POST("/login", h.Login)
		shared.POST("/refresh", requireToken, h.Refresh)
		shared.POST("/forgot_password", h.ForgotPassword)
		shared.POST("/reset_password", h.ResetPassword)
	}

	student := r.Group("/student", requireToken)
	{
		student.GET("/profile", h.StudentProfile)
		student.PUT("/profile", h.UpdateStudentProfile)
		student.POST("/mark_attendance", h.MarkAttendance)
		student.POST("/checkout", h.Checkout)
		student.GET("/view_timetable", h.StudentTimetable)
		student.GET("/attendance_history", h.AttendanceHistory)
		student.GET("/attendance_analytics", h.AttendanceAnalytics)
		student.GET("/attendance_report", h.AttendanceReport)
		student.POST("/request_correction", h.RequestCorrection)
		student.GET("/search", h.Search)
		student.GET("/notify_upcoming_classes", h.NotifyUpcomingClasses)
		student.GET("/notifications", h.StudentNotifications)
	}

	faculty := r.Group("/faculty", requireToken)
	{
		faculty.GET("/profile", h.FacultyProfile)
		faculty.PUT("/profile", h.UpdateFacultyProfile)
		faculty.POST("/enter_timetable", h.EnterTimetable)
		faculty.GET("/view_timetable", h.FacultyTimetable)
		faculty.GET("/overall_analytics", h.OverallAnalytics)
		faculty.GET("/student_analytics", h.StudentAnalytics)
		faculty.GET("/detained_students", h.DetainedStudents)
		faculty.GET("/students_by_attendance", h.StudentsByAttendance)
		faculty.GET("/attendance_statistics", h.AttendanceStatistics)
		faculty.GET("/pending_requests", h.PendingRequests)
		faculty.POST("/update_attendance", h.UpdateAttendance)
		faculty.GET("/export_attendance", h.ExportAttendance)
		faculty.GET("/notifications", h.Notifications)
		faculty.POST("/notifications", h.MarkNotificationRead)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Resource not found."})
	})
	return r
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
