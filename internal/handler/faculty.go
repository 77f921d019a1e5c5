package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendclient/internal/attendance"
	"attendclient/internal/auth"
)

func (h *Handler) FacultyProfile(c *gin.Context) {
	p, err := h.svc.FacultyProfile(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	data(c, p)
}

func (h *Handler) UpdateFacultyProfile(c *gin.Context) {
	var upd attendance.ProfileUpdate
	if !bind(c, &upd) {
		return
	}
	upd.Year, upd.Branch = nil, nil
	if err := h.svc.UpdateFacultyProfile(c.Request.Context(), auth.CurrentUser(c), upd); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "Profile updated successfully.")
}

func (h *Handler) EnterTimetable(c *gin.Context) {
	var in attendance.TimetableInput
	if !bind(c, &in) {
		return
	}
	if err := h.svc.EnterTimetable(c.Request.Context(), auth.CurrentUser(c), in); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusCreated, "Timetable entered successfully.")
}

func (h *Handler) FacultyTimetable(c *gin.Context) {
	slots, err := h.svc.FacultyTimetable(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	data(c, slots)
}

func (h *Handler) OverallAnalytics(c *gin.Context) {
	res, err := h.svc.OverallAnalytics(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	data(c, res)
}

func (h *Handler) StudentAnalytics(c *gin.Context) {
	res, err := h.svc.StudentAnalytics(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	data(c, res)
}

func (h *Handler) DetainedStudents(c *gin.Context) {
	res, err := h.svc.Detained(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	data(c, res)
}

func (h *Handler) StudentsByAttendance(c *gin.Context) {
	pct, err := strconv.ParseFloat(c.Query("percentage"), 64)
	if err != nil {
		badRequest(c, "Percentage parameter is required")
		return
	}
	res, err := h.svc.ByAttendance(c.Request.Context(), auth.CurrentUser(c), pct)
	if err != nil {
		fail(c, err)
		return
	}
	data(c, res)
}

func (h *Handler) AttendanceStatistics(c *gin.Context) {
	res, err := h.svc.Statistics(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	data(c, res)
}

func (h *Handler) PendingRequests(c *gin.Context) {
	res, err := h.svc.PendingRequests(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	data(c, res)
}

func (h *Handler) UpdateAttendance(c *gin.Context) {
	var req struct {
		AttendanceID flexID `json:"attendance_id"`
		NewStatus    string `json:"new_status"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.svc.UpdateAttendance(c.Request.Context(), auth.CurrentUser(c), int64(req.AttendanceID), req.NewStatus); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "Attendance updated successfully")
}

// ExportAttendance streams the report file; failures use the envelope.
func (h *Handler) ExportAttendance(c *gin.Context) {
	file, err := h.svc.Export(c.Request.Context(), auth.CurrentUser(c), attendance.ExportInput{
		Format:    c.DefaultQuery("format", "csv"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

func (h *Handler) Notifications(c *gin.Context) {
	res, err := h.svc.Notifications(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"notifications": res})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	var req struct {
		NotificationID flexID `json:"notification_id"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.svc.MarkNotificationRead(c.Request.Context(), auth.CurrentUser(c), int64(req.NotificationID)); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "Notification marked as read")
}
