package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendclient/internal/attendance"
	"attendclient/internal/auth"
)

func (h *Handler) StudentProfile(c *gin.Context) {
	p, err := h.svc.StudentProfile(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	data(c, p)
}

func (h *Handler) UpdateStudentProfile(c *gin.Context) {
	var upd attendance.ProfileUpdate
	if !bind(c, &upd) {
		return
	}
	upd.Department = nil
	if err := h.svc.UpdateStudentProfile(c.Request.Context(), auth.CurrentUser(c), upd); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "Profile updated successfully.")
}

func (h *Handler) MarkAttendance(c *gin.Context) {
	var req struct {
		WifiName  string `json:"wifi_name"`
		BlockName string `json:"block_name"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.svc.MarkAttendance(c.Request.Context(), auth.CurrentUser(c), req.WifiName, req.BlockName); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "Attendance marked successfully.")
}

func (h *Handler) Checkout(c *gin.Context) {
	if err := h.svc.Checkout(c.Request.Context(), auth.CurrentUser(c)); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "Checked out successfully.")
}

func (h *Handler) StudentTimetable(c *gin.Context) {
	slots, err := h.svc.StudentTimetable(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"timetable": slots})
}

func (h *Handler) AttendanceHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	res, err := h.svc.History(c.Request.Context(), auth.CurrentUser(c), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{
		"data":        res.Records,
		"page":        res.Page,
		"per_page":    res.PerPage,
		"total_pages": res.TotalPages,
		"total_items": res.TotalItems,
	})
}

func (h *Handler) AttendanceAnalytics(c *gin.Context) {
	res, err := h.svc.Analytics(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	data(c, res)
}

func (h *Handler) AttendanceReport(c *gin.Context) {
	res, err := h.svc.Report(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	data(c, res)
}

func (h *Handler) RequestCorrection(c *gin.Context) {
	var req struct {
		AttendanceID flexID `json:"attendance_id"`
		Reason       string `json:"reason"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.svc.RequestCorrection(c.Request.Context(), auth.CurrentUser(c), int64(req.AttendanceID), req.Reason); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "Correction request submitted")
}

func (h *Handler) Search(c *gin.Context) {
	res, err := h.svc.Search(c.Request.Context(), auth.CurrentUser(c), attendance.SearchInput{
		Query:     c.Query("query"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	data(c, res)
}

func (h *Handler) NotifyUpcomingClasses(c *gin.Context) {
	if _, err := h.svc.NotifyUpcomingClasses(c.Request.Context(), auth.CurrentUser(c)); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "Notification sent")
}

func (h *Handler) StudentNotifications(c *gin.Context) {
	res, err := h.svc.StudentNotifications(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"notifications": res})
}
