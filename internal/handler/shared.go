package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendclient/internal/attendance"
	"attendclient/internal/auth"
)

func (h *Handler) Register(c *gin.Context) {
	var in attendance.RegisterInput
	if !bind(c, &in) {
		return
	}
	if err := h.svc.Register(c.Request.Context(), in); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusCreated, "User registered successfully.")
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !bind(c, &req) {
		return
	}
	token, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"token": token})
}

func (h *Handler) Refresh(c *gin.Context) {
	token, err := h.svc.Refresh(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"token": token})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if !bind(c, &req) {
		return
	}
	token, err := h.svc.ForgotPassword(c.Request.Context(), req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{
		"message":     "Password reset token generated successfully.",
		"reset_token": token,
	})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var in attendance.ResetInput
	if !bind(c, &in) {
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), in); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "Password reset successfully.")
}
