package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"attendclient/internal/attendance"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Handler serves the attendance REST API.
type Handler struct {
	svc    *attendance.Service
	checks map[string]HealthCheck
}

func New(svc *attendance.Service, checks map[string]HealthCheck) *Handler {
	return &Handler{svc: svc, checks: checks}
}

// ---------- Envelope ----------

func success(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["status"] = "success"
	c.JSON(status, body)
}

func message(c *gin.Context, status int, msg string) {
	success(c, status, gin.H{"message": msg})
}

func data(c *gin.Context, v any) {
	success(c, http.StatusOK, gin.H{"data": v})
}

// fail renders err in the error envelope. Unexpected errors are logged and
// their detail withheld.
func fail(c *gin.Context, err error) {
	e := attendance.AsError(err)
	if e.Status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	body := gin.H{"status": "error", "message": e.Message}
	if e.Code != "" {
		body["code"] = e.Code
	}
	c.JSON(e.Status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": msg})
}

// bind decodes the JSON body; an empty body leaves v untouched.
func bind(c *gin.Context, v any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, "Invalid request body.")
		return false
	}
	return true
}

// flexID accepts ids sent either as JSON numbers or numeric strings.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexID(n)
	return nil
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	body := gin.H{"status": "ok"}
	status := http.StatusOK
	for name, check := range h.checks {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, body)
}
