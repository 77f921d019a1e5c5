package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testKey = "test-signing-key"

func TestIssueAndParse(t *testing.T) {
	token, exp, err := Issue("alice", "attend", testKey, time.Hour, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) <= 0 {
		t.Fatal("expiry in the past")
	}
	claims, err := Parse(token, testKey, "attend")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "alice" {
		t.Fatalf("user = %q", claims.UserID)
	}
	if _, err := Parse(token, "other-key", "attend"); err == nil {
		t.Fatal("expected signature failure")
	}
	if _, err := Parse(token, testKey, "someone-else"); err == nil {
		t.Fatal("expected issuer mismatch")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, _, err := Issue("alice", "attend", testKey, time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(token, testKey, "attend"); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestBearerAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", BearerAuth(testKey, "attend"), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c))
	})
	token, _, _ := Issue("bob", "attend", testKey, time.Hour, time.Now())

	cases := []struct {
		header string
		status int
		body   string
	}{
		{"", http.StatusUnauthorized, ""},
		{"Bearer garbage", http.StatusUnauthorized, ""},
		{"Bearer " + token, http.StatusOK, "bob"},
		{"bearer " + token, http.StatusOK, "bob"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Fatalf("%q: status = %d, want %d", tc.header, w.Code, tc.status)
		}
		if tc.body != "" && w.Body.String() != tc.body {
			t.Fatalf("%q: body = %q", tc.header, w.Body.String())
		}
	}
}
