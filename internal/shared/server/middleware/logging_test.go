package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"internship-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID(), Auth(AuthConfig{AllowHeaderIdentity: true}), Logging())
	router.PUT("/api/v1/applications/:id/interview/approve", func(c *gin.Context) {
		c.Set(ApplicationIDKey, int64(42))
		c.Set(StatusTransitionKey, "PENDING_INTERVIEW->PENDING_CONFIRMATION")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	defer telemetry.SetOutput(os.Stdout)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/applications/42/interview/approve", nil)
	req.Header.Set("X-User-Id", "owner-1")
	req.Header.Set("X-User-Role", "owner")
	req.Header.Set("X-Department-Id", "3")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 {
		t.Fatalf("expected log output")
	}
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}

	required := []string{"request_id", "user_id", "role", "route", "application_id", "duration_ms", "status", "status_transition"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["user_id"] != "owner-1" {
		t.Fatalf("unexpected user_id: %v", payload["user_id"])
	}
	if payload["role"] != "owner" {
		t.Fatalf("unexpected role: %v", payload["role"])
	}
	if payload["route"] != "/api/v1/applications/:id/interview/approve" {
		t.Fatalf("unexpected route: %v", payload["route"])
	}
	if payload["status_transition"] != "PENDING_INTERVIEW->PENDING_CONFIRMATION" {
		t.Fatalf("unexpected status_transition: %v", payload["status_transition"])
	}
}
