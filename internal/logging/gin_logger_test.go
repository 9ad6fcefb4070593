package logging

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestGinLogrusRecoveryRepanicsErrAbortHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(GinLogrusRecovery())
	engine.GET("/abort", func(c *gin.Context) {
		panic(http.ErrAbortHandler)
	})

	req := httptest.NewRequest(http.MethodGet, "/abort", nil)
	recorder := httptest.NewRecorder()

	defer func() {
		recovered := recover()
		if recovered == nil {
			t.Fatalf("expected panic, got nil")
		}
		err, ok := recovered.(error)
		if !ok {
			t.Fatalf("expected error panic, got %T", recovered)
		}
		if !errors.Is(err, http.ErrAbortHandler) {
			t.Fatalf("expected ErrAbortHandler, got %v", err)
		}
		if err != http.ErrAbortHandler {
			t.Fatalf("expected exact ErrAbortHandler sentinel, got %v", err)
		}
	}()

	engine.ServeHTTP(recorder, req)
}

func TestGinLogrusRecoveryHandlesRegularPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(GinLogrusRecovery())
	engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"code":500`) {
		t.Fatalf("expected envelope body, got %s", recorder.Body.String())
	}
}

func TestGinLogrusLoggerUsesIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen string
	engine := gin.New()
	engine.Use(GinLogrusLogger())
	engine.GET("/api/ping", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		if GetGinRequestID(c) != seen {
			t.Errorf("gin and context request ids differ")
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set(HeaderRequestID, "0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0")
	engine.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "0f1e2d3c" {
		t.Fatalf("request id = %q, want 0f1e2d3c", seen)
	}

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	if len(seen) != 8 || seen == "0f1e2d3c" {
		t.Fatalf("generated request id = %q", seen)
	}
}

func TestGinLogrusLoggerReportsEnvelopeCode(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hook := test.NewGlobal()
	defer hook.Reset()

	engine := gin.New()
	engine.Use(GinLogrusLogger())
	engine.POST("/api/auth/login", func(c *gin.Context) {
		SetEnvelopeCode(c, 1001)
		c.JSON(http.StatusOK, gin.H{"code": 1001, "message": "invalid username or password", "success": false})
	})

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	if len(recorder.Header().Get(HeaderRequestID)) != 8 {
		t.Fatalf("response request id = %q", recorder.Header().Get(HeaderRequestID))
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatalf("no log entry")
	}
	if entry.Level != log.WarnLevel {
		t.Fatalf("level = %s, want warning", entry.Level)
	}
	if entry.Data["code"] != 1001 || entry.Data["status"] != http.StatusOK || entry.Data["path"] != "/api/auth/login" {
		t.Fatalf("fields = %v", entry.Data)
	}
}
