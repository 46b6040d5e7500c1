package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wa_scheduler/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

func TestMessageTwiML_EscapesSpecialCharacters(t *testing.T) {
	twiml := messageTwiML(`Meeting "Q&A" <today>`)

	if !strings.Contains(twiml, "Q&amp;A") {
		t.Errorf("expected & to be escaped, got %q", twiml)
	}
	if !strings.Contains(twiml, "&lt;today&gt;") {
		t.Errorf("expected angle brackets to be escaped, got %q", twiml)
	}
	if !strings.HasPrefix(twiml, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("expected an XML declaration, got %q", twiml)
	}
}

func TestEmptyTwiML_HasNoMessage(t *testing.T) {
	twiml := emptyTwiML()

	if strings.Contains(twiml, "<Message>") {
		t.Errorf("expected no message element, got %q", twiml)
	}
	if !strings.Contains(twiml, "<Response>") {
		t.Errorf("expected a response element, got %q", twiml)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(ratelimiter.NewTokenBucket(1, 2)))
	r.POST("/webhook", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// First 2 requests should pass (equal to capacity).
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("expected status OK on request %d, got %d", i+1, w.Code)
		}
	}

	// The 3rd request should be rate limited.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", w.Code)
	}
}
