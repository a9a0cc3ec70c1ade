package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/pkg/logger"
)

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2}, logger.Discard())

	if !rl.Allow("u1") || !rl.Allow("u1") {
		t.Fatalf("burst requests rejected")
	}
	if rl.Allow("u1") {
		t.Fatalf("third request allowed past burst")
	}
	if !rl.Allow("u2") {
		t.Fatalf("other user limited")
	}

	rl.Reset("u1")
	if !rl.Allow("u1") {
		t.Fatalf("request rejected after Reset")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: false}, nil)
	for i := 0; i < 100; i++ {
		if !rl.Allow("u1") {
			t.Fatalf("disabled limiter rejected request %d", i)
		}
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1}, logger.Discard())
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(2 * time.Hour)
	rl.Allow("fresh")

	if removed := rl.Cleanup(); removed != 1 {
		t.Fatalf("Cleanup() = %d, want 1", removed)
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"ok", "hi there", false},
		{"empty", "   ", true},
		{"too long", strings.Repeat("a", MaxMessageBytes+1), true},
		{"limit", strings.Repeat("a", MaxMessageBytes), false},
		{"invalid utf8", "hi \xff", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateInput(tt.text); (err != nil) != tt.wantErr {
				t.Fatalf("ValidateInput() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMetricsServerHealth(t *testing.T) {
	srv := NewMetricsServer(0, "/metrics")
	m := NewMetrics()
	m.RecordReply("instant")
	m.RecordCacheHit()

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/health status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "kruthika_chat_replies_total") {
		t.Fatalf("/metrics missing reply counter")
	}
}
