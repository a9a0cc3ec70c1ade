package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/internal/i18n"
	"github.com/kruthika-chat/kruthika-go/internal/middleware"
	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/kruthika-chat/kruthika-go/internal/services/media"
	"github.com/kruthika-chat/kruthika-go/internal/services/responder"
	"github.com/kruthika-chat/kruthika-go/pkg/logger"
)

type fakeResponder struct {
	result responder.Result
	err    error
	last   responder.Request
}

func (f *fakeResponder) Respond(_ context.Context, req responder.Request) (responder.Result, error) {
	f.last = req
	return f.result, f.err
}

type fakeProfiles map[string]models.UserProfile

func (f fakeProfiles) Profile(userID string) (models.UserProfile, bool) {
	p, ok := f[userID]
	return p, ok
}

type fakeHistory struct {
	cleared []string
	stats   map[string]*models.UserStats
}

func (f *fakeHistory) ClearHistory(_ context.Context, userID string) error {
	f.cleared = append(f.cleared, userID)
	return nil
}

func (f *fakeHistory) GetUserStats(_ context.Context, userID string) (*models.UserStats, error) {
	if s, ok := f.stats[userID]; ok {
		return s, nil
	}
	return &models.UserStats{UserID: userID}, nil
}

type fakeMedia struct {
	added []string
}

func (f *fakeMedia) Add(_ context.Context, kind media.Kind, url string) error {
	if kind != media.KindImage && kind != media.KindAudio {
		return errors.New("unknown kind")
	}
	f.added = append(f.added, url)
	return nil
}

type testServer struct {
	handler   http.Handler
	responder *fakeResponder
	history   *fakeHistory
	media     *fakeMedia
}

func newTestServer(t *testing.T, rl config.RateLimitConfig) *testServer {
	t.Helper()
	log := logger.Discard()
	localizer, err := i18n.NewLocalizer(&config.I18nConfig{})
	if err != nil {
		t.Fatalf("NewLocalizer() error = %v", err)
	}

	ts := &testServer{
		responder: &fakeResponder{result: responder.Result{
			Reply:  models.Reply{ResponseLines: []string{"heyy", "**kya** haal?"}, NewMood: "happy"},
			Source: responder.SourcePattern,
			Mood:   "happy",
		}},
		history: &fakeHistory{stats: map[string]*models.UserStats{"u2": {UserID: "u2", TotalMessages: 4}}},
		media:   &fakeMedia{},
	}
	h := NewChatHandler(
		&config.ServerConfig{AdminToken: "s3cret"},
		ts.responder,
		fakeProfiles{"u1": {UserID: "u1", ChatStyle: models.StyleCasual}},
		ts.history,
		ts.media,
		middleware.NewRateLimiter(&rl, log),
		middleware.NewMetrics(),
		localizer,
		log,
	)
	ts.handler = h.Router()
	return ts
}

func (ts *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleChat(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})

	rec := ts.do(http.MethodPost, "/api/chat", `{"userId":"u1","message":"hi","mood":"shy"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["source"] != "pattern" || resp["userId"] != "u1" {
		t.Fatalf("response = %v", resp)
	}
	if lines, ok := resp["responseLines"].([]interface{}); !ok || len(lines) != 2 {
		t.Fatalf("responseLines = %v", resp["responseLines"])
	}
	if html, _ := resp["responseHtml"].(string); !strings.Contains(html, "<b>kya</b>") {
		t.Fatalf("responseHtml = %q", html)
	}
	if resp["requestId"] == "" || rec.Header().Get(logger.RequestIDHeader) == "" {
		t.Fatalf("missing request id")
	}
	if ts.responder.last.Mood != "shy" || ts.responder.last.Message != "hi" {
		t.Fatalf("responder got %+v", ts.responder.last)
	}
}

func TestHandleChatKeepsCallerRequestID(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})

	rec := ts.do(http.MethodPost, "/api/chat", `{"userId":"u1","message":"hi"}`,
		map[string]string{logger.RequestIDHeader: "req-42"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get(logger.RequestIDHeader); got != "req-42" {
		t.Fatalf("response header = %q, want req-42", got)
	}
	if ts.responder.last.RequestID != "req-42" {
		t.Fatalf("responder request id = %q, want req-42", ts.responder.last.RequestID)
	}
}

func TestHandleChatAssignsUserID(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})

	rec := ts.do(http.MethodPost, "/api/chat", `{"message":"hello"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ts.responder.last.UserID == "" {
		t.Fatalf("anonymous user id not assigned")
	}
}

func TestHandleChatRejectsBadInput(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})

	for name, body := range map[string]string{
		"malformed": `{"message":`,
		"empty":     `{"userId":"u1","message":"   "}`,
		"too long":  `{"userId":"u1","message":"` + strings.Repeat("a", middleware.MaxMessageBytes+1) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			if rec := ts.do(http.MethodPost, "/api/chat", body, nil); rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleChatRateLimited(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1})

	body := `{"userId":"u1","message":"kaise ho"}`
	if rec := ts.do(http.MethodPost, "/api/chat", body, nil); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := ts.do(http.MethodPost, "/api/chat", body, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "dheere") {
		t.Fatalf("rate limit message not in Hindi: %s", rec.Body)
	}
}

func TestHandleChatResponderError(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})
	ts.responder.err = errors.New("boom")

	if rec := ts.do(http.MethodPost, "/api/chat", `{"userId":"u1","message":"hi"}`, nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandleProfile(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})

	if rec := ts.do(http.MethodGet, "/api/profile/u1", "", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"chatStyle":"casual"`) {
		t.Fatalf("profile u1 = %d %s", rec.Code, rec.Body)
	}
	if rec := ts.do(http.MethodGet, "/api/profile/u2", "", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"totalMessages":4`) {
		t.Fatalf("profile u2 = %d %s", rec.Code, rec.Body)
	}
	if rec := ts.do(http.MethodGet, "/api/profile/nobody", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown profile status = %d, want 404", rec.Code)
	}
}

func TestHandleClearHistory(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})

	if rec := ts.do(http.MethodDelete, "/api/history/u1", "", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(ts.history.cleared) != 1 || ts.history.cleared[0] != "u1" {
		t.Fatalf("cleared = %v", ts.history.cleared)
	}
}

func TestHandleAddMedia(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})
	body := `{"kind":"image","url":"https://cdn.example.com/a.jpg"}`

	if rec := ts.do(http.MethodPost, "/api/admin/media", body, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("no token status = %d, want 403", rec.Code)
	}
	if rec := ts.do(http.MethodPost, "/api/admin/media", body, map[string]string{"X-Admin-Token": "wrong"}); rec.Code != http.StatusForbidden {
		t.Fatalf("wrong token status = %d, want 403", rec.Code)
	}
	if rec := ts.do(http.MethodPost, "/api/admin/media", body, map[string]string{"X-Admin-Token": "s3cret"}); rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if rec := ts.do(http.MethodPost, "/api/admin/media", `{"kind":"video","url":"/v.mp4"}`, map[string]string{"X-Admin-Token": "s3cret"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad kind status = %d, want 400", rec.Code)
	}
	if len(ts.media.added) != 1 {
		t.Fatalf("added = %v", ts.media.added)
	}
}

func TestHealthAndCORS(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})

	if rec := ts.do(http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	rec := ts.do(http.MethodOptions, "/api/chat", "", map[string]string{
		"Origin":                        "https://chat.example.com",
		"Access-Control-Request-Method": "POST",
	})
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("CORS preflight not answered: %v", rec.Header())
	}
}
