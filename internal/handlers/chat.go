package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/internal/i18n"
	"github.com/kruthika-chat/kruthika-go/internal/middleware"
	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/kruthika-chat/kruthika-go/internal/services/media"
	"github.com/kruthika-chat/kruthika-go/internal/services/responder"
	"github.com/kruthika-chat/kruthika-go/pkg/logger"
	"github.com/kruthika-chat/kruthika-go/pkg/markdown"
	"github.com/sirupsen/logrus"
)

// Responder answers one chat message
type Responder interface {
	Respond(ctx context.Context, req responder.Request) (responder.Result, error)
}

// Profiles exposes learned user profiles
type Profiles interface {
	Profile(userID string) (models.UserProfile, bool)
}

// History exposes stored chat history and stats
type History interface {
	ClearHistory(ctx context.Context, userID string) error
	GetUserStats(ctx context.Context, userID string) (*models.UserStats, error)
}

// MediaLibrary accepts new shareable media
type MediaLibrary interface {
	Add(ctx context.Context, kind media.Kind, url string) error
}

// ChatHandler serves the chat HTTP API
type ChatHandler struct {
	config      *config.ServerConfig
	responder   Responder
	profiles    Profiles
	history     History
	media       MediaLibrary
	rateLimiter middleware.RateLimiter
	metrics     *middleware.Metrics
	localizer   *i18n.Localizer
	logger      *logrus.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	cfg *config.ServerConfig,
	responder Responder,
	profiles Profiles,
	history History,
	media MediaLibrary,
	rateLimiter middleware.RateLimiter,
	metrics *middleware.Metrics,
	localizer *i18n.Localizer,
	logger *logrus.Logger,
) *ChatHandler {
	return &ChatHandler{
		config:      cfg,
		responder:   responder,
		profiles:    profiles,
		history:     history,
		media:       media,
		rateLimiter: rateLimiter,
		metrics:     metrics,
		localizer:   localizer,
		logger:      logger,
	}
}

// Router builds the HTTP routes
func (h *ChatHandler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(logger.Middleware(h.logger))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chat", h.HandleChat).Methods(http.MethodPost)
	api.HandleFunc("/profile/{userId}", h.HandleProfile).Methods(http.MethodGet)
	api.HandleFunc("/history/{userId}", h.HandleClearHistory).Methods(http.MethodDelete)
	api.HandleFunc("/admin/media", h.HandleAddMedia).Methods(http.MethodPost)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	origins := h.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Admin-Token", logger.RequestIDHeader},
		ExposedHeaders: []string{logger.RequestIDHeader},
		MaxAge:         300,
	})(r)
}

type chatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
	Mood    string `json:"mood"`
}

type chatResponse struct {
	UserID    string `json:"userId"`
	RequestID string `json:"requestId"`
	Source    string `json:"source"`
	Mood      string `json:"mood,omitempty"`
	models.Reply
	ResponseHTML string `json:"responseHtml,omitempty"`
}

// HandleChat answers one message
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if req.UserID == "" {
		req.UserID = uuid.NewString()
	}
	requestID := logger.RequestID(r.Context())
	lang := i18n.DetectLanguage(req.Message)
	log := logger.WithUser(r.Context(), h.logger, req.UserID)

	if err := middleware.ValidateInput(req.Message); err != nil {
		log.WithError(err).Warn("Input validation failed")
		writeError(w, http.StatusBadRequest, h.localizer.Get(lang, i18n.MsgInvalidMessage, nil))
		return
	}

	if !h.rateLimiter.Allow(req.UserID) {
		if h.metrics != nil {
			h.metrics.RecordRateLimitExceeded()
		}
		writeError(w, http.StatusTooManyRequests, h.localizer.Get(lang, i18n.MsgRateLimitExceeded, nil))
		return
	}
	if h.metrics != nil {
		h.metrics.RecordMessageReceived(lang)
	}

	ctx := r.Context()
	if h.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.RequestTimeout)
		defer cancel()
	}

	result, err := h.responder.Respond(ctx, responder.Request{
		UserID:    req.UserID,
		RequestID: requestID,
		Message:   req.Message,
		Mood:      req.Mood,
	})
	if err != nil {
		if errors.Is(err, responder.ErrEmptyMessage) || errors.Is(err, responder.ErrMissingUser) {
			writeError(w, http.StatusBadRequest, h.localizer.Get(lang, i18n.MsgInvalidMessage, nil))
			return
		}
		log.WithError(err).Error("Failed to produce reply")
		writeError(w, http.StatusServiceUnavailable, h.localizer.Get(lang, i18n.MsgUnavailable, nil))
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		UserID:       req.UserID,
		RequestID:    requestID,
		Source:       string(result.Source),
		Mood:         result.Mood,
		Reply:        result.Reply,
		ResponseHTML: markdown.LinesToChatHTML(result.Reply.ResponseLines),
	})
}

type profileResponse struct {
	Profile *models.UserProfile `json:"profile,omitempty"`
	Stats   *models.UserStats   `json:"stats,omitempty"`
}

// HandleProfile returns what has been learned about a user
func (h *ChatHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var resp profileResponse
	if profile, ok := h.profiles.Profile(userID); ok {
		resp.Profile = &profile
	}
	stats, err := h.history.GetUserStats(r.Context(), userID)
	if err != nil {
		logger.WithUser(r.Context(), h.logger, userID).WithError(err).Warn("Failed to load user stats")
	} else if stats != nil && stats.TotalMessages > 0 {
		resp.Stats = stats
	}

	if resp.Profile == nil && resp.Stats == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleClearHistory forgets a user's chat history
func (h *ChatHandler) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := h.history.ClearHistory(r.Context(), userID); err != nil {
		logger.WithUser(r.Context(), h.logger, userID).WithError(err).Error("Failed to clear history")
		writeError(w, http.StatusInternalServerError, "Failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type mediaRequest struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// HandleAddMedia adds an image or voice note to the media library
func (h *ChatHandler) HandleAddMedia(w http.ResponseWriter, r *http.Request) {
	if !h.isAdmin(r) {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	var req mediaRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.media.Add(r.Context(), media.Kind(req.Kind), req.URL); err != nil {
		logger.FromContext(r.Context(), h.logger).WithError(err).Warn("Failed to add media")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *ChatHandler) isAdmin(r *http.Request) bool {
	token := h.config.AdminToken
	if token == "" {
		return false
	}
	given := r.Header.Get("X-Admin-Token")
	return subtle.ConstantTimeCompare([]byte(given), []byte(token)) == 1
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
