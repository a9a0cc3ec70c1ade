// Package responder runs the reply pipeline: canned replies first, the AI model
// when nothing canned fits, and a disguised excuse when the model is unavailable.
package responder

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/kruthika-chat/kruthika-go/internal/services/cache"
	"github.com/kruthika-chat/kruthika-go/internal/services/conversation"
	"github.com/kruthika-chat/kruthika-go/internal/services/fallback"
	"github.com/kruthika-chat/kruthika-go/internal/services/matcher"
	"github.com/kruthika-chat/kruthika-go/internal/services/personalization"
	"github.com/kruthika-chat/kruthika-go/pkg/logger"
	"github.com/kruthika-chat/kruthika-go/pkg/weighted"
	"github.com/sirupsen/logrus"
)

var (
	// ErrEmptyMessage rejects a request without text
	ErrEmptyMessage = errors.New("message is empty")
	// ErrMissingUser rejects a request without a user id
	ErrMissingUser = errors.New("user id is required")
)

// Source names the pipeline stage that produced a reply
type Source string

const (
	SourceInstant    Source = "instant"
	SourceMedia      Source = "media"
	SourcePattern    Source = "pattern"
	SourceRepetition Source = "repetition"
	SourceGoodbye    Source = "goodbye"
	SourceComeback   Source = "comeback"
	SourceOffline    Source = "offline"
	SourceCache      Source = "cache"
	SourceAI         Source = "ai"
	SourceFallback   Source = "fallback"
)

// AI produces model replies
type AI interface {
	GetResponse(ctx context.Context, messages []models.Message, modelID string) (string, error)
}

// History is the rolling chat history and per-user stats
type History interface {
	GetHistory(ctx context.Context, userID string) ([]models.Message, error)
	AppendHistory(ctx context.Context, userID string, maxMessages int, messages ...models.Message) error
	IncrementUserStats(ctx context.Context, userID string) error
}

// Media lists the shareable media
type Media interface {
	Assets(ctx context.Context) models.MediaAssets
}

// Recorder receives pipeline metrics
type Recorder interface {
	RecordReply(source string)
	RecordCacheHit()
	RecordCacheMiss()
	RecordAIRequest(model, status string, duration time.Duration)
}

// Options are the persona and pipeline settings
type Options struct {
	ModelID         string
	SystemPrompt    string
	DefaultMood     string
	Location        *time.Location
	MaxMessages     int
	GoodbyeAfter    int
	ProactiveChance float64
	MinMessages     int
	AITimeout       time.Duration
}

// Deps are the collaborating services
type Deps struct {
	Matcher  *matcher.Matcher
	Detector *matcher.Detector
	Cache    cache.Service
	Profiles *personalization.Store
	Tracker  *conversation.Tracker
	Fallback *fallback.Generator
	AI       AI
	History  History
	Media    Media
	Metrics  Recorder
	Rand     weighted.Source
}

// Request is one incoming chat message
type Request struct {
	UserID    string
	RequestID string
	Message   string
	Mood      string
}

// Result is the reply and the stage that produced it
type Result struct {
	Reply  models.Reply
	Source Source
	Mood   string
}

// Service answers chat messages
type Service struct {
	opts   Options
	deps   Deps
	now    func() time.Time
	logger *logrus.Logger
}

// NewService creates the reply pipeline
func NewService(opts Options, deps Deps, logger *logrus.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultMood == "" {
		opts.DefaultMood = "happy"
	}
	if opts.AITimeout <= 0 {
		opts.AITimeout = 30 * time.Second
	}
	if deps.Rand == nil {
		deps.Rand = weighted.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	return &Service{opts: opts, deps: deps, now: time.Now, logger: logger}
}

// SetClock replaces the wall clock, for tests
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Respond produces the reply for one message. Only invalid requests return an
// error; every upstream failure degrades to a canned or fallback reply.
func (s *Service) Respond(ctx context.Context, req Request) (Result, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Result{}, ErrEmptyMessage
	}
	if req.UserID == "" {
		return Result{}, ErrMissingUser
	}

	mood := req.Mood
	if mood == "" {
		mood = s.opts.DefaultMood
	}
	tod := models.TimeOfDayAt(s.now().In(s.opts.Location))
	log := logger.FromContext(ctx, s.logger).WithFields(logrus.Fields{
		"user_id":     req.UserID,
		"request_id":  req.RequestID,
		"time_of_day": tod.String(),
	})

	// The persona is offline: the message is delivered but not answered
	if s.deps.Tracker.IsAway(req.UserID) {
		if !s.deps.Tracker.ComeBackOnline(req.UserID) {
			s.remember(ctx, log, req.UserID, message, models.Reply{})
			return s.result(models.Reply{}, SourceOffline, mood), nil
		}
		reply, _ := weighted.One(s.deps.Rand, comebackReplies)
		return s.finish(ctx, log, req.UserID, message, reply.Clone(), SourceComeback, mood), nil
	}

	count := s.deps.Tracker.RecordMessage(req.UserID)

	history, err := s.deps.History.GetHistory(ctx, req.UserID)
	if err != nil {
		log.WithError(err).Warn("Failed to load history, continuing without it")
		history = nil
	}

	if hit, ok := s.deps.Matcher.MatchInstant(message); ok {
		return s.finishCanned(ctx, log, req.UserID, message, hit.Reply, SourceInstant, mood), nil
	}

	var assets models.MediaAssets
	if s.deps.Media != nil {
		assets = s.deps.Media.Assets(ctx)
	}

	if count >= s.opts.MinMessages && !assets.Empty() && weighted.Chance(s.deps.Rand, s.opts.ProactiveChance) {
		if reply, ok := s.proactiveMedia(assets); ok {
			return s.finish(ctx, log, req.UserID, message, reply, SourceMedia, mood), nil
		}
	}

	// Repeated questions would otherwise keep hitting the same pattern reply
	if s.deps.Detector != nil {
		if hit, ok := s.deps.Detector.CheckRepetition(history, message); ok {
			return s.finishCanned(ctx, log, req.UserID, message, hit.Reply, SourceRepetition, mood), nil
		}
	}

	if hit, ok := s.deps.Matcher.MatchPattern(message, tod); ok {
		return s.finishCanned(ctx, log, req.UserID, message, hit.Reply, SourcePattern, mood), nil
	}

	if s.deps.Detector != nil {
		if hit, ok := s.deps.Detector.CheckBreak(history); ok {
			return s.finishCanned(ctx, log, req.UserID, message, hit.Reply, SourceRepetition, mood), nil
		}
	}

	if s.opts.GoodbyeAfter > 0 && count >= s.opts.GoodbyeAfter &&
		(tod == models.Evening || tod == models.Night) &&
		s.deps.Tracker.StartGoodbyeSequence(req.UserID) {
		reply, _ := weighted.One(s.deps.Rand, goodbyeReplies)
		log.WithField("message_count", count).Info("Persona said goodbye")
		return s.finish(ctx, log, req.UserID, message, reply.Clone(), SourceGoodbye, mood), nil
	}

	if cached, ok := s.deps.Cache.Get(message, mood, tod.String()); ok {
		s.deps.Metrics.RecordCacheHit()
		return s.finishCanned(ctx, log, req.UserID, message, cached, SourceCache, mood), nil
	}
	s.deps.Metrics.RecordCacheMiss()

	if s.deps.Profiles.ShouldCallExternalAPI(req.UserID, message) {
		if reply, ok := s.askModel(ctx, log, req.UserID, message, mood, history); ok {
			s.deps.Cache.Set(message, reply, mood, tod.String())
			return s.finish(ctx, log, req.UserID, message, reply, SourceAI, mood), nil
		}
	} else {
		log.Debug("Skipping model call for a repeated question")
	}

	reply := s.deps.Fallback.Generate(message, tod, assets)
	return s.finishCanned(ctx, log, req.UserID, message, reply, SourceFallback, mood), nil
}

func (s *Service) proactiveMedia(assets models.MediaAssets) (models.Reply, bool) {
	useAudio := len(assets.Images) == 0 || (len(assets.Audio) > 0 && weighted.Chance(s.deps.Rand, 0.3))
	if useAudio {
		url, ok := weighted.One(s.deps.Rand, assets.Audio)
		if !ok {
			return models.Reply{}, false
		}
		caption, _ := weighted.One(s.deps.Rand, audioCaptions)
		return models.Reply{MediaCaption: caption, ProactiveAudioURL: url, NewMood: "playful"}, true
	}
	url, ok := weighted.One(s.deps.Rand, assets.Images)
	if !ok {
		return models.Reply{}, false
	}
	caption, _ := weighted.One(s.deps.Rand, imageCaptions)
	return models.Reply{MediaCaption: caption, ProactiveImageURL: url, NewMood: "playful"}, true
}

func (s *Service) askModel(ctx context.Context, log *logrus.Entry, userID, message, mood string, history []models.Message) (models.Reply, bool) {
	if s.deps.AI == nil || s.opts.ModelID == "" {
		return models.Reply{}, false
	}

	prompt := s.opts.SystemPrompt
	if tag := s.deps.Profiles.GetContext(userID, message, history); tag != "" {
		prompt += "\nUser: " + tag + "\nCurrent mood: " + mood
	}
	messages := make([]models.Message, 0, len(history)+2)
	messages = append(messages, models.Message{Role: models.RoleSystem, Content: prompt})
	for _, m := range history {
		if m.Role == models.RoleUser || m.Role == models.RoleAssistant {
			messages = append(messages, models.Message{Role: m.Role, Content: m.Content})
		}
	}
	messages = append(messages, models.Message{Role: models.RoleUser, Content: message})

	aiCtx, cancel := context.WithTimeout(ctx, s.opts.AITimeout)
	defer cancel()

	start := time.Now()
	text, err := s.deps.AI.GetResponse(aiCtx, messages, s.opts.ModelID)
	if err != nil {
		s.deps.Metrics.RecordAIRequest(s.opts.ModelID, "error", time.Since(start))
		log.WithError(err).Warn("AI request failed, using fallback")
		return models.Reply{}, false
	}
	s.deps.Metrics.RecordAIRequest(s.opts.ModelID, "success", time.Since(start))

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return models.Reply{}, false
	}
	return models.Reply{ResponseLines: lines, NewMood: mood}, true
}

func (s *Service) finishCanned(ctx context.Context, log *logrus.Entry, userID, message string, reply models.Reply, source Source, mood string) Result {
	return s.finish(ctx, log, userID, message, s.deps.Profiles.Personalize(userID, reply), source, mood)
}

func (s *Service) finish(ctx context.Context, log *logrus.Entry, userID, message string, reply models.Reply, source Source, mood string) Result {
	s.deps.Profiles.UpdateProfile(userID, message, reply)
	s.remember(ctx, log, userID, message, reply)

	log.WithFields(logrus.Fields{
		"source": source,
		"lines":  len(reply.ResponseLines),
		"media":  reply.IsMedia(),
	}).Debug("Reply produced")
	return s.result(reply, source, mood)
}

func (s *Service) result(reply models.Reply, source Source, mood string) Result {
	s.deps.Metrics.RecordReply(string(source))
	if reply.NewMood != "" {
		mood = reply.NewMood
	}
	return Result{Reply: reply, Source: source, Mood: mood}
}

// remember appends the exchange to the rolling history and counts the message
func (s *Service) remember(ctx context.Context, log *logrus.Entry, userID, message string, reply models.Reply) {
	turns := []models.Message{{Role: models.RoleUser, Content: message}}
	if text := reply.Text(); text != "" {
		turns = append(turns, models.Message{Role: models.RoleAssistant, Content: text})
	}
	if err := s.deps.History.AppendHistory(ctx, userID, s.opts.MaxMessages, turns...); err != nil {
		log.WithError(err).Warn("Failed to save history")
	}
	if err := s.deps.History.IncrementUserStats(ctx, userID); err != nil {
		log.WithError(err).Warn("Failed to update user stats")
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordReply(string)                            {}
func (nopRecorder) RecordCacheHit()                               {}
func (nopRecorder) RecordCacheMiss()                              {}
func (nopRecorder) RecordAIRequest(string, string, time.Duration) {}
