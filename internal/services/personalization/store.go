// Package personalization keeps a lightweight per-user profile used to shape
// replies and to decide when the paid model call can be skipped.
package personalization

import (
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/kruthika-chat/kruthika-go/internal/services/cache"
	"github.com/kruthika-chat/kruthika-go/pkg/weighted"
	"github.com/sirupsen/logrus"
)

var emojiPattern = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}]`)

var styleKeywords = []struct {
	style    models.ChatStyle
	keywords []string
}{
	{models.StyleFlirty, []string{"love", "baby", "babe", "cute", "miss you", "jaan", "darling", "kiss", "❤", "😘", "😍"}},
	{models.StyleFormal, []string{"please", "could you", "would you", "kindly", "thank you"}},
	{models.StyleCasual, []string{"lol", "bro", "yaar", "dude", "lmao", "haha"}},
}

// Store holds every user's profile for the lifetime of the process
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*models.UserProfile
	contexts *cache.Store[string]
	cfg      config.PersonalizationConfig
	rnd      weighted.Source
	now      func() time.Time
	logger   *logrus.Logger
}

// NewStore creates an empty store
func NewStore(cfg config.PersonalizationConfig, rnd weighted.Source, logger *logrus.Logger) *Store {
	if rnd == nil {
		rnd = weighted.Default()
	}
	if cfg.MaxFavoriteEmojis <= 0 {
		cfg.MaxFavoriteEmojis = 10
	}
	if cfg.MaxCommonQuestions <= 0 {
		cfg.MaxCommonQuestions = 5
	}
	if cfg.MaxContexts <= 0 {
		cfg.MaxContexts = 1000
	}
	if cfg.ContextTTL <= 0 {
		cfg.ContextTTL = 2 * time.Hour
	}
	return &Store{
		profiles: make(map[string]*models.UserProfile),
		contexts: cache.NewStore[string](cfg.MaxContexts, cfg.ContextTTL, nil),
		cfg:      cfg,
		rnd:      rnd,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces the time source, for tests
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	s.contexts.SetClock(now)
}

// Profile returns a copy of the user's profile
func (s *Store) Profile(userID string) (models.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return models.UserProfile{}, false
	}
	return p.Clone(), true
}

// Len returns the number of known users
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// ActiveUsers counts users seen since the given instant
func (s *Store) ActiveUsers(since time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.profiles {
		if p.LastActiveTime.After(since) {
			n++
		}
	}
	return n
}

// GetContext returns a short tag describing the user, for the model prompt
func (s *Store) GetContext(userID, message string, history []models.Message) string {
	key := cache.GenerateKey(userID, normalizeQuestion(message), "")
	if tag, ok := s.contexts.Get(key); ok {
		return tag
	}

	s.mu.RLock()
	profile, known := s.profiles[userID]
	var tags []string
	if !known {
		tags = append(tags, "new_user")
	} else {
		tags = append(tags, string(profile.ChatStyle), string(profile.ResponsePattern))
		if resemblesAny(message, profile.CommonQuestions) {
			tags = append(tags, "repeat_question")
		}
		if !profile.LastActiveTime.IsZero() && s.now().Sub(profile.LastActiveTime) > 24*time.Hour {
			tags = append(tags, "returning")
		}
	}
	s.mu.RUnlock()

	if len(history) >= 6 {
		tags = append(tags, "engaged")
	}

	tag := strings.Join(tags, ",")
	s.contexts.Set(key, tag)
	return tag
}

// UpdateProfile folds one exchange into the user's profile
func (s *Store) UpdateProfile(userID, message string, reply models.Reply) {
	if userID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		profile = &models.UserProfile{
			UserID:          userID,
			ChatStyle:       models.StyleFriendly,
			ResponsePattern: models.PatternMixed,
		}
		s.profiles[userID] = profile
	}

	switch n := utf8.RuneCountInString(strings.TrimSpace(message)); {
	case n < 20:
		profile.ResponsePattern = models.PatternShort
	case n > 100:
		profile.ResponsePattern = models.PatternLong
	default:
		profile.ResponsePattern = models.PatternMixed
	}

	if style, ok := inferStyle(message); ok {
		profile.ChatStyle = style
	}

	for _, emoji := range emojiPattern.FindAllString(message, -1) {
		profile.FavoriteEmojis = pushBounded(profile.FavoriteEmojis, emoji, s.cfg.MaxFavoriteEmojis)
	}

	if strings.Contains(message, "?") {
		if q := normalizeQuestion(message); q != "" {
			profile.CommonQuestions = pushBounded(profile.CommonQuestions, q, s.cfg.MaxCommonQuestions)
		}
	}

	profile.LastActiveTime = s.now()

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":          userID,
			"chat_style":       profile.ChatStyle,
			"response_pattern": profile.ResponsePattern,
			"reply_lines":      len(reply.ResponseLines),
		}).Debug("Profile updated")
	}
}

// Personalize shapes a reply for the user: short-reply users get one line and
// sometimes a favorite emoji is appended
func (s *Store) Personalize(userID string, reply models.Reply) models.Reply {
	out := reply.Clone()
	if out.IsMedia() || len(out.ResponseLines) == 0 {
		return out
	}

	s.mu.RLock()
	profile, ok := s.profiles[userID]
	var pattern models.ResponsePattern
	var emojis []string
	if ok {
		pattern = profile.ResponsePattern
		emojis = append(emojis, profile.FavoriteEmojis...)
	}
	s.mu.RUnlock()
	if !ok {
		return out
	}

	if pattern == models.PatternShort && len(out.ResponseLines) > 1 {
		out.ResponseLines = out.ResponseLines[:1]
	}
	if len(emojis) > 0 && weighted.Chance(s.rnd, s.cfg.EmojiProbability) {
		emoji, _ := weighted.One(s.rnd, emojis)
		last := len(out.ResponseLines) - 1
		if !strings.Contains(out.ResponseLines[last], emoji) {
			out.ResponseLines[last] = out.ResponseLines[last] + " " + emoji
		}
	}
	return out
}

// ShouldCallExternalAPI reports whether the paid model should be called. A message
// resembling one of the user's recent questions is usually answered without it.
func (s *Store) ShouldCallExternalAPI(userID, message string) bool {
	s.mu.RLock()
	profile, ok := s.profiles[userID]
	repeated := ok && resemblesAny(message, profile.CommonQuestions)
	s.mu.RUnlock()

	if !repeated {
		return true
	}
	return !weighted.Chance(s.rnd, s.cfg.SkipAPIProbability)
}

func inferStyle(message string) (models.ChatStyle, bool) {
	lower := strings.ToLower(message)
	for _, sk := range styleKeywords {
		for _, kw := range sk.keywords {
			if strings.Contains(lower, kw) {
				return sk.style, true
			}
		}
	}
	return "", false
}

// pushBounded appends v, dropping an earlier copy of v and the oldest entries
// beyond limit
func pushBounded(list []string, v string, limit int) []string {
	out := make([]string, 0, len(list)+1)
	for _, existing := range list {
		if existing != v {
			out = append(out, existing)
		}
	}
	out = append(out, v)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func normalizeQuestion(message string) string {
	s := strings.ToLower(strings.TrimSpace(message))
	s = strings.TrimRight(s, "?!. ")
	return strings.Join(strings.Fields(s), " ")
}

func resemblesAny(message string, questions []string) bool {
	m := normalizeQuestion(message)
	if m == "" {
		return false
	}
	for _, q := range questions {
		if q == m {
			return true
		}
		if len(m) >= 6 && len(q) >= 6 && (strings.Contains(q, m) || strings.Contains(m, q)) {
			return true
		}
	}
	return false
}
