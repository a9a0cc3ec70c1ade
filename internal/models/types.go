package models

import (
	"strings"
	"time"
)

// Message represents a single turn of the rolling chat history
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at,omitempty"`
}

// Roles used in Message.Role
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Reply is the payload handed back to the chat client. Either ResponseLines or the
// MediaCaption plus one media URL is populated.
type Reply struct {
	ResponseLines     []string `json:"responseLines,omitempty"`
	MediaCaption      string   `json:"mediaCaption,omitempty"`
	ProactiveImageURL string   `json:"proactiveImageUrl,omitempty"`
	ProactiveAudioURL string   `json:"proactiveAudioUrl,omitempty"`
	NewMood           string   `json:"newMood,omitempty"`
}

// Clone returns a deep copy of the reply
func (r Reply) Clone() Reply {
	out := r
	if r.ResponseLines != nil {
		out.ResponseLines = append([]string(nil), r.ResponseLines...)
	}
	return out
}

// IsEmpty reports whether the reply carries nothing the user would see
func (r Reply) IsEmpty() bool {
	for _, line := range r.ResponseLines {
		if line != "" {
			return false
		}
	}
	return r.MediaCaption == "" && r.ProactiveImageURL == "" && r.ProactiveAudioURL == ""
}

// IsMedia reports whether the reply is a media message
func (r Reply) IsMedia() bool {
	return r.ProactiveImageURL != "" || r.ProactiveAudioURL != ""
}

// Text joins the response lines
func (r Reply) Text() string {
	text := strings.Join(r.ResponseLines, "\n")
	if text == "" {
		return r.MediaCaption
	}
	return text
}

// TimeOfDay buckets the persona's local clock
type TimeOfDay int

const (
	Morning TimeOfDay = iota
	Afternoon
	Evening
	Night
	TimeOfDayCount
)

// AllTimesOfDay lists every bucket in order
var AllTimesOfDay = [TimeOfDayCount]TimeOfDay{Morning, Afternoon, Evening, Night}

var timeOfDayNames = [TimeOfDayCount]string{
	Morning:   "morning",
	Afternoon: "afternoon",
	Evening:   "evening",
	Night:     "night",
}

func (t TimeOfDay) String() string {
	if t < 0 || t >= TimeOfDayCount {
		return "unknown"
	}
	return timeOfDayNames[t]
}

// ParseTimeOfDay maps a bucket name back to its value
func ParseTimeOfDay(s string) (TimeOfDay, bool) {
	for i, name := range timeOfDayNames {
		if name == s {
			return TimeOfDay(i), true
		}
	}
	return Morning, false
}

// TimeOfDayAt classifies t. Morning (05:00-11:59) is the active window.
func TimeOfDayAt(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 21:
		return Evening
	default:
		return Night
	}
}

// ChatStyle is the inferred register of a user
type ChatStyle string

const (
	StyleFormal   ChatStyle = "formal"
	StyleCasual   ChatStyle = "casual"
	StyleFlirty   ChatStyle = "flirty"
	StyleFriendly ChatStyle = "friendly"
)

// ResponsePattern is the preferred reply length of a user
type ResponsePattern string

const (
	PatternShort ResponsePattern = "short"
	PatternLong  ResponsePattern = "long"
	PatternMixed ResponsePattern = "mixed"
)

// UserProfile is the per-user personalization record
type UserProfile struct {
	UserID          string          `json:"userId"`
	ChatStyle       ChatStyle       `json:"chatStyle"`
	ResponsePattern ResponsePattern `json:"responsePattern"`
	FavoriteEmojis  []string        `json:"favoriteEmojis"`
	CommonQuestions []string        `json:"commonQuestions"`
	LastActiveTime  time.Time       `json:"lastActiveTime"`
}

// Clone returns a deep copy of the profile
func (p UserProfile) Clone() UserProfile {
	out := p
	out.FavoriteEmojis = append([]string(nil), p.FavoriteEmojis...)
	out.CommonQuestions = append([]string(nil), p.CommonQuestions...)
	return out
}

// ConversationState tracks the away/back-online narrative for one user
type ConversationState struct {
	CurrentSituation   string    `json:"currentSituation,omitempty"`
	MessageCount       int       `json:"messageCount"`
	HasStartedGoodbye  bool      `json:"hasStartedGoodbye"`
	SituationStartTime time.Time `json:"situationStartTime"`
}

// Situations stored in ConversationState.CurrentSituation
const (
	SituationGoodbye    = "goodbye"
	SituationBackOnline = "back_online"
)

// UserStats represents per-user usage counters
type UserStats struct {
	UserID        string    `json:"userId"`
	TotalMessages int       `json:"totalMessages"`
	LastSeen      time.Time `json:"lastSeen"`
}

// MediaAssets lists shareable media
type MediaAssets struct {
	Images []string `json:"images"`
	Audio  []string `json:"audio"`
}

// Empty reports whether there is nothing to share
func (m MediaAssets) Empty() bool {
	return len(m.Images) == 0 && len(m.Audio) == 0
}
