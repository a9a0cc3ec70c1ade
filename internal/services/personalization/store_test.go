package personalization

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/internal/models"
)

type constSource struct{ f float64 }

func (s constSource) Float64() float64 { return s.f }
func (s constSource) IntN(int) int     { return 0 }

func testConfig() config.PersonalizationConfig {
	return config.PersonalizationConfig{
		ContextTTL:         2 * time.Hour,
		MaxContexts:        1000,
		SkipAPIProbability: 0.7,
		EmojiProbability:   0.3,
	}
}

func TestUpdateProfileBuckets(t *testing.T) {
	s := NewStore(testConfig(), nil, nil)
	tests := []struct {
		msg  string
		want models.ResponsePattern
	}{
		{"hi", models.PatternShort},
		{strings.Repeat("a", 50), models.PatternMixed},
		{strings.Repeat("b", 120), models.PatternLong},
	}
	for _, tt := range tests {
		s.UpdateProfile("u1", tt.msg, models.Reply{})
		p, ok := s.Profile("u1")
		if !ok {
			t.Fatalf("Profile() ok = false")
		}
		if p.ResponsePattern != tt.want {
			t.Fatalf("ResponsePattern after %d runes = %q, want %q", len(tt.msg), p.ResponsePattern, tt.want)
		}
	}
}

func TestUpdateProfileStyle(t *testing.T) {
	s := NewStore(testConfig(), nil, nil)
	s.UpdateProfile("u1", "hello there", models.Reply{})
	if p, _ := s.Profile("u1"); p.ChatStyle != models.StyleFriendly {
		t.Fatalf("default ChatStyle = %q, want friendly", p.ChatStyle)
	}
	s.UpdateProfile("u1", "miss you jaan", models.Reply{})
	if p, _ := s.Profile("u1"); p.ChatStyle != models.StyleFlirty {
		t.Fatalf("ChatStyle = %q, want flirty", p.ChatStyle)
	}
	s.UpdateProfile("u1", "could you tell me", models.Reply{})
	if p, _ := s.Profile("u1"); p.ChatStyle != models.StyleFormal {
		t.Fatalf("ChatStyle = %q, want formal", p.ChatStyle)
	}
}

func TestFavoriteEmojisBounded(t *testing.T) {
	s := NewStore(testConfig(), nil, nil)
	emojis := []string{"😀", "😁", "😂", "😃", "😄", "😅", "😆", "😇", "😈", "😉", "😊", "😋"}
	for _, e := range emojis {
		s.UpdateProfile("u1", "nice "+e, models.Reply{})
	}
	s.UpdateProfile("u1", "again 😋", models.Reply{})

	p, _ := s.Profile("u1")
	if len(p.FavoriteEmojis) != 10 {
		t.Fatalf("len(FavoriteEmojis) = %d, want 10", len(p.FavoriteEmojis))
	}
	if p.FavoriteEmojis[0] != "😂" {
		t.Fatalf("oldest kept emoji = %q, want 😂", p.FavoriteEmojis[0])
	}
	if p.FavoriteEmojis[9] != "😋" {
		t.Fatalf("most recent emoji = %q, want 😋", p.FavoriteEmojis[9])
	}
}

func TestCommonQuestionsBounded(t *testing.T) {
	s := NewStore(testConfig(), nil, nil)
	for i := 0; i < 8; i++ {
		s.UpdateProfile("u1", fmt.Sprintf("question number %d?", i), models.Reply{})
	}
	s.UpdateProfile("u1", "not a question", models.Reply{})

	p, _ := s.Profile("u1")
	if len(p.CommonQuestions) != 5 {
		t.Fatalf("len(CommonQuestions) = %d, want 5", len(p.CommonQuestions))
	}
	if p.CommonQuestions[0] != "question number 3" {
		t.Fatalf("oldest question = %q, want question number 3", p.CommonQuestions[0])
	}
}

func TestPersonalizeShortUser(t *testing.T) {
	s := NewStore(testConfig(), constSource{f: 0.99}, nil)
	s.UpdateProfile("u1", "ok", models.Reply{})

	base := models.Reply{ResponseLines: []string{"line one", "line two"}}
	got := s.Personalize("u1", base)
	if len(got.ResponseLines) != 1 || got.ResponseLines[0] != "line one" {
		t.Fatalf("Personalize() = %+v, want first line only", got)
	}
	if len(base.ResponseLines) != 2 {
		t.Fatalf("Personalize() mutated its input")
	}

	if unknown := s.Personalize("nobody", base); len(unknown.ResponseLines) != 2 {
		t.Fatalf("unknown user reply changed: %+v", unknown)
	}
}

func TestPersonalizeAppendsEmoji(t *testing.T) {
	s := NewStore(testConfig(), constSource{f: 0.1}, nil)
	s.UpdateProfile("u1", "this is a medium length message 🥰", models.Reply{})

	got := s.Personalize("u1", models.Reply{ResponseLines: []string{"hello"}})
	if got.ResponseLines[0] != "hello 🥰" {
		t.Fatalf("Personalize() = %q, want favorite emoji appended", got.ResponseLines[0])
	}
}

func TestShouldCallExternalAPI(t *testing.T) {
	skip := NewStore(testConfig(), constSource{f: 0.5}, nil)
	skip.UpdateProfile("u1", "what did you eat today?", models.Reply{})
	if skip.ShouldCallExternalAPI("u1", "What did you eat today") {
		t.Fatalf("repeated question with draw under the skip probability should skip the API")
	}
	if !skip.ShouldCallExternalAPI("u1", "tell me about your college") {
		t.Fatalf("new question should call the API")
	}

	call := NewStore(testConfig(), constSource{f: 0.8}, nil)
	call.UpdateProfile("u1", "what did you eat today?", models.Reply{})
	if !call.ShouldCallExternalAPI("u1", "what did you eat today?") {
		t.Fatalf("draw above the skip probability should call the API")
	}
}

func TestGetContextCachedWithTTL(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(testConfig(), nil, nil)
	s.SetClock(func() time.Time { return now })

	if tag := s.GetContext("u1", "hey", nil); tag != "new_user" {
		t.Fatalf("GetContext() = %q, want new_user", tag)
	}

	s.UpdateProfile("u1", "hey", models.Reply{})
	if tag := s.GetContext("u1", "hey", nil); tag != "new_user" {
		t.Fatalf("GetContext() = %q, want cached tag", tag)
	}

	now = now.Add(2*time.Hour + time.Minute)
	if tag := s.GetContext("u1", "hey", nil); tag != "friendly,short" {
		t.Fatalf("GetContext() after TTL = %q, want friendly,short", tag)
	}
}

func TestActiveUsers(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(testConfig(), nil, nil)
	s.SetClock(func() time.Time { return now })
	s.UpdateProfile("u1", "hi", models.Reply{})
	now = now.Add(2 * time.Hour)
	s.UpdateProfile("u2", "hi", models.Reply{})

	if got := s.ActiveUsers(now.Add(-time.Hour)); got != 1 {
		t.Fatalf("ActiveUsers() = %d, want 1", got)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
}
