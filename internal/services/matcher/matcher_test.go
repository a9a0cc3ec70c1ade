package matcher

import (
	"reflect"
	"testing"

	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/kruthika-chat/kruthika-go/pkg/weighted"
)

func containsReply(pool []models.Reply, r models.Reply) bool {
	for _, candidate := range pool {
		if reflect.DeepEqual(candidate, r) {
			return true
		}
	}
	return false
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  OK!!  ", "ok"},
		{"Hello?", "hello"},
		{"lol...", "lol"},
		{"good night!! ", "good night"},
		{"", ""},
		{"?!", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInstantMatchReturnsOwnSet(t *testing.T) {
	m := NewMatcher(weighted.NewSeeded(1))
	for _, phrase := range InstantPhrases() {
		for i := 0; i < 20; i++ {
			hit, ok := m.Match(phrase+"!", models.Afternoon)
			if !ok {
				t.Fatalf("Match(%q) ok = false", phrase)
			}
			if hit.Rule != RuleInstant {
				t.Fatalf("Match(%q) rule = %q, want %q", phrase, hit.Rule, RuleInstant)
			}
			if hit.Reply.IsEmpty() {
				t.Fatalf("Match(%q) returned empty reply", phrase)
			}
			if !containsReply(instantReplies[phrase], hit.Reply) {
				t.Fatalf("Match(%q) = %+v, not in the phrase's declared set", phrase, hit.Reply)
			}
		}
	}
}

func TestGreetingFollowsTimeOfDay(t *testing.T) {
	m := NewMatcher(weighted.NewSeeded(2))
	for _, tod := range models.AllTimesOfDay {
		moods := map[string]bool{}
		for _, r := range greetingReplies[tod] {
			moods[r.NewMood] = true
		}
		for _, greeting := range []string{"hi", "hello", "hey", "Hey!"} {
			hit, ok := m.Match(greeting, tod)
			if !ok {
				t.Fatalf("Match(%q, %s) ok = false", greeting, tod)
			}
			if hit.Rule != RuleGreeting {
				t.Fatalf("Match(%q, %s) rule = %q", greeting, tod, hit.Rule)
			}
			if !moods[hit.Reply.NewMood] {
				t.Fatalf("Match(%q, %s) mood = %q, not from that time's pool", greeting, tod, hit.Reply.NewMood)
			}
		}
	}
}

func TestGreetingPoolsDisjointMoods(t *testing.T) {
	seen := map[string]models.TimeOfDay{}
	for _, tod := range models.AllTimesOfDay {
		if len(greetingReplies[tod]) == 0 {
			t.Fatalf("greeting pool for %s is empty", tod)
		}
		for _, r := range greetingReplies[tod] {
			if other, ok := seen[r.NewMood]; ok && other != tod {
				t.Fatalf("mood %q shared by %s and %s", r.NewMood, other, tod)
			}
			seen[r.NewMood] = tod
		}
	}
}

func TestPatternRules(t *testing.T) {
	m := NewMatcher(weighted.NewSeeded(3))
	tests := []struct {
		msg  string
		rule string
	}{
		{"how are you?", RuleWellbeing},
		{"kaise ho jaan", RuleWellbeing},
		{"send me your pic please", RulePicture},
		{"can you share a selfie", RulePicture},
		{"you are so beautiful", RuleCompliment},
		{"ur cute", RuleCompliment},
		{"ok then", RuleAcknowledge},
		{"theek hai", RuleAcknowledge},
		{"hahaha", RuleLaugh},
		{"that was funny lmao", RuleLaugh},
		{"good morning jaan", RuleGreeting},
	}
	for _, tt := range tests {
		hit, ok := m.Match(tt.msg, models.Evening)
		if !ok {
			t.Fatalf("Match(%q) ok = false", tt.msg)
		}
		if hit.Rule != tt.rule {
			t.Fatalf("Match(%q) rule = %q, want %q", tt.msg, hit.Rule, tt.rule)
		}
	}
}

func TestNoMatch(t *testing.T) {
	m := NewMatcher(nil)
	for _, msg := range []string{"", "   ", "tell me about quantum physics", "history homework", "kya plan hai weekend ka"} {
		if hit, ok := m.Match(msg, models.Night); ok {
			t.Fatalf("Match(%q) = %+v, want no match", msg, hit)
		}
	}
}

func TestMatchDoesNotShareTemplates(t *testing.T) {
	m := NewMatcher(weighted.NewSeeded(4))
	hit, _ := m.Match("k", models.Morning)
	hit.Reply.ResponseLines[0] = "mutated"
	for _, r := range instantReplies["k"] {
		if r.ResponseLines[0] == "mutated" {
			t.Fatalf("mutating a returned reply changed the template")
		}
	}
}
