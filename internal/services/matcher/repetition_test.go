package matcher

import (
	"testing"

	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/kruthika-chat/kruthika-go/pkg/weighted"
)

type constSource struct{ f float64 }

func (s constSource) Float64() float64 { return s.f }
func (s constSource) IntN(int) int     { return 0 }

func turns(pairs ...string) []models.Message {
	out := make([]models.Message, 0, len(pairs))
	for i, content := range pairs {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		out = append(out, models.Message{Role: role, Content: content})
	}
	return out
}

func TestDetectorRepetition(t *testing.T) {
	d := NewDetector(DefaultDetectorConfig(), weighted.NewSeeded(1))
	history := turns(
		"how are you", "main theek hoon",
		"How are you?", "bataya na theek hoon",
	)
	hit, ok := d.Check(history, "how r u now")
	if !ok {
		t.Fatalf("Check() ok = false, want repetition detected")
	}
	if hit.Rule != "repetition" || hit.Reply.IsEmpty() {
		t.Fatalf("Check() = %+v, want non-empty repetition reply", hit)
	}
}

func TestDetectorMixedQuestions(t *testing.T) {
	d := NewDetector(DefaultDetectorConfig(), weighted.NewSeeded(1))
	history := turns(
		"how are you", "fine",
		"what are you doing", "nothing much",
	)
	if hit, ok := d.Check(history, "where are you"); ok {
		t.Fatalf("Check() = %+v, want nil for mixed question types", hit)
	}
}

func TestDetectorShortAndEmptyHistory(t *testing.T) {
	d := NewDetector(DefaultDetectorConfig(), nil)
	if _, ok := d.Check(nil, ""); ok {
		t.Fatalf("Check(nil, \"\") ok = true")
	}
	if _, ok := d.Check(turns("how are you"), "how are you"); ok {
		t.Fatalf("two turns should not count as repetition")
	}
}

func TestDetectorLongConversation(t *testing.T) {
	var history []models.Message
	for i := 0; i < 16; i++ {
		history = append(history, turns("random chat "+string(rune('a'+i)), "reply")...)
	}

	always := NewDetector(DefaultDetectorConfig(), constSource{f: 0.1})
	hit, ok := always.Check(history, "anything")
	if !ok || hit.Rule != "long_conversation" {
		t.Fatalf("Check() = %+v, %v; want long_conversation", hit, ok)
	}

	never := NewDetector(DefaultDetectorConfig(), constSource{f: 0.9})
	if _, ok := never.Check(history, "anything"); ok {
		t.Fatalf("Check() fired although the draw exceeded the break chance")
	}
}

func TestDetectorWindowIgnoresOldTurns(t *testing.T) {
	d := NewDetector(DetectorConfig{Window: 4, RepeatTurns: 3, LongAfter: 100}, nil)
	history := turns(
		"how are you", "fine",
		"how are you", "fine",
		"tell me a story", "once upon a time",
		"how are you", "fine",
	)
	if _, ok := d.Check(history, "how are you"); ok {
		t.Fatalf("turn outside the window should break the streak")
	}
}

func TestDetectorRepetitionAndBreakAreSeparate(t *testing.T) {
	var history []models.Message
	for i := 0; i < 16; i++ {
		history = append(history, turns("random chat "+string(rune('a'+i)), "reply")...)
	}
	d := NewDetector(DefaultDetectorConfig(), constSource{f: 0.1})

	if hit, ok := d.CheckRepetition(history, "anything"); ok {
		t.Fatalf("CheckRepetition() = %+v, want no hit for a long but varied chat", hit)
	}
	if hit, ok := d.CheckBreak(history); !ok || hit.Rule != "long_conversation" {
		t.Fatalf("CheckBreak() = %+v, %v; want long_conversation", hit, ok)
	}

	repeated := turns("how are you", "fine", "kaise ho", "theek")
	if hit, ok := d.CheckRepetition(repeated, "hru"); !ok || hit.Rule != "repetition" {
		t.Fatalf("CheckRepetition() = %+v, %v; want repetition", hit, ok)
	}
}
