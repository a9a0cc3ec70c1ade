package matcher

import (
	"strings"

	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/kruthika-chat/kruthika-go/pkg/weighted"
)

// questionTypes groups phrases that ask the same thing
var questionTypes = []struct {
	name    string
	phrases []string
}{
	{"wellbeing", []string{"how are you", "how r u", "kaise ho", "kaisi ho", "hru"}},
	{"activity", []string{"what are you doing", "what r u doing", "wyd", "kya kar rahi", "kya kr rhi"}},
	{"location", []string{"where are you", "kaha ho", "kahan ho"}},
	{"food", []string{"did you eat", "khana khaya", "had lunch", "had dinner"}},
	{"whatsup", []string{"what's up", "whats up", "wassup"}},
}

var repetitionReplies = []models.Reply{
	lines("annoyed", "Yeh toh tum pehle bhi pooch chuke ho 😅", "Kuch naya bolo na"),
	lines("teasing", "Baar baar same sawaal? Memory weak hai kya 😜"),
	lines("annoyed", "You keep asking the same thing yaar 🙄"),
}

var breakReplies = []models.Reply{
	lines("tired", "Itni der se baat kar rahe hai 😅", "Thoda break lete hai?"),
	lines("tired", "Meri ungliyan thak gayi typing karke 🙈 5 min break?"),
	lines("sleepy", "Let's take a little break, phir baat karte hai 💕"),
}

// Detector spots repeated questions and overly long sessions
type Detector struct {
	rnd         weighted.Source
	window      int
	repeatTurns int
	longAfter   int
	breakChance float64
}

// DetectorConfig tunes the detector
type DetectorConfig struct {
	Window      int
	RepeatTurns int
	LongAfter   int
	BreakChance float64
}

// DefaultDetectorConfig mirrors the production thresholds
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{Window: 10, RepeatTurns: 3, LongAfter: 15, BreakChance: 0.3}
}

// NewDetector creates a detector
func NewDetector(cfg DetectorConfig, rnd weighted.Source) *Detector {
	if rnd == nil {
		rnd = weighted.Default()
	}
	def := DefaultDetectorConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.RepeatTurns <= 0 {
		cfg.RepeatTurns = def.RepeatTurns
	}
	if cfg.LongAfter <= 0 {
		cfg.LongAfter = def.LongAfter
	}
	return &Detector{
		rnd:         rnd,
		window:      cfg.Window,
		repeatTurns: cfg.RepeatTurns,
		longAfter:   cfg.LongAfter,
		breakChance: cfg.BreakChance,
	}
}

// questionType returns the category a message asks about, or ""
func questionType(text string) string {
	normalized := Normalize(text)
	for _, qt := range questionTypes {
		for _, phrase := range qt.phrases {
			if strings.Contains(normalized, phrase) {
				return qt.name
			}
		}
	}
	return ""
}

// IsRepeating reports whether the last user turns all ask the same kind of question
func (d *Detector) IsRepeating(history []models.Message, current string) bool {
	recent := history
	if len(recent) > d.window {
		recent = recent[len(recent)-d.window:]
	}

	var userTurns []string
	for _, msg := range recent {
		if msg.Role == models.RoleUser {
			userTurns = append(userTurns, msg.Content)
		}
	}
	if strings.TrimSpace(current) != "" {
		userTurns = append(userTurns, current)
	}
	if len(userTurns) < d.repeatTurns {
		return false
	}

	last := userTurns[len(userTurns)-d.repeatTurns:]
	first := questionType(last[0])
	if first == "" {
		return false
	}
	for _, turn := range last[1:] {
		if questionType(turn) != first {
			return false
		}
	}
	return true
}

// Check returns a diversion reply for repeated questions or, sometimes, a break
// suggestion for long conversations
func (d *Detector) Check(history []models.Message, current string) (Hit, bool) {
	if hit, ok := d.CheckRepetition(history, current); ok {
		return hit, true
	}
	return d.CheckBreak(history)
}

// CheckRepetition answers only when the user keeps asking the same kind of question
func (d *Detector) CheckRepetition(history []models.Message, current string) (Hit, bool) {
	if !d.IsRepeating(history, current) {
		return Hit{}, false
	}
	reply, _ := weighted.One(d.rnd, repetitionReplies)
	return Hit{Rule: "repetition", Reply: reply.Clone()}, true
}

// CheckBreak occasionally asks for a pause once the conversation runs long
func (d *Detector) CheckBreak(history []models.Message) (Hit, bool) {
	if len(history) > d.longAfter && weighted.Chance(d.rnd, d.breakChance) {
		reply, _ := weighted.One(d.rnd, breakReplies)
		return Hit{Rule: "long_conversation", Reply: reply.Clone()}, true
	}
	return Hit{}, false
}
