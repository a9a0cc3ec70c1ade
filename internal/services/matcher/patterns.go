package matcher

import (
	"regexp"

	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/kruthika-chat/kruthika-go/pkg/weighted"
)

// Rule names reported in Hit.Rule
const (
	RuleInstant     = "instant"
	RuleGreeting    = "greeting"
	RuleWellbeing   = "wellbeing"
	RulePicture     = "picture_request"
	RuleCompliment  = "compliment"
	RuleAcknowledge = "acknowledgment"
	RuleLaugh       = "laugh"
)

// greetingReplies is indexed by time of day; morning is the active window.
// Moods never overlap between buckets.
var greetingReplies = [models.TimeOfDayCount][]models.Reply{
	models.Morning: {
		lines("cheerful", "Good morning! ☀️", "Chai pi li?"),
		lines("energetic", "Heyyy! Subah subah yaad aa gayi meri? 😄"),
		lines("cheerful", "Hiii 🌸 abhi uthi main bhi"),
	},
	models.Afternoon: {
		lines("relaxed", "Hey! Lunch hua? 🍛"),
		lines("lazy", "Hiii... afternoon mein neend aa rahi hai 😴"),
	},
	models.Evening: {
		lines("playful", "Heyy 😊 finally free ho?"),
		lines("cozy", "Hi! Shaam ki chai time ☕"),
	},
	models.Night: {
		lines("sleepy", "Hey... itni raat ko? 🌙"),
		lines("dreamy", "Hii 😴 abhi tak jaag rahe ho?"),
	},
}

type rule struct {
	name    string
	pattern *regexp.Regexp
	replies []models.Reply
	// byTime overrides replies when set
	byTime *[models.TimeOfDayCount][]models.Reply
}

func (r rule) pool(tod models.TimeOfDay) []models.Reply {
	if r.byTime != nil && tod >= 0 && tod < models.TimeOfDayCount {
		return r.byTime[tod]
	}
	return r.replies
}

// defaultRules are tried top to bottom; first match wins
func defaultRules() []rule {
	return []rule{
		{
			name:    RuleGreeting,
			pattern: regexp.MustCompile(`^(hi+|hello+|hey+|heya|helo+|yo|namaste|good (morning|afternoon|evening))\b`),
			byTime:  &greetingReplies,
		},
		{
			name:    RuleWellbeing,
			pattern: regexp.MustCompile(`\b(how (are|r) (you|u)|how('s| is) (it going|your day)|kaise ho|kaisi ho|hru)\b`),
			replies: []models.Reply{
				lines("happy", "Main theek hoon 😊", "Tum batao?"),
				lines("happy", "Ekdum mast! Tumse baat karke aur acha lag raha hai 💕"),
				lines("tired", "Thodi thaki hui hoon, but fine 😅", "Aap kaise ho?"),
			},
		},
		{
			name:    RulePicture,
			pattern: regexp.MustCompile(`\b(send|share|show)\b.*\b(pic|pics|photo|photos|selfie|picture|image)\b`),
			replies: []models.Reply{
				lines("shy", "Abhi nahi 🙈", "Baad mein bhejti hoon"),
				lines("playful", "Itni jaldi? Pehle baat toh karo 😜"),
				lines("shy", "Hehe, achi nahi lag rahi abhi 🙈"),
			},
		},
		{
			name:    RuleCompliment,
			pattern: regexp.MustCompile(`\b(you('re| are)|ur|u r|you look)\s+(so\s+|very\s+|really\s+)?(beautiful|cute|pretty|hot|gorgeous|sweet|adorable|amazing)\b`),
			replies: []models.Reply{
				lines("shy", "Aww stop it 🙈"),
				lines("flattered", "Sach mein? 😊", "Tum bhi kuch kam nahi ho"),
				lines("flattered", "Thank youuu ☺️ aaj ka din ban gaya"),
			},
		},
		{
			name:    RuleAcknowledge,
			pattern: regexp.MustCompile(`^(ok+|okay+|k+|hmm+|acha+|achha+|accha+|theek hai|thik hai|fine|alright|cool)\b`),
			replies: []models.Reply{
				lines("", "Hmm 🙂"),
				lines("curious", "Aur batao kya chal raha hai?"),
			},
		},
		{
			name:    RuleLaugh,
			pattern: regexp.MustCompile(`^(ha){2,}|\b(lol|lmao|rofl|hehe+)\b|😂|🤣`),
			replies: []models.Reply{
				lines("happy", "😂😂"),
				lines("playful", "Itna bhi funny nahi tha 😜"),
			},
		},
	}
}

// Hit is a matched canned reply
type Hit struct {
	Rule  string
	Reply models.Reply
}

// Matcher answers exact phrases and known message shapes
type Matcher struct {
	rules []rule
	rnd   weighted.Source
}

// NewMatcher creates a matcher drawing from rnd
func NewMatcher(rnd weighted.Source) *Matcher {
	if rnd == nil {
		rnd = weighted.Default()
	}
	return &Matcher{rules: defaultRules(), rnd: rnd}
}

// MatchInstant checks only the exact-phrase table
func (m *Matcher) MatchInstant(message string) (Hit, bool) {
	candidates, ok := lookupInstant(Normalize(message))
	if !ok {
		return Hit{}, false
	}
	reply, _ := weighted.One(m.rnd, candidates)
	return Hit{Rule: RuleInstant, Reply: reply.Clone()}, true
}

// MatchPattern tries the ordered regular-expression rules
func (m *Matcher) MatchPattern(message string, tod models.TimeOfDay) (Hit, bool) {
	normalized := Normalize(message)
	if normalized == "" {
		return Hit{}, false
	}
	for _, r := range m.rules {
		if !r.pattern.MatchString(normalized) {
			continue
		}
		reply, ok := weighted.One(m.rnd, r.pool(tod))
		if !ok {
			continue
		}
		return Hit{Rule: r.name, Reply: reply.Clone()}, true
	}
	return Hit{}, false
}

// Match checks the exact-phrase table and then the pattern rules
func (m *Matcher) Match(message string, tod models.TimeOfDay) (Hit, bool) {
	if hit, ok := m.MatchInstant(message); ok {
		return hit, true
	}
	return m.MatchPattern(message, tod)
}
