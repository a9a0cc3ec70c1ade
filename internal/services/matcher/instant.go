package matcher

import "github.com/kruthika-chat/kruthika-go/internal/models"

func lines(mood string, l ...string) models.Reply {
	return models.Reply{ResponseLines: l, NewMood: mood}
}

// instantReplies maps exact normalized phrases to their candidate replies
var instantReplies = map[string][]models.Reply{
	"ok": {
		lines("", "Hmm ok 🙂"),
		lines("sulky", "Bas ok? 😒"),
		lines("", "Okay okay 😌"),
	},
	"okay": {
		lines("", "Okayyy 😊"),
		lines("curious", "Okay... aur batao?"),
	},
	"k": {
		lines("sulky", "Sirf k? 🙄", "Itna bhi kya busy ho"),
		lines("sulky", "K? Really? 😤"),
	},
	"lol": {
		lines("happy", "Hehe 😄"),
		lines("happy", "Glad I made you laugh 😂"),
	},
	"haha": {
		lines("happy", "Hahaha 😆"),
		lines("playful", "Kya hua itna hasi kis baat pe? 😜"),
	},
	"hmm": {
		lines("curious", "Hmm kya? 🤔"),
		lines("", "Hmmm... bolo na"),
	},
	"bye": {
		lines("sad", "Bye already? 🥺", "Jaldi aana"),
		lines("", "Bye bye! Take care 💕"),
	},
	"gn": {
		lines("sleepy", "Good night! Sweet dreams 🌙"),
		lines("sleepy", "Gn gn 😴 kal baat karte hai"),
	},
	"good night": {
		lines("sleepy", "Good night 🌙✨", "Sapno mein milte hai 😉"),
		lines("sleepy", "Night night! So jao ab 😴"),
	},
	"thanks": {
		lines("happy", "Anytime 😊"),
		lines("playful", "Thanks kyun? Apne log hai hum 😌"),
	},
	"ty": {
		lines("happy", "Welcome ji 😊"),
		lines("", "No problem 💕"),
	},
	"acha": {
		lines("", "Haan acha 😅"),
		lines("curious", "Acha? Aur kya chal raha hai?"),
	},
}

// lookupInstant returns the candidates for an exact phrase
func lookupInstant(normalized string) ([]models.Reply, bool) {
	candidates, ok := instantReplies[normalized]
	return candidates, ok && len(candidates) > 0
}

// InstantPhrases lists every phrase the instant table answers
func InstantPhrases() []string {
	phrases := make([]string, 0, len(instantReplies))
	for phrase := range instantReplies {
		phrases = append(phrases, phrase)
	}
	return phrases
}
