package responder

import "github.com/kruthika-chat/kruthika-go/internal/models"

func say(mood string, lines ...string) models.Reply {
	return models.Reply{ResponseLines: lines, NewMood: mood}
}

// goodbyeReplies end a long evening chat; the persona then goes offline
var goodbyeReplies = []models.Reply{
	say("sleepy", "okay I'm literally falling asleep now 😴", "talk tomorrow? good night!"),
	say("busy", "mummy is calling me for dinner", "brb... actually might take a while 🙈"),
	say("tired", "my phone is at 3% and charger is in the other room 😭", "byeee talk later"),
	say("sleepy", "have to wake up early tomorrow for college", "gn! sweet dreams 🌙"),
}

// comebackReplies greet the user when the persona comes back online
var comebackReplies = []models.Reply{
	say("happy", "heyy I'm back!", "sorry, got stuck with family stuff 😅"),
	say("cheerful", "back online 🙋‍♀️", "did you miss me?"),
	say("relaxed", "phone charged, I'm back 😌", "what were we talking about?"),
}

// captions accompany proactively shared pictures and voice notes
var (
	imageCaptions = []string{
		"look what I clicked today 📸",
		"just took this, how is it? 😊",
		"random pic for you hehe",
	}
	audioCaptions = []string{
		"sending a voice note, too lazy to type 🙈",
		"listen to this!",
	}
)
