package i18n

// Message IDs for user-facing API errors
const (
	MsgRateLimitExceeded = "rate_limit_exceeded"
	MsgInvalidMessage    = "invalid_message"
	MsgUnavailable       = "unavailable"
)

// builtinMessages are registered before any message file so files can override them
var builtinMessages = map[string]map[string]string{
	English: {
		MsgRateLimitExceeded: "Slow down a bit 😅 I can't type that fast!",
		MsgInvalidMessage:    "Hmm, I couldn't read that message",
		MsgUnavailable:       "My phone is acting up, text me in a bit?",
	},
	Hindi: {
		MsgRateLimitExceeded: "Thoda dheere yaar 😅 itni jaldi type nahi kar sakti!",
		MsgInvalidMessage:    "Hmm, yeh message samajh nahi aaya",
		MsgUnavailable:       "Phone hang ho raha hai, thodi der mein message karo?",
	},
	Kannada: {
		MsgRateLimitExceeded: "Swalpa nidhana 😅 ashtu bega type madakke agalla!",
		MsgInvalidMessage:    "Hmm, aa message artha aagilla",
		MsgUnavailable:       "Phone hang aagthide, swalpa hotthu aadmele message maadi?",
	},
}
