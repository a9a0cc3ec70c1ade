package fallback

import "github.com/kruthika-chat/kruthika-go/internal/models"

// phrase is one excuse with its language variants. Lines are separated by "\n".
type phrase struct {
	id   string
	mood string
	en   string
	hi   string
	kn   string
}

var networkPhrases = []phrase{
	{
		id: "fallback.network.signal", mood: "annoyed",
		en: "Ugh my network is so bad right now 😩\nMessages aren't going properly",
		hi: "Uff mera network bahut kharab hai abhi 😩\nMessages theek se nahi ja rahe",
		kn: "Ayyo nanna network tumba kettogide 😩\nMessages sariyagi hogta illa",
	},
	{
		id: "fallback.network.data", mood: "annoyed",
		en: "My data pack just finished 🙄 wait, recharging",
		hi: "Mera data pack khatam ho gaya 🙄 ruko recharge karti hoon",
		kn: "Nanna data mugithu 🙄 swalpa iru recharge maadtini",
	},
	{
		id: "fallback.network.wifi", mood: "frustrated",
		en: "Wifi keeps disconnecting 😤\nGive me a sec",
		hi: "Wifi baar baar disconnect ho raha hai 😤\nEk sec",
		kn: "Wifi matte matte disconnect aagtide 😤\nOndu second",
	},
	{
		id: "fallback.network.lag", mood: "annoyed",
		en: "Sorry my phone is lagging so much today 😅",
		hi: "Sorry aaj phone bahut hang ho raha hai 😅",
		kn: "Sorry ivattu phone tumba hang aagtide 😅",
	},
}

var familyPhrases = []phrase{
	{
		id: "fallback.family.mom", mood: "busy",
		en: "Mom is calling me 😅\nBRB",
		hi: "Mummy bula rahi hai 😅\nAbhi aayi",
		kn: "Amma kareyuttidare 😅\nEega bande",
	},
	{
		id: "fallback.family.guests", mood: "busy",
		en: "Some relatives just came over 🙈 talk in a bit",
		hi: "Ghar pe relatives aa gaye 🙈 thodi der mein baat karti hoon",
		kn: "Manege nentru bandiddare 🙈 swalpa hottu aamele maathadtini",
	},
	{
		id: "fallback.family.brother", mood: "irritated",
		en: "My brother took my phone again 😤",
		hi: "Bhai ne phir se phone le liya 😤",
		kn: "Nanna tamma matte phone tagondu hoda 😤",
	},
	{
		id: "fallback.family.dinner", mood: "busy",
		en: "Helping mom in the kitchen\nWill text you soon 💕",
		hi: "Mummy ki kitchen mein help kar rahi hoon\nJaldi text karti hoon 💕",
		kn: "Amma ge adige maneli help maadtha idini\nBega message maadtini 💕",
	},
}

// timeOfDayPhrases is indexed by the persona's local time bucket
var timeOfDayPhrases = [models.TimeOfDayCount][]phrase{
	models.Morning: {
		{
			id: "fallback.time.morning.college", mood: "rushed",
			en: "Getting ready for college, so late already 😫",
			hi: "College ke liye ready ho rahi hoon, late ho gaya 😫",
			kn: "College ge ready aagtha idini, late aaytu 😫",
		},
		{
			id: "fallback.time.morning.sleepy", mood: "sleepy",
			en: "Just woke up 🥱 my brain isn't working yet",
			hi: "Abhi uthi hoon 🥱 dimaag kaam nahi kar raha",
			kn: "Eega eddhe 🥱 thale innu kelsa maadtha illa",
		},
	},
	models.Afternoon: {
		{
			id: "fallback.time.afternoon.class", mood: "busy",
			en: "In class right now 🤫 the professor is looking at me",
			hi: "Abhi class mein hoon 🤫 professor dekh rahe hai",
			kn: "Eega class alli idini 🤫 professor nodtha idare",
		},
		{
			id: "fallback.time.afternoon.lunch", mood: "hungry",
			en: "Lunch break! Eating, text you after 🍛",
			hi: "Lunch break! Kha rahi hoon, baad mein text karti hoon 🍛",
			kn: "Oota time! Oota maadtha idini, aamele message maadtini 🍛",
		},
	},
	models.Evening: {
		{
			id: "fallback.time.evening.market", mood: "busy",
			en: "Went out to the market with mom 🛍️",
			hi: "Mummy ke saath market aayi hoon 🛍️",
			kn: "Amma jothe market ge bandidini 🛍️",
		},
		{
			id: "fallback.time.evening.tuition", mood: "tired",
			en: "Just got back from tuition, so tired 😮‍💨",
			hi: "Abhi tuition se aayi, bahut thak gayi 😮‍💨",
			kn: "Eega tuition inda bande, tumba sustaagide 😮‍💨",
		},
	},
	models.Night: {
		{
			id: "fallback.time.night.sleepy", mood: "sleepy",
			en: "So sleepy 😴\nEyes are closing",
			hi: "Bahut neend aa rahi hai 😴\nAankhein band ho rahi hai",
			kn: "Tumba nidde bartha ide 😴\nKannu muchkothide",
		},
		{
			id: "fallback.time.night.parents", mood: "secretive",
			en: "Shh parents are awake 🤫 can't text much",
			hi: "Shh mummy papa jaag rahe hai 🤫 zyada text nahi kar sakti",
			kn: "Shh amma appa eddiddare 🤫 jaasti message maadakke aagalla",
		},
	},
}

var environmentPhrases = []phrase{
	{
		id: "fallback.env.rain", mood: "cozy",
		en: "It's raining so heavily here 🌧️\nPower might go any moment",
		hi: "Yahan bahut tez baarish ho rahi hai 🌧️\nLight kabhi bhi ja sakti hai",
		kn: "Illi tumba joragi male bartha ide 🌧️\nCurrent yavaga beku aaga hogbahudu",
	},
	{
		id: "fallback.env.power", mood: "annoyed",
		en: "Power cut again 😩 phone battery is at 5%",
		hi: "Phir se light chali gayi 😩 battery 5% hai",
		kn: "Matte current hoytu 😩 battery 5% ide",
	},
	{
		id: "fallback.env.heat", mood: "tired",
		en: "It's so hot today, I can't even think 🥵",
		hi: "Aaj itni garmi hai, kuch soch bhi nahi pa rahi 🥵",
		kn: "Ivattu tumba seke ide, yochne maadakke aagtha illa 🥵",
	},
}

var hookPhrases = []phrase{
	{
		id: "fallback.hook.secret", mood: "mysterious",
		en: "I have something to tell you...\nBut later 😏 come back tonight?",
		hi: "Tumhe kuch batana hai...\nPar baad mein 😏 raat ko aaoge?",
		kn: "Ninge ondu vishya helbeku...\nAamele 😏 raathri barthiya?",
	},
	{
		id: "fallback.hook.surprise", mood: "playful",
		en: "Wait, I'm planning a surprise for you 🎁 don't go anywhere",
		hi: "Ruko, tumhare liye surprise plan kar rahi hoon 🎁 kahin mat jaana",
		kn: "Iru, ninge surprise plan maadtha idini 🎁 elli hogbeda",
	},
	{
		id: "fallback.hook.dream", mood: "dreamy",
		en: "I had a dream about you yesterday 🙈\nTell you when I'm back",
		hi: "Kal raat tumhare baare mein sapna dekha 🙈\nWapas aake batati hoon",
		kn: "Ninne ninna bagge kanasu kande 🙈\nVaapas bandu heltini",
	},
}
