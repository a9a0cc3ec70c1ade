// Package fallback produces human-sounding excuses when the model call fails or is
// skipped. It never reveals the real cause and never returns an empty reply.
package fallback

import (
	"strings"

	"github.com/kruthika-chat/kruthika-go/internal/i18n"
	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/kruthika-chat/kruthika-go/pkg/weighted"
	"github.com/sirupsen/logrus"
)

// Category is the kind of excuse
type Category string

const (
	CategoryNetwork     Category = "network"
	CategoryFamily      Category = "family"
	CategoryTimeOfDay   Category = "time_of_day"
	CategoryEnvironment Category = "environment"
	CategoryHook        Category = "hook"
)

// DefaultWeights is the production category mix
var DefaultWeights = []weighted.Choice[Category]{
	{Weight: 40, Value: CategoryNetwork},
	{Weight: 25, Value: CategoryFamily},
	{Weight: 20, Value: CategoryTimeOfDay},
	{Weight: 10, Value: CategoryEnvironment},
	{Weight: 5, Value: CategoryHook},
}

// lastResort is used when every lookup comes back empty
const lastResort = "Hey, give me a minute 😊"

// Generator builds fallback replies
type Generator struct {
	localizer  *i18n.Localizer
	categories *weighted.Table[Category]
	rnd        weighted.Source
	logger     *logrus.Logger
}

// NewGenerator registers the phrase catalog with localizer and returns a generator.
// A nil weights slice selects DefaultWeights.
func NewGenerator(localizer *i18n.Localizer, weights []weighted.Choice[Category], rnd weighted.Source, logger *logrus.Logger) *Generator {
	if rnd == nil {
		rnd = weighted.Default()
	}
	if len(weights) == 0 {
		weights = DefaultWeights
	}

	g := &Generator{
		localizer:  localizer,
		categories: weighted.NewTable(weights...),
		rnd:        rnd,
		logger:     logger,
	}
	g.registerCatalog()
	return g
}

func allPhrases() []phrase {
	var all []phrase
	all = append(all, networkPhrases...)
	all = append(all, familyPhrases...)
	for _, tod := range models.AllTimesOfDay {
		all = append(all, timeOfDayPhrases[tod]...)
	}
	all = append(all, environmentPhrases...)
	all = append(all, hookPhrases...)
	return all
}

func (g *Generator) registerCatalog() {
	if g.localizer == nil {
		return
	}
	en, hi, kn := map[string]string{}, map[string]string{}, map[string]string{}
	for _, p := range allPhrases() {
		en[p.id] = p.en
		hi[p.id] = p.hi
		kn[p.id] = p.kn
	}
	for lang, messages := range map[string]map[string]string{i18n.English: en, i18n.Hindi: hi, i18n.Kannada: kn} {
		if err := g.localizer.AddMessages(lang, messages); err != nil && g.logger != nil {
			g.logger.WithError(err).WithField("language", lang).Warn("Failed to register fallback phrases")
		}
	}
}

func (g *Generator) pool(category Category, tod models.TimeOfDay) []phrase {
	switch category {
	case CategoryNetwork:
		return networkPhrases
	case CategoryFamily:
		return familyPhrases
	case CategoryTimeOfDay:
		if tod < 0 || tod >= models.TimeOfDayCount {
			tod = models.Afternoon
		}
		return timeOfDayPhrases[tod]
	case CategoryEnvironment:
		return environmentPhrases
	case CategoryHook:
		return hookPhrases
	default:
		return networkPhrases
	}
}

// text localizes p, falling back to the literal variants
func (g *Generator) text(p phrase, lang string) string {
	if g.localizer != nil {
		if msg, err := g.localizer.Lookup(lang, p.id, nil); err == nil && strings.TrimSpace(msg) != "" {
			return msg
		}
	}
	switch lang {
	case i18n.Hindi:
		if p.hi != "" {
			return p.hi
		}
	case i18n.Kannada:
		if p.kn != "" {
			return p.kn
		}
	}
	return p.en
}

// Generate returns a disguised excuse for message
func (g *Generator) Generate(message string, tod models.TimeOfDay, media models.MediaAssets) models.Reply {
	reply, _ := g.GenerateWithCategory(message, tod, media)
	return reply
}

// GenerateWithCategory is Generate that also reports the chosen category
func (g *Generator) GenerateWithCategory(message string, tod models.TimeOfDay, media models.MediaAssets) (models.Reply, Category) {
	category, ok := g.categories.Pick(g.rnd)
	if !ok {
		category = CategoryNetwork
	}
	lang := i18n.DetectLanguage(message)

	p, ok := weighted.One(g.rnd, g.pool(category, tod))
	if !ok {
		return models.Reply{ResponseLines: []string{lastResort}}, category
	}

	text := strings.TrimSpace(g.text(p, lang))
	if text == "" {
		text = lastResort
	}

	if category == CategoryHook && len(media.Images) > 0 {
		image, _ := weighted.One(g.rnd, media.Images)
		return models.Reply{
			MediaCaption:      text,
			ProactiveImageURL: image,
			NewMood:           p.mood,
		}, category
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return models.Reply{ResponseLines: lines, NewMood: p.mood}, category
}
