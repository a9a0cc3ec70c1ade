package i18n

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Supported reply languages
const (
	English = "en"
	Hindi   = "hi"
	Kannada = "kn"
)

var languageTags = map[string]language.Tag{
	English: language.English,
	Hindi:   language.Hindi,
	Kannada: language.Kannada,
}

// Localizer manages internationalization
type Localizer struct {
	bundle          *i18n.Bundle
	defaultLanguage string
	localizers      map[string]*i18n.Localizer
}

// NewLocalizer creates a new localizer. Message files named <lang>.json in
// cfg.Directory are loaded when present; built-in catalogs are added with AddMessages.
func NewLocalizer(cfg *config.I18nConfig) (*Localizer, error) {
	defaultLanguage := cfg.DefaultLanguage
	if defaultLanguage == "" {
		defaultLanguage = English
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	languages := cfg.Languages
	if len(languages) == 0 {
		languages = []string{English, Hindi, Kannada}
	}

	l := &Localizer{
		bundle:          bundle,
		defaultLanguage: defaultLanguage,
		localizers:      make(map[string]*i18n.Localizer),
	}
	for lang, messages := range builtinMessages {
		if err := l.AddMessages(lang, messages); err != nil {
			return nil, err
		}
	}

	if cfg.Directory != "" {
		for _, lang := range languages {
			path := filepath.Join(cfg.Directory, lang+".json")
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if _, err := bundle.LoadMessageFile(path); err != nil {
				return nil, fmt.Errorf("failed to load language file %s: %w", lang, err)
			}
		}
	}

	for _, lang := range languages {
		l.localizers[lang] = i18n.NewLocalizer(bundle, lang, defaultLanguage)
	}
	if _, ok := l.localizers[defaultLanguage]; !ok {
		l.localizers[defaultLanguage] = i18n.NewLocalizer(bundle, defaultLanguage)
	}

	return l, nil
}

// AddMessages registers id -> text pairs for lang
func (l *Localizer) AddMessages(lang string, messages map[string]string) error {
	tag, ok := languageTags[lang]
	if !ok {
		parsed, err := language.Parse(lang)
		if err != nil {
			return fmt.Errorf("unknown language %q: %w", lang, err)
		}
		tag = parsed
	}

	batch := make([]*i18n.Message, 0, len(messages))
	for id, text := range messages {
		if text == "" {
			continue
		}
		batch = append(batch, &i18n.Message{ID: id, Other: text})
	}
	return l.bundle.AddMessages(tag, batch...)
}

// Lookup returns the localized message or an error when no language has it.
// A message missing from lang is looked up again in the default language.
func (l *Localizer) Lookup(lang, messageID string, data map[string]interface{}) (string, error) {
	cfg := &i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	}
	localizer, exists := l.localizers[lang]
	if !exists {
		return l.localizers[l.defaultLanguage].Localize(cfg)
	}

	msg, err := localizer.Localize(cfg)
	var notFound *i18n.MessageNotFoundErr
	if err != nil && lang != l.defaultLanguage && errors.As(err, &notFound) {
		return l.localizers[l.defaultLanguage].Localize(cfg)
	}
	return msg, err
}

// Get returns localized message
func (l *Localizer) Get(lang, messageID string, data map[string]interface{}) string {
	msg, err := l.Lookup(lang, messageID, data)
	if err != nil {
		return messageID // Fallback to message ID
	}
	return msg
}

// DefaultLanguage returns the configured default
func (l *Localizer) DefaultLanguage() string {
	return l.defaultLanguage
}

var wordPattern = regexp.MustCompile(`[\p{L}']+`)

// romanized keywords that give away the user's language
var (
	hindiKeywords = setOf(
		"kaise", "kaisi", "kya", "hai", "hain", "nahi", "nahin", "haan", "acha", "accha",
		"achha", "yaar", "tum", "tumhara", "mujhe", "mera", "kaha", "kahan", "kyu", "kyun",
		"theek", "thik", "bahut", "abhi", "kab", "batao", "raha", "rahi", "karo",
	)
	kannadaKeywords = setOf(
		"hegiddiya", "hegidira", "enu", "yaake", "illa", "houdu", "nanu", "ninna",
		"maadthiya", "madtidiya", "oota", "aytha", "guru", "chennagiddini", "ellidiya",
		"banni", "swalpa", "gottilla",
	)
)

func setOf(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// DetectLanguage sniffs the reply language from the user's message. Native script
// wins; otherwise romanized keywords are counted, Kannada beating Hindi on ties.
func DetectLanguage(text string) string {
	hindi, kannada := 0, 0
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Devanagari, r):
			return Hindi
		case unicode.Is(unicode.Kannada, r):
			return Kannada
		}
	}
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, ok := kannadaKeywords[word]; ok {
			kannada++
		}
		if _, ok := hindiKeywords[word]; ok {
			hindi++
		}
	}
	switch {
	case kannada > 0 && kannada >= hindi:
		return Kannada
	case hindi > 0:
		return Hindi
	default:
		return English
	}
}
