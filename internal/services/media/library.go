// Package media manages the persona's shareable images and voice notes: the ones
// shipped in configuration plus those added at runtime through the admin API.
package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/sirupsen/logrus"
)

// Kind selects the media list
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

// Store persists dynamically added media
type Store interface {
	GetMedia(ctx context.Context) (*models.MediaAssets, error)
	SaveMedia(ctx context.Context, media *models.MediaAssets) error
}

// Library merges configured media with dynamically added media
type Library struct {
	base    models.MediaAssets
	store   Store
	logger  *logrus.Logger
	mu      sync.RWMutex
	dynamic *models.MediaAssets

	// addMu serializes Add so concurrent admin calls never drop each other's URLs
	addMu sync.Mutex
}

// NewLibrary creates a media library
func NewLibrary(cfg config.MediaConfig, store Store, logger *logrus.Logger) *Library {
	return &Library{
		base: models.MediaAssets{
			Images: append([]string(nil), cfg.Images...),
			Audio:  append([]string(nil), cfg.Audio...),
		},
		store:  store,
		logger: logger,
	}
}

// Assets returns the merged media lists. Storage failures fall back to the
// configured media.
func (l *Library) Assets(ctx context.Context) models.MediaAssets {
	dynamic, err := l.loadDynamic(ctx)
	if err != nil {
		l.logger.WithError(err).Warn("Failed to load dynamic media, using configured media")
		return merge(l.base, models.MediaAssets{})
	}
	return merge(l.base, dynamic)
}

// Add registers a new media URL. Without a store the URL is kept in memory only.
func (l *Library) Add(ctx context.Context, kind Kind, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return fmt.Errorf("invalid media url: %w", err)
	}

	l.addMu.Lock()
	defer l.addMu.Unlock()

	dynamic, err := l.loadDynamic(ctx)
	if err != nil {
		return err
	}

	switch kind {
	case KindImage:
		if contains(dynamic.Images, rawURL) || contains(l.base.Images, rawURL) {
			return fmt.Errorf("image '%s' already exists", rawURL)
		}
		dynamic.Images = append(dynamic.Images, rawURL)
	case KindAudio:
		if contains(dynamic.Audio, rawURL) || contains(l.base.Audio, rawURL) {
			return fmt.Errorf("audio '%s' already exists", rawURL)
		}
		dynamic.Audio = append(dynamic.Audio, rawURL)
	default:
		return fmt.Errorf("unknown media kind %q", kind)
	}

	if l.store != nil {
		if err := l.store.SaveMedia(ctx, &dynamic); err != nil {
			return fmt.Errorf("save media: %w", err)
		}
	}

	l.mu.Lock()
	l.dynamic = &dynamic
	l.mu.Unlock()

	l.logger.WithFields(logrus.Fields{
		"kind": kind,
		"url":  rawURL,
	}).Info("Added media")
	return nil
}

func (l *Library) loadDynamic(ctx context.Context) (models.MediaAssets, error) {
	l.mu.RLock()
	cached := l.dynamic
	l.mu.RUnlock()
	if cached != nil {
		return copyAssets(*cached), nil
	}

	if l.store == nil {
		return models.MediaAssets{}, nil
	}
	stored, err := l.store.GetMedia(ctx)
	if err != nil {
		return models.MediaAssets{}, err
	}
	dynamic := models.MediaAssets{}
	if stored != nil {
		dynamic = copyAssets(*stored)
	}

	l.mu.Lock()
	l.dynamic = &dynamic
	l.mu.Unlock()
	return copyAssets(dynamic), nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	if strings.HasPrefix(raw, "/") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func copyAssets(m models.MediaAssets) models.MediaAssets {
	return models.MediaAssets{
		Images: append([]string(nil), m.Images...),
		Audio:  append([]string(nil), m.Audio...),
	}
}

func merge(base, dynamic models.MediaAssets) models.MediaAssets {
	out := copyAssets(base)
	for _, img := range dynamic.Images {
		if !contains(out.Images, img) {
			out.Images = append(out.Images, img)
		}
	}
	for _, a := range dynamic.Audio {
		if !contains(out.Audio, a) {
			out.Audio = append(out.Audio, a)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
