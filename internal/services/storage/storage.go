package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedBackend is returned for an unknown storage type
var ErrUnsupportedBackend = errors.New("unsupported storage type")

// Storage interface defines storage operations
type Storage interface {
	// Rolling history operations
	GetHistory(ctx context.Context, userID string) ([]models.Message, error)
	AppendHistory(ctx context.Context, userID string, maxMessages int, messages ...models.Message) error
	ClearHistory(ctx context.Context, userID string) error

	// User stats operations
	GetUserStats(ctx context.Context, userID string) (*models.UserStats, error)
	IncrementUserStats(ctx context.Context, userID string) error

	// Media operations
	GetMedia(ctx context.Context) (*models.MediaAssets, error)
	SaveMedia(ctx context.Context, media *models.MediaAssets) error

	// Cleanup operations
	CleanupExpiredHistory(ctx context.Context, expiration time.Duration) error
	Close() error
}

// Observer receives the outcome of every storage call
type Observer func(operation, status string, duration time.Duration)

// Manager manages different storage backends
type Manager struct {
	storage  Storage
	logger   *logrus.Logger
	observer Observer
}

// NewManager creates a new storage manager
func NewManager(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Manager, error) {
	var storage Storage

	switch cfg.Storage.Type {
	case "redis":
		redisStorage, err := NewRedisStorage(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		storage = redisStorage
	case "postgres":
		pgStorage, err := NewPostgresStorage(ctx, cfg.Storage.Postgres.URL, logger)
		if err != nil {
			return nil, err
		}
		storage = pgStorage
	case "memory", "":
		storage = NewMemoryStorage(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, cfg.Storage.Type)
	}

	return NewManagerWith(storage, logger), nil
}

// NewManagerWith wraps an existing backend
func NewManagerWith(storage Storage, logger *logrus.Logger) *Manager {
	return &Manager{storage: storage, logger: logger}
}

// SetObserver installs a callback for operation metrics
func (m *Manager) SetObserver(observer Observer) {
	m.observer = observer
}

// StartCleanup periodically drops history older than expiration until ctx is done
func (m *Manager) StartCleanup(ctx context.Context, interval, expiration time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				if err := m.track("cleanup", func() error {
					return m.storage.CleanupExpiredHistory(cleanupCtx, expiration)
				}); err != nil {
					m.logger.WithError(err).Error("Failed to cleanup expired history")
				}
				cancel()
			}
		}
	}()
}

func (m *Manager) track(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	if m.observer != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		m.observer(operation, status, time.Since(start))
	}
	return err
}

// Delegate methods to underlying storage
func (m *Manager) GetHistory(ctx context.Context, userID string) ([]models.Message, error) {
	var history []models.Message
	err := m.track("get_history", func() (err error) {
		history, err = m.storage.GetHistory(ctx, userID)
		return err
	})
	return history, err
}

func (m *Manager) AppendHistory(ctx context.Context, userID string, maxMessages int, messages ...models.Message) error {
	return m.track("append_history", func() error {
		return m.storage.AppendHistory(ctx, userID, maxMessages, messages...)
	})
}

func (m *Manager) ClearHistory(ctx context.Context, userID string) error {
	return m.track("clear_history", func() error {
		return m.storage.ClearHistory(ctx, userID)
	})
}

func (m *Manager) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	var stats *models.UserStats
	err := m.track("get_stats", func() (err error) {
		stats, err = m.storage.GetUserStats(ctx, userID)
		return err
	})
	return stats, err
}

func (m *Manager) IncrementUserStats(ctx context.Context, userID string) error {
	return m.track("increment_stats", func() error {
		return m.storage.IncrementUserStats(ctx, userID)
	})
}

func (m *Manager) GetMedia(ctx context.Context) (*models.MediaAssets, error) {
	var media *models.MediaAssets
	err := m.track("get_media", func() (err error) {
		media, err = m.storage.GetMedia(ctx)
		return err
	})
	return media, err
}

func (m *Manager) SaveMedia(ctx context.Context, media *models.MediaAssets) error {
	return m.track("save_media", func() error {
		return m.storage.SaveMedia(ctx, media)
	})
}

// Close releases the backend
func (m *Manager) Close() error {
	return m.storage.Close()
}

// trimHistory keeps the newest maxMessages entries
func trimHistory(history []models.Message, maxMessages int) []models.Message {
	if maxMessages > 0 && len(history) > maxMessages {
		history = history[len(history)-maxMessages:]
	}
	return history
}

func stamp(messages []models.Message) []models.Message {
	out := make([]models.Message, len(messages))
	now := time.Now().UTC()
	for i, msg := range messages {
		if msg.SentAt.IsZero() {
			msg.SentAt = now
		}
		out[i] = msg
	}
	return out
}
