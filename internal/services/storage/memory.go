package storage

import (
	"context"
	"sync"
	"time"

	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const mediaKey = "media_assets"

// MemoryStorage implements storage using in-memory cache
type MemoryStorage struct {
	mu        sync.Mutex
	histories *cache.Cache
	userStats *cache.Cache
	media     *cache.Cache
	logger    *logrus.Logger
}

func NewMemoryStorage(cfg *config.Config, logger *logrus.Logger) *MemoryStorage {
	expiration := cfg.Storage.Memory.DefaultExpiration
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	cleanup := cfg.Storage.Memory.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &MemoryStorage{
		histories: cache.New(expiration, cleanup),
		userStats: cache.New(cache.NoExpiration, cache.NoExpiration),
		media:     cache.New(cache.NoExpiration, cache.NoExpiration),
		logger:    logger,
	}
}

func (m *MemoryStorage) GetHistory(ctx context.Context, userID string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, found := m.histories.Get("history:" + userID); found {
		history := val.([]models.Message)
		return append([]models.Message(nil), history...), nil
	}
	return nil, nil
}

func (m *MemoryStorage) AppendHistory(ctx context.Context, userID string, maxMessages int, messages ...models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "history:" + userID
	var history []models.Message
	if val, found := m.histories.Get(key); found {
		history = append(history, val.([]models.Message)...)
	}
	history = trimHistory(append(history, stamp(messages)...), maxMessages)
	m.histories.SetDefault(key, history)
	return nil
}

func (m *MemoryStorage) ClearHistory(ctx context.Context, userID string) error {
	m.histories.Delete("history:" + userID)
	return nil
}

func (m *MemoryStorage) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, found := m.userStats.Get("user_stats:" + userID); found {
		stats := val.(models.UserStats)
		return &stats, nil
	}
	return &models.UserStats{UserID: userID}, nil
}

func (m *MemoryStorage) IncrementUserStats(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "user_stats:" + userID
	stats := models.UserStats{UserID: userID}
	if val, found := m.userStats.Get(key); found {
		stats = val.(models.UserStats)
	}
	stats.TotalMessages++
	stats.LastSeen = time.Now().UTC()
	m.userStats.Set(key, stats, cache.NoExpiration)
	return nil
}

func (m *MemoryStorage) GetMedia(ctx context.Context) (*models.MediaAssets, error) {
	if val, found := m.media.Get(mediaKey); found {
		media := val.(models.MediaAssets)
		media.Images = append([]string(nil), media.Images...)
		media.Audio = append([]string(nil), media.Audio...)
		return &media, nil
	}
	return nil, nil
}

func (m *MemoryStorage) SaveMedia(ctx context.Context, media *models.MediaAssets) error {
	stored := models.MediaAssets{
		Images: append([]string(nil), media.Images...),
		Audio:  append([]string(nil), media.Audio...),
	}
	m.media.Set(mediaKey, stored, cache.NoExpiration)
	return nil
}

func (m *MemoryStorage) CleanupExpiredHistory(ctx context.Context, expiration time.Duration) error {
	// go-cache handles cleanup automatically
	m.histories.DeleteExpired()
	return nil
}

func (m *MemoryStorage) Close() error {
	m.histories.Flush()
	return nil
}
