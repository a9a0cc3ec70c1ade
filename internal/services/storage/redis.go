package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/sirupsen/logrus"
)

// RedisStorage implements storage using Redis
type RedisStorage struct {
	client     *redis.Client
	historyTTL time.Duration
	logger     *logrus.Logger
}

func NewRedisStorage(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.Redis.Addr,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.Storage.Memory.DefaultExpiration
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return NewRedisStorageWithClient(client, ttl, logger), nil
}

// NewRedisStorageWithClient wraps an existing client
func NewRedisStorageWithClient(client *redis.Client, historyTTL time.Duration, logger *logrus.Logger) *RedisStorage {
	return &RedisStorage{client: client, historyTTL: historyTTL, logger: logger}
}

func historyKey(userID string) string { return "history:" + userID }
func statsKey(userID string) string   { return "user_stats:" + userID }

func (r *RedisStorage) GetHistory(ctx context.Context, userID string) ([]models.Message, error) {
	raw, err := r.client.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	history := make([]models.Message, 0, len(raw))
	for _, item := range raw {
		var msg models.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			r.logger.WithError(err).WithField("user_id", userID).Warn("Skipping corrupt history entry")
			continue
		}
		history = append(history, msg)
	}
	return history, nil
}

func (r *RedisStorage) AppendHistory(ctx context.Context, userID string, maxMessages int, messages ...models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(messages))
	for _, msg := range stamp(messages) {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		values = append(values, data)
	}

	key := historyKey(userID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if maxMessages > 0 {
		pipe.LTrim(ctx, key, int64(-maxMessages), -1)
	}
	pipe.Expire(ctx, key, r.historyTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStorage) ClearHistory(ctx context.Context, userID string) error {
	return r.client.Del(ctx, historyKey(userID)).Err()
}

func (r *RedisStorage) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	data, err := r.client.Get(ctx, statsKey(userID)).Result()
	if err == redis.Nil {
		return &models.UserStats{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}

	var stats models.UserStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *RedisStorage) IncrementUserStats(ctx context.Context, userID string) error {
	stats, err := r.GetUserStats(ctx, userID)
	if err != nil {
		return err
	}

	stats.TotalMessages++
	stats.LastSeen = time.Now().UTC()
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, statsKey(userID), data, 0).Err()
}

func (r *RedisStorage) GetMedia(ctx context.Context) (*models.MediaAssets, error) {
	data, err := r.client.Get(ctx, mediaKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var media models.MediaAssets
	if err := json.Unmarshal([]byte(data), &media); err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *RedisStorage) SaveMedia(ctx context.Context, media *models.MediaAssets) error {
	data, err := json.Marshal(media)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, mediaKey, data, 0).Err() // No expiration for media
}

func (r *RedisStorage) CleanupExpiredHistory(ctx context.Context, expiration time.Duration) error {
	// Redis handles expiration automatically
	return nil
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
