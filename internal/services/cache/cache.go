package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/sirupsen/logrus"
)

// Service defines cache operations
type Service interface {
	Get(prompt, mood, timeOfDay string) (models.Reply, bool)
	Set(prompt string, reply models.Reply, mood, timeOfDay string)
	Purge() int
	Len() int
	Clear()
}

// Cache is the content-addressed response cache
type Cache struct {
	enabled bool
	store   *Store[models.Reply]
	logger  *logrus.Logger
}

// NewCache creates a new cache service
func NewCache(cfg *config.CacheConfig, logger *logrus.Logger) *Cache {
	if !cfg.Enabled {
		return &Cache{enabled: false, logger: logger}
	}

	return &Cache{
		enabled: true,
		store:   NewStore(cfg.MaxSize, cfg.TTL, models.Reply.Clone),
		logger:  logger,
	}
}

// SetClock replaces the time source, for tests
func (c *Cache) SetClock(now func() time.Time) {
	if c.enabled {
		c.store.SetClock(now)
	}
}

// Get retrieves a cached response
func (c *Cache) Get(prompt, mood, timeOfDay string) (models.Reply, bool) {
	if !c.enabled {
		return models.Reply{}, false
	}

	key := GenerateKey(prompt, mood, timeOfDay)
	reply, found := c.store.Get(key)
	if !found {
		return models.Reply{}, false
	}
	if reply.IsEmpty() {
		// treat a hollow entry as a miss so it gets recomputed
		c.store.Delete(key)
		return models.Reply{}, false
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"mood":        mood,
			"time_of_day": timeOfDay,
			"hits":        c.store.Hits(key),
		}).Debug("Cache hit")
	}
	return reply, true
}

// Set stores a response in cache
func (c *Cache) Set(prompt string, reply models.Reply, mood, timeOfDay string) {
	if !c.enabled {
		return
	}

	c.store.Set(GenerateKey(prompt, mood, timeOfDay), reply)
	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"mood":        mood,
			"time_of_day": timeOfDay,
			"size":        c.store.Len(),
		}).Debug("Response cached")
	}
}

// Purge removes expired entries
func (c *Cache) Purge() int {
	if !c.enabled {
		return 0
	}
	return c.store.Purge()
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	if !c.enabled {
		return 0
	}
	return c.store.Len()
}

// Clear removes all cached entries
func (c *Cache) Clear() {
	if !c.enabled {
		return
	}
	c.store.Clear()
	if c.logger != nil {
		c.logger.Info("Cache cleared")
	}
}

// GenerateKey creates a unique cache key
func GenerateKey(prompt, mood, timeOfDay string) string {
	h := sha256.New()
	for _, field := range []string{prompt, mood, timeOfDay} {
		fmt.Fprintf(h, "%d:%s", len(field), field)
	}
	return hex.EncodeToString(h.Sum(nil))
}
