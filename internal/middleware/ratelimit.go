package middleware

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// MaxMessageBytes bounds an incoming chat message
const MaxMessageBytes = 4096

// RateLimiter interface for rate limiting
type RateLimiter interface {
	Allow(userID string) bool
	Reset(userID string)
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter implements per-user rate limiting
type UserRateLimiter struct {
	enabled  bool
	limiters map[string]*userLimiter
	mu       sync.Mutex
	rpm      int
	burst    int
	idle     time.Duration
	now      func() time.Time
	logger   *logrus.Logger
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg *config.RateLimitConfig, logger *logrus.Logger) *UserRateLimiter {
	if !cfg.Enabled {
		return &UserRateLimiter{enabled: false}
	}

	return &UserRateLimiter{
		enabled:  true,
		limiters: make(map[string]*userLimiter),
		rpm:      cfg.RequestsPerMinute,
		burst:    cfg.Burst,
		idle:     time.Hour,
		now:      time.Now,
		logger:   logger,
	}
}

// Allow checks if a user is allowed to make a request
func (r *UserRateLimiter) Allow(userID string) bool {
	if !r.enabled {
		return true
	}

	allowed := r.getLimiter(userID).Allow()
	if !allowed {
		r.logger.WithFields(logrus.Fields{
			"user_id": userID,
		}).Warn("Rate limit exceeded")
	}
	return allowed
}

// Reset resets the rate limiter for a user
func (r *UserRateLimiter) Reset(userID string) {
	if !r.enabled {
		return
	}

	r.mu.Lock()
	delete(r.limiters, userID)
	r.mu.Unlock()
}

// getLimiter gets or creates a rate limiter for a user
func (r *UserRateLimiter) getLimiter(userID string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ul, exists := r.limiters[userID]; exists {
		ul.lastSeen = r.now()
		return ul.limiter
	}

	// Rate per second = RPM / 60
	rps := float64(r.rpm) / 60.0
	ul := &userLimiter{
		limiter:  rate.NewLimiter(rate.Limit(rps), r.burst),
		lastSeen: r.now(),
	}
	r.limiters[userID] = ul
	return ul.limiter
}

// Cleanup drops limiters idle for longer than an hour
func (r *UserRateLimiter) Cleanup() int {
	if !r.enabled {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	cutoff := r.now().Add(-r.idle)
	for id, ul := range r.limiters {
		if ul.lastSeen.Before(cutoff) {
			delete(r.limiters, id)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup on interval until ctx is done
func (r *UserRateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	if !r.enabled {
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
				if removed := r.Cleanup(); removed > 0 {
					r.logger.WithField("removed", removed).Debug("Removed idle rate limiters")
				}
			}
		}
	}()
}

// ValidateInput performs input validation on a chat message
func ValidateInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message is empty")
	}
	if len(text) > MaxMessageBytes {
		return fmt.Errorf("message too long: %d bytes", len(text))
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("message is not valid UTF-8")
	}
	return nil
}
