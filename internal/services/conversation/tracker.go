// Package conversation tracks the per-user "gone offline / back online" narrative.
package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/sirupsen/logrus"
)

// Tracker owns one ConversationState per user. States move
// ACTIVE -> GOODBYE_STARTED -> (after ComebackAfter) -> ACTIVE; callers poll
// ShouldComeBackOnline.
type Tracker struct {
	mu            sync.Mutex
	states        map[string]*models.ConversationState
	comebackAfter time.Duration
	idleExpiry    time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	logger        *logrus.Logger
	stop          context.CancelFunc
	done          chan struct{}
}

// NewTracker creates a tracker
func NewTracker(cfg config.ConversationConfig, logger *logrus.Logger) *Tracker {
	if cfg.ComebackAfter <= 0 {
		cfg.ComebackAfter = 5 * time.Minute
	}
	if cfg.IdleExpiry <= 0 {
		cfg.IdleExpiry = time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	return &Tracker{
		states:        make(map[string]*models.ConversationState),
		comebackAfter: cfg.ComebackAfter,
		idleExpiry:    cfg.IdleExpiry,
		sweepInterval: cfg.SweepInterval,
		now:           time.Now,
		logger:        logger,
	}
}

// SetClock replaces the time source, for tests
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// state returns the user's state, creating it lazily. Caller holds t.mu.
func (t *Tracker) state(userID string) *models.ConversationState {
	st, ok := t.states[userID]
	if !ok {
		st = &models.ConversationState{SituationStartTime: t.now()}
		t.states[userID] = st
	}
	return st
}

// State returns a copy of the user's state
func (t *Tracker) State(userID string) models.ConversationState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.state(userID)
}

// RecordMessage counts one user message and returns the new count. A pending
// back-online marker is cleared.
func (t *Tracker) RecordMessage(userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.state(userID)
	st.MessageCount++
	if st.CurrentSituation == models.SituationBackOnline {
		st.CurrentSituation = ""
	}
	return st.MessageCount
}

// StartGoodbyeSequence moves the user to GOODBYE_STARTED. It is a no-op for a
// user already away.
func (t *Tracker) StartGoodbyeSequence(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.state(userID)
	if st.HasStartedGoodbye {
		return false
	}
	st.HasStartedGoodbye = true
	st.CurrentSituation = models.SituationGoodbye
	st.SituationStartTime = t.now()

	if t.logger != nil {
		t.logger.WithField("user_id", userID).Debug("Goodbye sequence started")
	}
	return true
}

// IsAway reports whether the goodbye sequence is running
func (t *Tracker) IsAway(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[userID]
	return ok && st.HasStartedGoodbye
}

// ShouldComeBackOnline is true once the goodbye has lasted longer than the gate
func (t *Tracker) ShouldComeBackOnline(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[userID]
	if !ok || !st.HasStartedGoodbye {
		return false
	}
	return t.now().Sub(st.SituationStartTime) > t.comebackAfter
}

// ComeBackOnline returns the user to ACTIVE and restarts the message count.
// It refuses while the minimum away time has not passed.
func (t *Tracker) ComeBackOnline(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[userID]
	if !ok || !st.HasStartedGoodbye {
		return false
	}
	if t.now().Sub(st.SituationStartTime) <= t.comebackAfter {
		return false
	}
	st.HasStartedGoodbye = false
	st.CurrentSituation = models.SituationBackOnline
	st.MessageCount = 0
	st.SituationStartTime = t.now()
	return true
}

// Sweep removes states whose situation started before now minus the idle expiry
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for userID, st := range t.states {
		if now.Sub(st.SituationStartTime) > t.idleExpiry {
			delete(t.states, userID)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked users
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.states)
}

// AwayCount returns how many users are in the goodbye state
func (t *Tracker) AwayCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, st := range t.states {
		if st.HasStartedGoodbye {
			n++
		}
	}
	return n
}

// Start runs the periodic sweep until ctx is done or Stop is called
func (t *Tracker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.stop = cancel
	t.done = make(chan struct{})
	done := t.done
	t.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(t.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.mu.Lock()
				now := t.now()
				t.mu.Unlock()
				if removed := t.Sweep(now); removed > 0 && t.logger != nil {
					t.logger.WithField("removed", removed).Debug("Swept idle conversation states")
				}
			}
		}
	}()
}

// Stop ends the sweep loop started by Start
func (t *Tracker) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()
	if stop == nil {
		return
	}
	stop()
	<-done
}
