package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"sikep-admin-svc/src/internal/models"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// ActivityStore mirrors the last activity instant into durable storage.
type ActivityStore interface {
	SaveLastActivity(ctx context.Context, sessionID string, at time.Time) error
}

// Hooks are invoked outside the tracker lock after a transition.
type Hooks struct {
	OnWarning func(sessionID string)
	OnTimeout func(ctx context.Context, sessionID string)
}

// Tracker watches one session's idle time. Its poll loop is the only thing
// that moves it to Warning or TimedOut; Touch only moves it back to Active.
type Tracker struct {
	sessionID string
	policy    Policy
	clock     clockwork.Clock
	store     ActivityStore
	hooks     Hooks
	ended     atomic.Bool

	mu           sync.Mutex
	state        State
	lastActivity time.Time
	warningSince time.Time
	timedOutAt   time.Time
}

func NewTracker(sessionID string, lastActivity time.Time, policy Policy, clock clockwork.Clock, store ActivityStore, hooks Hooks) *Tracker {
	return &Tracker{
		sessionID:    sessionID,
		policy:       policy,
		clock:        clock,
		store:        store,
		hooks:        hooks,
		state:        StateActive,
		lastActivity: lastActivity,
	}
}

func (t *Tracker) SessionID() string {
	return t.sessionID
}

// claimEnd reports true to exactly one caller: whoever ends the session.
func (t *Tracker) claimEnd() bool {
	return t.ended.CompareAndSwap(false, true)
}

// Run polls at the policy interval until the session times out or ctx ends.
func (t *Tracker) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.policy.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if t.tick(ctx) == StateTimedOut {
				return
			}
		}
	}
}

func (t *Tracker) tick(ctx context.Context) State {
	t.mu.Lock()
	prev := t.state
	now := t.clock.Now()
	idle := now.Sub(t.lastActivity)

	switch t.state {
	case StateActive:
		if idle >= t.policy.Timeout {
			t.expireLocked(now)
		} else if idle >= t.policy.warnAfter() {
			t.state = StateWarning
			t.warningSince = now
		}
	case StateWarning:
		// The idle limit and the warning's own grace timer are checked in the
		// same poll, so whichever is reached first expires the session once.
		if idle >= t.policy.Timeout || now.Sub(t.warningSince) >= t.policy.WarningGrace {
			t.expireLocked(now)
		}
	}

	current := t.state
	t.mu.Unlock()

	if current == prev {
		return current
	}

	logrus.WithFields(logrus.Fields{
		"session_id": t.sessionID,
		"from":       prev.String(),
		"to":         current.String(),
		"idle_ms":    idle.Milliseconds(),
	}).Info("Session state changed")

	switch current {
	case StateWarning:
		if t.hooks.OnWarning != nil {
			t.hooks.OnWarning(t.sessionID)
		}
	case StateTimedOut:
		if t.hooks.OnTimeout != nil {
			t.hooks.OnTimeout(ctx, t.sessionID)
		}
	}

	return current
}

func (t *Tracker) expireLocked(now time.Time) {
	t.state = StateTimedOut
	t.timedOutAt = now
	t.warningSince = time.Time{}
}

// Touch records user activity. Untracked event types are ignored. A session
// whose idle time already reached the timeout is not revived.
func (t *Tracker) Touch(ctx context.Context, events ...EventType) (Snapshot, error) {
	tracked := false
	for _, e := range events {
		if e.Tracked() {
			tracked = true
			break
		}
	}

	t.mu.Lock()
	now := t.clock.Now()

	if t.state == StateTimedOut || now.Sub(t.lastActivity) >= t.policy.Timeout {
		snap := t.snapshotLocked(now)
		t.mu.Unlock()
		return snap, models.ErrSessionExpired
	}

	if !tracked {
		snap := t.snapshotLocked(now)
		t.mu.Unlock()
		return snap, nil
	}

	t.lastActivity = now
	t.state = StateActive
	t.warningSince = time.Time{}
	snap := t.snapshotLocked(now)
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.SaveLastActivity(ctx, t.sessionID, now); err != nil {
			logrus.WithError(err).WithField("session_id", t.sessionID).Warn("Failed to persist last activity")
		}
	}

	return snap, nil
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked(t.clock.Now())
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// TimedOutAt is zero unless the tracker has expired.
func (t *Tracker) TimedOutAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timedOutAt
}

func (t *Tracker) snapshotLocked(now time.Time) Snapshot {
	remaining := t.policy.Timeout - now.Sub(t.lastActivity)
	if remaining < 0 || t.state == StateTimedOut {
		remaining = 0
	}

	snap := Snapshot{
		SessionID:      t.sessionID,
		State:          t.state,
		Overlays:       overlaysFor(t.state),
		LastActivityAt: t.lastActivity,
		RemainingMs:    remaining.Milliseconds(),
	}
	if t.state == StateTimedOut {
		snap.Redirect = LoginPath
	}
	return snap
}
