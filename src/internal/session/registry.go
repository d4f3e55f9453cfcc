package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

type mounted struct {
	tracker *Tracker
	cancel  context.CancelFunc
	done    chan struct{}
}

// Registry keeps at most one mounted tracker, and so one poll loop, per session.
// Timed-out trackers stay registered until pruned so clients can still read
// the blocking state.
type Registry struct {
	clock     clockwork.Clock
	retention time.Duration

	mu       sync.Mutex
	trackers map[string]*mounted
}

func NewRegistry(clock clockwork.Clock, retention time.Duration) *Registry {
	return &Registry{
		clock:     clock,
		retention: retention,
		trackers:  make(map[string]*mounted),
	}
}

// Mount starts t's poll loop unless a tracker for the same session is already
// mounted, in which case the existing tracker is returned.
func (r *Registry) Mount(t *Tracker) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.trackers[t.SessionID()]; ok {
		return existing.tracker
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &mounted{tracker: t, cancel: cancel, done: make(chan struct{})}
	r.trackers[t.SessionID()] = m

	go func() {
		defer close(m.done)
		t.Run(ctx)
	}()

	logrus.WithField("session_id", t.SessionID()).Debug("Activity tracker mounted")
	return t
}

func (r *Registry) Get(sessionID string) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.trackers[sessionID]
	if !ok {
		return nil, false
	}
	return m.tracker, true
}

// Unmount stops the session's poll loop and forgets the tracker.
func (r *Registry) Unmount(sessionID string) {
	r.mu.Lock()
	m, ok := r.trackers[sessionID]
	delete(r.trackers, sessionID)
	r.mu.Unlock()

	if ok {
		m.cancel()
		logrus.WithField("session_id", sessionID).Debug("Activity tracker unmounted")
	}
}

// Prune drops timed-out trackers older than the retention period.
func (r *Registry) Prune() int {
	cutoff := r.clock.Now().Add(-r.retention)

	r.mu.Lock()
	var stale []*mounted
	for id, m := range r.trackers {
		at := m.tracker.TimedOutAt()
		if !at.IsZero() && !at.After(cutoff) {
			stale = append(stale, m)
			delete(r.trackers, id)
		}
	}
	r.mu.Unlock()

	for _, m := range stale {
		m.cancel()
	}

	if len(stale) > 0 {
		logrus.WithField("pruned", len(stale)).Debug("Pruned timed-out trackers")
	}
	return len(stale)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}

// Run prunes periodically and stops every poll loop when ctx ends.
func (r *Registry) Run(ctx context.Context) {
	interval := r.retention
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.Chan():
			r.Prune()
		}
	}
}

// Close stops all poll loops and waits for them to return.
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*mounted, 0, len(r.trackers))
	for id, m := range r.trackers {
		all = append(all, m)
		delete(r.trackers, id)
	}
	r.mu.Unlock()

	for _, m := range all {
		m.cancel()
		<-m.done
	}
}
