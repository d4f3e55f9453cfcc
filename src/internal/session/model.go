package session

import (
	"fmt"
	"time"

	"sikep-admin-svc/src/internal/models"
)

// Session is the server-side state of one logged-in admin.
type Session struct {
	ID             string      `json:"id"`
	BackendToken   string      `json:"backend_token"`
	User           models.User `json:"user"`
	CreatedAt      time.Time   `json:"created_at"`
	LastActivityAt time.Time   `json:"last_activity_at"`
}

// State of the activity tracker.
type State int

const (
	StateActive State = iota
	StateWarning
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateWarning:
		return "warning"
	case StateTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EventType names a browser interaction event.
type EventType string

const (
	EventMouseDown  EventType = "mousedown"
	EventMouseMove  EventType = "mousemove"
	EventKeyPress   EventType = "keypress"
	EventScroll     EventType = "scroll"
	EventTouchStart EventType = "touchstart"
	EventClick      EventType = "click"
)

// Tracked reports whether the event counts as user activity.
func (e EventType) Tracked() bool {
	switch e {
	case EventMouseDown, EventMouseMove, EventKeyPress, EventScroll, EventTouchStart, EventClick:
		return true
	}
	return false
}

// Overlays are the two visibility flags the front-end renders.
type Overlays struct {
	Warning  bool `json:"warning"`
	Blocking bool `json:"blocking"`
}

func overlaysFor(s State) Overlays {
	switch s {
	case StateWarning:
		return Overlays{Warning: true}
	case StateTimedOut:
		return Overlays{Blocking: true}
	default:
		return Overlays{}
	}
}

// Snapshot is a point-in-time view of a tracker.
type Snapshot struct {
	SessionID      string    `json:"sessionId"`
	State          State     `json:"state"`
	Overlays       Overlays  `json:"overlays"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	RemainingMs    int64     `json:"remainingMs"`
	Redirect       string    `json:"redirect,omitempty"`
}

const LoginPath = "/login"

// Policy holds the idle thresholds.
type Policy struct {
	Timeout      time.Duration
	WarningLead  time.Duration
	WarningGrace time.Duration
	PollInterval time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Timeout:      600 * time.Second,
		WarningLead:  60 * time.Second,
		WarningGrace: 60 * time.Second,
		PollInterval: time.Second,
	}
}

func (p Policy) Validate() error {
	if p.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if p.WarningLead <= 0 || p.WarningLead >= p.Timeout {
		return fmt.Errorf("warning lead %s must be positive and below timeout %s", p.WarningLead, p.Timeout)
	}
	if p.WarningGrace <= 0 {
		return fmt.Errorf("warning grace must be positive")
	}
	if p.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return nil
}

func (p Policy) warnAfter() time.Duration {
	return p.Timeout - p.WarningLead
}

// LoginResponse is returned to the front-end after a successful login.
type LoginResponse struct {
	AccessToken   string      `json:"accessToken"`
	ExpiresAt     time.Time   `json:"expiresAt"`
	SessionID     string      `json:"sessionId"`
	User          models.User `json:"user"`
	TimeoutMs     int64       `json:"timeoutMs"`
	WarningLeadMs int64       `json:"warningLeadMs"`
}

// ActivityRequest carries the interaction events the browser observed.
type ActivityRequest struct {
	Events []EventType `json:"events" binding:"required,min=1"`
}
