package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sikep-admin-svc/src/internal/metrics"
	"sikep-admin-svc/src/internal/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const revokeTimeout = 10 * time.Second

// Authenticator exchanges credentials with the backend.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error)
}

// TokenBackend is the backend as seen through one session's bearer token.
type TokenBackend interface {
	Me(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
}

// Store persists sessions. Get returns models.ErrSessionNotFound on a miss.
type Store interface {
	ActivityStore
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type TokenIssuer interface {
	Issue(userID, sessionID, role string) (string, time.Time, error)
}

type ActivityPublisher interface {
	PublishActivity(userID, sessionID, serviceName, action string, metadata map[string]string) error
}

type Service interface {
	Login(ctx context.Context, creds models.Credentials) (*LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
	Current(ctx context.Context, sessionID string) (*Session, error)
	Me(ctx context.Context, sessionID string) (*models.User, error)
	Touch(ctx context.Context, sessionID string, events []EventType) (Snapshot, error)
	State(ctx context.Context, sessionID string) (Snapshot, error)
	ForceLogout(ctx context.Context, sessionID, reason string)
}

type Dependencies struct {
	Auth      Authenticator
	Backend   func(token string) TokenBackend
	Store     Store
	History   Repository
	Issuer    TokenIssuer
	Publisher ActivityPublisher
	Registry  *Registry
	Metrics   *metrics.SessionMetrics
	Clock     clockwork.Clock
	Policy    Policy
}

type sessionService struct {
	Dependencies
}

func NewSessionService(deps Dependencies) (Service, error) {
	if err := deps.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session policy: %w", err)
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	return &sessionService{Dependencies: deps}, nil
}

func (s *sessionService) Login(ctx context.Context, creds models.Credentials) (*LoginResponse, error) {
	result, err := s.Auth.Login(ctx, creds)
	if err != nil {
		logrus.WithError(err).WithField("username", creds.Username).Warn("Backend login failed")
		return nil, err
	}

	now := s.Clock.Now()
	sess := &Session{
		ID:             uuid.NewString(),
		BackendToken:   result.Token,
		User:           result.User,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	if err := s.Store.Save(ctx, sess); err != nil {
		logrus.WithError(err).WithField("session_id", sess.ID).Error("Failed to store session")
		s.revoke(sess)
		return nil, models.ErrSessionCreating
	}

	accessToken, expiresAt, err := s.Issuer.Issue(models.FormatID(sess.User.ID), sess.ID, sess.User.Role)
	if err != nil {
		logrus.WithError(err).Error("Failed to issue access token")
		_ = s.Store.Delete(ctx, sess.ID)
		s.revoke(sess)
		return nil, models.ErrSessionCreating
	}

	if err := s.History.Create(ctx, sess); err != nil {
		logrus.WithError(err).WithField("session_id", sess.ID).Warn("Failed to record session history")
	}

	s.mount(sess)
	s.Metrics.Logins.Inc()
	s.publish(sess.User.ID, sess.ID, models.ActionLogin, nil)

	logrus.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"user_id":    sess.User.ID,
		"role":       sess.User.Role,
	}).Info("User logged in")

	return &LoginResponse{
		AccessToken:   accessToken,
		ExpiresAt:     expiresAt,
		SessionID:     sess.ID,
		User:          sess.User,
		TimeoutMs:     s.Policy.Timeout.Milliseconds(),
		WarningLeadMs: s.Policy.WarningLead.Milliseconds(),
	}, nil
}

func (s *sessionService) Logout(ctx context.Context, sessionID string) error {
	sess, err := s.Store.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, models.ErrSessionNotFound) {
		return err
	}

	if sess != nil {
		s.revoke(sess)
	}
	s.teardown(ctx, sessionID, sess, EndReasonLogout, models.ActionLogout)
	return nil
}

func (s *sessionService) ForceLogout(ctx context.Context, sessionID, reason string) {
	sess, err := s.Store.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, models.ErrSessionNotFound) {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to load session for forced logout")
	}

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"reason":     reason,
	}).Warn("Forcing logout")

	s.teardown(ctx, sessionID, sess, reason, models.ActionForcedLogout)
}

// Current returns the live session, resuming it from the store when no
// tracker is mounted for it in this process.
func (s *sessionService) Current(ctx context.Context, sessionID string) (*Session, error) {
	if t, ok := s.Registry.Get(sessionID); ok && t.State() == StateTimedOut {
		return nil, models.ErrSessionExpired
	}

	sess, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if _, ok := s.Registry.Get(sessionID); ok {
		return sess, nil
	}

	return s.resume(ctx, sess)
}

func (s *sessionService) Me(ctx context.Context, sessionID string) (*models.User, error) {
	sess, err := s.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := s.Backend(sess.BackendToken).Me(ctx)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *sessionService) Touch(ctx context.Context, sessionID string, events []EventType) (Snapshot, error) {
	t, err := s.tracker(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return t.Touch(ctx, events...)
}

func (s *sessionService) State(ctx context.Context, sessionID string) (Snapshot, error) {
	t, err := s.tracker(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return t.Snapshot(), nil
}

func (s *sessionService) tracker(ctx context.Context, sessionID string) (*Tracker, error) {
	if t, ok := s.Registry.Get(sessionID); ok {
		return t, nil
	}

	sess, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resume(ctx, sess); err != nil {
		return nil, err
	}

	t, ok := s.Registry.Get(sessionID)
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return t, nil
}

// resume mounts a tracker for a persisted session, or discards the session if
// its idle window already elapsed.
func (s *sessionService) resume(ctx context.Context, sess *Session) (*Session, error) {
	idle := s.Clock.Now().Sub(sess.LastActivityAt)
	if idle >= s.Policy.Timeout {
		logrus.WithFields(logrus.Fields{
			"session_id": sess.ID,
			"idle_ms":    idle.Milliseconds(),
		}).Info("Persisted session idle past timeout, discarding")

		s.teardown(ctx, sess.ID, sess, EndReasonExpiredOnLoad, models.ActionSessionTimeout)
		return nil, models.ErrSessionExpired
	}

	s.mount(sess)
	logrus.WithField("session_id", sess.ID).Info("Session resumed")
	return sess, nil
}

func (s *sessionService) mount(sess *Session) {
	t := NewTracker(sess.ID, sess.LastActivityAt, s.Policy, s.Clock, s.Store, Hooks{
		OnWarning: s.onWarning,
		OnTimeout: s.onTimeout,
	})
	if s.Registry.Mount(t) == t {
		s.Metrics.Mounted.Inc()
	}
}

func (s *sessionService) onWarning(sessionID string) {
	s.Metrics.Transitions.WithLabelValues(StateWarning.String()).Inc()
	s.publish(0, sessionID, models.ActionSessionWarning, nil)
}

// onTimeout runs once per tracker. The tracker stays registered in its
// terminal state; everything else about the session is torn down.
func (s *sessionService) onTimeout(_ context.Context, sessionID string) {
	s.Metrics.Transitions.WithLabelValues(StateTimedOut.String()).Inc()

	t, ok := s.Registry.Get(sessionID)
	if !ok || !t.claimEnd() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), revokeTimeout)
	defer cancel()

	sess, err := s.Store.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, models.ErrSessionNotFound) {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to load timed-out session")
	}
	if sess != nil {
		s.revoke(sess)
	}

	s.clear(ctx, sessionID, sess, EndReasonTimeout, models.ActionSessionTimeout)
	s.Metrics.Mounted.Dec()
}

// revoke asks the backend to drop the token. Failure is logged only.
func (s *sessionService) revoke(sess *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), revokeTimeout)
	defer cancel()

	if err := s.Backend(sess.BackendToken).Logout(ctx); err != nil {
		logrus.WithError(err).WithField("session_id", sess.ID).Warn("Backend logout failed, clearing local session anyway")
	}
}

// teardown ends a session at most once. A tombstoned tracker was already
// cleared by its timeout, so only its registry entry goes away.
func (s *sessionService) teardown(ctx context.Context, sessionID string, sess *Session, reason, action string) {
	t, mounted := s.Registry.Get(sessionID)
	if !mounted {
		if sess != nil {
			s.clear(ctx, sessionID, sess, reason, action)
		}
		return
	}

	owned := t.claimEnd()
	s.Registry.Unmount(sessionID)
	if !owned {
		return
	}
	s.Metrics.Mounted.Dec()
	s.clear(ctx, sessionID, sess, reason, action)
}

func (s *sessionService) clear(ctx context.Context, sessionID string, sess *Session, reason, action string) {
	if err := s.Store.Delete(ctx, sessionID); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to delete stored session")
	}
	if err := s.History.End(ctx, sessionID, reason, s.Clock.Now()); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to end session history")
	}

	s.Metrics.Ended.WithLabelValues(reason).Inc()

	var userID int64
	if sess != nil {
		userID = sess.User.ID
	}
	s.publish(userID, sessionID, action, map[string]string{"reason": reason})

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"reason":     reason,
	}).Info("Session ended")
}

func (s *sessionService) publish(userID int64, sessionID, action string, metadata map[string]string) {
	if s.Publisher == nil {
		return
	}
	uid := ""
	if userID != 0 {
		uid = models.FormatID(userID)
	}
	if err := s.Publisher.PublishActivity(uid, sessionID, models.ServiceSession, action, metadata); err != nil {
		logrus.WithError(err).WithField("action", action).Warn("Failed to publish session activity")
	}
}
