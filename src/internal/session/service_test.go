package session

import (
	"context"
	"testing"
	"time"

	"sikep-admin-svc/src/internal/metrics"
	"sikep-admin-svc/src/internal/models"
	"sikep-admin-svc/src/internal/token"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	svc       Service
	clock     *clockwork.FakeClock
	store     *memoryStore
	history   *memoryHistory
	backend   *fakeBackend
	publisher *recordingPublisher
	registry  *Registry
	metrics   *metrics.SessionMetrics
	issuer    *token.Issuer
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		clock:     clockwork.NewFakeClock(),
		store:     newMemoryStore(),
		history:   newMemoryHistory(),
		backend:   &fakeBackend{user: &models.User{ID: 7, Name: "Admin", Role: models.RoleAdmin}},
		publisher: &recordingPublisher{},
		metrics:   metrics.NewSessionMetrics(prometheus.NewRegistry()),
	}
	f.registry = NewRegistry(f.clock, 5*time.Minute)
	t.Cleanup(f.registry.Close)
	f.issuer = token.NewIssuer("secret", time.Hour, f.clock)

	svc, err := NewSessionService(Dependencies{
		Auth: &fakeAuth{result: &models.LoginResult{
			Token: "backend-token",
			User:  models.User{ID: 7, Name: "Admin", Role: models.RoleAdmin},
		}},
		Backend:   f.backend.scoped,
		Store:     f.store,
		History:   f.history,
		Issuer:    f.issuer,
		Publisher: f.publisher,
		Registry:  f.registry,
		Metrics:   f.metrics,
		Clock:     f.clock,
		Policy:    DefaultPolicy(),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *serviceFixture) seed(id string, lastActivity time.Time) {
	_ = f.store.Save(context.Background(), &Session{
		ID:             id,
		BackendToken:   "tok-" + id,
		User:           models.User{ID: 9, Role: models.RoleAdmin},
		CreatedAt:      lastActivity,
		LastActivityAt: lastActivity,
	})
	_ = f.history.Create(context.Background(), &Session{ID: id})
}

func TestNewSessionService_RejectsInvalidPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.WarningLead = policy.Timeout + time.Second

	_, err := NewSessionService(Dependencies{Policy: policy})
	assert.Error(t, err)
}

func TestLogin_CreatesSessionAndMountsTracker(t *testing.T) {
	f := newServiceFixture(t)

	resp, err := f.svc.Login(context.Background(), models.Credentials{Username: "admin", Password: "x"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, int64(600000), resp.TimeoutMs)
	assert.Equal(t, int64(60000), resp.WarningLeadMs)
	assert.True(t, f.store.has(resp.SessionID))

	claims, err := f.issuer.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, claims.SessionID)
	assert.Equal(t, "7", claims.UserID)

	_, mounted := f.registry.Get(resp.SessionID)
	assert.True(t, mounted)
	assert.Equal(t, 1, f.publisher.count(models.ActionLogin))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Logins))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Mounted))
}

func TestLogin_BackendErrorPassesThrough(t *testing.T) {
	f := newServiceFixture(t)
	svc, err := NewSessionService(Dependencies{
		Auth:     &fakeAuth{err: &models.BackendError{Status: 422, Message: "NIP atau password salah"}},
		Backend:  f.backend.scoped,
		Store:    f.store,
		History:  f.history,
		Issuer:   f.issuer,
		Registry: f.registry,
		Metrics:  f.metrics,
		Clock:    f.clock,
		Policy:   DefaultPolicy(),
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.Credentials{Username: "a", Password: "b"})

	var backendErr *models.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "NIP atau password salah", backendErr.Message)
	assert.Equal(t, 0, f.registry.Len())
}

func TestLogout_RevokesAndClears(t *testing.T) {
	f := newServiceFixture(t)
	resp, err := f.svc.Login(context.Background(), models.Credentials{Username: "admin", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), resp.SessionID))

	assert.Equal(t, 1, f.backend.logoutCount())
	assert.False(t, f.store.has(resp.SessionID))
	assert.Equal(t, EndReasonLogout, f.history.reason(resp.SessionID))
	_, mounted := f.registry.Get(resp.SessionID)
	assert.False(t, mounted)
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.Mounted))

	_, err = f.svc.Current(context.Background(), resp.SessionID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestLogout_BackendFailureStillClears(t *testing.T) {
	f := newServiceFixture(t)
	f.backend.logoutErr = errBackendDown
	resp, err := f.svc.Login(context.Background(), models.Credentials{Username: "admin", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), resp.SessionID))
	assert.False(t, f.store.has(resp.SessionID))
}

func TestResume_StaleTimestampDiscardsSession(t *testing.T) {
	f := newServiceFixture(t)
	f.seed("old", f.clock.Now().Add(-601*time.Second))

	_, err := f.svc.Current(context.Background(), "old")
	assert.ErrorIs(t, err, models.ErrSessionExpired)

	assert.False(t, f.store.has("old"))
	assert.Equal(t, EndReasonExpiredOnLoad, f.history.reason("old"))
	_, mounted := f.registry.Get("old")
	assert.False(t, mounted)

	_, err = f.svc.State(context.Background(), "old")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestResume_FreshTimestampMountsTracker(t *testing.T) {
	f := newServiceFixture(t)
	f.seed("fresh", f.clock.Now().Add(-100*time.Second))

	snap, err := f.svc.State(context.Background(), "fresh")
	require.NoError(t, err)

	assert.Equal(t, StateActive, snap.State)
	assert.Equal(t, int64(500000), snap.RemainingMs)
	_, mounted := f.registry.Get("fresh")
	assert.True(t, mounted)
}

func TestResume_InsideWarningWindowShowsWarningAfterPoll(t *testing.T) {
	f := newServiceFixture(t)
	f.seed("warm", f.clock.Now().Add(-550*time.Second))

	_, err := f.svc.Current(context.Background(), "warm")
	require.NoError(t, err)

	tr, ok := f.registry.Get("warm")
	require.True(t, ok)
	assert.Equal(t, StateWarning, tr.tick(context.Background()))

	snap, err := f.svc.State(context.Background(), "warm")
	require.NoError(t, err)
	assert.True(t, snap.Overlays.Warning)
	assert.False(t, snap.Overlays.Blocking)
}

func TestTouch_ResetsPersistedActivity(t *testing.T) {
	f := newServiceFixture(t)
	resp, err := f.svc.Login(context.Background(), models.Credentials{Username: "admin", Password: "x"})
	require.NoError(t, err)

	f.clock.Advance(30 * time.Second)
	snap, err := f.svc.Touch(context.Background(), resp.SessionID, []EventType{EventKeyPress})
	require.NoError(t, err)
	assert.Equal(t, StateActive, snap.State)

	stored, err := f.store.Get(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.True(t, f.clock.Now().Equal(stored.LastActivityAt))
}

func TestTimeout_LogsOutOnceAndKeepsBlockingState(t *testing.T) {
	f := newServiceFixture(t)
	f.backend.logoutErr = errBackendDown
	resp, err := f.svc.Login(context.Background(), models.Credentials{Username: "admin", Password: "x"})
	require.NoError(t, err)
	id := resp.SessionID

	tr, ok := f.registry.Get(id)
	require.True(t, ok)

	f.clock.Advance(540 * time.Second)
	tr.tick(context.Background())
	f.clock.Advance(60 * time.Second)
	tr.tick(context.Background())
	tr.tick(context.Background())

	assert.Eventually(t, func() bool { return !f.store.has(id) }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return f.publisher.count(models.ActionSessionTimeout) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.backend.logoutCount())
	assert.Equal(t, EndReasonTimeout, f.history.reason(id))

	snap, err := f.svc.State(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StateTimedOut, snap.State)
	assert.Equal(t, Overlays{Blocking: true}, snap.Overlays)
	assert.Equal(t, LoginPath, snap.Redirect)

	_, err = f.svc.Current(context.Background(), id)
	assert.ErrorIs(t, err, models.ErrSessionExpired)

	_, err = f.svc.Touch(context.Background(), id, []EventType{EventClick})
	assert.ErrorIs(t, err, models.ErrSessionExpired)

	assert.Equal(t, 1, f.backend.logoutCount())
}

func TestForceLogout_ClearsWithoutRevoking(t *testing.T) {
	f := newServiceFixture(t)
	resp, err := f.svc.Login(context.Background(), models.Credentials{Username: "admin", Password: "x"})
	require.NoError(t, err)

	f.svc.ForceLogout(context.Background(), resp.SessionID, EndReasonUnauthorized)

	assert.Equal(t, 0, f.backend.logoutCount())
	assert.False(t, f.store.has(resp.SessionID))
	assert.Equal(t, EndReasonUnauthorized, f.history.reason(resp.SessionID))
	assert.Equal(t, 1, f.publisher.count(models.ActionForcedLogout))
}

func TestMe_UsesSessionToken(t *testing.T) {
	f := newServiceFixture(t)
	resp, err := f.svc.Login(context.Background(), models.Credentials{Username: "admin", Password: "x"})
	require.NoError(t, err)

	user, err := f.svc.Me(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
}

func TestLogout_AfterTimeoutDoesNotEndTwice(t *testing.T) {
	f := newServiceFixture(t)
	resp, err := f.svc.Login(context.Background(), models.Credentials{Username: "admin", Password: "x"})
	require.NoError(t, err)
	id := resp.SessionID

	tr, ok := f.registry.Get(id)
	require.True(t, ok)

	f.clock.Advance(600 * time.Second)
	tr.tick(context.Background())
	assert.Eventually(t, func() bool { return f.publisher.count(models.ActionSessionTimeout) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.svc.Logout(context.Background(), id))
	f.svc.ForceLogout(context.Background(), id, EndReasonUnauthorized)

	assert.Equal(t, 0, f.publisher.count(models.ActionLogout))
	assert.Equal(t, 0, f.publisher.count(models.ActionForcedLogout))
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.Ended.WithLabelValues(EndReasonLogout)))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Ended.WithLabelValues(EndReasonTimeout)))
	assert.Eventually(t, func() bool { return testutil.ToFloat64(f.metrics.Mounted) == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, EndReasonTimeout, f.history.reason(id))

	_, ok = f.registry.Get(id)
	assert.False(t, ok)
}
