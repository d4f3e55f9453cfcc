package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"sikep-admin-svc/src/internal/models"
)

type fakeAuth struct {
	result *models.LoginResult
	err    error
}

func (f *fakeAuth) Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeBackend struct {
	mu        sync.Mutex
	logouts   []string
	logoutErr error
	user      *models.User
}

func (f *fakeBackend) scoped(token string) TokenBackend {
	return &scopedBackend{parent: f, token: token}
}

func (f *fakeBackend) logoutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logouts)
}

type scopedBackend struct {
	parent *fakeBackend
	token  string
}

func (s *scopedBackend) Me(ctx context.Context) (*models.User, error) {
	if s.parent.user == nil {
		return nil, models.ErrUnauthorized
	}
	return s.parent.user, nil
}

func (s *scopedBackend) Logout(ctx context.Context) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	s.parent.logouts = append(s.parent.logouts, s.token)
	return s.parent.logoutErr
}

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]Session)}
}

func (m *memoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return &s, nil
}

func (m *memoryStore) SaveLastActivity(ctx context.Context, sessionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return models.ErrSessionNotFound
	}
	s.LastActivityAt = at
	m.sessions[sessionID] = s
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *memoryStore) has(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[sessionID]
	return ok
}

var _ Repository = (*memoryHistory)(nil)

type memoryHistory struct {
	mu      sync.Mutex
	records map[string]*Record
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{records: make(map[string]*Record)}
}

func (m *memoryHistory) Create(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[s.ID] = &Record{SessionID: s.ID, UserID: s.User.ID, IsActive: true, CreatedAt: s.CreatedAt}
	return nil
}

func (m *memoryHistory) End(ctx context.Context, sessionID, reason string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[sessionID]
	if !ok {
		m.records[sessionID] = &Record{SessionID: sessionID, LogoutAt: &at, EndReason: reason}
		return nil
	}
	if !r.IsActive {
		return nil
	}
	r.IsActive = false
	r.LogoutAt = &at
	r.EndReason = reason
	return nil
}

func (m *memoryHistory) reason(sessionID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[sessionID]; ok {
		return r.EndReason
	}
	return ""
}

type recordingPublisher struct {
	mu      sync.Mutex
	actions []string
}

func (p *recordingPublisher) PublishActivity(userID, sessionID, serviceName, action string, metadata map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
	return nil
}

func (p *recordingPublisher) count(action string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, a := range p.actions {
		if a == action {
			n++
		}
	}
	return n
}

var errBackendDown = errors.New("backend down")
