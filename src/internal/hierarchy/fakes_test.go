package hierarchy

import (
	"context"
	"errors"
	"sync"
	"time"

	"sikep-admin-svc/src/internal/models"
)

var errRejected = errors.New("rejected")

// fakeBackend records supervisor changes and serves canned lists.
type fakeBackend struct {
	mu sync.Mutex

	officials    []models.StructuralOfficial
	available    []models.Employee
	subordinates map[int64][]models.Subordinate
	unassigned   []models.Employee

	updateErr     error
	listErr       error
	availErr      error
	subsErr       error
	failAssignFor map[int64]bool
	assignDelay   time.Duration

	updated     []models.OfficialRequest
	supervisors map[int64]int64
	calls       []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		subordinates:  make(map[int64][]models.Subordinate),
		failAssignFor: make(map[int64]bool),
		supervisors:   make(map[int64]int64),
	}
}

func (f *fakeBackend) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) ListOfficials(ctx context.Context) ([]models.StructuralOfficial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list_officials")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.StructuralOfficial(nil), f.officials...), nil
}

func (f *fakeBackend) CreateOfficial(ctx context.Context, req models.OfficialRequest) (*models.StructuralOfficial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create_official")
	o := models.StructuralOfficial{ID: int64(len(f.officials) + 100), EmployeeID: req.EmployeeID, LevelRank: req.LevelRank}
	f.officials = append(f.officials, o)
	return &o, nil
}

func (f *fakeBackend) UpdateOfficial(ctx context.Context, id int64, req models.OfficialRequest) (*models.StructuralOfficial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update_official")
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated = append(f.updated, req)
	for i := range f.officials {
		if f.officials[i].ID == id {
			f.officials[i].EmployeeID = req.EmployeeID
			f.officials[i].LevelRank = req.LevelRank
			f.officials[i].ParentID = req.ParentID
			o := f.officials[i]
			return &o, nil
		}
	}
	return nil, &models.BackendError{Status: 404, Message: "Pejabat tidak ditemukan"}
}

func (f *fakeBackend) DeleteOfficial(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete_official")
	return nil
}

func (f *fakeBackend) ListAvailableEmployees(ctx context.Context) ([]models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list_available")
	if f.availErr != nil {
		return nil, f.availErr
	}
	return f.available, nil
}

func (f *fakeBackend) Subordinates(ctx context.Context, employeeID int64) ([]models.Subordinate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("subordinates")
	if f.subsErr != nil {
		return nil, f.subsErr
	}
	return f.subordinates[employeeID], nil
}

func (f *fakeBackend) AssignSupervisor(ctx context.Context, employeeID, supervisorID int64) error {
	if f.assignDelay > 0 {
		time.Sleep(f.assignDelay)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("assign_supervisor")
	if f.failAssignFor[employeeID] {
		return errRejected
	}
	f.supervisors[employeeID] = supervisorID
	return nil
}

func (f *fakeBackend) ListUnassignedEmployees(ctx context.Context) ([]models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list_unassigned")
	return f.unassigned, nil
}

func (f *fakeBackend) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

type memoryRuns struct {
	runs []*Run
}

func (m *memoryRuns) Insert(ctx context.Context, run *Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	copied := *run
	m.runs = append(m.runs, &copied)
	return nil
}

func (m *memoryRuns) ListByOfficial(ctx context.Context, officialID int64, limit int) ([]*Run, error) {
	out := []*Run{}
	for _, r := range m.runs {
		if r.OfficialID == officialID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memoryStats struct {
	stats       *models.OfficialStats
	invalidated int
}

func (m *memoryStats) GetOfficialStats(ctx context.Context) (*models.OfficialStats, error) {
	return m.stats, nil
}

func (m *memoryStats) SaveOfficialStats(ctx context.Context, stats *models.OfficialStats) error {
	m.stats = stats
	return nil
}

func (m *memoryStats) InvalidateOfficialStats(ctx context.Context) error {
	m.stats = nil
	m.invalidated++
	return nil
}

type recordingPublisher struct {
	actions []string
}

func (p *recordingPublisher) PublishActivity(userID, sessionID, serviceName, action string, metadata map[string]string) error {
	p.actions = append(p.actions, action)
	return nil
}

func id(v int64) *int64 {
	return &v
}
