package hierarchy

import (
	"context"
	"time"

	"sikep-admin-svc/src/internal/metrics"
	"sikep-admin-svc/src/internal/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Workflow steps, as recorded on reassignments and failures.
const (
	StepUpdate       = "update"
	StepSubordinates = "subordinates"
	StepOutgoing     = "outgoing"
	StepUnassigned   = "unassigned"
	StepRefresh      = "refresh"
)

const (
	outcomeOK      = "ok"
	outcomeFailed  = "failed"
	outcomePartial = "partial"
)

type Reassignment struct {
	EmployeeID   int64  `json:"employeeId" bson:"employee_id"`
	SupervisorID int64  `json:"supervisorId" bson:"supervisor_id"`
	Step         string `json:"step" bson:"step"`
}

type Failure struct {
	EmployeeID int64  `json:"employeeId,omitempty" bson:"employee_id,omitempty"`
	Step       string `json:"step" bson:"step"`
	Error      string `json:"error" bson:"error"`
}

// Run is the journal entry of one official update.
type Run struct {
	ID                 string         `json:"id" bson:"_id"`
	OfficialID         int64          `json:"officialId" bson:"official_id"`
	ActorID            string         `json:"actorId" bson:"actor_id"`
	PreviousEmployeeID int64          `json:"previousEmployeeId" bson:"previous_employee_id"`
	NewEmployeeID      int64          `json:"newEmployeeId" bson:"new_employee_id"`
	LevelRank          int            `json:"level" bson:"level"`
	Division           string         `json:"bidang" bson:"bidang"`
	EmployeeChanged    bool           `json:"employeeChanged" bson:"employee_changed"`
	Reassigned         []Reassignment `json:"reassigned" bson:"reassigned"`
	Unchanged          []int64        `json:"unchanged" bson:"unchanged"`
	Failures           []Failure      `json:"failures" bson:"failures"`
	StartedAt          time.Time      `json:"startedAt" bson:"started_at"`
	FinishedAt         time.Time      `json:"finishedAt" bson:"finished_at"`
}

// Outcome is ok when every attempted call succeeded.
func (r *Run) Outcome() string {
	if len(r.Failures) > 0 {
		return outcomePartial
	}
	return outcomeOK
}

// Result is a finished run plus the refreshed view.
type Result struct {
	Run
	Official  *models.StructuralOfficial  `json:"official"`
	Officials []models.StructuralOfficial `json:"officials"`
	Available []models.Employee           `json:"available"`
}

// Reassigner re-links the tree after an official changes hands. Every call
// after the update is attempted on its own; failures are collected, never
// retried and never rolled back.
type Reassigner struct {
	metrics *metrics.HierarchyMetrics
	clock   clockwork.Clock
}

func NewReassigner(m *metrics.HierarchyMetrics, clock clockwork.Clock) *Reassigner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reassigner{metrics: m, clock: clock}
}

// Run updates the official and, when the employee changed, moves the
// outgoing holder's subordinates to the new holder. Only an update failure
// is returned as an error.
func (r *Reassigner) Run(ctx context.Context, api Backend, previous models.StructuralOfficial, req models.OfficialRequest) (*Result, error) {
	res := &Result{Run: Run{
		ID:                 uuid.NewString(),
		OfficialID:         previous.ID,
		PreviousEmployeeID: previous.EmployeeID,
		NewEmployeeID:      req.EmployeeID,
		LevelRank:          req.LevelRank,
		EmployeeChanged:    previous.EmployeeID != req.EmployeeID,
		Reassigned:         []Reassignment{},
		Unchanged:          []int64{},
		Failures:           []Failure{},
		StartedAt:          r.clock.Now(),
	}}

	log := logrus.WithFields(logrus.Fields{
		"run_id":       res.ID,
		"official_id":  previous.ID,
		"old_employee": previous.EmployeeID,
		"new_employee": req.EmployeeID,
	})

	updated, err := api.UpdateOfficial(ctx, previous.ID, req)
	if err != nil {
		log.WithError(err).Error("Official update failed, workflow aborted")
		r.metrics.Runs.WithLabelValues(outcomeFailed).Inc()
		return nil, err
	}
	target := resolveTarget(previous, req, updated)
	res.Official = &target
	res.Division = target.Division

	if res.EmployeeChanged {
		r.relinkSubordinates(ctx, api, res, previous, target, log)
		r.relinkOutgoing(ctx, api, res, previous, target, log)
		r.adoptUnassigned(ctx, api, res, target, log)
	}

	r.refresh(ctx, api, res, log)

	res.FinishedAt = r.clock.Now()
	r.metrics.Runs.WithLabelValues(res.Outcome()).Inc()

	log.WithFields(logrus.Fields{
		"reassigned": len(res.Reassigned),
		"unchanged":  len(res.Unchanged),
		"failures":   len(res.Failures),
	}).Info("Reassignment workflow finished")

	return res, nil
}

// resolveTarget fills in what the update response left out.
func resolveTarget(previous models.StructuralOfficial, req models.OfficialRequest, updated *models.StructuralOfficial) models.StructuralOfficial {
	target := previous
	if updated != nil && updated.ID != 0 {
		target = *updated
	}
	target.EmployeeID = req.EmployeeID
	target.LevelRank = req.LevelRank
	target.ParentID = req.ParentID
	if target.Division == "" {
		target.Division = previous.Division
	}
	return target
}

func (r *Reassigner) relinkSubordinates(ctx context.Context, api Backend, res *Result, previous, target models.StructuralOfficial, log *logrus.Entry) {
	subordinates, err := api.Subordinates(ctx, previous.EmployeeID)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch subordinates of outgoing holder")
		r.fail(res, StepSubordinates, 0, err)
		return
	}

	for _, s := range subordinates {
		if s.EmployeeID == target.EmployeeID {
			continue
		}

		if !s.IsStructural {
			if s.Division == target.Division {
				r.repoint(ctx, api, res, StepSubordinates, s.EmployeeID, target.EmployeeID, log)
			} else {
				res.Unchanged = append(res.Unchanged, s.EmployeeID)
			}
			continue
		}

		if s.LevelRank <= target.LevelRank {
			res.Unchanged = append(res.Unchanged, s.EmployeeID)
			continue
		}

		if s.Division == target.Division {
			r.repoint(ctx, api, res, StepSubordinates, s.EmployeeID, target.EmployeeID, log)
			continue
		}

		officials, err := api.ListOfficials(ctx)
		if err != nil {
			log.WithError(err).WithField("employee_id", s.EmployeeID).Warn("Failed to list officials for cross-division subordinate")
			r.fail(res, StepSubordinates, s.EmployeeID, err)
			continue
		}

		supervisor := pickDivisionHead(officials, s)
		if supervisor == nil {
			log.WithFields(logrus.Fields{
				"employee_id": s.EmployeeID,
				"bidang":      s.Division,
			}).Info("No higher-ranked official in subordinate's division, left unchanged")
			res.Unchanged = append(res.Unchanged, s.EmployeeID)
			continue
		}
		r.repoint(ctx, api, res, StepSubordinates, s.EmployeeID, supervisor.EmployeeID, log)
	}
}

// pickDivisionHead returns the highest-ranked official of s's division that
// is not s and ranks above s. Ties keep the backend's order.
func pickDivisionHead(officials []models.StructuralOfficial, s models.Subordinate) *models.StructuralOfficial {
	var best *models.StructuralOfficial
	for i := range officials {
		o := &officials[i]
		if o.Division != s.Division || o.EmployeeID == 0 || o.EmployeeID == s.EmployeeID {
			continue
		}
		if s.OfficialID != nil && o.ID == *s.OfficialID {
			continue
		}
		if o.LevelRank >= s.LevelRank {
			continue
		}
		if best == nil || o.LevelRank < best.LevelRank {
			best = o
		}
	}
	return best
}

func (r *Reassigner) relinkOutgoing(ctx context.Context, api Backend, res *Result, previous, target models.StructuralOfficial, log *logrus.Entry) {
	if previous.EmployeeID == 0 {
		return
	}
	if previous.LevelRank > target.LevelRank && previous.Division == target.Division {
		r.repoint(ctx, api, res, StepOutgoing, previous.EmployeeID, target.EmployeeID, log)
	}
}

func (r *Reassigner) adoptUnassigned(ctx context.Context, api Backend, res *Result, target models.StructuralOfficial, log *logrus.Entry) {
	pool, err := api.ListUnassignedEmployees(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch unassigned employees")
		r.fail(res, StepUnassigned, 0, err)
		return
	}

	for i := range pool {
		e := &pool[i]
		if e.ID == target.EmployeeID {
			continue
		}
		if e.Division == target.Division && e.EffectiveRank() > target.LevelRank {
			r.repoint(ctx, api, res, StepUnassigned, e.ID, target.EmployeeID, log)
		}
	}
}

func (r *Reassigner) refresh(ctx context.Context, api Backend, res *Result, log *logrus.Entry) {
	officials, err := api.ListOfficials(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to refresh official list")
		r.fail(res, StepRefresh, 0, err)
		officials = []models.StructuralOfficial{}
	}
	res.Officials = officials

	available, err := api.ListAvailableEmployees(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to refresh available employees")
		r.fail(res, StepRefresh, 0, err)
		available = []models.Employee{}
	}
	res.Available = available
}

func (r *Reassigner) repoint(ctx context.Context, api Backend, res *Result, step string, employeeID, supervisorID int64, log *logrus.Entry) {
	entry := log.WithFields(logrus.Fields{
		"step":          step,
		"employee_id":   employeeID,
		"supervisor_id": supervisorID,
	})

	if err := api.AssignSupervisor(ctx, employeeID, supervisorID); err != nil {
		entry.WithError(err).Warn("Failed to re-point supervisor")
		r.fail(res, step, employeeID, err)
		return
	}

	entry.Debug("Supervisor re-pointed")
	r.metrics.Items.WithLabelValues(step, outcomeOK).Inc()
	res.Reassigned = append(res.Reassigned, Reassignment{
		EmployeeID:   employeeID,
		SupervisorID: supervisorID,
		Step:         step,
	})
}

func (r *Reassigner) fail(res *Result, step string, employeeID int64, err error) {
	r.metrics.Items.WithLabelValues(step, outcomeFailed).Inc()
	res.Failures = append(res.Failures, Failure{
		EmployeeID: employeeID,
		Step:       step,
		Error:      err.Error(),
	})
}
