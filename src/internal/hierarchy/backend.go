package hierarchy

import (
	"context"

	"sikep-admin-svc/src/internal/models"
)

// Backend is the slice of the SIKep API the hierarchy views use, already
// bound to the caller's bearer token.
type Backend interface {
	ListOfficials(ctx context.Context) ([]models.StructuralOfficial, error)
	CreateOfficial(ctx context.Context, req models.OfficialRequest) (*models.StructuralOfficial, error)
	UpdateOfficial(ctx context.Context, id int64, req models.OfficialRequest) (*models.StructuralOfficial, error)
	DeleteOfficial(ctx context.Context, id int64) error
	ListAvailableEmployees(ctx context.Context) ([]models.Employee, error)
	Subordinates(ctx context.Context, employeeID int64) ([]models.Subordinate, error)
	AssignSupervisor(ctx context.Context, employeeID, supervisorID int64) error
	ListUnassignedEmployees(ctx context.Context) ([]models.Employee, error)
}

type ActivityPublisher interface {
	PublishActivity(userID, sessionID, serviceName, action string, metadata map[string]string) error
}

// StatsCache holds the computed hierarchy statistics.
type StatsCache interface {
	GetOfficialStats(ctx context.Context) (*models.OfficialStats, error)
	SaveOfficialStats(ctx context.Context, stats *models.OfficialStats) error
	InvalidateOfficialStats(ctx context.Context) error
}
