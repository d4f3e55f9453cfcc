package employee

import (
	"context"

	"sikep-admin-svc/src/internal/models"
	"sikep-admin-svc/src/internal/paging"
)

// Supervision filter values
const (
	SupervisionAssigned   = "assigned"
	SupervisionUnassigned = "unassigned"
)

type Backend interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	AssignSupervisor(ctx context.Context, employeeID, supervisorID int64) error
	AssignActing(ctx context.Context, employeeID int64, req models.ActingRequest) error
	RemoveActing(ctx context.Context, employeeID int64) error
}

type ActivityPublisher interface {
	PublishActivity(userID, sessionID, serviceName, action string, metadata map[string]string) error
}

// StatsInvalidator drops cached hierarchy statistics.
type StatsInvalidator interface {
	InvalidateOfficialStats(ctx context.Context) error
}

// ListRequest represents request for getting employees
type ListRequest struct {
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
	Search      string `form:"search"`
	Division    string `form:"bidang"`
	Supervision string `form:"supervision"`
}

type ListResponse struct {
	Employees []models.Employee `json:"employees"`
	paging.Page
}
