package employee

import (
	"context"

	"sikep-admin-svc/src/internal/config"
	"sikep-admin-svc/src/internal/models"
	"sikep-admin-svc/src/internal/paging"

	"github.com/sirupsen/logrus"
)

type Service interface {
	List(ctx context.Context, api Backend, req *ListRequest) (*ListResponse, error)
	AssignSupervisor(ctx context.Context, api Backend, actor string, employeeID, supervisorID int64) error
	AssignActing(ctx context.Context, api Backend, actor string, employeeID int64, req models.ActingRequest) error
	RemoveActing(ctx context.Context, api Backend, actor string, employeeID int64) error
}

type employeeService struct {
	cfg       *config.Configuration
	stats     StatsInvalidator
	publisher ActivityPublisher
}

func NewEmployeeService(cfg *config.Configuration, stats StatsInvalidator, publisher ActivityPublisher) Service {
	return &employeeService{
		cfg:       cfg,
		stats:     stats,
		publisher: publisher,
	}
}

func (s *employeeService) List(ctx context.Context, api Backend, req *ListRequest) (*ListResponse, error) {
	req.Page, req.Limit = paging.Normalize(req.Page, req.Limit, s.cfg.Search)

	if req.Supervision != "" && !isValidSupervision(req.Supervision) {
		return nil, models.ErrInvalidParams
	}

	logrus.WithFields(logrus.Fields{
		"page":        req.Page,
		"limit":       req.Limit,
		"search":      req.Search,
		"bidang":      req.Division,
		"supervision": req.Supervision,
	}).Debug("Getting all employees")

	employees, err := api.ListEmployees(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to get employees from backend")
		return nil, err
	}

	filtered := make([]models.Employee, 0, len(employees))
	for i := range employees {
		if matches(req, &employees[i]) {
			filtered = append(filtered, employees[i])
		}
	}

	items, page := paging.Slice(filtered, req.Page, req.Limit)

	logrus.WithFields(logrus.Fields{
		"employees_count": len(items),
		"total_count":     page.TotalCount,
		"total_pages":     page.TotalPages,
	}).Info("Successfully retrieved employees")

	return &ListResponse{Employees: items, Page: page}, nil
}

func matches(req *ListRequest, e *models.Employee) bool {
	if req.Division != "" && e.Division != req.Division {
		return false
	}
	switch req.Supervision {
	case SupervisionAssigned:
		if e.SupervisorID == nil {
			return false
		}
	case SupervisionUnassigned:
		if e.SupervisorID != nil {
			return false
		}
	}
	if req.Search == "" {
		return true
	}
	return paging.Contains(e.FullName, req.Search) ||
		paging.Contains(e.NationalID, req.Search) ||
		paging.Contains(e.JobTitle, req.Search)
}

func isValidSupervision(v string) bool {
	return v == SupervisionAssigned || v == SupervisionUnassigned
}

func (s *employeeService) AssignSupervisor(ctx context.Context, api Backend, actor string, employeeID, supervisorID int64) error {
	if supervisorID <= 0 || supervisorID == employeeID {
		return models.ErrInvalidParams
	}

	if err := api.AssignSupervisor(ctx, employeeID, supervisorID); err != nil {
		return err
	}

	s.publish(actor, models.ActionSupervisorChange, map[string]string{
		"employee_id":   models.FormatID(employeeID),
		"supervisor_id": models.FormatID(supervisorID),
	})

	logrus.WithFields(logrus.Fields{
		"employee_id":   employeeID,
		"supervisor_id": supervisorID,
	}).Info("Supervisor assigned")
	return nil
}

func (s *employeeService) AssignActing(ctx context.Context, api Backend, actor string, employeeID int64, req models.ActingRequest) error {
	if err := api.AssignActing(ctx, employeeID, req); err != nil {
		return err
	}

	s.invalidateStats(ctx)
	s.publish(actor, models.ActionActingAssign, map[string]string{
		"employee_id": models.FormatID(employeeID),
		"jabatan_plt": req.Title,
		"bidang_plt":  req.Division,
	})
	return nil
}

func (s *employeeService) RemoveActing(ctx context.Context, api Backend, actor string, employeeID int64) error {
	if err := api.RemoveActing(ctx, employeeID); err != nil {
		return err
	}

	s.invalidateStats(ctx)
	s.publish(actor, models.ActionActingRemove, map[string]string{
		"employee_id": models.FormatID(employeeID),
	})
	return nil
}

func (s *employeeService) invalidateStats(ctx context.Context) {
	if err := s.stats.InvalidateOfficialStats(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate official statistics")
	}
}

func (s *employeeService) publish(actor, action string, metadata map[string]string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishActivity(actor, "", models.ServiceEmployee, action, metadata); err != nil {
		logrus.WithError(err).WithField("action", action).Warn("Failed to publish employee activity")
	}
}
