package hierarchy

import (
	"context"
	"strconv"

	"sikep-admin-svc/src/internal/config"
	"sikep-admin-svc/src/internal/models"
	"sikep-admin-svc/src/internal/paging"

	"github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 20

type Service interface {
	List(ctx context.Context, api Backend, req *ListRequest) (*ListResponse, error)
	Create(ctx context.Context, api Backend, actor string, req models.OfficialRequest) (*models.StructuralOfficial, error)
	Update(ctx context.Context, api Backend, actor string, id int64, req models.OfficialRequest) (*Result, error)
	Delete(ctx context.Context, api Backend, actor string, id int64) error
	Available(ctx context.Context, api Backend) ([]models.Employee, error)
	Subordinates(ctx context.Context, api Backend, id int64) ([]models.Subordinate, error)
	Stats(ctx context.Context, api Backend) (*models.OfficialStats, error)
	History(ctx context.Context, officialID int64, limit int) ([]*Run, error)
}

type hierarchyService struct {
	cfg        *config.Configuration
	reassigner *Reassigner
	runs       Repository
	cache      StatsCache
	publisher  ActivityPublisher
}

func NewHierarchyService(cfg *config.Configuration, reassigner *Reassigner, runs Repository, cache StatsCache, publisher ActivityPublisher) Service {
	return &hierarchyService{
		cfg:        cfg,
		reassigner: reassigner,
		runs:       runs,
		cache:      cache,
		publisher:  publisher,
	}
}

func (s *hierarchyService) List(ctx context.Context, api Backend, req *ListRequest) (*ListResponse, error) {
	req.Page, req.Limit = paging.Normalize(req.Page, req.Limit, s.cfg.Search)
	if req.Level != 0 && !models.ValidRank(req.Level) {
		return nil, models.ErrInvalidRank
	}

	officials, err := api.ListOfficials(ctx)
	if err != nil {
		return nil, err
	}

	items, page := paging.Slice(filterOfficials(officials, req), req.Page, req.Limit)

	logrus.WithFields(logrus.Fields{
		"total_count": page.TotalCount,
		"page":        page.Page,
		"total_pages": page.TotalPages,
	}).Debug("Officials filtered")

	return &ListResponse{Officials: items, Page: page}, nil
}

func (s *hierarchyService) Create(ctx context.Context, api Backend, actor string, req models.OfficialRequest) (*models.StructuralOfficial, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	official, err := api.CreateOfficial(ctx, req)
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	s.publish(actor, models.ActionOfficialCreate, map[string]string{
		"official_id": models.FormatID(official.ID),
		"employee_id": models.FormatID(req.EmployeeID),
	})

	logrus.WithField("official_id", official.ID).Info("Structural official created")
	return official, nil
}

// Update applies the edit through the reassignment workflow. The tree is
// only re-linked when the office changes hands.
func (s *hierarchyService) Update(ctx context.Context, api Backend, actor string, id int64, req models.OfficialRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	previous, err := findOfficial(ctx, api, id)
	if err != nil {
		return nil, err
	}

	result, err := s.reassigner.Run(ctx, api, *previous, req)
	if err != nil {
		return nil, err
	}
	result.ActorID = actor

	if err := s.runs.Insert(ctx, &result.Run); err != nil {
		logrus.WithError(err).WithField("run_id", result.ID).Warn("Failed to journal reassignment run")
	}

	s.invalidateStats(ctx)
	s.publish(actor, models.ActionOfficialUpdate, map[string]string{
		"official_id": models.FormatID(id),
	})
	if result.EmployeeChanged {
		s.publish(actor, models.ActionReassignment, map[string]string{
			"run_id":       result.ID,
			"official_id":  models.FormatID(id),
			"old_employee": models.FormatID(result.PreviousEmployeeID),
			"new_employee": models.FormatID(result.NewEmployeeID),
			"reassigned":   strconv.Itoa(len(result.Reassigned)),
			"failures":     strconv.Itoa(len(result.Failures)),
			"outcome":      result.Outcome(),
		})
	}

	return result, nil
}

func (s *hierarchyService) Delete(ctx context.Context, api Backend, actor string, id int64) error {
	if err := api.DeleteOfficial(ctx, id); err != nil {
		return err
	}

	s.invalidateStats(ctx)
	s.publish(actor, models.ActionOfficialDelete, map[string]string{
		"official_id": models.FormatID(id),
	})

	logrus.WithField("official_id", id).Info("Structural official deleted")
	return nil
}

func (s *hierarchyService) Available(ctx context.Context, api Backend) ([]models.Employee, error) {
	return api.ListAvailableEmployees(ctx)
}

// Subordinates returns the transitive subordinates of the official's holder.
func (s *hierarchyService) Subordinates(ctx context.Context, api Backend, id int64) ([]models.Subordinate, error) {
	official, err := findOfficial(ctx, api, id)
	if err != nil {
		return nil, err
	}
	if official.EmployeeID == 0 {
		return []models.Subordinate{}, nil
	}
	return api.Subordinates(ctx, official.EmployeeID)
}

func (s *hierarchyService) Stats(ctx context.Context, api Backend) (*models.OfficialStats, error) {
	if cached, err := s.cache.GetOfficialStats(ctx); err == nil && cached != nil {
		logrus.Debug("Official statistics retrieved from cache")
		return cached, nil
	}

	officials, err := api.ListOfficials(ctx)
	if err != nil {
		return nil, err
	}
	available, err := api.ListAvailableEmployees(ctx)
	if err != nil {
		return nil, err
	}

	stats := computeStats(officials, available)
	if err := s.cache.SaveOfficialStats(ctx, stats); err != nil {
		logrus.WithError(err).Warn("Failed to cache official statistics")
	}
	return stats, nil
}

func (s *hierarchyService) History(ctx context.Context, officialID int64, limit int) ([]*Run, error) {
	if limit <= 0 || limit > s.cfg.Search.MaxQueryLimit {
		limit = defaultHistoryLimit
	}
	return s.runs.ListByOfficial(ctx, officialID, limit)
}

func findOfficial(ctx context.Context, api Backend, id int64) (*models.StructuralOfficial, error) {
	officials, err := api.ListOfficials(ctx)
	if err != nil {
		return nil, err
	}
	for i := range officials {
		if officials[i].ID == id {
			return &officials[i], nil
		}
	}
	return nil, models.ErrOfficialNotFound
}

func (s *hierarchyService) invalidateStats(ctx context.Context) {
	if err := s.cache.InvalidateOfficialStats(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate official statistics")
	}
}

func (s *hierarchyService) publish(actor, action string, metadata map[string]string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishActivity(actor, "", models.ServiceHierarchy, action, metadata); err != nil {
		logrus.WithError(err).WithField("action", action).Warn("Failed to publish hierarchy activity")
	}
}
