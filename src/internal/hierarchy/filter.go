package hierarchy

import (
	"sikep-admin-svc/src/internal/models"
	"sikep-admin-svc/src/internal/paging"
)

// ListRequest filters the official list. Zero values match everything.
type ListRequest struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Search   string `form:"search"`
	Division string `form:"bidang"`
	Level    int    `form:"level"`
}

type ListResponse struct {
	Officials []models.StructuralOfficial `json:"officials"`
	paging.Page
}

func (r *ListRequest) matches(o *models.StructuralOfficial) bool {
	if r.Level != 0 && o.LevelRank != r.Level {
		return false
	}
	if r.Division != "" && o.Division != r.Division {
		return false
	}
	if r.Search == "" {
		return true
	}
	return paging.Contains(o.EmployeeName, r.Search) ||
		paging.Contains(o.Division, r.Search) ||
		paging.Contains(o.ActingTitle, r.Search)
}

func filterOfficials(officials []models.StructuralOfficial, req *ListRequest) []models.StructuralOfficial {
	out := make([]models.StructuralOfficial, 0, len(officials))
	for i := range officials {
		if req.matches(&officials[i]) {
			out = append(out, officials[i])
		}
	}
	return out
}

func computeStats(officials []models.StructuralOfficial, available []models.Employee) *models.OfficialStats {
	stats := &models.OfficialStats{
		Total:      len(officials),
		ByRank:     make(map[int]int),
		ByDivision: make(map[string]int),
		Available:  len(available),
	}
	for i := range officials {
		o := &officials[i]
		if o.IsActing {
			stats.Acting++
		}
		if o.EmployeeID == 0 {
			stats.Vacant++
		}
		stats.ByRank[o.LevelRank]++
		stats.ByDivision[o.Division]++
	}
	return stats
}
