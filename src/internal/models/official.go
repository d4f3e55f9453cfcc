package models

import "strconv"

const (
	HighestRank = 1
	LowestRank  = 5
)

// StructuralOfficial is a ranked slot in the organisational tree held by one employee.
type StructuralOfficial struct {
	ID             int64  `json:"id"`
	EmployeeID     int64  `json:"pegawai_id"`
	EmployeeName   string `json:"nama,omitempty"`
	LevelRank      int    `json:"level"`
	Division       string `json:"bidang"`
	ParentID       *int64 `json:"atasan_id,omitempty"`
	IsActing       bool   `json:"is_plt"`
	ActingTitle    string `json:"jabatan_plt,omitempty"`
	ActingDivision string `json:"bidang_plt,omitempty"`
}

// Subordinate is one member of an official's transitive subordinate set.
type Subordinate struct {
	EmployeeID   int64  `json:"id"`
	Name         string `json:"nama"`
	Division     string `json:"bidang"`
	IsStructural bool   `json:"is_pejabat"`
	OfficialID   *int64 `json:"pejabat_id,omitempty"`
	LevelRank    int    `json:"level"`
}

// OfficialRequest is the body of an official create or update.
type OfficialRequest struct {
	EmployeeID int64  `json:"pegawai_id" binding:"required"`
	LevelRank  int    `json:"level" binding:"required,min=1,max=5"`
	ParentID   *int64 `json:"atasan_id"`
}

func (r *OfficialRequest) Validate() error {
	if r.EmployeeID <= 0 {
		return ErrInvalidParams
	}
	if !ValidRank(r.LevelRank) {
		return ErrInvalidRank
	}
	return nil
}

func ValidRank(rank int) bool {
	return rank >= HighestRank && rank <= LowestRank
}

func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
