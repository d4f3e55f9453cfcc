package models

type Employee struct {
	ID           int64  `json:"id"`
	FullName     string `json:"nama"`
	NationalID   string `json:"nip"`
	JobTitle     string `json:"jabatan"`
	Division     string `json:"bidang"`
	SupervisorID *int64 `json:"atasan_id,omitempty"`
	LevelRank    int    `json:"level,omitempty"`
}

// EffectiveRank places plain employees (no level) below every structural level.
func (e *Employee) EffectiveRank() int {
	if e.LevelRank == 0 {
		return LowestRank + 1
	}
	return e.LevelRank
}

// SupervisorRequest re-points an employee's direct supervisor.
type SupervisorRequest struct {
	SupervisorID int64 `json:"atasan_id" binding:"required"`
}

// ActingRequest assigns an acting appointment (PLT).
type ActingRequest struct {
	Title    string `json:"jabatan_plt" binding:"required"`
	Division string `json:"bidang_plt" binding:"required"`
}
