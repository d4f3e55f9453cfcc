package models

// OfficialStats summarises the structural hierarchy for the dashboard.
type OfficialStats struct {
	Total      int            `json:"total"`
	Acting     int            `json:"acting"`
	Vacant     int            `json:"vacant"`
	ByRank     map[int]int    `json:"byRank"`
	ByDivision map[string]int `json:"byDivision"`
	Available  int            `json:"available"`
}
