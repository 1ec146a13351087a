package dto

// StatsResponse is rendered with plain JSON numbers.
type StatsResponse struct {
	HoursToday     float64 `json:"hoursToday"`
	HoursWeek      float64 `json:"hoursWeek"`
	ActiveProjects int     `json:"activeProjects"`
	TeamMembers    int     `json:"teamMembers"`
}
