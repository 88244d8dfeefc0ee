package model

// Stage statuses, derived by the evaluator in this priority order.
const (
	StageStatusCompleted = "Completed"
	StageStatusBehind    = "Behind Schedule"
	StageStatusOnTrack   = "On Track"
)

// Stage dates are UTC calendar dates in YYYY-MM-DD form; the evaluator
// compares them lexicographically.
type Stage struct {
	ID           string  `json:"id"`
	ProjectID    string  `json:"projectId"`
	Name         string  `json:"name"`
	PlannedStart string  `json:"plannedStart"`
	PlannedEnd   string  `json:"plannedEnd"`
	ActualStart  *string `json:"actualStart"`
	ActualEnd    *string `json:"actualEnd"`
	Progress     int     `json:"progress"`
	Status       string  `json:"status"`
}
