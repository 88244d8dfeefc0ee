package model

// Project statuses reported by the query endpoints.
const (
	ProjectStatusCompleted  = "Completed"
	ProjectStatusInProgress = "In Progress"
)

type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   string `json:"createdBy"`
	CreatedAt   string `json:"createdAt"`
	// CompletionDate is derived, never authored: non-nil exactly when the
	// project has at least one stage and all stages are at progress 100.
	CompletionDate *string `json:"completionDate"`
}
