package model

// Notification is created only by the evaluator when a stage transitions
// into Behind Schedule. The only field that ever mutates afterwards is Read.
type Notification struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	ProjectID string `json:"projectId"`
	StageID   string `json:"stageId"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}
