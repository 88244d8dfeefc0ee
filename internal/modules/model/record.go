package model

// DelayRecord is append-only: delays are logged, never edited or removed.
type DelayRecord struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	StageID   string `json:"stageId"`
	Reason    string `json:"reason"`
	Impact    string `json:"impact"`
	CreatedAt string `json:"createdAt"`
}

// LessonLearned is append-only. A nil StageID means the lesson applies to
// the project as a whole.
type LessonLearned struct {
	ID             string  `json:"id"`
	ProjectID      string  `json:"projectId"`
	StageID        *string `json:"stageId"`
	Description    string  `json:"description"`
	Recommendation string  `json:"recommendation"`
	CreatedAt      string  `json:"createdAt"`
}
