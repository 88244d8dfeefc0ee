package model

// ProjectReport holds the last generated report for a project. At most one
// live report exists per project; writers upsert by ProjectID.
type ProjectReport struct {
	ID            string `json:"id"`
	ProjectID     string `json:"projectId"`
	StageCount    int    `json:"stageCount"`
	TotalProgress int    `json:"totalProgress"`
	DelayCount    int    `json:"delayCount"`
	LessonCount   int    `json:"lessonCount"`
	Status        string `json:"status"`
	Body          string `json:"body"`
	GeneratedAt   string `json:"generatedAt"`
}
