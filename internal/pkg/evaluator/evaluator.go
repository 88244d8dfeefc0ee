// Package evaluator recomputes every derived field of the tracker document:
// stage status, project completion and behind-schedule notifications.
//
// The same pass runs on the server (before queries and after stage syncs)
// and on the client (after local edits), so the two copies of the data can
// never derive divergent state from the same records.
package evaluator

import (
	"fmt"
	"time"

	"github.com/stagetrack-io/stagetrack/internal/modules/model"
	"github.com/stagetrack-io/stagetrack/internal/pkg/utils"
)

// Result summarizes what a pass changed.
type Result struct {
	StagesUpdated        int
	ProjectsUpdated      int
	NotificationsCreated int
}

// Changed reports whether the pass mutated the document at all.
func (r Result) Changed() bool {
	return r.StagesUpdated > 0 || r.ProjectsUpdated > 0 || r.NotificationsCreated > 0
}

// StageStatus derives a stage's status from its progress and planned end.
// Priority order: full progress always wins, regardless of dates; then an
// overrun planned end; then on track. today and plannedEnd are UTC
// YYYY-MM-DD strings compared lexicographically.
func StageStatus(progress int, plannedEnd, today string) string {
	switch {
	case progress >= 100:
		return model.StageStatusCompleted
	case plannedEnd != "" && today > plannedEnd:
		return model.StageStatusBehind
	default:
		return model.StageStatusOnTrack
	}
}

// ProjectCompleted reports whether every stage of the project is at full
// progress. A project with zero stages is never completed.
func ProjectCompleted(projectID string, stages []model.Stage) bool {
	found := false
	for i := range stages {
		if stages[i].ProjectID != projectID {
			continue
		}
		found = true
		if stages[i].Progress < 100 {
			return false
		}
	}
	return found
}

// ProjectProgress returns the rounded mean progress across the project's
// stages and the stage count. Zero stages yields (0, 0).
func ProjectProgress(projectID string, stages []model.Stage) (int, int) {
	sum, count := 0, 0
	for i := range stages {
		if stages[i].ProjectID == projectID {
			sum += stages[i].Progress
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	// round half up, like the original report maths
	return (sum + count/2) / count, count
}

// Evaluate runs the full derived-state pass over doc in place. It is
// deterministic in every derived field given (doc, now) and idempotent:
// a second pass over its own output changes nothing.
func Evaluate(doc *model.Document, now time.Time) Result {
	var res Result
	today := utils.Date(now)

	projectName := make(map[string]string, len(doc.Projects))
	for i := range doc.Projects {
		projectName[doc.Projects[i].ID] = doc.Projects[i].Name
	}

	// Stage statuses, plus notification fan-out for behind-schedule stages.
	for i := range doc.Stages {
		st := &doc.Stages[i]
		status := StageStatus(st.Progress, st.PlannedEnd, today)
		if st.Status != status {
			st.Status = status
			res.StagesUpdated++
		}
		if status == model.StageStatusBehind {
			res.NotificationsCreated += notifyBehind(doc, st, projectName[st.ProjectID], now)
		}
	}

	// Project completion: set once when all stages reach 100, cleared the
	// moment that stops holding. Never bumped on re-evaluation.
	for i := range doc.Projects {
		p := &doc.Projects[i]
		completed := ProjectCompleted(p.ID, doc.Stages)
		switch {
		case completed && p.CompletionDate == nil:
			ts := utils.Timestamp(now)
			p.CompletionDate = &ts
			res.ProjectsUpdated++
		case !completed && p.CompletionDate != nil:
			p.CompletionDate = nil
			res.ProjectsUpdated++
		}
	}

	return res
}

// notifyBehind appends one notification per Admin/Project-Manager recipient
// for the given stage, skipping any recipient that already has one for this
// stage. Disabled accounts are not notified.
func notifyBehind(doc *model.Document, st *model.Stage, project string, now time.Time) int {
	created := 0
	for i := range doc.Users {
		u := &doc.Users[i]
		if u.Disabled || (u.Role != model.RoleAdmin && u.Role != model.RoleProjectManager) {
			continue
		}
		if hasStageNotification(doc.Notifications, st.ID, u.ID) {
			continue
		}
		name := project
		if name == "" {
			name = st.ProjectID
		}
		doc.Notifications = append(doc.Notifications, model.Notification{
			ID:        utils.IDAt(now),
			UserID:    u.ID,
			ProjectID: st.ProjectID,
			StageID:   st.ID,
			Message:   fmt.Sprintf("Stage %q of project %q is behind schedule", st.Name, name),
			Read:      false,
			CreatedAt: utils.Timestamp(now),
		})
		created++
	}
	return created
}

func hasStageNotification(notifications []model.Notification, stageID, userID string) bool {
	for i := range notifications {
		if notifications[i].StageID == stageID && notifications[i].UserID == userID {
			return true
		}
	}
	return false
}
