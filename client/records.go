package client

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stagetrack-io/stagetrack/internal/modules/model"
	"github.com/stagetrack-io/stagetrack/internal/pkg/utils"
)

// AppendDelayRecord logs a delay. Delay records are append-only; nothing is
// ever edited or removed.
func (c *Cache) AppendDelayRecord(ctx context.Context, rec model.DelayRecord) error {
	var records []model.DelayRecord
	if err := sonic.Unmarshal(c.Get(model.KeyDelayRecords), &records); err != nil {
		return fmt.Errorf("decode delay records: %w", err)
	}
	if rec.ID == "" {
		rec.ID = utils.NewID()
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = utils.Timestamp(time.Now())
	}
	return c.setTyped(ctx, model.KeyDelayRecords, append(records, rec))
}

// AppendLesson logs a lesson learned, project-level when StageID is nil.
func (c *Cache) AppendLesson(ctx context.Context, lesson model.LessonLearned) error {
	var lessons []model.LessonLearned
	if err := sonic.Unmarshal(c.Get(model.KeyLessonsLearned), &lessons); err != nil {
		return fmt.Errorf("decode lessons: %w", err)
	}
	if lesson.ID == "" {
		lesson.ID = utils.NewID()
	}
	if lesson.CreatedAt == "" {
		lesson.CreatedAt = utils.Timestamp(time.Now())
	}
	return c.setTyped(ctx, model.KeyLessonsLearned, append(lessons, lesson))
}

// UpsertReport stores a generated report, replacing any prior report for the
// same project so at most one live report exists per project.
func (c *Cache) UpsertReport(ctx context.Context, report model.ProjectReport) error {
	var reports []model.ProjectReport
	if err := sonic.Unmarshal(c.Get(model.KeyProjectReports), &reports); err != nil {
		return fmt.Errorf("decode reports: %w", err)
	}
	if report.ID == "" {
		report.ID = utils.NewID()
	}
	if report.GeneratedAt == "" {
		report.GeneratedAt = utils.Timestamp(time.Now())
	}

	replaced := false
	for i := range reports {
		if reports[i].ProjectID == report.ProjectID {
			reports[i] = report
			replaced = true
			break
		}
	}
	if !replaced {
		reports = append(reports, report)
	}
	return c.setTyped(ctx, model.KeyProjectReports, reports)
}

// MarkNotificationRead flips the read flag on one notification — the only
// mutation notifications ever receive.
func (c *Cache) MarkNotificationRead(ctx context.Context, notificationID string) error {
	var notifications []model.Notification
	if err := sonic.Unmarshal(c.Get(model.KeyNotifications), &notifications); err != nil {
		return fmt.Errorf("decode notifications: %w", err)
	}
	for i := range notifications {
		if notifications[i].ID == notificationID {
			if notifications[i].Read {
				return nil
			}
			notifications[i].Read = true
			return c.setTyped(ctx, model.KeyNotifications, notifications)
		}
	}
	return fmt.Errorf("notification %q not found", notificationID)
}
