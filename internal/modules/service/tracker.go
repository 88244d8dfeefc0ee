package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stagetrack-io/stagetrack/internal/modules/model"
	"github.com/stagetrack-io/stagetrack/internal/modules/store"
	"github.com/stagetrack-io/stagetrack/internal/pkg/evaluator"
	"github.com/stagetrack-io/stagetrack/internal/telemetry"
	"go.uber.org/zap"
)

// Filters echoes the month/year constraints a completed-projects query ran with.
type Filters struct {
	Month *int `json:"month"`
	Year  *int `json:"year"`
}

// ProjectView is a project enriched with derived aggregates for query responses.
type ProjectView struct {
	model.Project
	Status        string `json:"status"`
	TotalProgress int    `json:"totalProgress"`
	StageCount    int    `json:"stageCount"`
}

type CompletedOutput struct {
	Count    int           `json:"count"`
	Filters  Filters       `json:"filters"`
	Projects []ProjectView `json:"projects"`
}

type InProgressOutput struct {
	Count    int           `json:"count"`
	Projects []ProjectView `json:"projects"`
}

// ProjectSummary is the per-project line of an evaluate response.
type ProjectSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Completed      bool    `json:"completed"`
	CompletionDate *string `json:"completionDate"`
}

type EvaluateOutput struct {
	Evaluated bool             `json:"evaluated"`
	Updated   bool             `json:"updated"`
	Projects  []ProjectSummary `json:"projects"`
}

// TrackerService is the gateway's data-access surface over the document store.
type TrackerService interface {
	Snapshot(ctx context.Context) (*model.Document, error)
	Sync(ctx context.Context, key string, data json.RawMessage) error
	CompletedProjects(ctx context.Context, month, year *int) (*CompletedOutput, error)
	InProgressProjects(ctx context.Context) (*InProgressOutput, error)
	EvaluateAll(ctx context.Context) (*EvaluateOutput, error)
}

type trackerService struct {
	store  store.DocumentStore
	writes *store.WriteSerializer
	log    *zap.Logger
	now    func() time.Time
}

func NewTrackerService(st store.DocumentStore, ws *store.WriteSerializer, log *zap.Logger) TrackerService {
	return &trackerService{
		store:  st,
		writes: ws,
		log:    log,
		now:    time.Now,
	}
}

// Snapshot returns the full document. Reads do not go through the write
// serializer; they see whichever document the last completed write produced.
func (s *trackerService) Snapshot(ctx context.Context) (*model.Document, error) {
	return s.store.Read()
}

// Sync replaces the named collection whole. Stage and project syncs
// invalidate derived state, so those re-run the evaluator before the
// document is persisted; the query paths re-run it again regardless.
func (s *trackerService) Sync(ctx context.Context, key string, data json.RawMessage) error {
	err := s.writes.Enqueue(ctx, func(doc *model.Document) error {
		if err := doc.ReplaceCollection(key, data); err != nil {
			return err
		}
		if key == model.KeyStages || key == model.KeyProjects {
			s.evaluate(doc)
		}
		return nil
	})
	if err != nil {
		telemetry.SyncOperations.WithLabelValues(key, "error").Inc()
		return err
	}
	telemetry.SyncOperations.WithLabelValues(key, "ok").Inc()
	return nil
}

// CompletedProjects re-derives and persists state, then answers. The view is
// built inside the serialized mutation so no concurrent sync can slip
// between the evaluation and the read.
func (s *trackerService) CompletedProjects(ctx context.Context, month, year *int) (*CompletedOutput, error) {
	out := &CompletedOutput{Filters: Filters{Month: month, Year: year}, Projects: []ProjectView{}}

	err := s.writes.Enqueue(ctx, func(doc *model.Document) error {
		s.evaluate(doc)
		for i := range doc.Projects {
			p := doc.Projects[i]
			if p.CompletionDate == nil || !evaluator.ProjectCompleted(p.ID, doc.Stages) {
				continue
			}
			if !matchesCompletionFilter(p.CompletionDate, month, year) {
				continue
			}
			total, count := evaluator.ProjectProgress(p.ID, doc.Stages)
			out.Projects = append(out.Projects, ProjectView{
				Project:       p,
				Status:        model.ProjectStatusCompleted,
				TotalProgress: total,
				StageCount:    count,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Count = len(out.Projects)
	return out, nil
}

// InProgressProjects re-derives and persists state, then answers with every
// project not currently completed.
func (s *trackerService) InProgressProjects(ctx context.Context) (*InProgressOutput, error) {
	out := &InProgressOutput{Projects: []ProjectView{}}

	err := s.writes.Enqueue(ctx, func(doc *model.Document) error {
		s.evaluate(doc)
		for i := range doc.Projects {
			p := doc.Projects[i]
			if evaluator.ProjectCompleted(p.ID, doc.Stages) {
				continue
			}
			total, count := evaluator.ProjectProgress(p.ID, doc.Stages)
			out.Projects = append(out.Projects, ProjectView{
				Project:       p,
				Status:        model.ProjectStatusInProgress,
				TotalProgress: total,
				StageCount:    count,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Count = len(out.Projects)
	return out, nil
}

// EvaluateAll forces a derived-state pass and reports per-project outcomes.
func (s *trackerService) EvaluateAll(ctx context.Context) (*EvaluateOutput, error) {
	out := &EvaluateOutput{Evaluated: true, Projects: []ProjectSummary{}}

	err := s.writes.Enqueue(ctx, func(doc *model.Document) error {
		out.Updated = s.evaluate(doc)
		for i := range doc.Projects {
			p := doc.Projects[i]
			out.Projects = append(out.Projects, ProjectSummary{
				ID:             p.ID,
				Name:           p.Name,
				Completed:      evaluator.ProjectCompleted(p.ID, doc.Stages),
				CompletionDate: p.CompletionDate,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *trackerService) evaluate(doc *model.Document) bool {
	res := evaluator.Evaluate(doc, s.now())
	telemetry.EvaluatorRuns.Inc()
	if res.Changed() {
		telemetry.EvaluatorChanges.Inc()
		s.log.Sugar().Debugw("evaluator updated derived state",
			"stages", res.StagesUpdated,
			"projects", res.ProjectsUpdated,
			"notifications", res.NotificationsCreated,
		)
	}
	return res.Changed()
}

// matchesCompletionFilter applies the inclusive month AND year filter. With
// no filter set every record matches; with any filter set, an unparseable
// completion timestamp excludes the record.
func matchesCompletionFilter(completionDate *string, month, year *int) bool {
	if month == nil && year == nil {
		return true
	}
	if completionDate == nil {
		return false
	}
	t, err := time.Parse(time.RFC3339, *completionDate)
	if err != nil {
		return false
	}
	if month != nil && int(t.Month()) != *month {
		return false
	}
	if year != nil && t.Year() != *year {
		return false
	}
	return true
}
