package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stagetrack-io/stagetrack/internal/modules/model"
	"github.com/stagetrack-io/stagetrack/internal/modules/store"
	"github.com/stagetrack-io/stagetrack/internal/pkg/utils"
)

var svcNow = time.Date(2026, time.April, 10, 9, 30, 0, 0, time.UTC)

// memStore is an in-memory DocumentStore for service tests.
type memStore struct {
	mu     sync.Mutex
	doc    *model.Document
	writes int
}

func newMemStore() *memStore {
	return &memStore{doc: model.NewDocument()}
}

func (m *memStore) Read() (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := sonic.Marshal(m.doc)
	if err != nil {
		return nil, err
	}
	out := model.NewDocument()
	if err := sonic.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *memStore) Write(doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.doc = doc
	return nil
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func newTestService(t *testing.T) (*trackerService, *memStore) {
	t.Helper()
	ms := newMemStore()
	ws := store.NewWriteSerializer(ms, zap.NewNop())
	t.Cleanup(ws.Close)
	return &trackerService{
		store:  ms,
		writes: ws,
		log:    zap.NewNop(),
		now:    func() time.Time { return svcNow },
	}, ms
}

func mustRaw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := sonic.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestSync_ReplacesCollection(t *testing.T) {
	svc, ms := newTestService(t)

	projects := []model.Project{{ID: "p1", Name: "Rollout"}}
	require.NoError(t, svc.Sync(context.Background(), model.KeyProjects, mustRaw(t, projects)))

	doc, err := ms.Read()
	require.NoError(t, err)
	require.Len(t, doc.Projects, 1)
	assert.Equal(t, "Rollout", doc.Projects[0].Name)
}

func TestSync_StagesTriggersEvaluation(t *testing.T) {
	svc, ms := newTestService(t)

	require.NoError(t, svc.Sync(context.Background(), model.KeyProjects,
		mustRaw(t, []model.Project{{ID: "p1", Name: "Rollout"}})))

	stages := []model.Stage{
		{ID: "s1", ProjectID: "p1", PlannedEnd: "2026-05-01", Progress: 100},
		{ID: "s2", ProjectID: "p1", PlannedEnd: "2026-05-01", Progress: 100},
	}
	require.NoError(t, svc.Sync(context.Background(), model.KeyStages, mustRaw(t, stages)))

	doc, err := ms.Read()
	require.NoError(t, err)
	require.NotNil(t, doc.Projects[0].CompletionDate)
	assert.Equal(t, utils.Timestamp(svcNow), *doc.Projects[0].CompletionDate)
	assert.Equal(t, model.StageStatusCompleted, doc.Stages[0].Status)
}

func TestSync_InvalidPayloadLeavesStoreUntouched(t *testing.T) {
	svc, ms := newTestService(t)

	err := svc.Sync(context.Background(), model.KeyStages, json.RawMessage(`"not-an-array"`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidPayload))
	assert.Zero(t, ms.writeCount())
}

func TestSync_UnknownKeyRejected(t *testing.T) {
	svc, ms := newTestService(t)

	err := svc.Sync(context.Background(), "widgets", json.RawMessage(`[]`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrUnknownCollection))
	assert.Zero(t, ms.writeCount())
}

func seedProjects(t *testing.T, svc *trackerService) {
	t.Helper()
	ctx := context.Background()

	doneMarch := utils.Timestamp(time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC))
	doneApril := utils.Timestamp(time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC))
	projects := []model.Project{
		{ID: "p-march", Name: "March", CompletionDate: &doneMarch},
		{ID: "p-april", Name: "April", CompletionDate: &doneApril},
		{ID: "p-open", Name: "Open"},
	}
	stages := []model.Stage{
		{ID: "s1", ProjectID: "p-march", PlannedEnd: "2026-03-01", Progress: 100},
		{ID: "s2", ProjectID: "p-april", PlannedEnd: "2026-04-01", Progress: 100},
		{ID: "s3", ProjectID: "p-open", PlannedEnd: "2026-06-01", Progress: 50},
	}
	require.NoError(t, svc.Sync(ctx, model.KeyProjects, mustRaw(t, projects)))
	require.NoError(t, svc.Sync(ctx, model.KeyStages, mustRaw(t, stages)))
}

func TestCompletedProjects_NoFilter(t *testing.T) {
	svc, _ := newTestService(t)
	seedProjects(t, svc)

	out, err := svc.CompletedProjects(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	for _, p := range out.Projects {
		assert.Equal(t, model.ProjectStatusCompleted, p.Status)
		assert.Equal(t, 100, p.TotalProgress)
		assert.Equal(t, 1, p.StageCount)
	}
}

func TestCompletedProjects_MonthYearFilter(t *testing.T) {
	svc, _ := newTestService(t)
	seedProjects(t, svc)

	month, year := 3, 2026
	out, err := svc.CompletedProjects(context.Background(), &month, &year)
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "p-march", out.Projects[0].ID)
	assert.Equal(t, &month, out.Filters.Month)
	assert.Equal(t, &year, out.Filters.Year)

	wrongYear := 2025
	out, err = svc.CompletedProjects(context.Background(), &month, &wrongYear)
	require.NoError(t, err)
	assert.Zero(t, out.Count)
}

func TestCompletedProjects_UnparseableDateExcludedWhenFiltering(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bad := "not-a-timestamp"
	projects := []model.Project{{ID: "p1", Name: "Odd", CompletionDate: &bad}}
	stages := []model.Stage{{ID: "s1", ProjectID: "p1", PlannedEnd: "2026-01-01", Progress: 100}}
	require.NoError(t, svc.Sync(ctx, model.KeyProjects, mustRaw(t, projects)))
	require.NoError(t, svc.Sync(ctx, model.KeyStages, mustRaw(t, stages)))

	year := 2026
	out, err := svc.CompletedProjects(ctx, nil, &year)
	require.NoError(t, err)
	assert.Zero(t, out.Count)

	// Without a filter the record still counts as completed.
	out, err = svc.CompletedProjects(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
}

func TestInProgressProjects(t *testing.T) {
	svc, _ := newTestService(t)
	seedProjects(t, svc)

	out, err := svc.InProgressProjects(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "p-open", out.Projects[0].ID)
	assert.Equal(t, model.ProjectStatusInProgress, out.Projects[0].Status)
	assert.Equal(t, 50, out.Projects[0].TotalProgress)
}

func TestQueriesSelfHeal(t *testing.T) {
	svc, ms := newTestService(t)
	ctx := context.Background()

	// A stale completion date on a project whose stages regressed must be
	// cleared before the query answers, and the fix must persist.
	stale := utils.Timestamp(svcNow)
	require.NoError(t, svc.Sync(ctx, model.KeyProjects,
		mustRaw(t, []model.Project{{ID: "p1", Name: "Stale", CompletionDate: &stale}})))
	require.NoError(t, svc.Sync(ctx, model.KeyStages,
		mustRaw(t, []model.Stage{{ID: "s1", ProjectID: "p1", PlannedEnd: "2026-06-01", Progress: 10}})))

	out, err := svc.InProgressProjects(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Nil(t, out.Projects[0].CompletionDate)

	doc, err := ms.Read()
	require.NoError(t, err)
	assert.Nil(t, doc.Projects[0].CompletionDate)
}

func TestEvaluateAll(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Sync(ctx, model.KeyProjects,
		mustRaw(t, []model.Project{{ID: "p1", Name: "Rollout"}, {ID: "p2", Name: "Empty"}})))

	// Raw stage sync without statuses: the evaluate pass derives them.
	require.NoError(t, svc.Sync(ctx, model.KeyStages,
		mustRaw(t, []model.Stage{{ID: "s1", ProjectID: "p1", PlannedEnd: "2026-06-01", Progress: 100}})))

	out, err := svc.EvaluateAll(ctx)
	require.NoError(t, err)
	assert.True(t, out.Evaluated)
	require.Len(t, out.Projects, 2)
	assert.True(t, out.Projects[0].Completed)
	assert.NotNil(t, out.Projects[0].CompletionDate)
	assert.False(t, out.Projects[1].Completed)

	// Second run has nothing left to update.
	out, err = svc.EvaluateAll(ctx)
	require.NoError(t, err)
	assert.False(t, out.Updated)
}
