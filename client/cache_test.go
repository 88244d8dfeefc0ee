package client

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stagetrack-io/stagetrack/internal/modules/model"
)

func newTestReplica(t *testing.T) (*Replica, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport()
	return NewReplica(tr, zap.NewNop()), tr
}

func TestCache_GetAbsentKeyIsEmptyArray(t *testing.T) {
	r, _ := newTestReplica(t)

	assert.Equal(t, "[]", string(r.Cache.Get("projects")))
}

func TestCache_SetRejectsNonArray(t *testing.T) {
	r, tr := newTestReplica(t)

	err := r.Cache.Set(context.Background(), "projects", json.RawMessage(`{"id":"p1"}`))
	assert.Error(t, err)
	assert.Empty(t, tr.syncedPayloads("projects"))
}

func TestCache_SetIsVisibleImmediatelyAndPushed(t *testing.T) {
	r, tr := newTestReplica(t)

	payload := json.RawMessage(`[{"id":"p1","name":"Rollout"}]`)
	require.NoError(t, r.Cache.Set(context.Background(), "projects", payload))

	assert.JSONEq(t, string(payload), string(r.Cache.Get("projects")))
	require.Len(t, tr.syncedPayloads("projects"), 1)
}

func TestCache_SetStandsWhenPushFails(t *testing.T) {
	r, tr := newTestReplica(t)
	tr.setFailSync(true)

	payload := json.RawMessage(`[{"id":"p1"}]`)
	require.NoError(t, r.Cache.Set(context.Background(), "projects", payload))

	// Local state already updated, the push is parked for retry.
	assert.JSONEq(t, string(payload), string(r.Cache.Get("projects")))
	assert.Equal(t, 1, r.Queue.PendingLen("projects"))
}

func TestCache_ApplyRemotePartialResponseDoesNotClobber(t *testing.T) {
	r, _ := newTestReplica(t)
	ctx := context.Background()

	require.NoError(t, r.Cache.Set(ctx, "projects", json.RawMessage(`[{"id":"p1"}]`)))
	require.NoError(t, r.Cache.Set(ctx, "stages", json.RawMessage(`[{"id":"s1"}]`)))

	r.Cache.ApplyRemote(map[string]json.RawMessage{
		"projects": json.RawMessage(`[{"id":"p2"}]`),
		"stages":   json.RawMessage(`null`),
	})

	// projects overwritten, stages kept: null is not an array.
	assert.Contains(t, string(r.Cache.Get("projects")), "p2")
	assert.Contains(t, string(r.Cache.Get("stages")), "s1")
}

func TestCache_EvaluateMatchesServerRules(t *testing.T) {
	r, tr := newTestReplica(t)
	ctx := context.Background()

	users := []model.User{
		{ID: "u-admin", Username: "root", Email: "admin@stagetrack.local", Role: model.RoleAdmin},
	}
	projects := []model.Project{{ID: "p1", Name: "Rollout"}}
	stages := []model.Stage{
		{ID: "s1", ProjectID: "p1", PlannedEnd: "2026-02-01", Progress: 40},
	}
	require.NoError(t, r.Cache.Set(ctx, model.KeyUsers, mustMarshal(t, users)))
	require.NoError(t, r.Cache.Set(ctx, model.KeyProjects, mustMarshal(t, projects)))
	require.NoError(t, r.Cache.Set(ctx, model.KeyStages, mustMarshal(t, stages)))

	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	res, err := r.Cache.Evaluate(ctx, now)
	require.NoError(t, err)
	assert.Positive(t, res.StagesUpdated)
	assert.Equal(t, 1, res.NotificationsCreated)

	doc, err := r.Cache.Document()
	require.NoError(t, err)
	assert.Equal(t, model.StageStatusBehind, doc.Stages[0].Status)
	require.Len(t, doc.Notifications, 1)
	assert.Equal(t, "u-admin", doc.Notifications[0].UserID)

	// Changed collections were pushed to the gateway.
	assert.Len(t, tr.syncedPayloads(model.KeyStages), 2)
	assert.Len(t, tr.syncedPayloads(model.KeyNotifications), 1)
}

func TestCache_AppendDelayRecordFillsDefaults(t *testing.T) {
	r, _ := newTestReplica(t)
	ctx := context.Background()

	require.NoError(t, r.Cache.AppendDelayRecord(ctx, model.DelayRecord{
		StageID: "s1", ProjectID: "p1", Reason: "supplier slip",
	}))
	require.NoError(t, r.Cache.AppendDelayRecord(ctx, model.DelayRecord{
		StageID: "s1", ProjectID: "p1", Reason: "rework",
	}))

	doc, err := r.Cache.Document()
	require.NoError(t, err)
	require.Len(t, doc.DelayRecords, 2)
	for _, rec := range doc.DelayRecords {
		assert.NotEmpty(t, rec.ID)
		assert.NotEmpty(t, rec.CreatedAt)
	}
	assert.NotEqual(t, doc.DelayRecords[0].ID, doc.DelayRecords[1].ID)
}

func TestCache_UpsertReportKeepsOnePerProject(t *testing.T) {
	r, _ := newTestReplica(t)
	ctx := context.Background()

	require.NoError(t, r.Cache.UpsertReport(ctx, model.ProjectReport{ProjectID: "p1", Body: "v1"}))
	require.NoError(t, r.Cache.UpsertReport(ctx, model.ProjectReport{ProjectID: "p2", Body: "other"}))
	require.NoError(t, r.Cache.UpsertReport(ctx, model.ProjectReport{ProjectID: "p1", Body: "v2"}))

	doc, err := r.Cache.Document()
	require.NoError(t, err)
	require.Len(t, doc.ProjectReports, 2)
	for _, rep := range doc.ProjectReports {
		if rep.ProjectID == "p1" {
			assert.Equal(t, "v2", rep.Body)
		}
	}
}

func TestCache_MarkNotificationRead(t *testing.T) {
	r, _ := newTestReplica(t)
	ctx := context.Background()

	notifications := []model.Notification{{ID: "n1", UserID: "u1", Message: "behind"}}
	require.NoError(t, r.Cache.Set(ctx, model.KeyNotifications, mustMarshal(t, notifications)))

	require.NoError(t, r.Cache.MarkNotificationRead(ctx, "n1"))
	doc, err := r.Cache.Document()
	require.NoError(t, err)
	assert.True(t, doc.Notifications[0].Read)

	assert.Error(t, r.Cache.MarkNotificationRead(ctx, "missing"))
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := sonic.Marshal(v)
	require.NoError(t, err)
	return raw
}
