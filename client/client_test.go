package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClient_SyncSendsKeyAndData(t *testing.T) {
	var got syncRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/sync", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	err := c.Sync(context.Background(), "projects", json.RawMessage(`[{"id":"p1"}]`))
	require.NoError(t, err)
	assert.Equal(t, "projects", got.Key)
	assert.JSONEq(t, `[{"id":"p1"}]`, string(got.Data))
}

func TestClient_SyncUnacknowledged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"data must be an array"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	err := c.Sync(context.Background(), "projects", json.RawMessage(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data must be an array")
}

func TestClient_SyncNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"unknown collection"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	err := c.Sync(context.Background(), "widgets", json.RawMessage(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestClient_FetchAllKeepsCollectionsRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/data", r.URL.Path)
		w.Write([]byte(`{"projects":[{"id":"p1"}],"stages":[],"users":null}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	doc, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1"}]`, string(doc["projects"]))
	assert.Equal(t, "null", string(doc["users"]))
}

func TestClient_CompletedEncodesFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/projects/completed", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("month"))
		assert.Equal(t, "2026", r.URL.Query().Get("year"))
		w.Write([]byte(`{"count":1,"projects":[{"id":"p1","name":"Rollout","status":"Completed"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	month, year := 3, 2026
	res, err := c.Completed(context.Background(), &month, &year)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "Completed", res.Projects[0].Status)
}

func TestClient_Evaluate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/projects/evaluate", r.URL.Path)
		w.Write([]byte(`{"evaluated":true,"updated":false,"projects":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())
	res, err := c.Evaluate(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Evaluated)
	assert.False(t, res.Updated)
}
