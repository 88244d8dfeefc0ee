package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stagetrack-io/stagetrack/internal/modules/model"
	"github.com/stagetrack-io/stagetrack/internal/pkg/evaluator"
)

var emptyArray = json.RawMessage("[]")

// Cache is the client-visible mirror of every collection. Reads never touch
// the network; writes are visible locally before they are confirmed durable.
type Cache struct {
	mu    sync.RWMutex
	data  map[string]json.RawMessage
	queue *SyncQueue
}

// NewCache creates a cache that pushes every Set to queue. queue may be nil
// for a read-only mirror.
func NewCache(queue *SyncQueue) *Cache {
	return &Cache{
		data:  make(map[string]json.RawMessage, len(model.CollectionKeys)),
		queue: queue,
	}
}

// Get returns the current array for key, or an empty array when the
// collection is absent. The returned slice is a copy.
func (c *Cache) Get(key string) json.RawMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	raw, ok := c.data[key]
	if !ok {
		return append(json.RawMessage(nil), emptyArray...)
	}
	return append(json.RawMessage(nil), raw...)
}

// Set replaces the client-visible array for key synchronously, then pushes
// the new value to the sync queue. The local update stands regardless of
// whether the push is acked.
func (c *Cache) Set(ctx context.Context, key string, records json.RawMessage) error {
	if !isArray(records) {
		return fmt.Errorf("collection %q: payload must be a JSON array", key)
	}
	stored := append(json.RawMessage(nil), records...)

	c.mu.Lock()
	c.data[key] = stored
	c.mu.Unlock()

	if c.queue != nil {
		c.queue.Push(ctx, key, stored)
	}
	return nil
}

// ApplyRemote reconciles the mirror with a fetched snapshot. Only keys that
// are present and array-typed in the response overwrite local collections;
// a partial response never clobbers a local collection with nothing.
func (c *Cache) ApplyRemote(doc map[string]json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, raw := range doc {
		if !isArray(raw) {
			continue
		}
		c.data[key] = append(json.RawMessage(nil), raw...)
	}
}

// Document decodes the mirrored collections into a typed document.
func (c *Cache) Document() (*model.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc := model.NewDocument()
	for _, key := range model.CollectionKeys {
		raw, ok := c.data[key]
		if !ok {
			continue
		}
		if err := doc.ReplaceCollection(key, raw); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Evaluate runs the shared derived-state pass over the mirror — the same
// code the server runs — and writes back any collection the pass changed,
// which also pushes those collections through the sync queue.
func (c *Cache) Evaluate(ctx context.Context, now time.Time) (evaluator.Result, error) {
	doc, err := c.Document()
	if err != nil {
		return evaluator.Result{}, err
	}

	res := evaluator.Evaluate(doc, now)
	if !res.Changed() {
		return res, nil
	}

	if res.StagesUpdated > 0 {
		if err := c.setTyped(ctx, model.KeyStages, doc.Stages); err != nil {
			return res, err
		}
	}
	if res.ProjectsUpdated > 0 {
		if err := c.setTyped(ctx, model.KeyProjects, doc.Projects); err != nil {
			return res, err
		}
	}
	if res.NotificationsCreated > 0 {
		if err := c.setTyped(ctx, model.KeyNotifications, doc.Notifications); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (c *Cache) setTyped(ctx context.Context, key string, records any) error {
	raw, err := sonic.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, raw)
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
