package client

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// SyncQueue pushes local mutations to the gateway and retains failed pushes
// for retry. Retries coalesce: one pending slot per collection key, holding
// only the most recent payload, because a whole-collection replace makes any
// older pending payload for the same key moot.
type SyncQueue struct {
	transport Transport
	log       *zap.Logger

	mu       sync.Mutex
	pending  map[string]json.RawMessage
	flushing bool
}

func NewSyncQueue(transport Transport, log *zap.Logger) *SyncQueue {
	return &SyncQueue{
		transport: transport,
		log:       log,
		pending:   make(map[string]json.RawMessage),
	}
}

// Push attempts to sync key immediately. On failure the payload is parked in
// the key's single retry slot (replacing any older pending payload) and Push
// reports false; the caller's local state is already updated and stands. On
// success any parked payloads are flushed too, on the assumption that
// connectivity is back.
func (q *SyncQueue) Push(ctx context.Context, key string, records json.RawMessage) bool {
	if err := q.transport.Sync(ctx, key, records); err != nil {
		q.mu.Lock()
		q.pending[key] = append(json.RawMessage(nil), records...)
		q.mu.Unlock()
		if q.log != nil {
			q.log.Sugar().Warnw("sync push failed, queued for retry", "key", key, "err", err)
		}
		return false
	}
	q.Flush(ctx)
	return true
}

// Flush drains the pending slots one key at a time. A flush already in
// progress is not re-entered, so retry storms cannot duplicate submissions.
// Draining stops at the first failure; whatever is still pending waits for
// the next trigger.
func (q *SyncQueue) Flush(ctx context.Context) {
	q.mu.Lock()
	if q.flushing || len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	q.flushing = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.flushing = false
		q.mu.Unlock()
	}()

	for {
		key, payload, ok := q.next()
		if !ok {
			return
		}
		if err := q.transport.Sync(ctx, key, payload); err != nil {
			if q.log != nil {
				q.log.Sugar().Warnw("flush stopped, will retry later", "key", key, "err", err)
			}
			return
		}
		q.clear(key, payload)
	}
}

// PendingLen returns how many payloads are parked for key — never more than
// one, by construction.
func (q *SyncQueue) PendingLen(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.pending[key]; ok {
		return 1
	}
	return 0
}

// PendingKeys lists collections awaiting retry, for degraded-mode messaging.
func (q *SyncQueue) PendingKeys() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	keys := make([]string, 0, len(q.pending))
	for k := range q.pending {
		keys = append(keys, k)
	}
	return keys
}

func (q *SyncQueue) next() (string, json.RawMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for k, v := range q.pending {
		return k, v, true
	}
	return "", nil, false
}

// clear removes the slot only if it still holds the payload that was sent;
// a newer payload coalesced in mid-flight must survive for the next drain.
func (q *SyncQueue) clear(key string, sent json.RawMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if cur, ok := q.pending[key]; ok && bytes.Equal(cur, sent) {
		delete(q.pending, key)
	}
}
