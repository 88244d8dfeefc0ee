package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Replica wires the cache and the sync queue to one gateway and owns the
// bulk re-fetch path.
type Replica struct {
	Cache *Cache
	Queue *SyncQueue

	transport   Transport
	log         *zap.Logger
	maxRetries  int
	backoffBase time.Duration
}

// ReplicaOption customizes fetch retry behaviour.
type ReplicaOption func(*Replica)

// WithFetchRetries bounds the number of FetchAll retries after the first
// attempt.
func WithFetchRetries(n int) ReplicaOption {
	return func(r *Replica) { r.maxRetries = n }
}

// WithFetchBackoffBase sets the first retry delay; each subsequent retry
// doubles it.
func WithFetchBackoffBase(d time.Duration) ReplicaOption {
	return func(r *Replica) { r.backoffBase = d }
}

// NewReplica builds the local mirror: cache backed by a sync queue over the
// given transport.
func NewReplica(transport Transport, log *zap.Logger, opts ...ReplicaOption) *Replica {
	queue := NewSyncQueue(transport, log)
	r := &Replica{
		Cache:       NewCache(queue),
		Queue:       queue,
		transport:   transport,
		log:         log,
		maxRetries:  5,
		backoffBase: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchAll pulls the whole-store snapshot, retrying transient failures with
// exponential backoff up to the bounded retry count. On success the snapshot
// overwrites local collections (only keys present and array-typed in the
// response) and the pending queue is flushed — a successful fetch means
// connectivity is back. On final failure the cache keeps its last known
// state and the error is returned for the caller's degraded-mode messaging.
func (r *Replica) FetchAll(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.backoffBase
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	var snapshot map[string]json.RawMessage
	op := func() error {
		doc, err := r.transport.FetchAll(ctx)
		if err != nil {
			if r.log != nil {
				r.log.Sugar().Warnw("fetch all failed, backing off", "err", err)
			}
			return err
		}
		snapshot = doc
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(r.maxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("fetch all: %w", err)
	}

	r.Cache.ApplyRemote(snapshot)
	r.Queue.Flush(ctx)
	return nil
}
