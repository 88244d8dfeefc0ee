package store

import (
	"context"
	"errors"
	"sync"

	"github.com/stagetrack-io/stagetrack/internal/modules/model"
	"go.uber.org/zap"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("write serializer closed")

// Mutation edits the document in place. Returning an error abandons the
// write; the document on disk is left as it was.
type Mutation func(doc *model.Document) error

type job struct {
	mutate Mutation
	result chan error
}

// WriteSerializer applies mutations to the store strictly one at a time, in
// enqueue order. Every write replaces the entire document, so two unserialized
// writers would race and silently drop one side's update; funneling every
// mutation through a single goroutine removes that interleaving entirely.
//
// A failed mutation or write fails only its own caller; queued mutations
// behind it still run.
type WriteSerializer struct {
	store DocumentStore
	log   *zap.Logger

	mu     sync.Mutex
	closed bool
	jobs   chan job
	done   chan struct{}
}

func NewWriteSerializer(store DocumentStore, log *zap.Logger) *WriteSerializer {
	w := &WriteSerializer{
		store: store,
		log:   log,
		jobs:  make(chan job, 64),
		done:  make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *WriteSerializer) loop() {
	defer close(w.done)
	for j := range w.jobs {
		j.result <- w.apply(j.mutate)
	}
}

func (w *WriteSerializer) apply(mutate Mutation) error {
	doc, err := w.store.Read()
	if err != nil {
		w.log.Sugar().Errorw("serializer read failed", "err", err)
		return err
	}
	if err := mutate(doc); err != nil {
		return err
	}
	if err := w.store.Write(doc); err != nil {
		w.log.Sugar().Errorw("serializer write failed", "err", err)
		return err
	}
	return nil
}

// Enqueue submits a mutation and blocks until its effect is durably
// persisted (or until it fails, or ctx is done). FIFO across callers.
//
// If ctx expires while the mutation is queued or running, the mutation may
// still persist; only the wait is abandoned.
func (w *WriteSerializer) Enqueue(ctx context.Context, mutate Mutation) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	// The lock is held across the send: Close cannot close the channel
	// under a blocked sender, and the loop keeps draining regardless.
	j := job{mutate: mutate, result: make(chan error, 1)}
	select {
	case w.jobs <- j:
		w.mu.Unlock()
	case <-ctx.Done():
		w.mu.Unlock()
		return ctx.Err()
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting mutations and waits for the queue to drain.
func (w *WriteSerializer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()
	<-w.done
}
