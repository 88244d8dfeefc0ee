// Package store owns the canonical tracker document: a single pretty-printed
// JSON file replaced whole on every write, plus the serializer that keeps
// concurrent writers from interleaving those whole-file replacements.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/stagetrack-io/stagetrack/internal/modules/model"
	"github.com/stagetrack-io/stagetrack/internal/pkg/policy"
	"github.com/stagetrack-io/stagetrack/internal/telemetry"
	"go.uber.org/zap"
)

// DocumentStore is the durable-store contract: read the full document,
// or replace it whole. Persistence is all-or-nothing per write.
type DocumentStore interface {
	Read() (*model.Document, error)
	Write(doc *model.Document) error
}

// FileStore keeps the document in one JSON file on disk.
type FileStore struct {
	path string
	pol  policy.Policy
	log  *zap.Logger
}

// NewFileStore opens the store at path, creating an empty-collections
// document when the file is absent so the store answers queries immediately
// after process start.
func NewFileStore(path string, pol policy.Policy, log *zap.Logger) (*FileStore, error) {
	s := &FileStore{path: path, pol: pol, log: log}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
		}
		if err := s.Write(model.NewDocument()); err != nil {
			return nil, fmt.Errorf("initialize store: %w", err)
		}
		log.Sugar().Infow("initialized empty document store", "path", path)
	} else if err != nil {
		return nil, fmt.Errorf("stat store: %w", err)
	}
	return s, nil
}

// Read loads and decodes the full document. On failure no in-memory state
// is produced, so a corrupt or unreadable file can never propagate an empty
// document into callers.
func (s *FileStore) Read() (*model.Document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	doc := model.NewDocument()
	if err := sonic.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode store: %w", err)
	}
	// Role invariant holds on every load, wherever the file came from.
	s.pol.EnforceRoles(doc.Users)
	return doc, nil
}

// Write serializes the whole document, pretty-printed, and replaces the
// prior file content.
func (s *FileStore) Write(doc *model.Document) error {
	raw, err := sonic.MarshalIndent(doc, "", "  ")
	if err != nil {
		telemetry.StoreWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("encode store: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		telemetry.StoreWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("write store: %w", err)
	}
	telemetry.StoreWrites.WithLabelValues("ok").Inc()
	return nil
}

// Raw returns the file bytes as persisted, for whole-store snapshots.
func (s *FileStore) Raw() ([]byte, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	return raw, nil
}
