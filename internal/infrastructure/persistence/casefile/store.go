// Package casefile persists the case base as one JSON document. The whole
// collection is read at startup and rewritten on every retention; a mutex
// plus write-to-temp-then-rename keeps the file consistent even if two
// writers share the store.
package casefile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/convivio/convivio/internal/domain/menu"
	"go.uber.org/zap"
)

// Store implements outbound.CaseRepository over a single JSON file.
type Store struct {
	path   string
	logger *zap.Logger

	mu    sync.Mutex
	cases []*menu.MenuCase
}

// New opens the store, loading every snapshot. A missing file is an empty
// base, not an error.
func New(path string, logger *zap.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger.Named("case-store"),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.logger.Info("case base file absent, starting empty", zap.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read case base: %w", err)
	}

	var snapshots []menu.Snapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("parse case base: %w", err)
	}
	for _, snap := range snapshots {
		c, err := menu.FromSnapshot(snap)
		if err != nil {
			return nil, fmt.Errorf("restore case %s: %w", snap.ID, err)
		}
		s.cases = append(s.cases, c)
	}

	s.logger.Info("case base loaded",
		zap.String("path", path),
		zap.Int("cases", len(s.cases)),
	)
	return s, nil
}

// All returns every persisted case in ordinal order.
func (s *Store) All(_ context.Context) ([]*menu.MenuCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*menu.MenuCase(nil), s.cases...), nil
}

// NextOrdinal returns the sequential id the next retained case receives.
func (s *Store) NextOrdinal(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := 1
	for _, c := range s.cases {
		if c.Ordinal() >= next {
			next = c.Ordinal() + 1
		}
	}
	return next, nil
}

// Append adds the case and flushes the whole collection. Only evaluated
// cases are admitted; the case base never stores an open candidate.
func (s *Store) Append(ctx context.Context, c *menu.MenuCase) error {
	if c.Evaluation() == nil {
		return menu.ErrCaseNotEvaluated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cases = append(s.cases, c)
	if err := s.flush(); err != nil {
		s.cases = s.cases[:len(s.cases)-1]
		return err
	}
	s.logger.Info("case base flushed",
		zap.String("case_id", c.ID().String()),
		zap.Int("cases", len(s.cases)),
	)
	return nil
}

// flush writes every snapshot to a temp file and atomically replaces the
// store file. Caller holds the lock.
func (s *Store) flush() error {
	snapshots := make([]menu.Snapshot, len(s.cases))
	for i, c := range s.cases {
		snapshots[i] = c.Snapshot()
	}
	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return fmt.Errorf("encode case base: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create case base dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".casebase-*.json")
	if err != nil {
		return fmt.Errorf("create temp case base: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write case base: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close case base: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace case base: %w", err)
	}
	return nil
}
