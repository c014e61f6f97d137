package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/psibatch/psibatch/internal/audit"
)

// Store persists RunState as a single JSON file. Exactly one run writes
// it at a time; concurrent invocations are an operational hazard the
// store does not detect.
type Store struct {
	path   string
	clock  audit.Clock
	logger *zap.Logger
}

// NewStore builds a Store for the given file path.
func NewStore(path string, clock audit.Clock, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, clock: clock, logger: logger}
}

// Load reads prior progress from disk. It fails soft: a missing,
// unreadable or corrupt file yields an empty state, never an error.
func (s *Store) Load() *RunState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("no state file, starting fresh", zap.String("path", s.path))
		} else {
			s.logger.Warn("state file unreadable, starting fresh",
				zap.String("path", s.path), zap.Error(err))
		}
		return NewRunState()
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("state file corrupt, starting fresh",
			zap.String("path", s.path), zap.Error(err))
		return NewRunState()
	}

	st := fromDocument(doc)
	s.logger.Info("state loaded",
		zap.String("path", s.path),
		zap.Int("processed", st.ProcessedCount()),
		zap.Int("results", len(st.results)),
	)
	return st
}

// Save serializes the state to disk, creating the parent directory if
// needed. The write goes through a temp file and rename so a crash
// never leaves a half-written state behind.
func (s *Store) Save(st *RunState) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state dir %s: %w", dir, err)
	}

	doc := st.toDocument(s.clock.Now())
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write state %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename state %s: %w", s.path, err)
	}
	st.lastUpdated = doc.LastUpdated
	return nil
}
