package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/common"
	"github.com/akisuperprof-sketch/noteagent/internal/interfaces"
	"github.com/akisuperprof-sketch/noteagent/internal/models"
)

// FileSessionStore persists the authentication snapshot as a single JSON
// blob. An inline snapshot provided via environment variable takes
// precedence over the on-disk file to support stateless deployments.
type FileSessionStore struct {
	path   string
	envVar string
	logger arbor.ILogger
}

// NewFileSessionStore creates a session store backed by the configured path
func NewFileSessionStore(cfg *common.SessionConfig, logger arbor.ILogger) interfaces.SessionStore {
	return &FileSessionStore{
		path:   cfg.Path,
		envVar: cfg.EnvVar,
		logger: logger,
	}
}

// Load returns the persisted snapshot. A missing or corrupt snapshot is
// reported as absent (nil, nil) with a logged diagnostic - never an error,
// so callers fall back to a fresh login.
func (s *FileSessionStore) Load() (*models.Session, error) {
	if s.envVar != "" {
		if blob := os.Getenv(s.envVar); blob != "" {
			session, err := parseSession([]byte(blob))
			if err != nil {
				s.logger.Warn().Err(err).Str("env_var", s.envVar).Msg("Inline session blob unparseable, treating as absent")
				return nil, nil
			}
			s.logger.Debug().Str("env_var", s.envVar).Int("cookies", len(session.Cookies)).Msg("Session loaded from environment")
			return session, nil
		}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Session file unreadable, treating as absent")
		}
		return nil, nil
	}

	session, err := parseSession(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Session file corrupt, treating as absent")
		return nil, nil
	}

	s.logger.Debug().Str("path", s.path).Int("cookies", len(session.Cookies)).Msg("Session loaded from disk")
	return session, nil
}

// Save atomically overwrites the snapshot: write to a temp file in the
// same directory, then rename, so a crash mid-write cannot leave a
// truncated file behind.
func (s *FileSessionStore) Save(session *models.Session) error {
	if session == nil {
		return fmt.Errorf("cannot save nil session")
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close session file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	s.logger.Info().Str("path", s.path).Int("cookies", len(session.Cookies)).Msg("Session snapshot saved")
	return nil
}

// parseSession enforces the all-or-nothing contract: a snapshot that
// parses but carries no cookies is not a usable session.
func parseSession(data []byte) (*models.Session, error) {
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	if session.IsEmpty() {
		return nil, fmt.Errorf("session snapshot contains no cookies")
	}
	return &session, nil
}
