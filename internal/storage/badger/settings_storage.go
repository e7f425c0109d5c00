package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/akisuperprof-sketch/noteagent/internal/interfaces"
	"github.com/akisuperprof-sketch/noteagent/internal/models"
)

const settingsKey = "developer_settings"

// SettingsStorage implements the SettingsStorage interface for Badger
type SettingsStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSettingsStorage creates a new SettingsStorage instance
func NewSettingsStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SettingsStorage {
	return &SettingsStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SettingsStorage) LoadOverride(ctx context.Context) (*models.DeveloperSettings, error) {
	var settings models.DeveloperSettings
	if err := s.db.Store().Get(settingsKey, &settings); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load settings override: %w", err)
	}
	return &settings, nil
}

func (s *SettingsStorage) SaveOverride(ctx context.Context, settings *models.DeveloperSettings) error {
	if err := s.db.Store().Upsert(settingsKey, settings); err != nil {
		return fmt.Errorf("failed to save settings override: %w", err)
	}
	s.logger.Debug().Msg("Settings override persisted")
	return nil
}
