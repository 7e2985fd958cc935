package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"actuarialhub/internal/database"
)

// SettingRegistrationEnabled toggles self-service sign up
const SettingRegistrationEnabled = "registration_enabled"

// SettingsRepository stores key/value application settings
type SettingsRepository struct {
	db database.DBTX
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db database.DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSetting retrieves a setting value by key. Missing settings return "", false.
func (r *SettingsRepository) GetSetting(key string) (string, bool, error) {
	var value string
	err := r.db.Get(&value, "SELECT setting_value FROM settings WHERE setting_key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting updates or inserts a setting
func (r *SettingsRepository) SetSetting(key, value string) error {
	if _, err := r.db.Exec(r.db.GetDialect().UpsertSettingQuery(), key, value); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// IsRegistrationEnabled reports whether new accounts may sign up. Registration
// is open until an admin closes it.
func (r *SettingsRepository) IsRegistrationEnabled() bool {
	value, found, err := r.GetSetting(SettingRegistrationEnabled)
	if err != nil || !found {
		return true
	}
	return value != "false"
}

// SetRegistrationEnabled opens or closes registration
func (r *SettingsRepository) SetRegistrationEnabled(enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return r.SetSetting(SettingRegistrationEnabled, value)
}
