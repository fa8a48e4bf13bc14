package settings

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/chitworks/chitfund-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// fallbackCommissionRate applies when no commission rate is configured
// anywhere, matching the reporting default.
const fallbackCommissionRate = 0.05

var (
	mu        sync.RWMutex
	values    map[string]json.RawMessage
	updatedAt time.Time
)

// Refresh reloads all settings from the database into the in-memory snapshot.
//
// Required at process startup; otherwise Value() returns nothing until an
// admin updates settings via the API (which triggers a refresh).
func Refresh(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("settings: nil db")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var rows []models.Setting
	if errFind := db.WithContext(ctx).
		Select("key", "value", "updated_at").
		Order("key ASC").
		Find(&rows).Error; errFind != nil {
		return errFind
	}

	next := make(map[string]json.RawMessage, len(rows))
	maxUpdatedAt := time.Time{}
	for _, row := range rows {
		key := strings.TrimSpace(row.Key)
		if key == "" {
			continue
		}
		next[key] = row.Value
		if row.UpdatedAt.After(maxUpdatedAt) {
			maxUpdatedAt = row.UpdatedAt
		}
	}

	mu.Lock()
	values = next
	updatedAt = maxUpdatedAt
	mu.Unlock()
	return nil
}

// Value returns the raw JSON value for a setting key.
func Value(key string) (json.RawMessage, bool) {
	mu.RLock()
	defer mu.RUnlock()
	v, ok := values[key]
	return v, ok
}

// Float returns a numeric setting, or fallback when missing or malformed.
func Float(key string, fallback float64) float64 {
	raw, ok := Value(key)
	if !ok {
		return fallback
	}
	var f float64
	if errJSON := json.Unmarshal(raw, &f); errJSON != nil {
		return fallback
	}
	return f
}

// UpdatedAt returns the snapshot's most recent settings timestamp.
func UpdatedAt() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return updatedAt
}

// Set upserts a setting row and updates the snapshot.
func Set(ctx context.Context, db *gorm.DB, key string, value any) error {
	if db == nil {
		return errors.New("settings: nil db")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("settings: empty key")
	}
	raw, errJSON := json.Marshal(value)
	if errJSON != nil {
		return errJSON
	}

	row := models.Setting{Key: key, Value: raw, UpdatedAt: time.Now().UTC()}
	if errSave := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error; errSave != nil {
		return errSave
	}

	mu.Lock()
	if values == nil {
		values = make(map[string]json.RawMessage)
	}
	values[key] = raw
	if row.UpdatedAt.After(updatedAt) {
		updatedAt = row.UpdatedAt
	}
	mu.Unlock()
	return nil
}

// DefaultCommissionRate returns the configured default commission rate.
func DefaultCommissionRate() float64 {
	return Float(models.SettingDefaultCommissionRate, fallbackCommissionRate)
}
