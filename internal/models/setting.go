package models

import (
	"encoding/json"
	"time"
)

// Well-known setting keys.
const (
	// SettingDefaultCommissionRate is the commission rate applied to profit
	// projections when a scheme has none configured.
	SettingDefaultCommissionRate = "default_commission_rate"
	// SettingReportCacheTTLSeconds controls how long report responses are cached.
	SettingReportCacheTTLSeconds = "report_cache_ttl_seconds"
)

// Setting stores a key/value configuration entry in the database.
type Setting struct {
	Key       string          `json:"key" gorm:"type:varchar(255);primaryKey"`                            // Configuration key.
	Value     json.RawMessage `json:"value" gorm:"type:jsonb"`                                            // JSON-encoded value.
	UpdatedAt time.Time       `json:"updatedAt" gorm:"not null;autoUpdateTime;default:CURRENT_TIMESTAMP"` // Last update timestamp.
}
