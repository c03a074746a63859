package models

import "time"

type RelayEventModel struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	RequestID  string `gorm:"index:idx_relay_events_request_id"`
	Method     string
	Path       string `gorm:"index:idx_relay_events_path"`
	StatusCode int
	DurationMs int64
	CartToken  string
	Error      string
	CreatedAt  time.Time `gorm:"index:idx_relay_events_created_at"`
}

func (RelayEventModel) TableName() string {
	return "relay_events"
}
