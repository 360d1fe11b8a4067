package entity

import "time"

// WebhookEvent records gateway events that were already applied.
type WebhookEvent struct {
	EventID     string    `gorm:"primaryKey;size:128" json:"eventId"`
	EventType   string    `gorm:"size:64;index" json:"eventType"`
	ProcessedAt time.Time `json:"processedAt"`
}
