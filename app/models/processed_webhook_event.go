package models

import "time"

// ProcessedWebhookEvent is the dedup ledger: one row per (provider,
// provider_event_id) pair whose side effects have been applied. Rows are
// created once and never mutated or deleted.
type ProcessedWebhookEvent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Provider        string    `gorm:"type:varchar(20);not null;index:ux_processed_webhook_events_provider_event,unique,priority:1" json:"provider"`
	ProviderEventID string    `gorm:"type:varchar(191);not null;index:ux_processed_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType       string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	LinkedOrderID   *uint     `gorm:"index" json:"linked_order_id,omitempty"`
	ProcessedAt     time.Time `gorm:"autoCreateTime" json:"processed_at"`
}
