package models

import "time"

const (
	PromotionTypeFeatured  = "featured"
	PromotionTypeSpotlight = "spotlight"
	PromotionTypeBoost     = "boost"
)

// EventPromotion is a time-boxed visibility boost for an organizer's event,
// activated when a platform-product payment with a promotion purpose settles.
type EventPromotion struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OrganizerID   uint      `gorm:"not null;index" json:"organizer_id"`
	EventRef      string    `gorm:"type:varchar(64);index" json:"event_ref"`
	PromotionType string    `gorm:"type:varchar(20);not null" json:"promotion_type"`
	StartsAt      time.Time `gorm:"not null" json:"starts_at"`
	EndsAt        time.Time `gorm:"not null" json:"ends_at"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
