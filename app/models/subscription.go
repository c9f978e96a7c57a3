package models

import "time"

const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPastDue   = "past_due"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription mirrors a provider subscription for an organizer, compressed to
// the internal status vocabulary. Rows are never hard-deleted; cancellation is
// a status change.
type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	OrganizerID            uint       `gorm:"not null;index" json:"organizer_id"`
	Provider               string     `gorm:"type:varchar(20);not null;index:ux_subscriptions_provider_subid,unique,priority:1" json:"provider"`
	ProviderSubscriptionID string     `gorm:"type:varchar(191);not null;index:ux_subscriptions_provider_subid,unique,priority:2" json:"provider_subscription_id"`
	ProviderCustomerID     string     `gorm:"type:varchar(191);index" json:"provider_customer_id"`
	ProviderPriceID        string     `gorm:"type:varchar(191)" json:"provider_price_id"`
	Plan                   string     `gorm:"type:varchar(20);not null;default:'free'" json:"plan"`
	Status                 string     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	FailedAttempts         int        `gorm:"not null;default:0" json:"failed_attempts"`
	LastPaymentAmount      int64      `gorm:"not null;default:0" json:"last_payment_amount"`
	CurrentPeriodEnd       *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelledAt            *time.Time `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
