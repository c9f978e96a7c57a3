package models

import "time"

const (
	DisputeStatusOpen                = "OPEN"
	DisputeStatusResolvedBuyerFavor  = "RESOLVED_BUYER_FAVOR"
	DisputeStatusResolvedSellerFavor = "RESOLVED_SELLER_FAVOR"
	DisputeStatusResolvedOther       = "RESOLVED_OTHER"
)

// Dispute tracks a chargeback lifecycle independent of the linked order's own
// status. Creation and resolution are both idempotent keyed by the provider
// dispute id, because provider delivery is at-least-once.
type Dispute struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	Provider              string     `gorm:"type:varchar(20);not null;index:ux_disputes_provider_dispute,unique,priority:1" json:"provider"`
	ProviderDisputeID     string     `gorm:"type:varchar(191);not null;index:ux_disputes_provider_dispute,unique,priority:2" json:"provider_dispute_id"`
	ProviderTransactionID string     `gorm:"type:varchar(191);index" json:"provider_transaction_id,omitempty"`
	OrderID               *uint      `gorm:"index" json:"order_id,omitempty"`
	Reason                string     `gorm:"type:varchar(100)" json:"reason"`
	Amount                int64      `gorm:"not null;default:0" json:"amount"`
	Currency              string     `gorm:"type:varchar(8);not null;default:'EUR'" json:"currency"`
	Status                string     `gorm:"type:varchar(30);not null;default:'OPEN';index" json:"status"`
	ResponseDeadline      *time.Time `gorm:"type:timestamp;default:null" json:"response_deadline,omitempty"`
	ResolvedAt            *time.Time `gorm:"type:timestamp;default:null" json:"resolved_at,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsResolved reports whether the dispute reached a terminal outcome.
func (d *Dispute) IsResolved() bool {
	return d.Status != DisputeStatusOpen
}
