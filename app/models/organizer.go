package models

import "time"

// Organizer runs events on the platform. TicketCreditBalance is a prepaid
// allowance topped up via the CREDITS platform product. OutstandingDebt is
// what the organizer still owes the platform; it is reduced by settlement
// entries deducted from new ticket sales.
type Organizer struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Name                string    `gorm:"type:varchar(150);not null" json:"name"`
	Email               string    `gorm:"type:varchar(200);uniqueIndex" json:"email"`
	StripeAccountID     string    `gorm:"type:varchar(191);index" json:"stripe_account_id,omitempty"`
	PayoutsEnabled      bool      `gorm:"default:false" json:"payouts_enabled"`
	TicketCreditBalance int       `gorm:"not null;default:0" json:"ticket_credit_balance"`
	OutstandingDebt     int64     `gorm:"not null;default:0" json:"outstanding_debt"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PlatformDebtSettlement records a debt repayment auto-deducted from the
// proceeds of a new transaction. Append-only.
type PlatformDebtSettlement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrganizerID uint      `gorm:"not null;index" json:"organizer_id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Currency    string    `gorm:"type:varchar(8);not null;default:'EUR'" json:"currency"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
