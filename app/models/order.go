package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusFailed    = "FAILED"
	OrderStatusRefunded  = "REFUNDED"
)

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

const (
	PaymentMethodStripe = "stripe"
	PaymentMethodPayPal = "paypal"
)

const (
	OrderTypeTicket      = "ticket"
	OrderTypeMarketplace = "marketplace"
	OrderTypeFood        = "food"
)

// Order is a purchase record. The webhook subsystem mutates it only through
// the transition methods on the payments service, never by direct field writes
// from handlers. Amounts are integer minor-currency units.
type Order struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	PublicID              string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"public_id"`
	OrderType             string     `gorm:"type:varchar(20);not null;default:'ticket';index" json:"order_type" validate:"oneof=ticket marketplace food"`
	Status                string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status" validate:"oneof=PENDING COMPLETED FAILED REFUNDED"`
	PaymentStatus         string     `gorm:"type:varchar(20);not null;default:'PENDING'" json:"payment_status" validate:"oneof=PENDING PAID"`
	PaymentMethod         string     `gorm:"type:varchar(20)" json:"payment_method"`
	SubtotalAmount        int64      `gorm:"not null;default:0" json:"subtotal_amount"`
	FeeAmount             int64      `gorm:"not null;default:0" json:"fee_amount"`
	TotalAmount           int64      `gorm:"not null;default:0" json:"total_amount"`
	Currency              string     `gorm:"type:varchar(8);not null;default:'EUR'" json:"currency"`
	RefundedAmount        int64      `gorm:"not null;default:0" json:"refunded_amount"`
	FailureReason         string     `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	RefundReason          string     `gorm:"type:varchar(255)" json:"refund_reason,omitempty"`
	StripePaymentIntentID string     `gorm:"type:varchar(191);index" json:"stripe_payment_intent_id,omitempty"`
	PayPalOrderID         string     `gorm:"type:varchar(191);index" json:"paypal_order_id,omitempty"`
	PayPalCaptureID       string     `gorm:"type:varchar(191);index" json:"paypal_capture_id,omitempty"`
	BuyerEmail            string     `gorm:"type:varchar(200)" json:"buyer_email,omitempty"`
	VendorID              *uint      `gorm:"index" json:"vendor_id,omitempty"`
	OrganizerID           *uint      `gorm:"index" json:"organizer_id,omitempty"`
	CompletedAt           *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	RefundedAt            *time.Time `gorm:"type:timestamp;default:null" json:"refunded_at,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Order) Validate() error {
	v := validator.New()

	return v.Struct(o)
}

// IsTerminal reports whether no further status transition is allowed.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusFailed || o.Status == OrderStatusRefunded
}
