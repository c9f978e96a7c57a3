package models

import "time"

// Vendor is a marketplace seller. CommissionRateBps is the platform commission
// in basis points (e.g. 1000 = 10%). SalesCount and GrossVolume are rolling
// stats updated by the settlement reconciler.
type Vendor struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"type:varchar(150);not null" json:"name"`
	Email             string    `gorm:"type:varchar(200)" json:"email"`
	CommissionRateBps int       `gorm:"not null;default:1000" json:"commission_rate_bps"`
	SalesCount        int64     `gorm:"not null;default:0" json:"sales_count"`
	GrossVolume       int64     `gorm:"not null;default:0" json:"gross_volume"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// VendorEarning is an append-only payout record derived from a paid
// marketplace order. Never mutated after creation, only superseded.
type VendorEarning struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	VendorID         uint      `gorm:"not null;index" json:"vendor_id"`
	OrderID          uint      `gorm:"not null;index" json:"order_id"`
	GrossAmount      int64     `gorm:"not null" json:"gross_amount"`
	CommissionAmount int64     `gorm:"not null" json:"commission_amount"`
	NetAmount        int64     `gorm:"not null" json:"net_amount"`
	Currency         string    `gorm:"type:varchar(8);not null;default:'EUR'" json:"currency"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}
