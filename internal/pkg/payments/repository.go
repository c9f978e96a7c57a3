package payments

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventra/eventra/app/models"
)

// Repository provides the DB operations used by the payments service. All
// idempotent inserts lean on unique indexes plus OnConflict-DoNothing so
// concurrent duplicate deliveries race safely inside the store.
type Repository interface {
	// Dedup ledger.
	IsEventProcessed(provider, eventID string) (bool, error)
	MarkEventProcessed(event *models.ProcessedWebhookEvent) (bool, error)
	GetProcessedEvent(provider, eventID string) (*models.ProcessedWebhookEvent, error)

	// Orders.
	FindOrderByStripePaymentIntentID(id string) (*models.Order, error)
	FindOrderByPayPalOrderID(id string) (*models.Order, error)
	FindOrderByPayPalCaptureID(id string) (*models.Order, error)
	FindOrderByPublicID(publicID string) (*models.Order, error)
	SaveOrder(order *models.Order) error

	// Subscriptions.
	FindSubscriptionByProviderID(provider, subscriptionID string) (*models.Subscription, error)
	UpsertSubscription(sub *models.Subscription) error

	// Disputes.
	CreateDisputeIfAbsent(dispute *models.Dispute) (bool, *models.Dispute, error)
	GetDispute(provider, disputeID string) (*models.Dispute, error)
	SaveDispute(dispute *models.Dispute) error

	// Settlement side effects.
	GetVendor(id uint) (*models.Vendor, error)
	CreateVendorEarning(earning *models.VendorEarning) error
	AddVendorSale(vendorID uint, grossAmount int64) error
	GetOrganizer(id uint) (*models.Organizer, error)
	GetOrganizerByStripeAccountID(accountID string) (*models.Organizer, error)
	SaveOrganizer(organizer *models.Organizer) error
	CreatePlatformDebtSettlement(settlement *models.PlatformDebtSettlement) error
	AddTicketCredits(organizerID uint, credits int) error
	CreateEventPromotion(promotion *models.EventPromotion) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payments repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) IsEventProcessed(provider, eventID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ProcessedWebhookEvent{}).
		Where("provider = ? AND provider_event_id = ?", provider, eventID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) MarkEventProcessed(event *models.ProcessedWebhookEvent) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) GetProcessedEvent(provider, eventID string) (*models.ProcessedWebhookEvent, error) {
	var event models.ProcessedWebhookEvent
	err := r.db.Where("provider = ? AND provider_event_id = ?", provider, eventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *gormRepository) FindOrderByStripePaymentIntentID(id string) (*models.Order, error) {
	return r.findOrder("stripe_payment_intent_id = ?", id)
}

func (r *gormRepository) FindOrderByPayPalOrderID(id string) (*models.Order, error) {
	return r.findOrder("pay_pal_order_id = ?", id)
}

func (r *gormRepository) FindOrderByPayPalCaptureID(id string) (*models.Order, error) {
	return r.findOrder("pay_pal_capture_id = ?", id)
}

func (r *gormRepository) FindOrderByPublicID(publicID string) (*models.Order, error) {
	return r.findOrder("public_id = ?", publicID)
}

func (r *gormRepository) findOrder(query string, arg string) (*models.Order, error) {
	var order models.Order
	err := r.db.Where(query, arg).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) SaveOrder(order *models.Order) error {
	return r.db.Save(order).Error
}

func (r *gormRepository) FindSubscriptionByProviderID(provider, subscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("provider = ? AND provider_subscription_id = ?", provider, subscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) UpsertSubscription(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_subscription_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"organizer_id",
			"provider_customer_id",
			"provider_price_id",
			"plan",
			"status",
			"failed_attempts",
			"last_payment_amount",
			"current_period_end",
			"cancelled_at",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("provider = ? AND provider_subscription_id = ?", sub.Provider, sub.ProviderSubscriptionID).
		First(sub).Error
}

func (r *gormRepository) CreateDisputeIfAbsent(dispute *models.Dispute) (bool, *models.Dispute, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_dispute_id"},
		},
		DoNothing: true,
	}).Create(dispute)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.Dispute
	if err := r.db.Where("provider = ? AND provider_dispute_id = ?", dispute.Provider, dispute.ProviderDisputeID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) GetDispute(provider, disputeID string) (*models.Dispute, error) {
	var dispute models.Dispute
	err := r.db.Where("provider = ? AND provider_dispute_id = ?", provider, disputeID).First(&dispute).Error
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *gormRepository) SaveDispute(dispute *models.Dispute) error {
	return r.db.Save(dispute).Error
}

func (r *gormRepository) GetVendor(id uint) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.First(&vendor, id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *gormRepository) CreateVendorEarning(earning *models.VendorEarning) error {
	return r.db.Create(earning).Error
}

func (r *gormRepository) AddVendorSale(vendorID uint, grossAmount int64) error {
	return r.db.Model(&models.Vendor{}).Where("id = ?", vendorID).Updates(map[string]interface{}{
		"sales_count":  gorm.Expr("sales_count + 1"),
		"gross_volume": gorm.Expr("gross_volume + ?", grossAmount),
	}).Error
}

func (r *gormRepository) GetOrganizer(id uint) (*models.Organizer, error) {
	var organizer models.Organizer
	if err := r.db.First(&organizer, id).Error; err != nil {
		return nil, err
	}
	return &organizer, nil
}

func (r *gormRepository) GetOrganizerByStripeAccountID(accountID string) (*models.Organizer, error) {
	var organizer models.Organizer
	if err := r.db.Where("stripe_account_id = ?", accountID).First(&organizer).Error; err != nil {
		return nil, err
	}
	return &organizer, nil
}

func (r *gormRepository) SaveOrganizer(organizer *models.Organizer) error {
	return r.db.Save(organizer).Error
}

func (r *gormRepository) CreatePlatformDebtSettlement(settlement *models.PlatformDebtSettlement) error {
	return r.db.Create(settlement).Error
}

func (r *gormRepository) AddTicketCredits(organizerID uint, credits int) error {
	return r.db.Model(&models.Organizer{}).Where("id = ?", organizerID).
		Update("ticket_credit_balance", gorm.Expr("ticket_credit_balance + ?", credits)).Error
}

func (r *gormRepository) CreateEventPromotion(promotion *models.EventPromotion) error {
	return r.db.Create(promotion).Error
}
