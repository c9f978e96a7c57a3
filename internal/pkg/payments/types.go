package payments

import "time"

const (
	ProviderStripe = "stripe"
	ProviderPayPal = "paypal"
)

// IntentKind is the closed set of domain intents a raw provider event can
// classify to. Everything the webhook pipeline does downstream dispatches on
// this kind, never on raw provider event types.
type IntentKind string

const (
	IntentPaymentSucceeded      IntentKind = "payment_succeeded"
	IntentPaymentFailed         IntentKind = "payment_failed"
	IntentPaymentRefunded       IntentKind = "payment_refunded"
	IntentCheckoutApproved      IntentKind = "checkout_approved"
	IntentDisputeOpened         IntentKind = "dispute_opened"
	IntentDisputeResolved       IntentKind = "dispute_resolved"
	IntentSubscriptionLifecycle IntentKind = "subscription_lifecycle"
	IntentAccountStatusChanged  IntentKind = "account_status_changed"
	IntentIgnored               IntentKind = "ignored"
)

// Dispute outcomes, provider spellings normalized.
const (
	DisputeOutcomeBuyerFavor  = "buyer_favor"
	DisputeOutcomeSellerFavor = "seller_favor"
	DisputeOutcomeOther       = "other"
)

// Purpose classifies what a payment was for. It is carried in the payment's
// metadata and selects the settlement branch; it is not inferable from the
// provider event type alone.
type Purpose string

const (
	PurposeTicketOrder      Purpose = "ticket_order"
	PurposeMarketplaceOrder Purpose = "marketplace_order"
	PurposeFoodOrder        Purpose = "food_order"
	PurposePlatformProduct  Purpose = "platform_product"
)

// PlatformProduct is the sub-type for PurposePlatformProduct payments.
type PlatformProduct string

const (
	ProductCredits        PlatformProduct = "credits"
	ProductSubscription   PlatformProduct = "subscription"
	ProductPromotion      PlatformProduct = "promotion"
	ProductPremiumFeature PlatformProduct = "premium_feature"
)

// Correlation links a provider event back to a domain order. Lookup is
// two-tier: the provider-native id first, then the metadata-embedded order
// reference for events that omit it.
type Correlation struct {
	StripePaymentIntentID string
	PayPalOrderID         string
	PayPalCaptureID       string
	OrderRef              string
}

// Empty reports whether no correlation key is usable at all.
func (c Correlation) Empty() bool {
	return c.StripePaymentIntentID == "" && c.PayPalOrderID == "" && c.PayPalCaptureID == "" && c.OrderRef == ""
}

// Metadata is the decoded payment metadata relevant to settlement dispatch.
// Unknown purpose tags are rejected at the decoding boundary.
type Metadata struct {
	Purpose              Purpose
	Product              PlatformProduct
	OrderRef             string
	OrganizerRef         string
	EventRef             string
	Plan                 string
	PromotionType        string
	PromotionDays        int
	Credits              int
	DebtSettlementAmount int64
}

// Intent is the provider-neutral result of classifying one webhook event.
// Which fields are populated depends on Kind.
type Intent struct {
	Kind      IntentKind
	Provider  string
	EventID   string
	EventType string

	Correlation Correlation
	Metadata    Metadata

	Amount   int64
	Currency string
	Reason   string

	// Dispute fields.
	DisputeID        string
	DisputeOutcome   string
	TransactionID    string
	ResponseDeadline *time.Time

	// Subscription fields.
	SubscriptionID string
	CustomerID     string
	PriceID        string
	ProviderStatus string
	BillingReason  string
	AttemptCount   int

	// Account fields.
	AccountID      string
	PayoutsEnabled bool
}
