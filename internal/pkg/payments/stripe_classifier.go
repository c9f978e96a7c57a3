package payments

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// stripeEnvelope is the minimal slice of a Stripe event we consume. The
// payload object is kept raw and decoded per event family.
type stripeEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripePaymentIntent struct {
	ID               string            `json:"id"`
	Amount           int64             `json:"amount"`
	AmountReceived   int64             `json:"amount_received"`
	Currency         string            `json:"currency"`
	Metadata         map[string]string `json:"metadata"`
	LastPaymentError *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"last_payment_error"`
}

type stripeCharge struct {
	ID             string            `json:"id"`
	PaymentIntent  string            `json:"payment_intent"`
	Amount         int64             `json:"amount"`
	AmountRefunded int64             `json:"amount_refunded"`
	Currency       string            `json:"currency"`
	Metadata       map[string]string `json:"metadata"`
	Refunds        struct {
		Data []struct {
			Reason string `json:"reason"`
		} `json:"data"`
	} `json:"refunds"`
}

type stripeDispute struct {
	ID              string `json:"id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Reason          string `json:"reason"`
	Status          string `json:"status"`
	Charge          string `json:"charge"`
	PaymentIntent   string `json:"payment_intent"`
	EvidenceDetails struct {
		DueBy int64 `json:"due_by"`
	} `json:"evidence_details"`
}

type stripeSubscription struct {
	ID       string            `json:"id"`
	Customer string            `json:"customer"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	CurrentPeriodEnd int64 `json:"current_period_end"`
}

type stripeInvoice struct {
	ID            string `json:"id"`
	Subscription  string `json:"subscription"`
	Customer      string `json:"customer"`
	BillingReason string `json:"billing_reason"`
	AmountPaid    int64  `json:"amount_paid"`
	AmountDue     int64  `json:"amount_due"`
	AttemptCount  int    `json:"attempt_count"`
	Currency      string `json:"currency"`
}

type stripeAccount struct {
	ID             string `json:"id"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
	ChargesEnabled bool   `json:"charges_enabled"`
}

// ClassifyStripeEvent maps a raw Stripe event onto a domain intent. Unknown
// event types and undecodable metadata classify to Ignored; classification
// never mutates state.
func ClassifyStripeEvent(raw []byte) (Intent, error) {
	var envelope stripeEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Intent{}, fmt.Errorf("malformed stripe event: %w", err)
	}
	if strings.TrimSpace(envelope.ID) == "" || strings.TrimSpace(envelope.Type) == "" {
		return Intent{}, fmt.Errorf("stripe event missing id or type")
	}

	intent := Intent{
		Kind:      IntentIgnored,
		Provider:  ProviderStripe,
		EventID:   envelope.ID,
		EventType: envelope.Type,
	}

	switch envelope.Type {
	case "payment_intent.succeeded":
		var pi stripePaymentIntent
		if err := json.Unmarshal(envelope.Data.Object, &pi); err != nil {
			return Intent{}, fmt.Errorf("malformed payment_intent payload: %w", err)
		}
		md, err := decodeMetadata(pi.Metadata)
		if err != nil {
			fiberlog.Warnf("[StripeWebhook] event %s: %v, ignoring", envelope.ID, err)
			return intent, nil
		}
		intent.Kind = IntentPaymentSucceeded
		intent.Correlation = Correlation{StripePaymentIntentID: pi.ID, OrderRef: md.OrderRef}
		intent.Metadata = md
		intent.Amount = pi.AmountReceived
		if intent.Amount == 0 {
			intent.Amount = pi.Amount
		}
		intent.Currency = strings.ToUpper(pi.Currency)

	case "payment_intent.payment_failed":
		var pi stripePaymentIntent
		if err := json.Unmarshal(envelope.Data.Object, &pi); err != nil {
			return Intent{}, fmt.Errorf("malformed payment_intent payload: %w", err)
		}
		intent.Kind = IntentPaymentFailed
		intent.Correlation = Correlation{StripePaymentIntentID: pi.ID, OrderRef: strings.TrimSpace(pi.Metadata["order_id"])}
		intent.Reason = "payment failed"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Message != "" {
			intent.Reason = pi.LastPaymentError.Message
		}

	case "charge.refunded":
		var ch stripeCharge
		if err := json.Unmarshal(envelope.Data.Object, &ch); err != nil {
			return Intent{}, fmt.Errorf("malformed charge payload: %w", err)
		}
		intent.Kind = IntentPaymentRefunded
		intent.Correlation = Correlation{StripePaymentIntentID: ch.PaymentIntent, OrderRef: strings.TrimSpace(ch.Metadata["order_id"])}
		intent.Amount = ch.AmountRefunded
		intent.Currency = strings.ToUpper(ch.Currency)
		if len(ch.Refunds.Data) > 0 {
			intent.Reason = ch.Refunds.Data[0].Reason
		}

	case "charge.dispute.created":
		var dp stripeDispute
		if err := json.Unmarshal(envelope.Data.Object, &dp); err != nil {
			return Intent{}, fmt.Errorf("malformed dispute payload: %w", err)
		}
		intent.Kind = IntentDisputeOpened
		intent.DisputeID = dp.ID
		intent.TransactionID = dp.Charge
		intent.Correlation = Correlation{StripePaymentIntentID: dp.PaymentIntent}
		intent.Amount = dp.Amount
		intent.Currency = strings.ToUpper(dp.Currency)
		intent.Reason = dp.Reason
		if dp.EvidenceDetails.DueBy > 0 {
			deadline := time.Unix(dp.EvidenceDetails.DueBy, 0).UTC()
			intent.ResponseDeadline = &deadline
		}

	case "charge.dispute.closed":
		var dp stripeDispute
		if err := json.Unmarshal(envelope.Data.Object, &dp); err != nil {
			return Intent{}, fmt.Errorf("malformed dispute payload: %w", err)
		}
		intent.Kind = IntentDisputeResolved
		intent.DisputeID = dp.ID
		intent.DisputeOutcome = stripeDisputeOutcome(dp.Status)

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripeSubscription
		if err := json.Unmarshal(envelope.Data.Object, &sub); err != nil {
			return Intent{}, fmt.Errorf("malformed subscription payload: %w", err)
		}
		intent.Kind = IntentSubscriptionLifecycle
		intent.SubscriptionID = sub.ID
		intent.CustomerID = sub.Customer
		intent.ProviderStatus = sub.Status
		if envelope.Type == "customer.subscription.deleted" {
			intent.ProviderStatus = "deleted"
		}
		intent.Metadata.Plan = strings.TrimSpace(sub.Metadata["plan"])
		intent.Metadata.OrganizerRef = strings.TrimSpace(sub.Metadata["organizer_id"])
		if len(sub.Items.Data) > 0 {
			intent.PriceID = sub.Items.Data[0].Price.ID
		}

	case "invoice.paid":
		var inv stripeInvoice
		if err := json.Unmarshal(envelope.Data.Object, &inv); err != nil {
			return Intent{}, fmt.Errorf("malformed invoice payload: %w", err)
		}
		if strings.TrimSpace(inv.Subscription) == "" {
			// One-off invoices carry no subscription to re-affirm.
			return intent, nil
		}
		intent.Kind = IntentSubscriptionLifecycle
		intent.SubscriptionID = inv.Subscription
		intent.CustomerID = inv.Customer
		intent.ProviderStatus = "active"
		intent.BillingReason = inv.BillingReason
		intent.Amount = inv.AmountPaid
		intent.Currency = strings.ToUpper(inv.Currency)

	case "invoice.payment_failed":
		var inv stripeInvoice
		if err := json.Unmarshal(envelope.Data.Object, &inv); err != nil {
			return Intent{}, fmt.Errorf("malformed invoice payload: %w", err)
		}
		if strings.TrimSpace(inv.Subscription) == "" {
			return intent, nil
		}
		intent.Kind = IntentSubscriptionLifecycle
		intent.SubscriptionID = inv.Subscription
		intent.CustomerID = inv.Customer
		intent.ProviderStatus = "past_due"
		intent.BillingReason = inv.BillingReason
		intent.AttemptCount = inv.AttemptCount
		intent.Amount = inv.AmountDue

	case "checkout.session.completed":
		// Informational: the money event arrives as payment_intent.succeeded.
		intent.Kind = IntentCheckoutApproved

	case "account.updated":
		var acc stripeAccount
		if err := json.Unmarshal(envelope.Data.Object, &acc); err != nil {
			return Intent{}, fmt.Errorf("malformed account payload: %w", err)
		}
		intent.Kind = IntentAccountStatusChanged
		intent.AccountID = acc.ID
		intent.PayoutsEnabled = acc.PayoutsEnabled && acc.ChargesEnabled
	}

	return intent, nil
}

func stripeDisputeOutcome(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "won":
		return DisputeOutcomeSellerFavor
	case "lost":
		return DisputeOutcomeBuyerFavor
	default:
		return DisputeOutcomeOther
	}
}
