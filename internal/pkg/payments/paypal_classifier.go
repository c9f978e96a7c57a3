package payments

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

type paypalEnvelope struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	ResourceType string          `json:"resource_type"`
	Resource     json.RawMessage `json:"resource"`
}

type paypalAmount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

type paypalCapture struct {
	ID                string       `json:"id"`
	Status            string       `json:"status"`
	Amount            paypalAmount `json:"amount"`
	CustomID          string       `json:"custom_id"`
	InvoiceID         string       `json:"invoice_id"`
	StatusDetails     struct {
		Reason string `json:"reason"`
	} `json:"status_details"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

type paypalRefund struct {
	ID                string       `json:"id"`
	Amount            paypalAmount `json:"amount"`
	CustomID          string       `json:"custom_id"`
	NoteToPayer       string       `json:"note_to_payer"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

type paypalDispute struct {
	DisputeID             string       `json:"dispute_id"`
	Reason                string       `json:"reason"`
	Status                string       `json:"status"`
	DisputeAmount         paypalAmount `json:"dispute_amount"`
	SellerResponseDueDate string       `json:"seller_response_due_date"`
	DisputeOutcome        struct {
		OutcomeCode string `json:"outcome_code"`
	} `json:"dispute_outcome"`
	DisputedTransactions []struct {
		SellerTransactionID string `json:"seller_transaction_id"`
	} `json:"disputed_transactions"`
}

type paypalSubscription struct {
	ID          string `json:"id"`
	PlanID      string `json:"plan_id"`
	Status      string `json:"status"`
	CustomID    string `json:"custom_id"`
	Subscriber  struct {
		PayerID string `json:"payer_id"`
	} `json:"subscriber"`
	BillingInfo struct {
		FailedPaymentsCount int `json:"failed_payments_count"`
	} `json:"billing_info"`
}

// ClassifyPayPalEvent maps a raw PayPal event onto a domain intent. Unknown
// event types classify to Ignored.
func ClassifyPayPalEvent(raw []byte) (Intent, error) {
	var envelope paypalEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Intent{}, fmt.Errorf("malformed paypal event: %w", err)
	}
	if strings.TrimSpace(envelope.ID) == "" || strings.TrimSpace(envelope.EventType) == "" {
		return Intent{}, fmt.Errorf("paypal event missing id or event_type")
	}

	intent := Intent{
		Kind:      IntentIgnored,
		Provider:  ProviderPayPal,
		EventID:   envelope.ID,
		EventType: envelope.EventType,
	}

	switch envelope.EventType {
	case "PAYMENT.CAPTURE.COMPLETED":
		var cap paypalCapture
		if err := json.Unmarshal(envelope.Resource, &cap); err != nil {
			return Intent{}, fmt.Errorf("malformed capture payload: %w", err)
		}
		md, err := decodeCustomID(cap.CustomID)
		if err != nil {
			fiberlog.Warnf("[PayPalWebhook] event %s: %v, ignoring", envelope.ID, err)
			return intent, nil
		}
		amount, err := ParseMinorUnits(cap.Amount.Value)
		if err != nil {
			return Intent{}, fmt.Errorf("capture %s: %w", cap.ID, err)
		}
		intent.Kind = IntentPaymentSucceeded
		intent.Correlation = Correlation{
			PayPalOrderID:   cap.SupplementaryData.RelatedIDs.OrderID,
			PayPalCaptureID: cap.ID,
			OrderRef:        md.OrderRef,
		}
		intent.Metadata = md
		intent.Amount = amount
		intent.Currency = strings.ToUpper(cap.Amount.CurrencyCode)

	case "PAYMENT.CAPTURE.DENIED":
		var cap paypalCapture
		if err := json.Unmarshal(envelope.Resource, &cap); err != nil {
			return Intent{}, fmt.Errorf("malformed capture payload: %w", err)
		}
		md, _ := decodeCustomID(cap.CustomID)
		intent.Kind = IntentPaymentFailed
		intent.Correlation = Correlation{
			PayPalOrderID:   cap.SupplementaryData.RelatedIDs.OrderID,
			PayPalCaptureID: cap.ID,
			OrderRef:        md.OrderRef,
		}
		intent.Reason = cap.StatusDetails.Reason
		if intent.Reason == "" {
			intent.Reason = "capture denied"
		}

	case "PAYMENT.CAPTURE.REFUNDED":
		var ref paypalRefund
		if err := json.Unmarshal(envelope.Resource, &ref); err != nil {
			return Intent{}, fmt.Errorf("malformed refund payload: %w", err)
		}
		// Refund resources frequently omit the related order id; the
		// custom_id metadata is the fallback correlation tier.
		md, _ := decodeCustomID(ref.CustomID)
		amount, err := ParseMinorUnits(ref.Amount.Value)
		if err != nil {
			return Intent{}, fmt.Errorf("refund %s: %w", ref.ID, err)
		}
		intent.Kind = IntentPaymentRefunded
		intent.Correlation = Correlation{
			PayPalOrderID: ref.SupplementaryData.RelatedIDs.OrderID,
			OrderRef:      md.OrderRef,
		}
		intent.Amount = amount
		intent.Currency = strings.ToUpper(ref.Amount.CurrencyCode)
		intent.Reason = ref.NoteToPayer

	case "CHECKOUT.ORDER.APPROVED":
		var res struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(envelope.Resource, &res); err != nil {
			return Intent{}, fmt.Errorf("malformed order payload: %w", err)
		}
		// Informational only: capture completion carries the money event.
		intent.Kind = IntentCheckoutApproved
		intent.Correlation = Correlation{PayPalOrderID: res.ID}

	case "CUSTOMER.DISPUTE.CREATED":
		var dp paypalDispute
		if err := json.Unmarshal(envelope.Resource, &dp); err != nil {
			return Intent{}, fmt.Errorf("malformed dispute payload: %w", err)
		}
		amount, err := ParseMinorUnits(dp.DisputeAmount.Value)
		if err != nil {
			return Intent{}, fmt.Errorf("dispute %s: %w", dp.DisputeID, err)
		}
		intent.Kind = IntentDisputeOpened
		intent.DisputeID = dp.DisputeID
		intent.Amount = amount
		intent.Currency = strings.ToUpper(dp.DisputeAmount.CurrencyCode)
		intent.Reason = dp.Reason
		if len(dp.DisputedTransactions) > 0 {
			intent.TransactionID = dp.DisputedTransactions[0].SellerTransactionID
			intent.Correlation = Correlation{PayPalCaptureID: intent.TransactionID}
		}
		if dp.SellerResponseDueDate != "" {
			if deadline, err := time.Parse(time.RFC3339, dp.SellerResponseDueDate); err == nil {
				utc := deadline.UTC()
				intent.ResponseDeadline = &utc
			}
		}

	case "CUSTOMER.DISPUTE.RESOLVED":
		var dp paypalDispute
		if err := json.Unmarshal(envelope.Resource, &dp); err != nil {
			return Intent{}, fmt.Errorf("malformed dispute payload: %w", err)
		}
		intent.Kind = IntentDisputeResolved
		intent.DisputeID = dp.DisputeID
		intent.DisputeOutcome = paypalDisputeOutcome(dp.DisputeOutcome.OutcomeCode)

	case "BILLING.SUBSCRIPTION.ACTIVATED", "BILLING.SUBSCRIPTION.UPDATED",
		"BILLING.SUBSCRIPTION.CANCELLED", "BILLING.SUBSCRIPTION.SUSPENDED",
		"BILLING.SUBSCRIPTION.EXPIRED", "BILLING.SUBSCRIPTION.PAYMENT.FAILED":
		var sub paypalSubscription
		if err := json.Unmarshal(envelope.Resource, &sub); err != nil {
			return Intent{}, fmt.Errorf("malformed subscription payload: %w", err)
		}
		md, _ := decodeCustomID(sub.CustomID)
		intent.Kind = IntentSubscriptionLifecycle
		intent.SubscriptionID = sub.ID
		intent.CustomerID = sub.Subscriber.PayerID
		intent.PriceID = sub.PlanID
		intent.ProviderStatus = sub.Status
		intent.AttemptCount = sub.BillingInfo.FailedPaymentsCount
		intent.Metadata = md
		if envelope.EventType == "BILLING.SUBSCRIPTION.PAYMENT.FAILED" {
			intent.ProviderStatus = "past_due"
		}
	}

	return intent, nil
}

func paypalDisputeOutcome(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "RESOLVED_SELLER_FAVOUR", "RESOLVED_SELLER_FAVOR":
		return DisputeOutcomeSellerFavor
	case "RESOLVED_BUYER_FAVOUR", "RESOLVED_BUYER_FAVOR":
		return DisputeOutcomeBuyerFavor
	default:
		return DisputeOutcomeOther
	}
}
