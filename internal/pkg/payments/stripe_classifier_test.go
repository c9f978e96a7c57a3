package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStripeEvent_PaymentSucceeded(t *testing.T) {
	raw := []byte(`{
		"id": "evt_pi_ok",
		"type": "payment_intent.succeeded",
		"data": {"object": {
			"id": "pi_123",
			"amount": 5000,
			"amount_received": 5000,
			"currency": "usd",
			"metadata": {"purpose": "ticket_order", "order_id": "ord_50usd", "organizer_id": "42"}
		}}
	}`)

	intent, err := ClassifyStripeEvent(raw)
	require.NoError(t, err)

	assert.Equal(t, IntentPaymentSucceeded, intent.Kind)
	assert.Equal(t, ProviderStripe, intent.Provider)
	assert.Equal(t, "evt_pi_ok", intent.EventID)
	assert.Equal(t, "pi_123", intent.Correlation.StripePaymentIntentID)
	assert.Equal(t, "ord_50usd", intent.Correlation.OrderRef)
	assert.Equal(t, PurposeTicketOrder, intent.Metadata.Purpose)
	assert.Equal(t, int64(5000), intent.Amount)
	assert.Equal(t, "USD", intent.Currency)
}

func TestClassifyStripeEvent_MissingPurposeDefaultsToTicketOrder(t *testing.T) {
	raw := []byte(`{
		"id": "evt_pi_nopurpose",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_1", "amount": 100, "currency": "eur", "metadata": {"order_id": "ord_1"}}}
	}`)

	intent, err := ClassifyStripeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, IntentPaymentSucceeded, intent.Kind)
	assert.Equal(t, PurposeTicketOrder, intent.Metadata.Purpose)
}

func TestClassifyStripeEvent_UnknownPurposeIgnored(t *testing.T) {
	raw := []byte(`{
		"id": "evt_pi_badpurpose",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_1", "amount": 100, "currency": "eur", "metadata": {"purpose": "lottery_ticket"}}}
	}`)

	intent, err := ClassifyStripeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, IntentIgnored, intent.Kind)
}

func TestClassifyStripeEvent_PaymentFailed(t *testing.T) {
	raw := []byte(`{
		"id": "evt_pi_fail",
		"type": "payment_intent.payment_failed",
		"data": {"object": {
			"id": "pi_fail",
			"metadata": {"order_id": "ord_9"},
			"last_payment_error": {"message": "card declined", "code": "card_declined"}
		}}
	}`)

	intent, err := ClassifyStripeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, IntentPaymentFailed, intent.Kind)
	assert.Equal(t, "pi_fail", intent.Correlation.StripePaymentIntentID)
	assert.Equal(t, "ord_9", intent.Correlation.OrderRef)
	assert.Equal(t, "card declined", intent.Reason)
}

func TestClassifyStripeEvent_ChargeRefunded(t *testing.T) {
	raw := []byte(`{
		"id": "evt_refund",
		"type": "charge.refunded",
		"data": {"object": {
			"id": "ch_1",
			"payment_intent": "pi_123",
			"amount": 5000,
			"amount_refunded": 5000,
			"currency": "usd",
			"metadata": {},
			"refunds": {"data": [{"reason": "requested_by_customer"}]}
		}}
	}`)

	intent, err := ClassifyStripeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, IntentPaymentRefunded, intent.Kind)
	assert.Equal(t, "pi_123", intent.Correlation.StripePaymentIntentID)
	assert.Equal(t, int64(5000), intent.Amount)
	assert.Equal(t, "requested_by_customer", intent.Reason)
}

func TestClassifyStripeEvent_DisputeCreated(t *testing.T) {
	raw := []byte(`{
		"id": "evt_dispute",
		"type": "charge.dispute.created",
		"data": {"object": {
			"id": "dp_1",
			"amount": 2500,
			"currency": "usd",
			"reason": "fraudulent",
			"charge": "ch_77",
			"payment_intent": "pi_77",
			"evidence_details": {"due_by": 1700003600}
		}}
	}`)

	intent, err := ClassifyStripeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, IntentDisputeOpened, intent.Kind)
	assert.Equal(t, "dp_1", intent.DisputeID)
	assert.Equal(t, "ch_77", intent.TransactionID)
	assert.Equal(t, "pi_77", intent.Correlation.StripePaymentIntentID)
	assert.Equal(t, int64(2500), intent.Amount)
	require.NotNil(t, intent.ResponseDeadline)
	assert.Equal(t, time.Unix(1700003600, 0).UTC(), *intent.ResponseDeadline)
}

func TestClassifyStripeEvent_DisputeClosed(t *testing.T) {
	for status, want := range map[string]string{
		"won":            DisputeOutcomeSellerFavor,
		"lost":           DisputeOutcomeBuyerFavor,
		"warning_closed": DisputeOutcomeOther,
	} {
		raw := []byte(`{
			"id": "evt_dispute_closed",
			"type": "charge.dispute.closed",
			"data": {"object": {"id": "dp_1", "status": "` + status + `"}}
		}`)

		intent, err := ClassifyStripeEvent(raw)
		require.NoError(t, err)
		assert.Equal(t, IntentDisputeResolved, intent.Kind)
		assert.Equal(t, want, intent.DisputeOutcome, "status %q", status)
	}
}

func TestClassifyStripeEvent_SubscriptionDeleted(t *testing.T) {
	raw := []byte(`{
		"id": "evt_sub_del",
		"type": "customer.subscription.deleted",
		"data": {"object": {
			"id": "sub_1",
			"customer": "cus_1",
			"status": "canceled",
			"metadata": {"plan": "pro", "organizer_id": "7"},
			"items": {"data": [{"price": {"id": "price_pro"}}]}
		}}
	}`)

	intent, err := ClassifyStripeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, IntentSubscriptionLifecycle, intent.Kind)
	assert.Equal(t, "sub_1", intent.SubscriptionID)
	assert.Equal(t, "deleted", intent.ProviderStatus)
	assert.Equal(t, "pro", intent.Metadata.Plan)
	assert.Equal(t, "7", intent.Metadata.OrganizerRef)
	assert.Equal(t, "price_pro", intent.PriceID)
}

func TestClassifyStripeEvent_InvoicePaid(t *testing.T) {
	raw := []byte(`{
		"id": "evt_inv",
		"type": "invoice.paid",
		"data": {"object": {
			"id": "in_1",
			"subscription": "sub_1",
			"customer": "cus_1",
			"billing_reason": "subscription_cycle",
			"amount_paid": 1999,
			"currency": "usd"
		}}
	}`)

	intent, err := ClassifyStripeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, IntentSubscriptionLifecycle, intent.Kind)
	assert.Equal(t, "active", intent.ProviderStatus)
	assert.Equal(t, billingReasonCycle, intent.BillingReason)
	assert.Equal(t, int64(1999), intent.Amount)
}

func TestClassifyStripeEvent_OneOffInvoiceIgnored(t *testing.T) {
	raw := []byte(`{
		"id": "evt_inv_oneoff",
		"type": "invoice.paid",
		"data": {"object": {"id": "in_2", "subscription": "", "amount_paid": 500}}
	}`)

	intent, err := ClassifyStripeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, IntentIgnored, intent.Kind)
}

func TestClassifyStripeEvent_AccountUpdated(t *testing.T) {
	raw := []byte(`{
		"id": "evt_acc",
		"type": "account.updated",
		"data": {"object": {"id": "acct_1", "payouts_enabled": true, "charges_enabled": true}}
	}`)

	intent, err := ClassifyStripeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, IntentAccountStatusChanged, intent.Kind)
	assert.Equal(t, "acct_1", intent.AccountID)
	assert.True(t, intent.PayoutsEnabled)
}

func TestClassifyStripeEvent_UnknownType(t *testing.T) {
	raw := []byte(`{"id": "evt_x", "type": "product.created", "data": {"object": {}}}`)

	intent, err := ClassifyStripeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, IntentIgnored, intent.Kind)
	assert.Equal(t, "product.created", intent.EventType)
}

func TestClassifyStripeEvent_Malformed(t *testing.T) {
	if _, err := ClassifyStripeEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if _, err := ClassifyStripeEvent([]byte(`{"type": "payment_intent.succeeded"}`)); err == nil {
		t.Fatal("expected error for missing event id")
	}
}
