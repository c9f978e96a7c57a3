package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/eventra/eventra/app/models"
)

// findOrderByCorrelation resolves an order two-tier: the provider-native id
// first, then the metadata-embedded reference. A nil order with nil error
// means no correlation key resolved.
func (s *Service) findOrderByCorrelation(correlation Correlation) (*models.Order, error) {
	lookups := []struct {
		key  string
		find func(string) (*models.Order, error)
	}{
		{correlation.StripePaymentIntentID, s.repo.FindOrderByStripePaymentIntentID},
		{correlation.PayPalOrderID, s.repo.FindOrderByPayPalOrderID},
		{correlation.PayPalCaptureID, s.repo.FindOrderByPayPalCaptureID},
		{correlation.OrderRef, s.repo.FindOrderByPublicID},
	}
	for _, l := range lookups {
		if l.key == "" {
			continue
		}
		order, err := l.find(l.key)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// HandlePaymentSucceeded moves an order PENDING -> COMPLETED, stores the
// provider correlation id and triggers the settlement reconciler. This is the
// only transition that settles money side effects.
func (s *Service) HandlePaymentSucceeded(ctx context.Context, intent Intent) (*uint, error) {
	if intent.Metadata.Purpose == PurposePlatformProduct {
		// Platform products have no order row; they settle directly.
		return nil, s.settlePlatformProduct(ctx, intent)
	}

	order, err := s.findOrderByCorrelation(intent.Correlation)
	if err != nil {
		return nil, fmt.Errorf("order lookup: %w", err)
	}
	if order == nil {
		fiberlog.Warnf("[Webhook] %s event %s: payment succeeded but no order matches correlation %+v",
			intent.Provider, intent.EventID, intent.Correlation)
		return nil, nil
	}

	switch order.Status {
	case models.OrderStatusCompleted, models.OrderStatusRefunded:
		// Already paid (or beyond); replay is a no-op.
		fiberlog.Infof("[Webhook] order %d already %s, skipping payment-succeeded (event %s)", order.ID, order.Status, intent.EventID)
		return &order.ID, nil
	case models.OrderStatusFailed:
		fiberlog.Warnf("[Webhook] order %d is FAILED, refusing late payment-succeeded (event %s)", order.ID, intent.EventID)
		return &order.ID, nil
	}

	now := time.Now()
	order.Status = models.OrderStatusCompleted
	order.PaymentStatus = models.PaymentStatusPaid
	order.CompletedAt = &now
	switch intent.Provider {
	case ProviderStripe:
		order.PaymentMethod = models.PaymentMethodStripe
		order.StripePaymentIntentID = intent.Correlation.StripePaymentIntentID
	case ProviderPayPal:
		order.PaymentMethod = models.PaymentMethodPayPal
		if intent.Correlation.PayPalOrderID != "" {
			order.PayPalOrderID = intent.Correlation.PayPalOrderID
		}
		order.PayPalCaptureID = intent.Correlation.PayPalCaptureID
	}

	// The paid transition is committed before any enrichment or notification
	// so a non-critical failure cannot unwind the money-received fact.
	if err := s.repo.SaveOrder(order); err != nil {
		return nil, fmt.Errorf("mark order %d completed: %w", order.ID, err)
	}

	s.settleOrder(ctx, order, intent)

	s.notify(order.BuyerEmail, "Payment received",
		fmt.Sprintf("Your order %s is confirmed. Amount: %s %.2f", order.PublicID, order.Currency, float64(order.TotalAmount)/100))
	return &order.ID, nil
}

// HandlePaymentFailed moves an order PENDING -> FAILED with a reason.
func (s *Service) HandlePaymentFailed(ctx context.Context, intent Intent) (*uint, error) {
	_ = ctx
	order, err := s.findOrderByCorrelation(intent.Correlation)
	if err != nil {
		return nil, fmt.Errorf("order lookup: %w", err)
	}
	if order == nil {
		fiberlog.Warnf("[Webhook] %s event %s: payment failed but no order matches correlation %+v",
			intent.Provider, intent.EventID, intent.Correlation)
		return nil, nil
	}
	if order.Status != models.OrderStatusPending {
		// COMPLETED may never regress to FAILED, and terminal states stay put.
		fiberlog.Infof("[Webhook] order %d is %s, skipping payment-failed (event %s)", order.ID, order.Status, intent.EventID)
		return &order.ID, nil
	}

	order.Status = models.OrderStatusFailed
	order.FailureReason = intent.Reason
	if err := s.repo.SaveOrder(order); err != nil {
		return nil, fmt.Errorf("mark order %d failed: %w", order.ID, err)
	}

	s.notify(order.BuyerEmail, "Payment failed",
		fmt.Sprintf("Payment for order %s failed: %s", order.PublicID, intent.Reason))
	return &order.ID, nil
}

// HandlePaymentRefunded moves an order COMPLETED -> REFUNDED. Refund events
// with no resolvable correlation are logged as unprocessable and acknowledged;
// no additional information will appear on retry, so they go to manual
// reconciliation.
func (s *Service) HandlePaymentRefunded(ctx context.Context, intent Intent) (*uint, error) {
	_ = ctx
	if intent.Correlation.Empty() {
		fiberlog.Warnf("[Webhook] %s refund event %s carries no correlation id, manual reconciliation required",
			intent.Provider, intent.EventID)
		return nil, nil
	}

	order, err := s.findOrderByCorrelation(intent.Correlation)
	if err != nil {
		return nil, fmt.Errorf("order lookup: %w", err)
	}
	if order == nil {
		fiberlog.Warnf("[Webhook] %s refund event %s is unprocessable: correlation %+v matches no order, manual reconciliation required",
			intent.Provider, intent.EventID, intent.Correlation)
		return nil, nil
	}

	if order.Status == models.OrderStatusRefunded {
		fiberlog.Infof("[Webhook] order %d already refunded, skipping (event %s)", order.ID, intent.EventID)
		return &order.ID, nil
	}
	if order.Status != models.OrderStatusCompleted {
		fiberlog.Warnf("[Webhook] order %d is %s, refusing refund transition (event %s)", order.ID, order.Status, intent.EventID)
		return &order.ID, nil
	}

	now := time.Now()
	order.Status = models.OrderStatusRefunded
	order.RefundedAmount = intent.Amount
	order.RefundReason = intent.Reason
	order.RefundedAt = &now
	if err := s.repo.SaveOrder(order); err != nil {
		return nil, fmt.Errorf("mark order %d refunded: %w", order.ID, err)
	}

	s.notify(order.BuyerEmail, "Refund processed",
		fmt.Sprintf("Order %s was refunded: %s %.2f", order.PublicID, order.Currency, float64(intent.Amount)/100))
	return &order.ID, nil
}
