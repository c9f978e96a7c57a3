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

// HandleDisputeOpened records a new chargeback. Creation is insert-if-absent
// keyed by the provider dispute id: a duplicate "created" delivery is a no-op
// with an already-exists log line, not an error. The order link is best-effort
// and may stay empty.
func (s *Service) HandleDisputeOpened(ctx context.Context, intent Intent) (*uint, error) {
	_ = ctx
	var orderID *uint
	order, err := s.findOrderByCorrelation(intent.Correlation)
	if err != nil {
		return nil, fmt.Errorf("dispute order lookup: %w", err)
	}
	if order != nil {
		orderID = &order.ID
	}

	dispute := &models.Dispute{
		Provider:              intent.Provider,
		ProviderDisputeID:     intent.DisputeID,
		ProviderTransactionID: intent.TransactionID,
		OrderID:               orderID,
		Reason:                intent.Reason,
		Amount:                intent.Amount,
		Currency:              intent.Currency,
		Status:                models.DisputeStatusOpen,
		ResponseDeadline:      intent.ResponseDeadline,
	}
	created, stored, err := s.repo.CreateDisputeIfAbsent(dispute)
	if err != nil {
		return orderID, fmt.Errorf("dispute create: %w", err)
	}
	if !created {
		fiberlog.Infof("[Webhook] dispute %s/%s already exists, skipping (event %s)", intent.Provider, intent.DisputeID, intent.EventID)
		return orderID, nil
	}

	fiberlog.Warnf("[Webhook] dispute %s/%s opened: %s %.2f reason=%s order=%v",
		intent.Provider, intent.DisputeID, stored.Currency, float64(stored.Amount)/100, stored.Reason, orderID)
	if order != nil {
		s.notify(order.BuyerEmail, "Payment disputed",
			fmt.Sprintf("A dispute was opened for order %s.", order.PublicID))
	}
	return orderID, nil
}

// HandleDisputeResolved applies the terminal outcome. Resolving twice is a
// no-op because provider delivery is at-least-once; a resolution for an
// unknown dispute is logged and acknowledged.
func (s *Service) HandleDisputeResolved(ctx context.Context, intent Intent) error {
	_ = ctx
	dispute, err := s.repo.GetDispute(intent.Provider, intent.DisputeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fiberlog.Warnf("[Webhook] resolution for unknown dispute %s/%s (event %s)", intent.Provider, intent.DisputeID, intent.EventID)
			return nil
		}
		return fmt.Errorf("dispute lookup: %w", err)
	}
	if dispute.IsResolved() {
		fiberlog.Infof("[Webhook] dispute %s/%s already resolved as %s, skipping (event %s)",
			intent.Provider, intent.DisputeID, dispute.Status, intent.EventID)
		return nil
	}

	switch intent.DisputeOutcome {
	case DisputeOutcomeBuyerFavor:
		dispute.Status = models.DisputeStatusResolvedBuyerFavor
	case DisputeOutcomeSellerFavor:
		dispute.Status = models.DisputeStatusResolvedSellerFavor
	default:
		dispute.Status = models.DisputeStatusResolvedOther
	}
	now := time.Now()
	dispute.ResolvedAt = &now

	if err := s.repo.SaveDispute(dispute); err != nil {
		return fmt.Errorf("dispute resolve: %w", err)
	}
	fiberlog.Infof("[Webhook] dispute %s/%s resolved: %s", intent.Provider, intent.DisputeID, dispute.Status)
	return nil
}
