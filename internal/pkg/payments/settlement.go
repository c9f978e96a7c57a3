package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/eventra/eventra/app/models"
)

const defaultPromotionDays = 7

// settleOrder applies the financial side effects of a paid order, branching
// on the payment's purpose tag. Every branch is compensating bookkeeping, not
// part of the money-received transition: failures are caught and logged here
// and never unwind the completed order.
func (s *Service) settleOrder(ctx context.Context, order *models.Order, intent Intent) {
	switch intent.Metadata.Purpose {
	case PurposeTicketOrder:
		s.settleTicketOrder(ctx, order, intent)
	case PurposeMarketplaceOrder:
		s.settleMarketplaceOrder(ctx, order, intent)
	case PurposeFoodOrder:
		// Paid status was set with the order transition; no commission split.
	default:
		fiberlog.Warnf("[Settlement] order %d: no settlement branch for purpose %q", order.ID, intent.Metadata.Purpose)
	}
}

func (s *Service) settleTicketOrder(ctx context.Context, order *models.Order, intent Intent) {
	_ = ctx
	// A bundled debt settlement is present only when the organizer owed the
	// platform and the amount was auto-deducted from this transaction.
	if intent.Metadata.DebtSettlementAmount <= 0 || order.OrganizerID == nil {
		return
	}
	if err := s.repo.CreatePlatformDebtSettlement(&models.PlatformDebtSettlement{
		OrganizerID: *order.OrganizerID,
		OrderID:     order.ID,
		Amount:      intent.Metadata.DebtSettlementAmount,
		Currency:    order.Currency,
	}); err != nil {
		fiberlog.Errorf("[Settlement] order %d: debt settlement record failed (organizer %d, amount %d): %v",
			order.ID, *order.OrganizerID, intent.Metadata.DebtSettlementAmount, err)
		return
	}

	organizer, err := s.repo.GetOrganizer(*order.OrganizerID)
	if err != nil {
		fiberlog.Errorf("[Settlement] order %d: organizer %d lookup for debt reduction failed: %v", order.ID, *order.OrganizerID, err)
		return
	}
	organizer.OutstandingDebt -= intent.Metadata.DebtSettlementAmount
	if organizer.OutstandingDebt < 0 {
		organizer.OutstandingDebt = 0
	}
	if err := s.repo.SaveOrganizer(organizer); err != nil {
		fiberlog.Errorf("[Settlement] order %d: organizer %d debt reduction failed: %v", order.ID, organizer.ID, err)
	}
}

func (s *Service) settleMarketplaceOrder(ctx context.Context, order *models.Order, intent Intent) {
	_ = ctx
	_ = intent
	if order.VendorID == nil {
		return
	}

	vendor, err := s.repo.GetVendor(*order.VendorID)
	if err != nil {
		fiberlog.Errorf("[Settlement] order %d: vendor %d lookup failed: %v", order.ID, *order.VendorID, err)
		return
	}

	commission := order.SubtotalAmount * int64(vendor.CommissionRateBps) / 10000
	if err := s.repo.CreateVendorEarning(&models.VendorEarning{
		VendorID:         vendor.ID,
		OrderID:          order.ID,
		GrossAmount:      order.SubtotalAmount,
		CommissionAmount: commission,
		NetAmount:        order.SubtotalAmount - commission,
		Currency:         order.Currency,
	}); err != nil {
		fiberlog.Errorf("[Settlement] order %d: vendor earning record failed: %v", order.ID, err)
	}

	// Rolling stats are independent of the earnings record; either may fail
	// without affecting the other.
	if err := s.repo.AddVendorSale(vendor.ID, order.SubtotalAmount); err != nil {
		fiberlog.Errorf("[Settlement] order %d: vendor %d stats update failed: %v", order.ID, vendor.ID, err)
	}
}

// settlePlatformProduct dispatches a platform-product payment by product
// type. These payments have no order row; the organizer reference comes from
// the payment metadata. Unlike order enrichment, a failed store write here is
// returned so the provider retries; there is no completed order to protect.
func (s *Service) settlePlatformProduct(ctx context.Context, intent Intent) error {
	organizerID, err := parseOrganizerRef(intent.Metadata.OrganizerRef)
	if err != nil {
		fiberlog.Warnf("[Settlement] %s event %s: platform product without resolvable organizer: %v",
			intent.Provider, intent.EventID, err)
		return nil
	}

	switch intent.Metadata.Product {
	case ProductCredits:
		credits := intent.Metadata.Credits
		if credits <= 0 {
			fiberlog.Warnf("[Settlement] event %s: credits purchase without credit count", intent.EventID)
			return nil
		}
		if err := s.repo.AddTicketCredits(organizerID, credits); err != nil {
			return fmt.Errorf("credit top-up for organizer %d: %w", organizerID, err)
		}
		fiberlog.Infof("[Settlement] organizer %d credited %d ticket credits (event %s)", organizerID, credits, intent.EventID)
		return nil

	case ProductSubscription:
		if err := s.activateSubscription(ctx, intent, organizerID); err != nil {
			return fmt.Errorf("subscription activation for organizer %d: %w", organizerID, err)
		}
		fiberlog.Infof("[Settlement] organizer %d subscription activated on plan %s (event %s)",
			organizerID, NormalizePlan(intent.Metadata.Plan), intent.EventID)
		return nil

	case ProductPromotion:
		days := intent.Metadata.PromotionDays
		if days <= 0 {
			days = defaultPromotionDays
		}
		now := time.Now()
		if err := s.repo.CreateEventPromotion(&models.EventPromotion{
			OrganizerID:   organizerID,
			EventRef:      intent.Metadata.EventRef,
			PromotionType: normalizePromotionType(intent.Metadata.PromotionType),
			StartsAt:      now,
			EndsAt:        now.AddDate(0, 0, days),
		}); err != nil {
			return fmt.Errorf("promotion activation for organizer %d: %w", organizerID, err)
		}
		return nil

	case ProductPremiumFeature:
		// Entitlement flips happen in the account service, not here.
		fiberlog.Infof("[Settlement] premium feature purchase acknowledged, no-op (event %s)", intent.EventID)
		return nil

	default:
		fiberlog.Warnf("[Settlement] event %s: unknown platform product %q", intent.EventID, intent.Metadata.Product)
		return nil
	}
}

func normalizePromotionType(raw string) string {
	switch t := strings.ToLower(strings.TrimSpace(raw)); t {
	case models.PromotionTypeFeatured, models.PromotionTypeSpotlight, models.PromotionTypeBoost:
		return t
	default:
		return models.PromotionTypeBoost
	}
}
