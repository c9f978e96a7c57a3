package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/eventra/eventra/app/models"
)

// billingReasonCycle marks a renewal invoice as opposed to the initial one.
// Initial invoices are not handled here: the same money event arrives as a
// platform-product payment and settles there.
const billingReasonCycle = "subscription_cycle"

// NormalizePlan maps provider free-text plan metadata onto the fixed internal
// tiers. Unknown values fall back to the free baseline instead of failing.
func NormalizePlan(plan string) string {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case models.PlanBasic:
		return models.PlanBasic
	case models.PlanPro:
		return models.PlanPro
	case models.PlanEnterprise:
		return models.PlanEnterprise
	default:
		return models.PlanFree
	}
}

// normalizeSubscriptionStatus compresses the provider status vocabulary onto
// ACTIVE / PAST_DUE / CANCELLED.
func normalizeSubscriptionStatus(providerStatus string) string {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "active", "trialing":
		return models.SubscriptionStatusActive
	case "past_due", "unpaid", "suspended", "incomplete":
		return models.SubscriptionStatusPastDue
	case "deleted", "canceled", "cancelled", "expired", "incomplete_expired":
		return models.SubscriptionStatusCancelled
	default:
		fiberlog.Warnf("[Webhook] unknown provider subscription status %q, treating as past_due", providerStatus)
		return models.SubscriptionStatusPastDue
	}
}

// HandleSubscriptionLifecycle syncs one provider subscription event into the
// local subscription row.
func (s *Service) HandleSubscriptionLifecycle(ctx context.Context, intent Intent) error {
	_ = ctx
	if strings.TrimSpace(intent.SubscriptionID) == "" {
		fiberlog.Warnf("[Webhook] %s event %s: subscription lifecycle without subscription id", intent.Provider, intent.EventID)
		return nil
	}

	existing, err := s.repo.FindSubscriptionByProviderID(intent.Provider, intent.SubscriptionID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("subscription lookup: %w", err)
	}

	// Renewal invoice paid: re-affirm ACTIVE on the existing row and record
	// the payment amount. An invoice for an unknown subscription is logged
	// and acknowledged; nothing more will appear on retry.
	if intent.BillingReason != "" {
		if intent.BillingReason != billingReasonCycle {
			fiberlog.Infof("[Webhook] %s invoice with billing reason %q skipped (event %s)", intent.Provider, intent.BillingReason, intent.EventID)
			return nil
		}
		if existing == nil {
			fiberlog.Warnf("[Webhook] %s renewal invoice for unknown subscription %s (event %s)", intent.Provider, intent.SubscriptionID, intent.EventID)
			return nil
		}
		status := normalizeSubscriptionStatus(intent.ProviderStatus)
		existing.Status = status
		if status == models.SubscriptionStatusActive {
			existing.LastPaymentAmount = intent.Amount
			existing.FailedAttempts = 0
		} else {
			existing.FailedAttempts = intent.AttemptCount
		}
		return s.repo.UpsertSubscription(existing)
	}

	sub := existing
	if sub == nil {
		organizerID, err := parseOrganizerRef(intent.Metadata.OrganizerRef)
		if err != nil {
			fiberlog.Warnf("[Webhook] %s subscription %s has no resolvable organizer (event %s): %v",
				intent.Provider, intent.SubscriptionID, intent.EventID, err)
			return nil
		}
		sub = &models.Subscription{
			OrganizerID:            organizerID,
			Provider:               intent.Provider,
			ProviderSubscriptionID: intent.SubscriptionID,
			Plan:                   models.PlanFree,
		}
	}

	sub.Status = normalizeSubscriptionStatus(intent.ProviderStatus)
	if intent.CustomerID != "" {
		sub.ProviderCustomerID = intent.CustomerID
	}
	if intent.PriceID != "" {
		sub.ProviderPriceID = intent.PriceID
	}
	switch sub.Status {
	case models.SubscriptionStatusActive:
		// Plan changes only apply while the subscription is entitling;
		// a past_due event leaves the plan untouched.
		if intent.Metadata.Plan != "" {
			sub.Plan = NormalizePlan(intent.Metadata.Plan)
		}
		sub.FailedAttempts = 0
	case models.SubscriptionStatusPastDue:
		if intent.AttemptCount > 0 {
			sub.FailedAttempts = intent.AttemptCount
		} else {
			sub.FailedAttempts++
		}
	case models.SubscriptionStatusCancelled:
		if sub.CancelledAt == nil {
			now := time.Now()
			sub.CancelledAt = &now
		}
	}

	if err := s.repo.UpsertSubscription(sub); err != nil {
		return fmt.Errorf("subscription upsert: %w", err)
	}
	return nil
}

// activateSubscription is the platform-product path: a one-off checkout for a
// subscription product activates or upgrades the organizer's subscription.
func (s *Service) activateSubscription(ctx context.Context, intent Intent, organizerID uint) error {
	_ = ctx
	subscriptionID := strings.TrimSpace(intent.SubscriptionID)
	if subscriptionID == "" {
		subscriptionID = fmt.Sprintf("%s:checkout:%s", intent.Provider, intent.EventID)
	}

	sub, err := s.repo.FindSubscriptionByProviderID(intent.Provider, subscriptionID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("subscription lookup: %w", err)
	}
	if sub == nil {
		sub = &models.Subscription{
			OrganizerID:            organizerID,
			Provider:               intent.Provider,
			ProviderSubscriptionID: subscriptionID,
		}
	}
	sub.Plan = NormalizePlan(intent.Metadata.Plan)
	sub.Status = models.SubscriptionStatusActive
	sub.LastPaymentAmount = intent.Amount
	sub.FailedAttempts = 0

	return s.repo.UpsertSubscription(sub)
}

func parseOrganizerRef(ref string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(ref), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("malformed organizer reference %q", ref)
	}
	return uint(id), nil
}
