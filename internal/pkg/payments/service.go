package payments

import (
	"context"
	"errors"
	"fmt"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/eventra/eventra/app/models"
)

// Notifier delivers customer/organizer emails. Delivery is fire-and-forget:
// a failed notification is logged and never fails webhook processing.
type Notifier interface {
	Send(to, subject, body string) error
}

// NotifierFunc adapts a plain send function to the Notifier interface.
type NotifierFunc func(to, subject, body string) error

func (f NotifierFunc) Send(to, subject, body string) error {
	return f(to, subject, body)
}

type noopNotifier struct{}

func (noopNotifier) Send(string, string, string) error { return nil }

// Service drives the order/subscription/dispute state machines from
// classified webhook intents. Handlers are stateless; the store is the only
// shared resource and its transactional mutation semantics provide atomicity
// of a single transition.
type Service struct {
	repo     Repository
	notifier Notifier
	cfg      Config
}

// NewService creates a payments service from an injected repository.
func NewService(repo Repository, notifier Notifier, cfg Config) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{repo: repo, notifier: notifier, cfg: cfg}
}

// NewServiceFromDB creates a payments service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, notifier Notifier, cfg Config) *Service {
	return NewService(NewRepository(db), notifier, cfg)
}

// ProcessEvent runs one classified intent through the pipeline: dedup check,
// dispatch, ledger mark. The dedup check happens before any business logic so
// duplicate deliveries are cheap no-ops; the mark happens last, so every
// transition is also independently idempotent to close the gap in between.
func (s *Service) ProcessEvent(ctx context.Context, intent Intent) (duplicate bool, err error) {
	processed, err := s.repo.IsEventProcessed(intent.Provider, intent.EventID)
	if err != nil {
		return false, fmt.Errorf("dedup ledger check: %w", err)
	}
	if processed {
		fiberlog.Infof("[Webhook] duplicate %s event %s, skipping", intent.Provider, intent.EventID)
		return true, nil
	}

	linkedOrderID, err := s.dispatch(ctx, intent)
	if err != nil {
		return false, err
	}

	if _, err := s.repo.MarkEventProcessed(&models.ProcessedWebhookEvent{
		Provider:        intent.Provider,
		ProviderEventID: intent.EventID,
		EventType:       intent.EventType,
		LinkedOrderID:   linkedOrderID,
	}); err != nil {
		// Returning the error surfaces a 500 so the provider retries; the
		// idempotent transition guards make the replay safe.
		return false, fmt.Errorf("dedup ledger mark: %w", err)
	}
	return false, nil
}

func (s *Service) dispatch(ctx context.Context, intent Intent) (*uint, error) {
	switch intent.Kind {
	case IntentPaymentSucceeded:
		return s.HandlePaymentSucceeded(ctx, intent)
	case IntentPaymentFailed:
		return s.HandlePaymentFailed(ctx, intent)
	case IntentPaymentRefunded:
		return s.HandlePaymentRefunded(ctx, intent)
	case IntentCheckoutApproved:
		// Informational only, no state mutation.
		fiberlog.Infof("[Webhook] %s checkout approved (event %s), awaiting capture", intent.Provider, intent.EventID)
		return nil, nil
	case IntentDisputeOpened:
		return s.HandleDisputeOpened(ctx, intent)
	case IntentDisputeResolved:
		return nil, s.HandleDisputeResolved(ctx, intent)
	case IntentSubscriptionLifecycle:
		return nil, s.HandleSubscriptionLifecycle(ctx, intent)
	case IntentAccountStatusChanged:
		return nil, s.HandleAccountStatusChanged(ctx, intent)
	case IntentIgnored:
		fiberlog.Infof("[Webhook] ignoring unhandled %s event type %s (event %s)", intent.Provider, intent.EventType, intent.EventID)
		return nil, nil
	default:
		return nil, fmt.Errorf("unhandled intent kind %q", intent.Kind)
	}
}

// GetLedgerEntry exposes a processed-event record for manual reconciliation.
func (s *Service) GetLedgerEntry(ctx context.Context, provider, eventID string) (*models.ProcessedWebhookEvent, error) {
	_ = ctx
	return s.repo.GetProcessedEvent(provider, eventID)
}

// HandleAccountStatusChanged toggles an organizer's payout flag from a
// provider account event. An unknown account is logged and acknowledged.
func (s *Service) HandleAccountStatusChanged(ctx context.Context, intent Intent) error {
	_ = ctx
	organizer, err := s.repo.GetOrganizerByStripeAccountID(intent.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fiberlog.Warnf("[Webhook] account %s has no linked organizer (event %s)", intent.AccountID, intent.EventID)
			return nil
		}
		return fmt.Errorf("organizer lookup for account %s: %w", intent.AccountID, err)
	}
	if organizer.PayoutsEnabled == intent.PayoutsEnabled {
		return nil
	}
	organizer.PayoutsEnabled = intent.PayoutsEnabled
	if err := s.repo.SaveOrganizer(organizer); err != nil {
		return fmt.Errorf("update organizer %d payout flag: %w", organizer.ID, err)
	}
	fiberlog.Infof("[Webhook] organizer %d payouts_enabled=%t (account %s)", organizer.ID, intent.PayoutsEnabled, intent.AccountID)
	return nil
}

func (s *Service) notify(to, subject, body string) {
	if to == "" {
		return
	}
	if err := s.notifier.Send(to, subject, body); err != nil {
		fiberlog.Warnf("[Webhook] notification to %s failed: %v", to, err)
	}
}
