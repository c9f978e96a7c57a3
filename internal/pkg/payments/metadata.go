package payments

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// decodeMetadata turns the stringly-typed metadata bag attached to a payment
// into the closed Metadata shape. An absent purpose tag means a plain ticket
// order; an unknown one is an error so callers can log and ignore the event
// instead of branching on raw strings deeper in the pipeline.
func decodeMetadata(raw map[string]string) (Metadata, error) {
	md := Metadata{
		OrderRef:      strings.TrimSpace(raw["order_id"]),
		OrganizerRef:  strings.TrimSpace(raw["organizer_id"]),
		EventRef:      strings.TrimSpace(raw["event_id"]),
		Plan:          strings.TrimSpace(raw["plan"]),
		PromotionType: strings.TrimSpace(raw["promotion_type"]),
	}

	switch tag := strings.ToLower(strings.TrimSpace(raw["purpose"])); tag {
	case "", string(PurposeTicketOrder):
		md.Purpose = PurposeTicketOrder
	case string(PurposeMarketplaceOrder):
		md.Purpose = PurposeMarketplaceOrder
	case string(PurposeFoodOrder):
		md.Purpose = PurposeFoodOrder
	case string(PurposePlatformProduct):
		md.Purpose = PurposePlatformProduct
	default:
		return Metadata{}, fmt.Errorf("unknown payment purpose tag %q", tag)
	}

	if md.Purpose == PurposePlatformProduct {
		switch product := strings.ToLower(strings.TrimSpace(raw["product_type"])); product {
		case string(ProductCredits), string(ProductSubscription), string(ProductPromotion), string(ProductPremiumFeature):
			md.Product = PlatformProduct(product)
		default:
			return Metadata{}, fmt.Errorf("unknown platform product type %q", product)
		}
	}

	if v := strings.TrimSpace(raw["credits"]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Metadata{}, fmt.Errorf("malformed credits value %q", v)
		}
		md.Credits = n
	}
	if v := strings.TrimSpace(raw["promotion_days"]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Metadata{}, fmt.Errorf("malformed promotion_days value %q", v)
		}
		md.PromotionDays = n
	}
	if v := strings.TrimSpace(raw["debt_settlement_amount"]); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return Metadata{}, fmt.Errorf("malformed debt_settlement_amount value %q", v)
		}
		md.DebtSettlementAmount = n
	}

	return md, nil
}

// decodeCustomID handles PayPal's single custom_id field. Checkout flows embed
// the same metadata bag as a compact JSON object; older flows put a bare order
// reference there, which decodes as a default ticket-order purpose.
func decodeCustomID(customID string) (Metadata, error) {
	s := strings.TrimSpace(customID)
	if s == "" {
		return Metadata{Purpose: PurposeTicketOrder}, nil
	}
	if strings.HasPrefix(s, "{") {
		var raw map[string]string
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return Metadata{}, fmt.Errorf("malformed custom_id metadata: %w", err)
		}
		return decodeMetadata(raw)
	}
	return Metadata{Purpose: PurposeTicketOrder, OrderRef: s}, nil
}
