package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMetadata_PlatformProduct(t *testing.T) {
	md, err := decodeMetadata(map[string]string{
		"purpose":                "platform_product",
		"product_type":           "promotion",
		"organizer_id":           "3",
		"event_id":               "88",
		"promotion_type":         "spotlight",
		"promotion_days":         "14",
		"debt_settlement_amount": "250",
	})
	require.NoError(t, err)

	assert.Equal(t, PurposePlatformProduct, md.Purpose)
	assert.Equal(t, ProductPromotion, md.Product)
	assert.Equal(t, "3", md.OrganizerRef)
	assert.Equal(t, "88", md.EventRef)
	assert.Equal(t, "spotlight", md.PromotionType)
	assert.Equal(t, 14, md.PromotionDays)
	assert.Equal(t, int64(250), md.DebtSettlementAmount)
}

func TestDecodeMetadata_Rejections(t *testing.T) {
	tests := []map[string]string{
		{"purpose": "gift_card"},
		{"purpose": "platform_product"},
		{"purpose": "platform_product", "product_type": "nft"},
		{"credits": "-5"},
		{"credits": "lots"},
		{"promotion_days": "-1"},
		{"debt_settlement_amount": "abc"},
	}
	for _, raw := range tests {
		if _, err := decodeMetadata(raw); err == nil {
			t.Fatalf("expected error for metadata %v", raw)
		}
	}
}
