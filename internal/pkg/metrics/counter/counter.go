package counter

import (
	"context"
	"strconv"

	"github.com/eventra/eventra/internal/pkg/cache"
)

const webhookCountersKeyPrefix = "webhooks:counters:"

// Delivery outcomes tracked per provider.
const (
	OutcomeReceived  = "received"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// AddWebhookDelivery increments the counter for one delivery outcome in Redis.
// Counters are best-effort operational stats; callers ignore the error.
func AddWebhookDelivery(provider, outcome string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookCountersKeyPrefix+provider, outcome, 1).Err()
}

// WebhookStats returns the accumulated delivery counters for a provider.
func WebhookStats(provider string) (map[string]int64, error) {
	ctx := context.Background()
	data, err := cache.GetClient().HGetAll(ctx, webhookCountersKeyPrefix+provider).Result()
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int64, len(data))
	for outcome, raw := range data {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		stats[outcome] = n
	}
	return stats, nil
}
