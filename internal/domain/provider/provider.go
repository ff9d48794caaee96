package provider

import (
	"context"

	"github.com/lanepay/lanepay/internal/domain/billing"
	"github.com/lanepay/lanepay/internal/domain/money"
)

// Provider is the outbound port to the system that actually moves money.
// Both calls may block on the network. The result mapping is opaque to the
// core: on failure only the "error" key is read, on success the mapping is
// merged into the entity's metadata.
type Provider interface {
	Charge(ctx context.Context, customer *billing.Customer, amount money.Money, paymentMethodID string) (bool, map[string]string)
	Refund(ctx context.Context, paymentID string, amount money.Money) (bool, map[string]string)
}

// ResultError extracts the provider's reported error from a result mapping.
func ResultError(result map[string]string) string {
	if result == nil {
		return ""
	}
	return result["error"]
}
