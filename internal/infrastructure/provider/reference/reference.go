package reference

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lanepay/lanepay/internal/domain/billing"
	"github.com/lanepay/lanepay/internal/domain/money"
	"github.com/lanepay/lanepay/internal/observability"
)

const componentProvider = "reference_provider"

// Provider is the reference payment provider: every charge and refund
// succeeds and returns a fresh opaque identifier as proof of execution.
type Provider struct {
	log observability.Logger
}

func New(logger observability.Logger) *Provider {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Provider{
		log: logger.With(observability.F("component", componentProvider)),
	}
}

func (p *Provider) Charge(ctx context.Context, customer *billing.Customer, amount money.Money, paymentMethodID string) (bool, map[string]string) {
	_ = ctx
	p.log.Info("provider_charge",
		observability.F("customer_email", customer.Email),
		observability.F("amount", amount.String()),
		observability.F("payment_method_id", paymentMethodID),
	)
	return true, map[string]string{"provider_id": newProviderID()}
}

func (p *Provider) Refund(ctx context.Context, paymentID string, amount money.Money) (bool, map[string]string) {
	_ = ctx
	p.log.Info("provider_refund",
		observability.F("payment_id", paymentID),
		observability.F("amount", amount.String()),
	)
	return true, map[string]string{"provider_id": newProviderID()}
}

func newProviderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
