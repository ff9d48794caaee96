package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/lanepay/lanepay/internal/domain/billing"
	"github.com/lanepay/lanepay/internal/observability"
	"github.com/lanepay/lanepay/internal/observability/logctx"
)

type CreateCustomerInput struct {
	Email    string
	Name     string
	Metadata map[string]string
}

// CreateCustomer registers a new customer. Email uniqueness is deliberately
// not enforced.
func (p *Processor) CreateCustomer(ctx context.Context, in CreateCustomerInput) (_ *billing.Customer, err error) {
	start := time.Now()
	defer func() { p.observe(opCreateCustomer, start, err) }()

	customer, err := billing.NewCustomer(p.ids.NewID(prefixCustomer), in.Email, in.Name, in.Metadata, p.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := p.repo.InsertCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("processor: insert customer: %w", err)
	}

	logctx.FromOr(ctx, p.log).Info("customer_created",
		observability.F("customer_id", customer.ID),
		observability.F("email", customer.Email),
	)
	return customer, nil
}

func (p *Processor) GetCustomer(ctx context.Context, id string) (*billing.Customer, error) {
	return p.repo.FindCustomer(ctx, id)
}

type AddPaymentMethodInput struct {
	CustomerID string
	Type       billing.PaymentMethodType
	LastFour   string
	Brand      string
	ExpMonth   int
	ExpYear    int
	Metadata   map[string]string
}

// AddPaymentMethod appends a method to the customer; the first method becomes
// the default when the customer has none.
func (p *Processor) AddPaymentMethod(ctx context.Context, in AddPaymentMethodInput) (_ *billing.PaymentMethodInfo, err error) {
	start := time.Now()
	defer func() { p.observe(opAddPaymentMethod, start, err) }()

	customer, err := p.repo.FindCustomer(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}

	method, err := billing.NewPaymentMethodInfo(p.ids.NewID(prefixMethod), in.Type, in.LastFour, in.Brand, in.ExpMonth, in.ExpYear, in.Metadata)
	if err != nil {
		return nil, err
	}

	customer.AddPaymentMethod(method)
	if err := p.repo.UpdateCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("processor: update customer: %w", err)
	}

	logctx.FromOr(ctx, p.log).Info("payment_method_added",
		observability.F("customer_id", customer.ID),
		observability.F("payment_method_id", method.ID),
		observability.F("type", string(method.Type)),
	)
	return method, nil
}
