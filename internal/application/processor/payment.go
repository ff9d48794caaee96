package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/lanepay/lanepay/internal/domain/billing"
	"github.com/lanepay/lanepay/internal/domain/money"
	domprovider "github.com/lanepay/lanepay/internal/domain/provider"
	"github.com/lanepay/lanepay/internal/observability"
	"github.com/lanepay/lanepay/internal/observability/logctx"
)

type CreatePaymentInput struct {
	CustomerID string
	Amount     decimal.Decimal
	Currency   money.Currency
	// PaymentMethodID is optional; the customer's default is used when empty.
	PaymentMethodID string
	Description     string
}

// CreatePayment runs the whole payment state machine in one call:
// PENDING on insert, PROCESSING before the provider charge, then COMPLETED or
// FAILED from the provider outcome. A provider decline is not an error; the
// returned Payment carries the outcome in its Status and Error fields.
func (p *Processor) CreatePayment(ctx context.Context, in CreatePaymentInput) (_ *billing.Payment, err error) {
	start := time.Now()
	defer func() { p.observe(opCreatePayment, start, err) }()

	ctx, span := p.tel.Tracer().Start(ctx, spanPrefix+"CreatePayment",
		attribute.String("operation", opCreatePayment),
		attribute.String("payment.customer_id", in.CustomerID),
		attribute.String("payment.currency", string(in.Currency)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	logger := logctx.FromOr(ctx, p.log).With(observability.F("operation", opCreatePayment))

	if _, err := money.ParseCurrency(string(in.Currency)); err != nil {
		return nil, err
	}

	customer, err := p.repo.FindCustomer(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}

	methodID := in.PaymentMethodID
	if methodID == "" {
		methodID = customer.DefaultPaymentMethod
	}
	if methodID == "" {
		return nil, billing.ErrNoPaymentMethod
	}

	amount := money.New(in.Amount, in.Currency)
	payment, err := billing.NewPayment(p.ids.NewID(prefixPayment), customer.ID, amount, methodID, in.Description, p.clock.Now())
	if err != nil {
		return nil, err
	}

	// Narrow critical section: the store insert only. The provider call below
	// must never run under a lock.
	if err := p.repo.InsertPayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("processor: insert payment: %w", err)
	}
	p.emit(ctx, billing.NewPaymentEvent(billing.EventPaymentCreated, payment, p.clock.Now()))

	payment.MarkProcessing()
	if err := p.repo.UpdatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("processor: update payment: %w", err)
	}

	provStart := time.Now()
	ok, result := p.provider.Charge(ctx, customer, amount, methodID)
	p.observeProvider("charge", provStart, ok)

	if ok {
		payment.MarkCompleted(result, p.clock.Now())
	} else {
		payment.MarkFailed(domprovider.ResultError(result))
	}
	if err := p.repo.UpdatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("processor: update payment: %w", err)
	}

	span.SetAttributes(attribute.String("payment.status", string(payment.Status)))

	if ok {
		p.emit(ctx, billing.NewPaymentEvent(billing.EventPaymentCompleted, payment, p.clock.Now()))
		logger.Info("payment_completed",
			observability.F("payment_id", payment.ID),
			observability.F("customer_id", payment.CustomerID),
			observability.F("amount", amount.String()),
		)
	} else {
		p.emit(ctx, billing.NewPaymentEvent(billing.EventPaymentFailed, payment, p.clock.Now()))
		logger.Warn("payment_failed",
			observability.F("payment_id", payment.ID),
			observability.F("customer_id", payment.CustomerID),
			observability.F("error", payment.Error),
		)
	}
	return payment, nil
}

func (p *Processor) GetPayment(ctx context.Context, id string) (*billing.Payment, error) {
	return p.repo.FindPayment(ctx, id)
}

// ListPayments returns payments newest first, optionally filtered by customer
// (empty id means all).
func (p *Processor) ListPayments(ctx context.Context, customerID string) ([]*billing.Payment, error) {
	return p.repo.ListPayments(ctx, customerID)
}
