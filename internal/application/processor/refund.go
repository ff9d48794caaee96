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
	"github.com/lanepay/lanepay/internal/observability"
	"github.com/lanepay/lanepay/internal/observability/logctx"
)

type CreateRefundInput struct {
	PaymentID string
	// Amount is optional; nil refunds the full payment amount. The currency
	// is always the payment's currency.
	Amount *decimal.Decimal
	Reason string
}

// CreateRefund refunds a completed payment. On provider success the refund
// completes and the payment flips to REFUNDED in one storage transaction; on
// provider failure the refund is FAILED and the payment stays COMPLETED so
// the caller may retry.
func (p *Processor) CreateRefund(ctx context.Context, in CreateRefundInput) (_ *billing.Refund, err error) {
	start := time.Now()
	defer func() { p.observe(opCreateRefund, start, err) }()

	ctx, span := p.tel.Tracer().Start(ctx, spanPrefix+"CreateRefund",
		attribute.String("operation", opCreateRefund),
		attribute.String("refund.payment_id", in.PaymentID),
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

	logger := logctx.FromOr(ctx, p.log).With(observability.F("operation", opCreateRefund))

	payment, err := p.repo.FindPayment(ctx, in.PaymentID)
	if err != nil {
		return nil, err
	}
	if !payment.Refundable() {
		return nil, fmt.Errorf("%w: payment %s is %s", billing.ErrPaymentNotRefundable, payment.ID, payment.Status)
	}

	amount := payment.Amount
	if in.Amount != nil {
		if in.Amount.GreaterThan(payment.Amount.Amount) {
			return nil, billing.ErrRefundExceedsPayment
		}
		amount = money.New(*in.Amount, payment.Amount.Currency)
	}

	refund, err := billing.NewRefund(p.ids.NewID(prefixRefund), payment.ID, amount, in.Reason, p.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := p.repo.InsertRefund(ctx, refund); err != nil {
		return nil, fmt.Errorf("processor: insert refund: %w", err)
	}
	p.emit(ctx, billing.NewRefundEvent(billing.EventRefundCreated, refund, p.clock.Now()))

	provStart := time.Now()
	ok, result := p.provider.Refund(ctx, payment.ID, amount)
	p.observeProvider("refund", provStart, ok)

	if !ok {
		refund.MarkFailed()
		if err := p.repo.UpdateRefund(ctx, refund); err != nil {
			return nil, fmt.Errorf("processor: update refund: %w", err)
		}
		logger.Warn("refund_failed",
			observability.F("refund_id", refund.ID),
			observability.F("payment_id", payment.ID),
		)
		return refund, nil
	}

	refund.MarkCompleted()
	payment.MarkRefunded()
	if err := p.repo.SettleRefund(ctx, refund, payment); err != nil {
		return nil, fmt.Errorf("processor: settle refund: %w", err)
	}
	p.emit(ctx, billing.NewRefundEvent(billing.EventRefundCompleted, refund, p.clock.Now()))

	logger.Info("refund_completed",
		observability.F("refund_id", refund.ID),
		observability.F("payment_id", payment.ID),
		observability.F("amount", amount.String()),
		observability.F("provider_result", result),
	)
	return refund, nil
}

// ListRefunds returns refunds newest first, optionally filtered by payment
// (empty id means all).
func (p *Processor) ListRefunds(ctx context.Context, paymentID string) ([]*billing.Refund, error) {
	return p.repo.ListRefunds(ctx, paymentID)
}
