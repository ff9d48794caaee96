package processor

import (
	"context"
	"time"

	"github.com/lanepay/lanepay/internal/clock"
	"github.com/lanepay/lanepay/internal/domain/billing"
	domhook "github.com/lanepay/lanepay/internal/domain/hook"
	domprovider "github.com/lanepay/lanepay/internal/domain/provider"
	"github.com/lanepay/lanepay/internal/observability"
)

const (
	serviceName = "payment-processor"
	spanPrefix  = "Processor."

	opCreateCustomer     = "customer.create"
	opAddPaymentMethod   = "customer.add_payment_method"
	opCreatePayment      = "payment.create"
	opCreateRefund       = "refund.create"
	opCreatePlan         = "plan.create"
	opCreateSubscription = "subscription.create"
	opCancelSubscription = "subscription.cancel"
	opPauseSubscription  = "subscription.pause"
	opResumeSubscription = "subscription.resume"

	prefixCustomer     = "cus"
	prefixMethod       = "pm"
	prefixPayment      = "pay"
	prefixRefund       = "ref"
	prefixPlan         = "plan"
	prefixSubscription = "sub"
)

// IDGenerator mints prefixed, collision-resistant entity ids.
type IDGenerator interface {
	NewID(prefix string) string
}

// Processor is the single authority over billing entity state: it creates
// records, drives their lifecycles, delegates money movement to the provider,
// and emits lifecycle events through the hook sink.
type Processor struct {
	repo     billing.Repository
	provider domprovider.Provider
	sink     domhook.Emitter
	ids      IDGenerator
	clock    clock.Clock

	tel         observability.Telemetry
	log         observability.Logger
	reqCounter  observability.Counter // processor_requests_total{operation,outcome}
	durHist     observability.Histogram
	provCounter observability.Counter // provider_requests_total{operation,outcome}
	provHist    observability.Histogram
}

func New(
	repo billing.Repository,
	prov domprovider.Provider,
	sink domhook.Emitter,
	ids IDGenerator,
	clk clock.Clock,
	tel observability.Telemetry,
) *Processor {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Processor{
		repo:        repo,
		provider:    prov,
		sink:        sink,
		ids:         ids,
		clock:       clk,
		tel:         tel,
		log:         tel.Logger().With(observability.F("service", serviceName)),
		reqCounter:  tel.Counter(observability.MProcessorRequests),
		durHist:     tel.Histogram(observability.MProcessorDuration),
		provCounter: tel.Counter(observability.MProviderRequests),
		provHist:    tel.Histogram(observability.MProviderDuration),
	}
}

func (p *Processor) emit(ctx context.Context, e domhook.Event) {
	if p.sink != nil {
		p.sink.Emit(ctx, e)
	}
}

func (p *Processor) observe(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.reqCounter.Add(1,
		observability.L("operation", operation),
		observability.L("outcome", outcome),
	)
	p.durHist.Observe(time.Since(start).Seconds(),
		observability.L("operation", operation),
	)
}

func (p *Processor) observeProvider(operation string, start time.Time, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "declined"
	}
	p.provCounter.Add(1,
		observability.L("operation", operation),
		observability.L("outcome", outcome),
	)
	p.provHist.Observe(time.Since(start).Seconds(),
		observability.L("operation", operation),
	)
}
