package processor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanepay/lanepay/internal/clock"
	"github.com/lanepay/lanepay/internal/domain/billing"
	domhook "github.com/lanepay/lanepay/internal/domain/hook"
	"github.com/lanepay/lanepay/internal/domain/money"
	"github.com/lanepay/lanepay/internal/infrastructure/memory"
)

var testStart = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

// seqIDs mints deterministic ids: cus_1, pay_2, ...
type seqIDs struct{ n int }

func (g *seqIDs) NewID(prefix string) string {
	g.n++
	return fmt.Sprintf("%s_%d", prefix, g.n)
}

// scriptedProvider returns canned outcomes and records every call.
type scriptedProvider struct {
	chargeOK     bool
	chargeResult map[string]string
	refundOK     bool
	refundResult map[string]string

	chargeCalls int
	refundCalls int
}

func (p *scriptedProvider) Charge(_ context.Context, _ *billing.Customer, _ money.Money, _ string) (bool, map[string]string) {
	p.chargeCalls++
	return p.chargeOK, p.chargeResult
}

func (p *scriptedProvider) Refund(_ context.Context, _ string, _ money.Money) (bool, map[string]string) {
	p.refundCalls++
	return p.refundOK, p.refundResult
}

// eventRecorder captures emitted events in order.
type eventRecorder struct {
	events []domhook.Event
}

func (r *eventRecorder) Emit(_ context.Context, e domhook.Event) {
	r.events = append(r.events, e)
}

func (r *eventRecorder) names() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventName())
	}
	return out
}

type fixture struct {
	proc     *Processor
	store    *memory.Store
	provider *scriptedProvider
	events   *eventRecorder
	clock    *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	provider := &scriptedProvider{chargeOK: true, refundOK: true}
	events := &eventRecorder{}
	clk := clock.NewFakeClock(testStart)
	proc := New(store, provider, events, &seqIDs{}, clk, nil)
	return &fixture{proc: proc, store: store, provider: provider, events: events, clock: clk}
}

func (f *fixture) customerWithCard(t *testing.T) *billing.Customer {
	t.Helper()
	ctx := context.Background()
	customer, err := f.proc.CreateCustomer(ctx, CreateCustomerInput{Email: "a@example.com", Name: "Alice"})
	require.NoError(t, err)
	_, err = f.proc.AddPaymentMethod(ctx, AddPaymentMethodInput{
		CustomerID: customer.ID,
		Type:       billing.MethodTypeCard,
		LastFour:   "4242",
		Brand:      "visa",
		ExpMonth:   12,
		ExpYear:    2030,
	})
	require.NoError(t, err)
	customer, err = f.proc.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	return customer
}

func (f *fixture) completedPayment(t *testing.T, amount string) *billing.Payment {
	t.Helper()
	customer := f.customerWithCard(t)
	payment, err := f.proc.CreatePayment(context.Background(), CreatePaymentInput{
		CustomerID: customer.ID,
		Amount:     decimal.RequireFromString(amount),
		Currency:   money.USD,
	})
	require.NoError(t, err)
	require.Equal(t, billing.PaymentStatusCompleted, payment.Status)
	return payment
}

func TestCreateCustomer(t *testing.T) {
	f := newFixture(t)

	customer, err := f.proc.CreateCustomer(context.Background(), CreateCustomerInput{
		Email:    "a@example.com",
		Name:     "Alice",
		Metadata: map[string]string{"tier": "gold"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_1", customer.ID)
	assert.Equal(t, testStart, customer.CreatedAt)
	assert.Empty(t, customer.PaymentMethods)

	_, err = f.proc.CreateCustomer(context.Background(), CreateCustomerInput{Email: ""})
	assert.ErrorIs(t, err, billing.ErrValidation)
}

func TestAddPaymentMethodSetsDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer, err := f.proc.CreateCustomer(ctx, CreateCustomerInput{Email: "a@example.com"})
	require.NoError(t, err)

	first, err := f.proc.AddPaymentMethod(ctx, AddPaymentMethodInput{
		CustomerID: customer.ID,
		Type:       billing.MethodTypeCard,
	})
	require.NoError(t, err)

	_, err = f.proc.AddPaymentMethod(ctx, AddPaymentMethodInput{
		CustomerID: customer.ID,
		Type:       billing.MethodTypeWallet,
	})
	require.NoError(t, err)

	got, err := f.proc.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, got.PaymentMethods, 2)
	assert.Equal(t, first.ID, got.DefaultPaymentMethod)

	_, err = f.proc.AddPaymentMethod(ctx, AddPaymentMethodInput{
		CustomerID: "cus_missing",
		Type:       billing.MethodTypeCard,
	})
	assert.ErrorIs(t, err, billing.ErrCustomerNotFound)
}

func TestCreatePaymentSuccess(t *testing.T) {
	f := newFixture(t)
	f.provider.chargeResult = map[string]string{"provider_id": "ch_123"}
	customer := f.customerWithCard(t)

	payment, err := f.proc.CreatePayment(context.Background(), CreatePaymentInput{
		CustomerID:  customer.ID,
		Amount:      decimal.RequireFromString("49.99"),
		Currency:    money.USD,
		Description: "pro upgrade",
	})
	require.NoError(t, err)

	assert.Equal(t, billing.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, customer.DefaultPaymentMethod, payment.PaymentMethodID)
	assert.Equal(t, "ch_123", payment.Metadata["provider_id"])
	require.NotNil(t, payment.CompletedAt)
	assert.Equal(t, testStart, *payment.CompletedAt)
	assert.Equal(t, 1, f.provider.chargeCalls)

	// created then completed, exactly once each, in order
	assert.Equal(t, []string{billing.EventPaymentCreated, billing.EventPaymentCompleted}, f.events.names())

	stored, err := f.proc.GetPayment(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusCompleted, stored.Status)
}

func TestCreatePaymentDeclined(t *testing.T) {
	f := newFixture(t)
	f.provider.chargeOK = false
	f.provider.chargeResult = map[string]string{"error": "insufficient funds"}
	customer := f.customerWithCard(t)

	payment, err := f.proc.CreatePayment(context.Background(), CreatePaymentInput{
		CustomerID: customer.ID,
		Amount:     decimal.RequireFromString("49.99"),
		Currency:   money.USD,
	})
	require.NoError(t, err)

	assert.Equal(t, billing.PaymentStatusFailed, payment.Status)
	assert.Equal(t, "insufficient funds", payment.Error)
	assert.Nil(t, payment.CompletedAt)
	assert.Equal(t, []string{billing.EventPaymentCreated, billing.EventPaymentFailed}, f.events.names())
}

func TestCreatePaymentNoMethodSkipsProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer, err := f.proc.CreateCustomer(ctx, CreateCustomerInput{Email: "a@example.com"})
	require.NoError(t, err)

	_, err = f.proc.CreatePayment(ctx, CreatePaymentInput{
		CustomerID: customer.ID,
		Amount:     decimal.RequireFromString("1.00"),
		Currency:   money.USD,
	})
	assert.ErrorIs(t, err, billing.ErrNoPaymentMethod)
	assert.Zero(t, f.provider.chargeCalls)
	assert.Empty(t, f.events.names())
}

func TestCreatePaymentExplicitMethod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customerWithCard(t)

	extra, err := f.proc.AddPaymentMethod(ctx, AddPaymentMethodInput{
		CustomerID: customer.ID,
		Type:       billing.MethodTypeBank,
	})
	require.NoError(t, err)

	payment, err := f.proc.CreatePayment(ctx, CreatePaymentInput{
		CustomerID:      customer.ID,
		Amount:          decimal.RequireFromString("5.00"),
		Currency:        money.USD,
		PaymentMethodID: extra.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, extra.ID, payment.PaymentMethodID)
}

func TestCreatePaymentRejectsUnknownCurrency(t *testing.T) {
	f := newFixture(t)
	customer := f.customerWithCard(t)

	_, err := f.proc.CreatePayment(context.Background(), CreatePaymentInput{
		CustomerID: customer.ID,
		Amount:     decimal.RequireFromString("1.00"),
		Currency:   money.Currency("JPY"),
	})
	assert.Error(t, err)
	assert.Zero(t, f.provider.chargeCalls)
}

func TestCreateRefundFull(t *testing.T) {
	f := newFixture(t)
	payment := f.completedPayment(t, "20.00")
	f.events.events = nil

	refund, err := f.proc.CreateRefund(context.Background(), CreateRefundInput{
		PaymentID: payment.ID,
		Reason:    "requested by customer",
	})
	require.NoError(t, err)

	assert.Equal(t, billing.PaymentStatusCompleted, refund.Status)
	assert.True(t, refund.Amount.Amount.Equal(payment.Amount.Amount))
	assert.Equal(t, []string{billing.EventRefundCreated, billing.EventRefundCompleted}, f.events.names())

	// the originating payment flipped atomically
	got, err := f.proc.GetPayment(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusRefunded, got.Status)
}

func TestCreateRefundPartial(t *testing.T) {
	f := newFixture(t)
	payment := f.completedPayment(t, "20.00")

	part := decimal.RequireFromString("7.50")
	refund, err := f.proc.CreateRefund(context.Background(), CreateRefundInput{
		PaymentID: payment.ID,
		Amount:    &part,
	})
	require.NoError(t, err)
	assert.True(t, refund.Amount.Amount.Equal(part))
	assert.Equal(t, payment.Amount.Currency, refund.Amount.Currency)
}

func TestCreateRefundExceedsPayment(t *testing.T) {
	f := newFixture(t)
	payment := f.completedPayment(t, "20.00")

	over := decimal.RequireFromString("20.01")
	_, err := f.proc.CreateRefund(context.Background(), CreateRefundInput{
		PaymentID: payment.ID,
		Amount:    &over,
	})
	assert.ErrorIs(t, err, billing.ErrRefundExceedsPayment)
	assert.Zero(t, f.provider.refundCalls)
}

func TestCreateRefundRequiresCompletedPayment(t *testing.T) {
	f := newFixture(t)
	f.provider.chargeOK = false
	customer := f.customerWithCard(t)

	payment, err := f.proc.CreatePayment(context.Background(), CreatePaymentInput{
		CustomerID: customer.ID,
		Amount:     decimal.RequireFromString("5.00"),
		Currency:   money.USD,
	})
	require.NoError(t, err)
	require.Equal(t, billing.PaymentStatusFailed, payment.Status)

	_, err = f.proc.CreateRefund(context.Background(), CreateRefundInput{PaymentID: payment.ID})
	assert.ErrorIs(t, err, billing.ErrPaymentNotRefundable)

	_, err = f.proc.CreateRefund(context.Background(), CreateRefundInput{PaymentID: "pay_missing"})
	assert.ErrorIs(t, err, billing.ErrPaymentNotFound)
}

func TestCreateRefundProviderFailureKeepsPaymentCompleted(t *testing.T) {
	f := newFixture(t)
	payment := f.completedPayment(t, "20.00")
	f.provider.refundOK = false
	f.events.events = nil

	refund, err := f.proc.CreateRefund(context.Background(), CreateRefundInput{PaymentID: payment.ID})
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusFailed, refund.Status)

	// no refund.completed, payment still refundable
	assert.Equal(t, []string{billing.EventRefundCreated}, f.events.names())
	got, err := f.proc.GetPayment(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusCompleted, got.Status)

	// retry succeeds
	f.provider.refundOK = true
	retry, err := f.proc.CreateRefund(context.Background(), CreateRefundInput{PaymentID: payment.ID})
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusCompleted, retry.Status)

	got, err = f.proc.GetPayment(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusRefunded, got.Status)
}

func TestCannotRefundTwice(t *testing.T) {
	f := newFixture(t)
	payment := f.completedPayment(t, "20.00")

	_, err := f.proc.CreateRefund(context.Background(), CreateRefundInput{PaymentID: payment.ID})
	require.NoError(t, err)

	_, err = f.proc.CreateRefund(context.Background(), CreateRefundInput{PaymentID: payment.ID})
	assert.ErrorIs(t, err, billing.ErrPaymentNotRefundable)
}

func TestListPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customerWithCard(t)

	other, err := f.proc.CreateCustomer(ctx, CreateCustomerInput{Email: "b@example.com"})
	require.NoError(t, err)
	_, err = f.proc.AddPaymentMethod(ctx, AddPaymentMethodInput{CustomerID: other.ID, Type: billing.MethodTypeCard})
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 3; i++ {
		p, err := f.proc.CreatePayment(ctx, CreatePaymentInput{
			CustomerID: customer.ID,
			Amount:     decimal.NewFromInt(int64(i + 1)),
			Currency:   money.USD,
		})
		require.NoError(t, err)
		ids = append(ids, p.ID)
		f.clock.Advance(time.Minute)
	}
	_, err = f.proc.CreatePayment(ctx, CreatePaymentInput{
		CustomerID: other.ID,
		Amount:     decimal.NewFromInt(9),
		Currency:   money.USD,
	})
	require.NoError(t, err)

	mine, err := f.proc.ListPayments(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	// newest first
	assert.Equal(t, ids[2], mine[0].ID)
	assert.Equal(t, ids[0], mine[2].ID)

	all, err := f.proc.ListPayments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCreatePlanAndSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customerWithCard(t)

	plan, err := f.proc.CreatePlan(ctx, CreatePlanInput{
		Name:          "pro",
		Amount:        decimal.RequireFromString("29.99"),
		Currency:      money.USD,
		Interval:      billing.IntervalMonthly,
		IntervalCount: 1,
		TrialDays:     14,
	})
	require.NoError(t, err)

	f.events.events = nil
	sub, err := f.proc.CreateSubscription(ctx, CreateSubscriptionInput{
		CustomerID: customer.ID,
		PlanID:     plan.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, billing.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, testStart, sub.CurrentPeriodStart)
	assert.Equal(t, testStart.Add(30*24*time.Hour), sub.CurrentPeriodEnd)
	require.NotNil(t, sub.TrialEnd)
	assert.Equal(t, testStart.Add(14*24*time.Hour), *sub.TrialEnd)
	assert.Equal(t, []string{billing.EventSubscriptionCreated}, f.events.names())
}

func TestCreatePlanRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.proc.CreatePlan(ctx, CreatePlanInput{
		Name:          "pro",
		Amount:        decimal.NewFromInt(1),
		Currency:      money.Currency("XYZ"),
		Interval:      billing.IntervalMonthly,
		IntervalCount: 1,
	})
	assert.Error(t, err)

	_, err = f.proc.CreatePlan(ctx, CreatePlanInput{
		Name:          "pro",
		Amount:        decimal.NewFromInt(1),
		Currency:      money.USD,
		Interval:      billing.BillingInterval("biweekly"),
		IntervalCount: 1,
	})
	assert.ErrorIs(t, err, billing.ErrValidation)
}

func TestCreateSubscriptionUnknownRefs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customerWithCard(t)

	_, err := f.proc.CreateSubscription(ctx, CreateSubscriptionInput{
		CustomerID: "cus_missing",
		PlanID:     "plan_1",
	})
	assert.ErrorIs(t, err, billing.ErrCustomerNotFound)

	_, err = f.proc.CreateSubscription(ctx, CreateSubscriptionInput{
		CustomerID: customer.ID,
		PlanID:     "plan_missing",
	})
	assert.ErrorIs(t, err, billing.ErrPlanNotFound)
}

func TestCancelSubscriptionReEmits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customerWithCard(t)

	plan, err := f.proc.CreatePlan(ctx, CreatePlanInput{
		Name:          "pro",
		Amount:        decimal.NewFromInt(10),
		Currency:      money.USD,
		Interval:      billing.IntervalMonthly,
		IntervalCount: 1,
	})
	require.NoError(t, err)
	sub, err := f.proc.CreateSubscription(ctx, CreateSubscriptionInput{CustomerID: customer.ID, PlanID: plan.ID})
	require.NoError(t, err)

	f.events.events = nil
	require.NoError(t, f.proc.CancelSubscription(ctx, sub.ID))

	got, err := f.proc.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.SubscriptionStatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)
	first := *got.CancelledAt

	// cancelling again refreshes the stamp and emits again
	f.clock.Advance(time.Hour)
	require.NoError(t, f.proc.CancelSubscription(ctx, sub.ID))

	got, err = f.proc.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Add(time.Hour), *got.CancelledAt)
	assert.Equal(t, []string{billing.EventSubscriptionCancelled, billing.EventSubscriptionCancelled}, f.events.names())
}

func TestPauseResumeSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customerWithCard(t)

	plan, err := f.proc.CreatePlan(ctx, CreatePlanInput{
		Name:          "pro",
		Amount:        decimal.NewFromInt(10),
		Currency:      money.USD,
		Interval:      billing.IntervalWeekly,
		IntervalCount: 1,
	})
	require.NoError(t, err)
	sub, err := f.proc.CreateSubscription(ctx, CreateSubscriptionInput{CustomerID: customer.ID, PlanID: plan.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, f.proc.ResumeSubscription(ctx, sub.ID), billing.ErrSubscriptionNotPaused)

	require.NoError(t, f.proc.PauseSubscription(ctx, sub.ID))
	got, err := f.proc.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.SubscriptionStatusPaused, got.Status)

	assert.ErrorIs(t, f.proc.PauseSubscription(ctx, sub.ID), billing.ErrSubscriptionNotActive)

	require.NoError(t, f.proc.ResumeSubscription(ctx, sub.ID))
	got, err = f.proc.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.SubscriptionStatusActive, got.Status)
}

func TestEventTimesComeFromClock(t *testing.T) {
	f := newFixture(t)
	f.clock.Advance(90 * time.Minute)
	want := f.clock.Now()

	payment := f.completedPayment(t, "10.00")
	_, err := f.proc.CreateRefund(context.Background(), CreateRefundInput{PaymentID: payment.ID})
	require.NoError(t, err)

	plan, err := f.proc.CreatePlan(context.Background(), CreatePlanInput{
		Name:          "pro",
		Amount:        decimal.NewFromInt(10),
		Currency:      money.USD,
		Interval:      billing.IntervalMonthly,
		IntervalCount: 1,
	})
	require.NoError(t, err)
	customer, err := f.proc.GetCustomer(context.Background(), "cus_1")
	require.NoError(t, err)
	_, err = f.proc.CreateSubscription(context.Background(), CreateSubscriptionInput{
		CustomerID: customer.ID,
		PlanID:     plan.ID,
	})
	require.NoError(t, err)

	require.NotEmpty(t, f.events.events)
	for _, e := range f.events.events {
		switch ev := e.(type) {
		case billing.PaymentEvent:
			assert.Equal(t, want, ev.OccurredAt, ev.Name)
		case billing.RefundEvent:
			assert.Equal(t, want, ev.OccurredAt, ev.Name)
		case billing.SubscriptionEvent:
			assert.Equal(t, want, ev.OccurredAt, ev.Name)
		default:
			t.Fatalf("unexpected event type %T", e)
		}
	}
}

func TestListRefunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.completedPayment(t, "30.00")

	part := decimal.RequireFromString("10.00")
	f.provider.refundOK = false
	first, err := f.proc.CreateRefund(ctx, CreateRefundInput{PaymentID: payment.ID, Amount: &part})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	f.provider.refundOK = true
	second, err := f.proc.CreateRefund(ctx, CreateRefundInput{PaymentID: payment.ID, Amount: &part})
	require.NoError(t, err)

	refunds, err := f.proc.ListRefunds(ctx, payment.ID)
	require.NoError(t, err)
	require.Len(t, refunds, 2)
	assert.Equal(t, second.ID, refunds[0].ID)
	assert.Equal(t, first.ID, refunds[1].ID)

	none, err := f.proc.ListRefunds(ctx, "pay_missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
