package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanepay/lanepay/internal/domain/money"
)

var testNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func testAmount(s string) money.Money {
	return money.New(decimal.RequireFromString(s), money.USD)
}

func TestNewPaymentStartsPending(t *testing.T) {
	p, err := NewPayment("pay_1", "cus_1", testAmount("49.99"), "pm_1", "order #42", testNow)
	require.NoError(t, err)

	assert.Equal(t, PaymentStatusPending, p.Status)
	assert.Equal(t, testNow, p.CreatedAt)
	assert.Nil(t, p.CompletedAt)
	assert.Empty(t, p.Error)
}

func TestNewPaymentRequiresMethod(t *testing.T) {
	_, err := NewPayment("pay_1", "cus_1", testAmount("1"), "", "", testNow)
	assert.ErrorIs(t, err, ErrNoPaymentMethod)
}

func TestPaymentLifecycle(t *testing.T) {
	p, err := NewPayment("pay_1", "cus_1", testAmount("10"), "pm_1", "", testNow)
	require.NoError(t, err)

	p.MarkProcessing()
	assert.Equal(t, PaymentStatusProcessing, p.Status)
	assert.False(t, p.Refundable())

	done := testNow.Add(time.Second)
	p.MarkCompleted(map[string]string{"provider_id": "abc123"}, done)
	assert.Equal(t, PaymentStatusCompleted, p.Status)
	require.NotNil(t, p.CompletedAt)
	assert.Equal(t, done, *p.CompletedAt)
	assert.Equal(t, "abc123", p.Metadata["provider_id"])
	assert.True(t, p.Refundable())

	p.MarkRefunded()
	assert.Equal(t, PaymentStatusRefunded, p.Status)
	assert.False(t, p.Refundable())
}

func TestPaymentMarkFailedDefaultsReason(t *testing.T) {
	p, err := NewPayment("pay_1", "cus_1", testAmount("10"), "pm_1", "", testNow)
	require.NoError(t, err)

	p.MarkFailed("")
	assert.Equal(t, PaymentStatusFailed, p.Status)
	assert.Equal(t, "payment failed", p.Error)

	p.MarkFailed("card declined")
	assert.Equal(t, "card declined", p.Error)
}

func TestPaymentCloneIsDeep(t *testing.T) {
	p, err := NewPayment("pay_1", "cus_1", testAmount("10"), "pm_1", "", testNow)
	require.NoError(t, err)
	p.MarkCompleted(map[string]string{"k": "v"}, testNow)

	clone := p.Clone()
	clone.Metadata["k"] = "mutated"
	*clone.CompletedAt = clone.CompletedAt.Add(time.Hour)

	assert.Equal(t, "v", p.Metadata["k"])
	assert.Equal(t, testNow, *p.CompletedAt)
}

func TestRefundLifecycle(t *testing.T) {
	r, err := NewRefund("ref_1", "pay_1", testAmount("5"), "duplicate charge", testNow)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPending, r.Status)

	r.MarkCompleted()
	assert.Equal(t, PaymentStatusCompleted, r.Status)

	r2, err := NewRefund("ref_2", "pay_1", testAmount("5"), "", testNow)
	require.NoError(t, err)
	r2.MarkFailed()
	assert.Equal(t, PaymentStatusFailed, r2.Status)
}

func TestCustomerAddPaymentMethod(t *testing.T) {
	c, err := NewCustomer("cus_1", "a@example.com", "Alice", nil, testNow)
	require.NoError(t, err)
	assert.Empty(t, c.DefaultPaymentMethod)

	first, err := NewPaymentMethodInfo("pm_1", MethodTypeCard, "4242", "visa", 12, 2030, nil)
	require.NoError(t, err)
	c.AddPaymentMethod(first)
	assert.Equal(t, "pm_1", c.DefaultPaymentMethod)

	second, err := NewPaymentMethodInfo("pm_2", MethodTypeBank, "", "", 0, 0, nil)
	require.NoError(t, err)
	c.AddPaymentMethod(second)

	// default stays on the first method
	assert.Equal(t, "pm_1", c.DefaultPaymentMethod)
	assert.True(t, c.HasPaymentMethod("pm_2"))
	assert.False(t, c.HasPaymentMethod("pm_3"))
}

func TestNewCustomerRequiresEmail(t *testing.T) {
	_, err := NewCustomer("cus_1", "", "Alice", nil, testNow)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewPaymentMethodInfoRejectsUnknownType(t *testing.T) {
	_, err := NewPaymentMethodInfo("pm_1", PaymentMethodType("cheque"), "", "", 0, 0, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewPlanValidation(t *testing.T) {
	amount := testAmount("9.99")

	_, err := NewPlan("plan_1", "", amount, IntervalMonthly, 1, 0, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	neg := money.New(decimal.RequireFromString("-1"), money.USD)
	_, err = NewPlan("plan_1", "basic", neg, IntervalMonthly, 1, 0, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewPlan("plan_1", "basic", amount, BillingInterval("fortnightly"), 1, 0, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewPlan("plan_1", "basic", amount, IntervalMonthly, 0, 0, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewPlan("plan_1", "basic", amount, IntervalMonthly, 1, -1, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	p, err := NewPlan("plan_1", "basic", amount, IntervalMonthly, 1, 14, []string{"api"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 14, p.TrialDays)
}

func TestSubscriptionPeriodsFromPlan(t *testing.T) {
	amount := testAmount("9.99")
	plan, err := NewPlan("plan_1", "basic", amount, IntervalMonthly, 1, 14, nil, nil)
	require.NoError(t, err)

	sub, err := NewSubscription("sub_1", "cus_1", plan, testNow)
	require.NoError(t, err)

	assert.Equal(t, SubscriptionStatusActive, sub.Status)
	assert.Equal(t, testNow, sub.CurrentPeriodStart)
	assert.Equal(t, testNow.Add(30*24*time.Hour), sub.CurrentPeriodEnd)
	require.NotNil(t, sub.TrialEnd)
	assert.Equal(t, testNow.Add(14*24*time.Hour), *sub.TrialEnd)
}

func TestSubscriptionNoTrial(t *testing.T) {
	plan, err := NewPlan("plan_1", "basic", testAmount("9.99"), IntervalYearly, 1, 0, nil, nil)
	require.NoError(t, err)

	sub, err := NewSubscription("sub_1", "cus_1", plan, testNow)
	require.NoError(t, err)
	assert.Nil(t, sub.TrialEnd)
	assert.Equal(t, testNow.Add(365*24*time.Hour), sub.CurrentPeriodEnd)
}

func TestSubscriptionCancelIsRepeatable(t *testing.T) {
	plan, err := NewPlan("plan_1", "basic", testAmount("9.99"), IntervalMonthly, 1, 0, nil, nil)
	require.NoError(t, err)
	sub, err := NewSubscription("sub_1", "cus_1", plan, testNow)
	require.NoError(t, err)

	sub.Cancel(testNow)
	require.NotNil(t, sub.CancelledAt)
	assert.Equal(t, testNow, *sub.CancelledAt)

	later := testNow.Add(time.Hour)
	sub.Cancel(later)
	assert.Equal(t, later, *sub.CancelledAt)
	assert.Equal(t, SubscriptionStatusCancelled, sub.Status)
}

func TestSubscriptionPauseResume(t *testing.T) {
	plan, err := NewPlan("plan_1", "basic", testAmount("9.99"), IntervalMonthly, 1, 0, nil, nil)
	require.NoError(t, err)
	sub, err := NewSubscription("sub_1", "cus_1", plan, testNow)
	require.NoError(t, err)

	assert.ErrorIs(t, sub.Resume(), ErrSubscriptionNotPaused)

	require.NoError(t, sub.Pause())
	assert.Equal(t, SubscriptionStatusPaused, sub.Status)
	assert.ErrorIs(t, sub.Pause(), ErrSubscriptionNotActive)

	require.NoError(t, sub.Resume())
	assert.Equal(t, SubscriptionStatusActive, sub.Status)

	sub.Cancel(testNow)
	assert.ErrorIs(t, sub.Pause(), ErrSubscriptionNotActive)
	assert.ErrorIs(t, sub.Resume(), ErrSubscriptionNotPaused)
}
