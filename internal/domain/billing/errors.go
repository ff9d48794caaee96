package billing

import (
	"errors"
	"fmt"
)

var (
	ErrCustomerNotFound     = errors.New("billing: customer not found")
	ErrPaymentNotFound      = errors.New("billing: payment not found")
	ErrPlanNotFound         = errors.New("billing: plan not found")
	ErrSubscriptionNotFound = errors.New("billing: subscription not found")

	ErrNoPaymentMethod      = errors.New("billing: customer has no payment method")
	ErrPaymentNotRefundable = errors.New("billing: payment is not refundable")
	ErrRefundExceedsPayment = errors.New("billing: refund exceeds payment amount")

	ErrSubscriptionNotActive = errors.New("billing: subscription is not active")
	ErrSubscriptionNotPaused = errors.New("billing: subscription is not paused")

	// ErrConflict signals an id collision on insert.
	ErrConflict = errors.New("billing: id already exists")

	// ErrValidation wraps rejected input; callers match with errors.Is.
	ErrValidation = errors.New("billing: validation")
)

func newValidation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
