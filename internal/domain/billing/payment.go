package billing

import (
	"time"

	"github.com/lanepay/lanepay/internal/domain/money"
)

const defaultFailureMessage = "payment failed"

type Payment struct {
	ID              string
	CustomerID      string
	Amount          money.Money
	Status          PaymentStatus
	PaymentMethodID string
	Description     string
	Metadata        map[string]string
	CreatedAt       time.Time
	CompletedAt     *time.Time
	Error           string
}

func NewPayment(id, customerID string, amount money.Money, paymentMethodID, description string, now time.Time) (*Payment, error) {
	if id == "" {
		return nil, newValidation("payment id is required")
	}
	if customerID == "" {
		return nil, newValidation("customer id is required")
	}
	if paymentMethodID == "" {
		return nil, ErrNoPaymentMethod
	}
	return &Payment{
		ID:              id,
		CustomerID:      customerID,
		Amount:          amount,
		Status:          PaymentStatusPending,
		PaymentMethodID: paymentMethodID,
		Description:     description,
		CreatedAt:       now,
	}, nil
}

func (p *Payment) MarkProcessing() {
	p.Status = PaymentStatusProcessing
}

// MarkCompleted stamps the completion time and merges the provider result
// into the payment metadata.
func (p *Payment) MarkCompleted(result map[string]string, now time.Time) {
	p.Status = PaymentStatusCompleted
	p.CompletedAt = &now
	if len(result) > 0 {
		if p.Metadata == nil {
			p.Metadata = make(map[string]string, len(result))
		}
		for k, v := range result {
			p.Metadata[k] = v
		}
	}
}

func (p *Payment) MarkFailed(reason string) {
	p.Status = PaymentStatusFailed
	if reason == "" {
		reason = defaultFailureMessage
	}
	p.Error = reason
}

func (p *Payment) MarkRefunded() {
	p.Status = PaymentStatusRefunded
}

// Refundable reports whether a refund may target this payment.
func (p *Payment) Refundable() bool {
	return p.Status == PaymentStatusCompleted
}

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Metadata = cloneMetadata(p.Metadata)
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		clone.CompletedAt = &t
	}
	return &clone
}
