package billing

import (
	"time"

	"github.com/lanepay/lanepay/internal/domain/money"
)

type Refund struct {
	ID        string
	PaymentID string
	Amount    money.Money
	Reason    string
	Status    PaymentStatus
	CreatedAt time.Time
}

func NewRefund(id, paymentID string, amount money.Money, reason string, now time.Time) (*Refund, error) {
	if id == "" {
		return nil, newValidation("refund id is required")
	}
	if paymentID == "" {
		return nil, newValidation("payment id is required")
	}
	return &Refund{
		ID:        id,
		PaymentID: paymentID,
		Amount:    amount,
		Reason:    reason,
		Status:    PaymentStatusPending,
		CreatedAt: now,
	}, nil
}

func (r *Refund) MarkCompleted() {
	r.Status = PaymentStatusCompleted
}

func (r *Refund) MarkFailed() {
	r.Status = PaymentStatusFailed
}

func (r *Refund) Clone() *Refund {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
