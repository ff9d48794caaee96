package billing

import "context"

// Repository owns all id→entity storage. Implementations must treat inserted
// and returned entities as snapshots: no caller-visible aliasing.
type Repository interface {
	InsertCustomer(ctx context.Context, c *Customer) error
	FindCustomer(ctx context.Context, id string) (*Customer, error)
	UpdateCustomer(ctx context.Context, c *Customer) error

	InsertPayment(ctx context.Context, p *Payment) error
	FindPayment(ctx context.Context, id string) (*Payment, error)
	UpdatePayment(ctx context.Context, p *Payment) error
	// ListPayments returns payments sorted by creation time descending;
	// empty customerID means all payments.
	ListPayments(ctx context.Context, customerID string) ([]*Payment, error)

	InsertRefund(ctx context.Context, r *Refund) error
	UpdateRefund(ctx context.Context, r *Refund) error
	// SettleRefund persists the refund and its originating payment in one
	// critical section so no observer sees one updated without the other.
	SettleRefund(ctx context.Context, r *Refund, p *Payment) error
	ListRefunds(ctx context.Context, paymentID string) ([]*Refund, error)

	InsertPlan(ctx context.Context, p *Plan) error
	FindPlan(ctx context.Context, id string) (*Plan, error)

	InsertSubscription(ctx context.Context, s *Subscription) error
	FindSubscription(ctx context.Context, id string) (*Subscription, error)
	UpdateSubscription(ctx context.Context, s *Subscription) error
}
