package billing

import "time"

// Lifecycle event names. The set is fixed; hook registrations for any other
// name are ignored.
const (
	EventPaymentCreated        = "payment.created"
	EventPaymentCompleted      = "payment.completed"
	EventPaymentFailed         = "payment.failed"
	EventRefundCreated         = "refund.created"
	EventRefundCompleted       = "refund.completed"
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionCancelled = "subscription.cancelled"
)

// EventNames returns the fixed lifecycle event set.
func EventNames() []string {
	return []string{
		EventPaymentCreated,
		EventPaymentCompleted,
		EventPaymentFailed,
		EventRefundCreated,
		EventRefundCompleted,
		EventSubscriptionCreated,
		EventSubscriptionCancelled,
	}
}

// PaymentEvent carries a snapshot of the payment at the moment of transition.
type PaymentEvent struct {
	Name       string
	Payment    *Payment
	OccurredAt time.Time
}

func (e PaymentEvent) EventName() string { return e.Name }

func NewPaymentEvent(name string, p *Payment, now time.Time) PaymentEvent {
	return PaymentEvent{
		Name:       name,
		Payment:    p.Clone(),
		OccurredAt: now,
	}
}

type RefundEvent struct {
	Name       string
	Refund     *Refund
	OccurredAt time.Time
}

func (e RefundEvent) EventName() string { return e.Name }

func NewRefundEvent(name string, r *Refund, now time.Time) RefundEvent {
	return RefundEvent{
		Name:       name,
		Refund:     r.Clone(),
		OccurredAt: now,
	}
}

type SubscriptionEvent struct {
	Name         string
	Subscription *Subscription
	OccurredAt   time.Time
}

func (e SubscriptionEvent) EventName() string { return e.Name }

func NewSubscriptionEvent(name string, s *Subscription, now time.Time) SubscriptionEvent {
	return SubscriptionEvent{
		Name:         name,
		Subscription: s.Clone(),
		OccurredAt:   now,
	}
}
