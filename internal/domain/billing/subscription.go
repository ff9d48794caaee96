package billing

import "time"

type Subscription struct {
	ID                 string
	CustomerID         string
	PlanID             string
	Status             SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	TrialEnd           *time.Time
	CancelledAt        *time.Time
	Metadata           map[string]string
}

// NewSubscription starts an active subscription with its first billing period
// and optional trial computed from the plan.
func NewSubscription(id, customerID string, plan *Plan, now time.Time) (*Subscription, error) {
	if id == "" {
		return nil, newValidation("subscription id is required")
	}
	if customerID == "" {
		return nil, newValidation("customer id is required")
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return &Subscription{
		ID:                 id,
		CustomerID:         customerID,
		PlanID:             plan.ID,
		Status:             SubscriptionStatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   PeriodEnd(now, plan.Interval, plan.IntervalCount),
		TrialEnd:           TrialEnd(now, plan.TrialDays),
	}, nil
}

// Cancel is terminal but deliberately not guarded: re-cancelling refreshes
// the cancellation stamp and the caller re-emits the lifecycle event.
func (s *Subscription) Cancel(now time.Time) {
	s.Status = SubscriptionStatusCancelled
	s.CancelledAt = &now
}

func (s *Subscription) Pause() error {
	if s.Status != SubscriptionStatusActive {
		return ErrSubscriptionNotActive
	}
	s.Status = SubscriptionStatusPaused
	return nil
}

func (s *Subscription) Resume() error {
	if s.Status != SubscriptionStatusPaused {
		return ErrSubscriptionNotPaused
	}
	s.Status = SubscriptionStatusActive
	return nil
}

func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Metadata = cloneMetadata(s.Metadata)
	if s.TrialEnd != nil {
		t := *s.TrialEnd
		clone.TrialEnd = &t
	}
	if s.CancelledAt != nil {
		t := *s.CancelledAt
		clone.CancelledAt = &t
	}
	return &clone
}
