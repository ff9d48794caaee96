package billing

import "github.com/lanepay/lanepay/internal/domain/money"

// Plan is an immutable catalog entry for recurring billing.
type Plan struct {
	ID            string
	Name          string
	Amount        money.Money
	Interval      BillingInterval
	IntervalCount int
	TrialDays     int
	Features      []string
	Metadata      map[string]string
}

func NewPlan(id, name string, amount money.Money, interval BillingInterval, intervalCount, trialDays int, features []string, metadata map[string]string) (*Plan, error) {
	if id == "" {
		return nil, newValidation("plan id is required")
	}
	if name == "" {
		return nil, newValidation("plan name is required")
	}
	if amount.Amount.IsNegative() {
		return nil, newValidation("plan amount must be zero or greater")
	}
	if !interval.Valid() {
		return nil, newValidation("unknown billing interval %q", interval)
	}
	if intervalCount < 1 {
		return nil, newValidation("interval count must be at least 1")
	}
	if trialDays < 0 {
		return nil, newValidation("trial days must be zero or greater")
	}
	return &Plan{
		ID:            id,
		Name:          name,
		Amount:        amount,
		Interval:      interval,
		IntervalCount: intervalCount,
		TrialDays:     trialDays,
		Features:      append([]string(nil), features...),
		Metadata:      cloneMetadata(metadata),
	}, nil
}

func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Features = append([]string(nil), p.Features...)
	clone.Metadata = cloneMetadata(p.Metadata)
	return &clone
}
