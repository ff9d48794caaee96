package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lanepay/lanepay/internal/domain/billing"
	"github.com/lanepay/lanepay/internal/domain/money"
	"github.com/lanepay/lanepay/internal/observability"
	"github.com/lanepay/lanepay/internal/observability/logctx"
)

type CreatePlanInput struct {
	Name          string
	Amount        decimal.Decimal
	Currency      money.Currency
	Interval      billing.BillingInterval
	IntervalCount int
	TrialDays     int
	Features      []string
	Metadata      map[string]string
}

// CreatePlan registers an immutable catalog entry; no provider call involved.
func (p *Processor) CreatePlan(ctx context.Context, in CreatePlanInput) (_ *billing.Plan, err error) {
	start := time.Now()
	defer func() { p.observe(opCreatePlan, start, err) }()

	if _, err := money.ParseCurrency(string(in.Currency)); err != nil {
		return nil, err
	}

	plan, err := billing.NewPlan(
		p.ids.NewID(prefixPlan),
		in.Name,
		money.New(in.Amount, in.Currency),
		in.Interval,
		in.IntervalCount,
		in.TrialDays,
		in.Features,
		in.Metadata,
	)
	if err != nil {
		return nil, err
	}
	if err := p.repo.InsertPlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("processor: insert plan: %w", err)
	}

	logctx.FromOr(ctx, p.log).Info("plan_created",
		observability.F("plan_id", plan.ID),
		observability.F("name", plan.Name),
		observability.F("interval", string(plan.Interval)),
	)
	return plan, nil
}

func (p *Processor) GetPlan(ctx context.Context, id string) (*billing.Plan, error) {
	return p.repo.FindPlan(ctx, id)
}
