package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/lanepay/lanepay/internal/domain/billing"
	"github.com/lanepay/lanepay/internal/observability"
	"github.com/lanepay/lanepay/internal/observability/logctx"
)

type CreateSubscriptionInput struct {
	CustomerID string
	PlanID     string
}

// CreateSubscription starts an active subscription; the first billing period
// and optional trial are computed from the plan at creation time.
func (p *Processor) CreateSubscription(ctx context.Context, in CreateSubscriptionInput) (_ *billing.Subscription, err error) {
	start := time.Now()
	defer func() { p.observe(opCreateSubscription, start, err) }()

	customer, err := p.repo.FindCustomer(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	plan, err := p.repo.FindPlan(ctx, in.PlanID)
	if err != nil {
		return nil, err
	}

	sub, err := billing.NewSubscription(p.ids.NewID(prefixSubscription), customer.ID, plan, p.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := p.repo.InsertSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("processor: insert subscription: %w", err)
	}
	p.emit(ctx, billing.NewSubscriptionEvent(billing.EventSubscriptionCreated, sub, p.clock.Now()))

	logctx.FromOr(ctx, p.log).Info("subscription_created",
		observability.F("subscription_id", sub.ID),
		observability.F("customer_id", customer.ID),
		observability.F("plan_id", plan.ID),
	)
	return sub, nil
}

func (p *Processor) GetSubscription(ctx context.Context, id string) (*billing.Subscription, error) {
	return p.repo.FindSubscription(ctx, id)
}

// CancelSubscription is terminal but idempotent: cancelling an already
// cancelled subscription refreshes cancelled_at and re-emits the event.
func (p *Processor) CancelSubscription(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { p.observe(opCancelSubscription, start, err) }()

	sub, err := p.repo.FindSubscription(ctx, id)
	if err != nil {
		return err
	}

	sub.Cancel(p.clock.Now())
	if err := p.repo.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("processor: update subscription: %w", err)
	}
	p.emit(ctx, billing.NewSubscriptionEvent(billing.EventSubscriptionCancelled, sub, p.clock.Now()))

	logctx.FromOr(ctx, p.log).Info("subscription_cancelled",
		observability.F("subscription_id", sub.ID),
	)
	return nil
}

func (p *Processor) PauseSubscription(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { p.observe(opPauseSubscription, start, err) }()

	sub, err := p.repo.FindSubscription(ctx, id)
	if err != nil {
		return err
	}
	if err := sub.Pause(); err != nil {
		return err
	}
	if err := p.repo.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("processor: update subscription: %w", err)
	}

	logctx.FromOr(ctx, p.log).Info("subscription_paused",
		observability.F("subscription_id", sub.ID),
	)
	return nil
}

func (p *Processor) ResumeSubscription(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { p.observe(opResumeSubscription, start, err) }()

	sub, err := p.repo.FindSubscription(ctx, id)
	if err != nil {
		return err
	}
	if err := sub.Resume(); err != nil {
		return err
	}
	if err := p.repo.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("processor: update subscription: %w", err)
	}

	logctx.FromOr(ctx, p.log).Info("subscription_resumed",
		observability.F("subscription_id", sub.ID),
	)
	return nil
}
