package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/lanepay/lanepay/internal/domain/billing"
)

// Store holds every billing entity in id-keyed maps behind a single RWMutex.
// Writes clone in and reads clone out, so callers never share live records
// and the lock is held only for the map operation itself, never across a
// provider call.
type Store struct {
	mu            sync.RWMutex
	customers     map[string]*domain.Customer
	payments      map[string]*domain.Payment
	refunds       map[string]*domain.Refund
	plans         map[string]*domain.Plan
	subscriptions map[string]*domain.Subscription
}

func NewStore() *Store {
	return &Store{
		customers:     make(map[string]*domain.Customer),
		payments:      make(map[string]*domain.Payment),
		refunds:       make(map[string]*domain.Refund),
		plans:         make(map[string]*domain.Plan),
		subscriptions: make(map[string]*domain.Subscription),
	}
}

func (s *Store) InsertCustomer(ctx context.Context, c *domain.Customer) error {
	_ = ctx
	if c == nil || c.ID == "" {
		return fmt.Errorf("memory store: customer id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID]; exists {
		return domain.ErrConflict
	}
	s.customers[c.ID] = c.Clone()
	return nil
}

func (s *Store) FindCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return c.Clone(), nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c *domain.Customer) error {
	_ = ctx
	if c == nil || c.ID == "" {
		return fmt.Errorf("memory store: customer id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID]; !exists {
		return domain.ErrCustomerNotFound
	}
	s.customers[c.ID] = c.Clone()
	return nil
}

func (s *Store) InsertPayment(ctx context.Context, p *domain.Payment) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("memory store: payment id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID]; exists {
		return domain.ErrConflict
	}
	s.payments[p.ID] = p.Clone()
	return nil
}

func (s *Store) FindPayment(ctx context.Context, id string) (*domain.Payment, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return p.Clone(), nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("memory store: payment id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID]; !exists {
		return domain.ErrPaymentNotFound
	}
	s.payments[p.ID] = p.Clone()
	return nil
}

func (s *Store) ListPayments(ctx context.Context, customerID string) ([]*domain.Payment, error) {
	_ = ctx

	s.mu.RLock()
	out := make([]*domain.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		if customerID != "" && p.CustomerID != customerID {
			continue
		}
		out = append(out, p.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) InsertRefund(ctx context.Context, r *domain.Refund) error {
	_ = ctx
	if r == nil || r.ID == "" {
		return fmt.Errorf("memory store: refund id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.refunds[r.ID]; exists {
		return domain.ErrConflict
	}
	s.refunds[r.ID] = r.Clone()
	return nil
}

func (s *Store) UpdateRefund(ctx context.Context, r *domain.Refund) error {
	_ = ctx
	if r == nil || r.ID == "" {
		return fmt.Errorf("memory store: refund id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.refunds[r.ID]; !exists {
		return fmt.Errorf("memory store: refund %s not found", r.ID)
	}
	s.refunds[r.ID] = r.Clone()
	return nil
}

// SettleRefund replaces the refund and its originating payment under one lock
// so readers never see the refund completed while the payment is still
// unrefunded, or vice versa.
func (s *Store) SettleRefund(ctx context.Context, r *domain.Refund, p *domain.Payment) error {
	_ = ctx
	if r == nil || r.ID == "" || p == nil || p.ID == "" {
		return fmt.Errorf("memory store: refund and payment ids are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.refunds[r.ID]; !exists {
		return fmt.Errorf("memory store: refund %s not found", r.ID)
	}
	if _, exists := s.payments[p.ID]; !exists {
		return domain.ErrPaymentNotFound
	}
	s.refunds[r.ID] = r.Clone()
	s.payments[p.ID] = p.Clone()
	return nil
}

func (s *Store) ListRefunds(ctx context.Context, paymentID string) ([]*domain.Refund, error) {
	_ = ctx

	s.mu.RLock()
	out := make([]*domain.Refund, 0, len(s.refunds))
	for _, r := range s.refunds {
		if paymentID != "" && r.PaymentID != paymentID {
			continue
		}
		out = append(out, r.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) InsertPlan(ctx context.Context, p *domain.Plan) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("memory store: plan id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID]; exists {
		return domain.ErrConflict
	}
	s.plans[p.ID] = p.Clone()
	return nil
}

func (s *Store) FindPlan(ctx context.Context, id string) (*domain.Plan, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	return p.Clone(), nil
}

func (s *Store) InsertSubscription(ctx context.Context, sub *domain.Subscription) error {
	_ = ctx
	if sub == nil || sub.ID == "" {
		return fmt.Errorf("memory store: subscription id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID]; exists {
		return domain.ErrConflict
	}
	s.subscriptions[sub.ID] = sub.Clone()
	return nil
}

func (s *Store) FindSubscription(ctx context.Context, id string) (*domain.Subscription, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	return sub.Clone(), nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *domain.Subscription) error {
	_ = ctx
	if sub == nil || sub.ID == "" {
		return fmt.Errorf("memory store: subscription id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID]; !exists {
		return domain.ErrSubscriptionNotFound
	}
	s.subscriptions[sub.ID] = sub.Clone()
	return nil
}
