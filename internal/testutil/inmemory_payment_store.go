package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/finvoice/finvoice/internal/domain/payment"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/types"
)

// InMemoryPaymentStore implements payment.Repository for tests.
type InMemoryPaymentStore struct {
	mu       sync.RWMutex
	payments map[string]*payment.Payment

	// CreateErr makes Create fail, for exercising transaction rollback
	// paths.
	CreateErr error
}

func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{payments: make(map[string]*payment.Payment)}
}

func (s *InMemoryPaymentStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[string]*payment.Payment, len(s.payments))
	for k, v := range s.payments {
		saved[k] = v
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.payments = saved
	}
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *p
	s.payments[p.ID] = &stored
	return nil
}

func (s *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok || p.Status != types.StatusPublished {
		return nil, ierr.NewError("payment not found").
			WithHint("Payment not found").
			Mark(ierr.ErrNotFound)
	}
	found := *p
	return &found, nil
}

func (s *InMemoryPaymentStore) Update(ctx context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[p.ID]; !ok {
		return ierr.NewError("payment not found").
			WithHint("Payment not found").
			Mark(ierr.ErrNotFound)
	}
	stored := *p
	s.payments[p.ID] = &stored
	return nil
}

func (s *InMemoryPaymentStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return ierr.NewError("payment not found").
			WithHint("Payment not found").
			Mark(ierr.ErrNotFound)
	}
	deleted := *p
	deleted.Status = types.StatusDeleted
	deleted.UpdatedAt = time.Now().UTC()
	s.payments[id] = &deleted
	return nil
}

func (s *InMemoryPaymentStore) List(ctx context.Context, userID string, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(userID, filter)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.GetLimit(), filter.GetOffset()), nil
}

func (s *InMemoryPaymentStore) Count(ctx context.Context, userID string, filter *types.PaymentFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.match(userID, filter)), nil
}

func (s *InMemoryPaymentStore) FindByInvoice(ctx context.Context, invoiceID string) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*payment.Payment
	for _, p := range s.payments {
		if p.InvoiceID == invoiceID && p.Status == types.StatusPublished {
			found := *p
			matched = append(matched, &found)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (s *InMemoryPaymentStore) SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, p := range s.payments {
		if p.InvoiceID == invoiceID && p.Status == types.StatusPublished {
			sum = sum.Add(p.AmountPaid)
		}
	}
	return sum, nil
}

func (s *InMemoryPaymentStore) match(userID string, filter *types.PaymentFilter) []*payment.Payment {
	var matched []*payment.Payment
	for _, p := range s.payments {
		if p.UserID != userID || p.Status != types.StatusPublished {
			continue
		}
		if filter != nil {
			if len(filter.PaymentIDs) > 0 && !lo.Contains(filter.PaymentIDs, p.ID) {
				continue
			}
			if filter.InvoiceID != nil && p.InvoiceID != *filter.InvoiceID {
				continue
			}
			if filter.CustomerID != nil && p.CustomerID != *filter.CustomerID {
				continue
			}
			if filter.PaidBefore != nil && p.PaymentDate.After(filter.PaidBefore.Time) {
				continue
			}
			if filter.PaidAfter != nil && p.PaymentDate.Before(filter.PaidAfter.Time) {
				continue
			}
		}
		found := *p
		matched = append(matched, &found)
	}
	return matched
}
