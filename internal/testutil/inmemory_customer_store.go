package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/finvoice/finvoice/internal/domain/customer"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/types"
)

// InMemoryCustomerStore implements customer.Repository for tests.
type InMemoryCustomerStore struct {
	mu        sync.RWMutex
	customers map[string]*customer.Customer
}

func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{customers: make(map[string]*customer.Customer)}
}

func (s *InMemoryCustomerStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[string]*customer.Customer, len(s.customers))
	for k, v := range s.customers {
		saved[k] = v
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.customers = saved
	}
}

func (s *InMemoryCustomerStore) Create(ctx context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *c
	s.customers[c.ID] = &stored
	return nil
}

func (s *InMemoryCustomerStore) Get(ctx context.Context, userID, id string) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok || c.UserID != userID || c.Status != types.StatusPublished {
		return nil, ierr.NewError("customer not found").
			WithHint("Customer not found").
			Mark(ierr.ErrNotFound)
	}
	found := *c
	return &found, nil
}

// GetForUpdate behaves like Get; the mock client serializes transactions,
// which stands in for the production row lock.
func (s *InMemoryCustomerStore) GetForUpdate(ctx context.Context, userID, id string) (*customer.Customer, error) {
	return s.Get(ctx, userID, id)
}

func (s *InMemoryCustomerStore) Update(ctx context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[c.ID]; !ok {
		return ierr.NewError("customer not found").
			WithHint("Customer not found").
			Mark(ierr.ErrNotFound)
	}
	stored := *c
	s.customers[c.ID] = &stored
	return nil
}

func (s *InMemoryCustomerStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok || c.UserID != userID {
		return ierr.NewError("customer not found").
			WithHint("Customer not found").
			Mark(ierr.ErrNotFound)
	}
	deleted := *c
	deleted.Status = types.StatusDeleted
	deleted.UpdatedAt = time.Now().UTC()
	s.customers[id] = &deleted
	return nil
}

func (s *InMemoryCustomerStore) List(ctx context.Context, userID string, filter *customer.CustomerFilter) ([]*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(userID, filter)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter.GetLimit(), filter.GetOffset()), nil
}

func (s *InMemoryCustomerStore) Count(ctx context.Context, userID string, filter *customer.CustomerFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.match(userID, filter)), nil
}

func (s *InMemoryCustomerStore) match(userID string, filter *customer.CustomerFilter) []*customer.Customer {
	var matched []*customer.Customer
	for _, c := range s.customers {
		if c.UserID != userID || c.Status != types.StatusPublished {
			continue
		}
		if filter != nil {
			if len(filter.CustomerIDs) > 0 && !lo.Contains(filter.CustomerIDs, c.ID) {
				continue
			}
			if filter.Email != nil && c.Email != *filter.Email {
				continue
			}
			if filter.NameLike != nil && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(*filter.NameLike)) {
				continue
			}
		}
		found := *c
		matched = append(matched, &found)
	}
	return matched
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
