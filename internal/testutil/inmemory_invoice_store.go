package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/finvoice/finvoice/internal/domain/invoice"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository for tests.
type InMemoryInvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]*invoice.Invoice

	// UpdateSettlementErr makes UpdateSettlement fail, for exercising
	// transaction rollback paths.
	UpdateSettlementErr error
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{invoices: make(map[string]*invoice.Invoice)}
}

func (s *InMemoryInvoiceStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[string]*invoice.Invoice, len(s.invoices))
	for k, v := range s.invoices {
		saved[k] = v
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.invoices = saved
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	copied := *inv
	copied.LineItems = make([]*invoice.LineItem, len(inv.LineItems))
	for i, li := range inv.LineItems {
		item := *li
		copied.LineItems[i] = &item
	}
	return &copied
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.invoices {
		if existing.UserID == inv.UserID &&
			existing.InvoiceNumber == inv.InvoiceNumber &&
			existing.Status != types.StatusDeleted {
			return ierr.NewError("invoice number taken").
				WithHint("An invoice with this number already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	s.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

// GetForUpdate behaves like Get; the mock client serializes transactions,
// which stands in for the production row lock.
func (s *InMemoryInvoiceStore) GetForUpdate(ctx context.Context, id string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

func (s *InMemoryInvoiceStore) get(id string) (*invoice.Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok || inv.Status != types.StatusPublished {
		return nil, ierr.NewError("invoice not found").
			WithHint("Invoice not found").
			Mark(ierr.ErrNotFound)
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoices[inv.ID]; !ok {
		return ierr.NewError("invoice not found").
			WithHint("Invoice not found").
			Mark(ierr.ErrNotFound)
	}
	s.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (s *InMemoryInvoiceStore) UpdateSettlement(ctx context.Context, inv *invoice.Invoice) error {
	if s.UpdateSettlementErr != nil {
		return s.UpdateSettlementErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.invoices[inv.ID]
	if !ok {
		return ierr.NewError("invoice not found").
			WithHint("Invoice not found").
			Mark(ierr.ErrNotFound)
	}
	updated := copyInvoice(existing)
	updated.InvoiceStatus = inv.InvoiceStatus
	updated.AmountPaid = inv.AmountPaid
	updated.AmountDue = inv.AmountDue
	updated.UpdatedAt = inv.UpdatedAt
	updated.UpdatedBy = inv.UpdatedBy
	s.invoices[inv.ID] = updated
	return nil
}

func (s *InMemoryInvoiceStore) UpdateStatus(ctx context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.invoices[inv.ID]
	if !ok {
		return ierr.NewError("invoice not found").
			WithHint("Invoice not found").
			Mark(ierr.ErrNotFound)
	}
	updated := copyInvoice(existing)
	updated.InvoiceStatus = inv.InvoiceStatus
	updated.UpdatedAt = inv.UpdatedAt
	updated.UpdatedBy = inv.UpdatedBy
	s.invoices[inv.ID] = updated
	return nil
}

func (s *InMemoryInvoiceStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return ierr.NewError("invoice not found").
			WithHint("Invoice not found").
			Mark(ierr.ErrNotFound)
	}
	deleted := copyInvoice(inv)
	deleted.Status = types.StatusDeleted
	deleted.UpdatedAt = time.Now().UTC()
	s.invoices[id] = deleted
	return nil
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, userID string, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(userID, filter)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.GetLimit(), filter.GetOffset()), nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, userID string, filter *types.InvoiceFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.match(userID, filter)), nil
}

func (s *InMemoryInvoiceStore) CountByCustomer(ctx context.Context, userID, customerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, inv := range s.invoices {
		if inv.UserID == userID && inv.CustomerID == customerID && inv.Status == types.StatusPublished {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryInvoiceStore) ExistsNumber(ctx context.Context, userID, invoiceNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.invoices {
		if inv.UserID == userID && inv.InvoiceNumber == invoiceNumber && inv.Status != types.StatusDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryInvoiceStore) match(userID string, filter *types.InvoiceFilter) []*invoice.Invoice {
	var matched []*invoice.Invoice
	for _, inv := range s.invoices {
		if inv.UserID != userID || inv.Status != types.StatusPublished {
			continue
		}
		if filter != nil {
			if len(filter.InvoiceIDs) > 0 && !lo.Contains(filter.InvoiceIDs, inv.ID) {
				continue
			}
			if filter.CustomerID != nil && inv.CustomerID != *filter.CustomerID {
				continue
			}
			if filter.InvoiceStatus != nil && inv.InvoiceStatus != *filter.InvoiceStatus {
				continue
			}
			if filter.DueBefore != nil && inv.DueDate.After(filter.DueBefore.Time) {
				continue
			}
			if filter.DueAfter != nil && inv.DueDate.Before(filter.DueAfter.Time) {
				continue
			}
		}
		matched = append(matched, copyInvoice(inv))
	}
	return matched
}
