package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/finvoice/finvoice/internal/domain/history"
	"github.com/finvoice/finvoice/internal/types"
)

// InMemoryHistoryStore implements history.Repository for tests.
type InMemoryHistoryStore struct {
	mu      sync.RWMutex
	entries map[string]*history.Entry

	// CreateErr makes Create fail, for exercising the best-effort history
	// path.
	CreateErr error
}

func NewInMemoryHistoryStore() *InMemoryHistoryStore {
	return &InMemoryHistoryStore{entries: make(map[string]*history.Entry)}
}

func (s *InMemoryHistoryStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[string]*history.Entry, len(s.entries))
	for k, v := range s.entries {
		saved[k] = v
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.entries = saved
	}
}

func (s *InMemoryHistoryStore) Create(ctx context.Context, e *history.Entry) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *e
	s.entries[e.ID] = &stored
	return nil
}

func (s *InMemoryHistoryStore) List(ctx context.Context, userID string, filter *types.HistoryFilter) ([]*history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(userID, filter)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.GetLimit(), filter.GetOffset()), nil
}

func (s *InMemoryHistoryStore) Count(ctx context.Context, userID string, filter *types.HistoryFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.match(userID, filter)), nil
}

func (s *InMemoryHistoryStore) match(userID string, filter *types.HistoryFilter) []*history.Entry {
	var matched []*history.Entry
	for _, e := range s.entries {
		if e.UserID != userID {
			continue
		}
		if filter != nil {
			if filter.InvoiceID != nil && e.InvoiceID != *filter.InvoiceID {
				continue
			}
			if filter.PaymentID != nil && (e.PaymentID == nil || *e.PaymentID != *filter.PaymentID) {
				continue
			}
			if filter.Action != nil && e.Action != *filter.Action {
				continue
			}
		}
		found := *e
		matched = append(matched, &found)
	}
	return matched
}
