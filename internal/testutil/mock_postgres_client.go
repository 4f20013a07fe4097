package testutil

import (
	"context"
	"sync"

	"github.com/finvoice/finvoice/internal/logger"
	"github.com/finvoice/finvoice/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil)

type mockTxKey struct{}

// Transactional is implemented by the in-memory stores so the mock client
// can roll their state back when a transaction function fails.
type Transactional interface {
	// Snapshot returns a function that restores the store to the state it
	// had when Snapshot was called.
	Snapshot() func()
}

// MockPostgresClient implements postgres.IClient over the in-memory stores.
// WithTx snapshots every registered store up front and restores them when
// the function errors, giving tests real all-or-nothing semantics.
// Transactions are serialized with a mutex, which stands in for the row
// locks settlement takes in production.
type MockPostgresClient struct {
	mu     sync.Mutex
	stores []Transactional
	logger *logger.Logger
}

func NewMockPostgresClient(logger *logger.Logger, stores ...Transactional) *MockPostgresClient {
	return &MockPostgresClient{logger: logger, stores: stores}
}

func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	// nested transactions join the outer one
	if ctx.Value(mockTxKey{}) != nil {
		return fn(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	restores := make([]func(), len(c.stores))
	for i, s := range c.stores {
		restores[i] = s.Snapshot()
	}

	err := fn(context.WithValue(ctx, mockTxKey{}, true))
	if err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}
	return err
}

// Querier is never used by the in-memory stores.
func (c *MockPostgresClient) Querier(ctx context.Context) postgres.Querier {
	panic("testutil: Querier is not supported by MockPostgresClient")
}
