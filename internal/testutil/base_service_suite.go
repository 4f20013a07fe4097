package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/finvoice/finvoice/internal/auth"
	"github.com/finvoice/finvoice/internal/cache"
	"github.com/finvoice/finvoice/internal/config"
	"github.com/finvoice/finvoice/internal/logger"
	"github.com/finvoice/finvoice/internal/types"
	"github.com/finvoice/finvoice/internal/validator"
)

// Stores holds the in-memory repositories a service test runs against.
type Stores struct {
	UserRepo     *InMemoryUserStore
	CustomerRepo *InMemoryCustomerStore
	InvoiceRepo  *InMemoryInvoiceStore
	PaymentRepo  *InMemoryPaymentStore
	HistoryRepo  *InMemoryHistoryStore
}

// BaseServiceTestSuite provides common functionality for service test
// suites: fresh stores, an authenticated context and a transactional mock
// client per test.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	db     *MockPostgresClient
	logger *logger.Logger
	config *config.Configuration
	auth   *auth.Provider
	cache  cache.Cache
	now    time.Time
}

func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = &config.Configuration{
		Logging: config.LoggingConfig{Level: types.LogLevelInfo},
		Auth: config.AuthConfig{
			Secret:      "test-secret-for-unit-tests-only",
			TokenExpiry: time.Hour,
		},
	}
	s.logger = logger.NewNopLogger()
	s.auth = auth.NewProvider(s.config)
}

func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.cache = cache.NewInMemoryCache()
	s.now = time.Now().UTC()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		UserRepo:     NewInMemoryUserStore(),
		CustomerRepo: NewInMemoryCustomerStore(),
		InvoiceRepo:  NewInMemoryInvoiceStore(),
		PaymentRepo:  NewInMemoryPaymentStore(),
		HistoryRepo:  NewInMemoryHistoryStore(),
	}
	s.db = NewMockPostgresClient(s.logger,
		s.stores.UserRepo,
		s.stores.CustomerRepo,
		s.stores.InvoiceRepo,
		s.stores.PaymentRepo,
		s.stores.HistoryRepo,
	)
}

// GetContext returns the authenticated test context.
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetStores returns the current test stores.
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the transactional mock client.
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

// GetLogger returns the suite logger.
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetConfig returns the suite configuration.
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetAuth returns the auth provider.
func (s *BaseServiceTestSuite) GetAuth() *auth.Provider {
	return s.auth
}

// GetCache returns the per-test cache.
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetNow returns the suite's reference time.
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
