package service

import (
	"github.com/finvoice/finvoice/internal/auth"
	"github.com/finvoice/finvoice/internal/cache"
	"github.com/finvoice/finvoice/internal/config"
	"github.com/finvoice/finvoice/internal/domain/customer"
	"github.com/finvoice/finvoice/internal/domain/history"
	"github.com/finvoice/finvoice/internal/domain/invoice"
	"github.com/finvoice/finvoice/internal/domain/payment"
	"github.com/finvoice/finvoice/internal/domain/user"
	"github.com/finvoice/finvoice/internal/logger"
	"github.com/finvoice/finvoice/internal/postgres"
)

// ServiceParams holds common dependencies for services.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Auth   *auth.Provider
	Cache  cache.Cache

	// Repositories
	UserRepo     user.Repository
	CustomerRepo customer.Repository
	InvoiceRepo  invoice.Repository
	PaymentRepo  payment.Repository
	HistoryRepo  history.Repository
}
