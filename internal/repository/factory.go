package repository

import (
	"github.com/finvoice/finvoice/internal/domain/customer"
	"github.com/finvoice/finvoice/internal/domain/history"
	"github.com/finvoice/finvoice/internal/domain/invoice"
	"github.com/finvoice/finvoice/internal/domain/payment"
	"github.com/finvoice/finvoice/internal/domain/user"
	"github.com/finvoice/finvoice/internal/logger"
	"github.com/finvoice/finvoice/internal/postgres"
	repo "github.com/finvoice/finvoice/internal/repository/postgres"
)

func NewUserRepository(client postgres.IClient, logger *logger.Logger) user.Repository {
	return repo.NewUserRepository(client, logger)
}

func NewCustomerRepository(client postgres.IClient, logger *logger.Logger) customer.Repository {
	return repo.NewCustomerRepository(client, logger)
}

func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) invoice.Repository {
	return repo.NewInvoiceRepository(client, logger)
}

func NewPaymentRepository(client postgres.IClient, logger *logger.Logger) payment.Repository {
	return repo.NewPaymentRepository(client, logger)
}

func NewHistoryRepository(client postgres.IClient, logger *logger.Logger) history.Repository {
	return repo.NewHistoryRepository(client, logger)
}
