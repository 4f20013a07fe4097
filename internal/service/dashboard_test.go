package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/finvoice/finvoice/internal/api/dto"
	"github.com/finvoice/finvoice/internal/domain/customer"
	"github.com/finvoice/finvoice/internal/domain/invoice"
	"github.com/finvoice/finvoice/internal/testutil"
	"github.com/finvoice/finvoice/internal/types"
)

type DashboardServiceSuite struct {
	testutil.BaseServiceTestSuite
	service        DashboardService
	paymentService PaymentService
}

func TestDashboardService(t *testing.T) {
	suite.Run(t, new(DashboardServiceSuite))
}

func (s *DashboardServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		DB:           s.GetDB(),
		Auth:         s.GetAuth(),
		Cache:        s.GetCache(),
		UserRepo:     s.GetStores().UserRepo,
		CustomerRepo: s.GetStores().CustomerRepo,
		InvoiceRepo:  s.GetStores().InvoiceRepo,
		PaymentRepo:  s.GetStores().PaymentRepo,
		HistoryRepo:  s.GetStores().HistoryRepo,
	}
	s.service = NewDashboardService(params)
	s.paymentService = NewPaymentService(params)
}

func (s *DashboardServiceSuite) seedInvoice(id string, status types.InvoiceStatus, total, paid int64, due types.Date) {
	totalAmount := decimal.NewFromInt(total)
	paidAmount := decimal.NewFromInt(paid)
	inv := &invoice.Invoice{
		ID:            id,
		UserID:        testutil.DefaultUserID,
		CustomerID:    "cust_dash_1",
		InvoiceNumber: "INV-" + id,
		InvoiceStatus: status,
		IssueDate:     types.Today(),
		DueDate:       due,
		TotalAmount:   totalAmount,
		AmountPaid:    paidAmount,
		AmountDue:     totalAmount.Sub(paidAmount),
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), inv))
}

func (s *DashboardServiceSuite) seedData() {
	c := &customer.Customer{
		ID:        "cust_dash_1",
		UserID:    testutil.DefaultUserID,
		Name:      "Acme Corp",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().CustomerRepo.Create(s.GetContext(), c))

	yesterday := types.NewDate(time.Now().UTC().AddDate(0, 0, -1))
	tomorrow := types.NewDate(time.Now().UTC().AddDate(0, 0, 1))

	s.seedInvoice("inv_draft", types.InvoiceStatusDraft, 500, 0, tomorrow)
	s.seedInvoice("inv_sent", types.InvoiceStatusSent, 1000, 0, tomorrow)
	s.seedInvoice("inv_partial", types.InvoiceStatusPartiallyPaid, 800, 300, yesterday)
	s.seedInvoice("inv_paid", types.InvoiceStatusPaid, 200, 200, yesterday)
}

func (s *DashboardServiceSuite) TestGetDashboard() {
	s.seedData()

	resp, err := s.service.GetDashboard(s.GetContext())
	s.NoError(err)

	s.Equal(1, resp.TotalCustomers)
	s.Equal(4, resp.TotalInvoices)
	s.Equal(1, resp.InvoicesByStatus[types.InvoiceStatusDraft])
	s.Equal(1, resp.InvoicesByStatus[types.InvoiceStatusSent])
	s.Equal(1, resp.InvoicesByStatus[types.InvoiceStatusPartiallyPaid])
	s.Equal(1, resp.InvoicesByStatus[types.InvoiceStatusPaid])
	s.True(resp.TotalBilled.Equal(decimal.NewFromInt(2500)))
	s.True(resp.TotalCollected.Equal(decimal.NewFromInt(500)))
	s.True(resp.TotalOutstanding.Equal(decimal.NewFromInt(2000)))
	// only the overdue partially paid invoice counts: the paid one is
	// settled and the draft was never issued
	s.Equal(1, resp.OverdueInvoices)
}

func (s *DashboardServiceSuite) TestGetDashboardEmpty() {
	resp, err := s.service.GetDashboard(s.GetContext())
	s.NoError(err)
	s.Equal(0, resp.TotalCustomers)
	s.Equal(0, resp.TotalInvoices)
	s.True(resp.TotalBilled.IsZero())
	s.Empty(resp.RecentActivity)
}

func (s *DashboardServiceSuite) TestDashboardIsCached() {
	s.seedData()

	first, err := s.service.GetDashboard(s.GetContext())
	s.NoError(err)
	s.Equal(4, first.TotalInvoices)

	// a write that bypasses the services does not invalidate the cache
	s.seedInvoice("inv_extra", types.InvoiceStatusDraft, 100, 0, types.Today())

	second, err := s.service.GetDashboard(s.GetContext())
	s.NoError(err)
	s.Equal(4, second.TotalInvoices)
}

func (s *DashboardServiceSuite) TestPaymentInvalidatesDashboard() {
	s.seedData()

	first, err := s.service.GetDashboard(s.GetContext())
	s.NoError(err)
	s.True(first.TotalCollected.Equal(decimal.NewFromInt(500)))

	_, err = s.paymentService.RecordPayment(s.GetContext(), &dto.RecordPaymentRequest{
		InvoiceID:   "inv_sent",
		AmountPaid:  decimal.NewFromInt(400),
		PaymentDate: types.Today(),
	})
	s.NoError(err)

	refreshed, err := s.service.GetDashboard(s.GetContext())
	s.NoError(err)
	s.True(refreshed.TotalCollected.Equal(decimal.NewFromInt(900)))
	s.Equal(2, refreshed.InvoicesByStatus[types.InvoiceStatusPartiallyPaid])
	s.NotEmpty(refreshed.RecentActivity)
}

func (s *DashboardServiceSuite) TestDashboardScopedToUser() {
	s.seedData()

	other, err := s.service.GetDashboard(testutil.SetupContextFor("user_other"))
	s.NoError(err)
	s.Equal(0, other.TotalInvoices)
	s.Equal(0, other.TotalCustomers)
}
