package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/finvoice/finvoice/internal/api/dto"
	"github.com/finvoice/finvoice/internal/domain/customer"
	"github.com/finvoice/finvoice/internal/domain/invoice"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/testutil"
	"github.com/finvoice/finvoice/internal/types"
)

type PaymentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  PaymentService
	testData struct {
		customer *customer.Customer
		invoice  *invoice.Invoice
	}
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPaymentService(s.serviceParams())
	s.setupTestData()
}

func (s *PaymentServiceSuite) serviceParams() ServiceParams {
	return ServiceParams{
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
}

func (s *PaymentServiceSuite) setupTestData() {
	ctx := s.GetContext()

	s.testData.customer = &customer.Customer{
		ID:        "cust_test_1",
		UserID:    testutil.DefaultUserID,
		Name:      "Acme Corp",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().CustomerRepo.Create(ctx, s.testData.customer))

	s.testData.invoice = &invoice.Invoice{
		ID:            "inv_test_1",
		UserID:        testutil.DefaultUserID,
		CustomerID:    s.testData.customer.ID,
		InvoiceNumber: "INV-TEST0001",
		InvoiceStatus: types.InvoiceStatusSent,
		IssueDate:     types.Today(),
		DueDate:       types.Today(),
		TotalAmount:   decimal.NewFromInt(1000),
		AmountPaid:    decimal.Zero,
		AmountDue:     decimal.NewFromInt(1000),
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().InvoiceRepo.Create(ctx, s.testData.invoice))
}

func (s *PaymentServiceSuite) recordPayment(amount string) (*dto.PaymentResponse, error) {
	return s.service.RecordPayment(s.GetContext(), &dto.RecordPaymentRequest{
		InvoiceID:   s.testData.invoice.ID,
		AmountPaid:  decimal.RequireFromString(amount),
		PaymentDate: types.Today(),
	})
}

func (s *PaymentServiceSuite) TestRecordPartialPayment() {
	resp, err := s.recordPayment("400")
	s.NoError(err)
	s.NotNil(resp)

	s.True(resp.Payment.AmountPaid.Equal(decimal.NewFromInt(400)))
	s.Equal(s.testData.customer.ID, resp.Payment.CustomerID)
	s.Equal(types.InvoiceStatusPartiallyPaid, resp.Invoice.InvoiceStatus)
	s.True(resp.Invoice.AmountPaid.Equal(decimal.NewFromInt(400)))
	s.True(resp.Invoice.AmountDue.Equal(decimal.NewFromInt(600)))

	// persisted invoice matches the snapshot in the response
	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPartiallyPaid, stored.InvoiceStatus)
	s.True(stored.AmountPaid.Add(stored.AmountDue).Equal(stored.TotalAmount))

	// history entry is written after commit
	entries, err := s.GetStores().HistoryRepo.List(s.GetContext(), testutil.DefaultUserID, nil)
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(types.HistoryActionPaymentRecorded, entries[0].Action)
}

func (s *PaymentServiceSuite) TestRecordPaymentSettlesInvoice() {
	_, err := s.recordPayment("400")
	s.NoError(err)

	resp, err := s.recordPayment("600")
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.Invoice.InvoiceStatus)
	s.True(resp.Invoice.AmountDue.IsZero())
	s.True(resp.Invoice.AmountPaid.Equal(decimal.NewFromInt(1000)))
}

func (s *PaymentServiceSuite) TestRecordPaymentExceedingBalance() {
	_, err := s.recordPayment("400")
	s.NoError(err)

	before, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)

	_, err = s.recordPayment("600.01")
	s.Error(err)
	s.True(ierr.IsValidation(err))

	// rejection leaves no trace: invoice unchanged, ledger unchanged
	after, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Equal(before.InvoiceStatus, after.InvoiceStatus)
	s.True(before.AmountPaid.Equal(after.AmountPaid))
	s.True(before.AmountDue.Equal(after.AmountDue))

	payments, err := s.GetStores().PaymentRepo.FindByInvoice(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Len(payments, 1)
}

func (s *PaymentServiceSuite) TestRecordPaymentZeroAmountRejected() {
	_, err := s.recordPayment("0")
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.recordPayment("-5")
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestRecordPaymentForeignInvoiceDenied() {
	ctx := testutil.SetupContextFor("user_intruder")
	_, err := s.service.RecordPayment(ctx, &dto.RecordPaymentRequest{
		InvoiceID:   s.testData.invoice.ID,
		AmountPaid:  decimal.NewFromInt(100),
		PaymentDate: types.Today(),
	})
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))

	payments, err := s.GetStores().PaymentRepo.FindByInvoice(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Empty(payments)
}

func (s *PaymentServiceSuite) TestRecordPaymentRollsBackOnWriteFailure() {
	s.GetStores().InvoiceRepo.UpdateSettlementErr = errors.New("write failed")

	_, err := s.recordPayment("400")
	s.Error(err)

	// the payment row written before the failure is rolled back with it
	payments, err := s.GetStores().PaymentRepo.FindByInvoice(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Empty(payments)

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, stored.InvoiceStatus)
	s.True(stored.AmountPaid.IsZero())
}

func (s *PaymentServiceSuite) TestConcurrentPaymentsOnlyOneSettles() {
	// Two payments that each fit the open balance alone but not together.
	// The transaction serialization must let exactly one through.
	var wg sync.WaitGroup
	results := make(chan error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.recordPayment("600")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		if err == nil {
			succeeded++
		} else if ierr.IsValidation(err) {
			rejected++
		}
	}
	s.Equal(1, succeeded)
	s.Equal(1, rejected)

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.True(stored.AmountPaid.Equal(decimal.NewFromInt(600)))
	s.True(stored.AmountDue.Equal(decimal.NewFromInt(400)))
}

func (s *PaymentServiceSuite) TestUpdatePaymentRecomputesSettlement() {
	resp, err := s.recordPayment("400")
	s.NoError(err)

	amount := decimal.NewFromInt(100)
	updated, err := s.service.UpdatePayment(s.GetContext(), resp.Payment.ID, &dto.UpdatePaymentRequest{
		AmountPaid: &amount,
	})
	s.NoError(err)
	s.True(updated.Payment.AmountPaid.Equal(amount))
	s.Equal(types.InvoiceStatusPartiallyPaid, updated.Invoice.InvoiceStatus)
	s.True(updated.Invoice.AmountPaid.Equal(amount))
	s.True(updated.Invoice.AmountDue.Equal(decimal.NewFromInt(900)))
}

func (s *PaymentServiceSuite) TestUpdatePaymentCannotExceedTotal() {
	resp, err := s.recordPayment("400")
	s.NoError(err)

	amount := decimal.NewFromInt(1001)
	_, err = s.service.UpdatePayment(s.GetContext(), resp.Payment.ID, &dto.UpdatePaymentRequest{
		AmountPaid: &amount,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.True(stored.AmountPaid.Equal(decimal.NewFromInt(400)))
}

func (s *PaymentServiceSuite) TestDeletePaymentRevertsSettlement() {
	resp, err := s.recordPayment("400")
	s.NoError(err)

	s.NoError(s.service.DeletePayment(s.GetContext(), resp.Payment.ID))

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusUnpaid, stored.InvoiceStatus)
	s.True(stored.AmountPaid.IsZero())
	s.True(stored.AmountDue.Equal(stored.TotalAmount))

	_, err = s.service.GetPayment(s.GetContext(), resp.Payment.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentServiceSuite) TestDeleteOneOfTwoPayments() {
	first, err := s.recordPayment("400")
	s.NoError(err)
	_, err = s.recordPayment("600")
	s.NoError(err)

	s.NoError(s.service.DeletePayment(s.GetContext(), first.Payment.ID))

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPartiallyPaid, stored.InvoiceStatus)
	s.True(stored.AmountPaid.Equal(decimal.NewFromInt(600)))
	s.True(stored.AmountDue.Equal(decimal.NewFromInt(400)))
}

func (s *PaymentServiceSuite) TestListPaymentsScopedToOwner() {
	_, err := s.recordPayment("400")
	s.NoError(err)

	resp, err := s.service.ListPayments(s.GetContext(), types.NewPaymentFilter())
	s.NoError(err)
	s.Len(resp.Items, 1)
	s.Equal(1, resp.Pagination.Total)

	other, err := s.service.ListPayments(testutil.SetupContextFor("user_other"), types.NewPaymentFilter())
	s.NoError(err)
	s.Empty(other.Items)
}

func (s *PaymentServiceSuite) TestHistoryFailureDoesNotFailPayment() {
	s.GetStores().HistoryRepo.CreateErr = errors.New("history unavailable")

	resp, err := s.recordPayment("400")
	s.NoError(err)
	s.Equal(types.InvoiceStatusPartiallyPaid, resp.Invoice.InvoiceStatus)
}

func (s *PaymentServiceSuite) TestPaymentDateIsRequired() {
	_, err := s.service.RecordPayment(s.GetContext(), &dto.RecordPaymentRequest{
		InvoiceID:  s.testData.invoice.ID,
		AmountPaid: decimal.NewFromInt(100),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}
