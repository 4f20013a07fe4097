package service

import (
	"strings"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/finvoice/finvoice/internal/api/dto"
	"github.com/finvoice/finvoice/internal/domain/customer"
	"github.com/finvoice/finvoice/internal/domain/payment"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/testutil"
	"github.com/finvoice/finvoice/internal/types"
)

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service        InvoiceService
	paymentService PaymentService
	testData       struct {
		customer *customer.Customer
	}
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
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
	s.service = NewInvoiceService(params)
	s.paymentService = NewPaymentService(params)
	s.setupTestData()
}

func (s *InvoiceServiceSuite) setupTestData() {
	s.testData.customer = &customer.Customer{
		ID:        "cust_test_1",
		UserID:    testutil.DefaultUserID,
		Name:      "Acme Corp",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().CustomerRepo.Create(s.GetContext(), s.testData.customer))
}

func (s *InvoiceServiceSuite) createInvoiceRequest() *dto.CreateInvoiceRequest {
	return &dto.CreateInvoiceRequest{
		CustomerID: s.testData.customer.ID,
		IssueDate:  types.Today(),
		DueDate:    types.Today(),
		Tax:        decimal.NewFromInt(60),
		LineItems: []*dto.CreateInvoiceLineItemRequest{
			{Description: "Consulting", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(80)},
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(140)},
		},
	}
}

func (s *InvoiceServiceSuite) TestCreateInvoice() {
	resp, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)
	s.NotNil(resp)

	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.True(strings.HasPrefix(resp.InvoiceNumber, "INV-"))
	s.Len(resp.LineItems, 2)
	// 10*80 + 1*140 + 60 tax
	s.True(resp.TotalAmount.Equal(decimal.NewFromInt(1000)))
	s.True(resp.AmountDue.Equal(resp.TotalAmount))
	s.True(resp.AmountPaid.IsZero())

	entries, err := s.GetStores().HistoryRepo.List(s.GetContext(), testutil.DefaultUserID, nil)
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(types.HistoryActionInvoiceCreated, entries[0].Action)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceUnknownCustomer() {
	req := s.createInvoiceRequest()
	req.CustomerID = "cust_missing"
	_, err := s.service.CreateInvoice(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestCreateInvoiceRequiresLineItems() {
	req := s.createInvoiceRequest()
	req.LineItems = nil
	_, err := s.service.CreateInvoice(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *InvoiceServiceSuite) TestInvoiceNumbersAreUniquePerUser() {
	first, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)
	second, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)
	s.NotEqual(first.InvoiceNumber, second.InvoiceNumber)
}

func (s *InvoiceServiceSuite) TestFinalizeInvoice() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)

	finalized, err := s.service.FinalizeInvoice(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, finalized.InvoiceStatus)

	// finalize is a one-way transition out of draft
	_, err = s.service.FinalizeInvoice(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestUpdateInvoiceRecomputesTotals() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)

	updated, err := s.service.UpdateInvoice(s.GetContext(), created.ID, &dto.UpdateInvoiceRequest{
		LineItems: []*dto.CreateInvoiceLineItemRequest{
			{Description: "Consulting", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50)},
		},
	})
	s.NoError(err)
	s.Len(updated.LineItems, 1)
	// 2*50 + 60 tax
	s.True(updated.TotalAmount.Equal(decimal.NewFromInt(160)))
	s.True(updated.AmountDue.Equal(decimal.NewFromInt(160)))
}

func (s *InvoiceServiceSuite) TestUpdateInvoiceCannotDropBelowPaid() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)
	_, err = s.service.FinalizeInvoice(s.GetContext(), created.ID)
	s.NoError(err)

	s.recordPaymentRow(created.ID, "500")

	_, err = s.service.UpdateInvoice(s.GetContext(), created.ID, &dto.UpdateInvoiceRequest{
		LineItems: []*dto.CreateInvoiceLineItemRequest{
			{Description: "Consulting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)},
		},
		Tax: lo.ToPtr(decimal.Zero),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), created.ID)
	s.NoError(err)
	s.True(stored.TotalAmount.Equal(decimal.NewFromInt(1000)))
}

func (s *InvoiceServiceSuite) TestUpdateInvoiceReappliesSettlement() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)
	_, err = s.service.FinalizeInvoice(s.GetContext(), created.ID)
	s.NoError(err)

	s.recordPaymentRow(created.ID, "500")

	// Raising the total from 1000 to 2060 turns a half-paid invoice into
	// a partially paid one with a larger open balance.
	updated, err := s.service.UpdateInvoice(s.GetContext(), created.ID, &dto.UpdateInvoiceRequest{
		LineItems: []*dto.CreateInvoiceLineItemRequest{
			{Description: "Consulting", Quantity: decimal.NewFromInt(20), UnitPrice: decimal.NewFromInt(100)},
		},
	})
	s.NoError(err)
	s.True(updated.TotalAmount.Equal(decimal.NewFromInt(2060)))
	s.Equal(types.InvoiceStatusPartiallyPaid, updated.InvoiceStatus)
	s.True(updated.AmountPaid.Equal(decimal.NewFromInt(500)))
	s.True(updated.AmountDue.Equal(decimal.NewFromInt(1560)))
}

func (s *InvoiceServiceSuite) TestDeleteInvoiceWithPaymentsRejected() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)
	s.recordPaymentRow(created.ID, "100")

	err = s.service.DeleteInvoice(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsConflict(err))
}

func (s *InvoiceServiceSuite) TestDeleteInvoiceWithoutPayments() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)

	s.NoError(s.service.DeleteInvoice(s.GetContext(), created.ID))

	_, err = s.service.GetInvoice(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestCrossUserAccessDenied() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)

	ctx := testutil.SetupContextFor("user_intruder")

	_, err = s.service.GetInvoice(ctx, created.ID)
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))

	_, err = s.service.FinalizeInvoice(ctx, created.ID)
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))

	err = s.service.DeleteInvoice(ctx, created.ID)
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *InvoiceServiceSuite) TestListInvoicesFilters() {
	first, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)
	_, err = s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)
	_, err = s.service.FinalizeInvoice(s.GetContext(), first.ID)
	s.NoError(err)

	all, err := s.service.ListInvoices(s.GetContext(), types.NewInvoiceFilter())
	s.NoError(err)
	s.Len(all.Items, 2)
	s.Equal(2, all.Pagination.Total)

	filter := types.NewInvoiceFilter()
	filter.InvoiceStatus = lo.ToPtr(types.InvoiceStatusSent)
	sent, err := s.service.ListInvoices(s.GetContext(), filter)
	s.NoError(err)
	s.Len(sent.Items, 1)
	s.Equal(first.ID, sent.Items[0].ID)

	other, err := s.service.ListInvoices(testutil.SetupContextFor("user_other"), types.NewInvoiceFilter())
	s.NoError(err)
	s.Empty(other.Items)
}

func (s *InvoiceServiceSuite) TestFinalizeDoesNotTouchSettlementColumns() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)

	finalized, err := s.service.FinalizeInvoice(s.GetContext(), created.ID)
	s.NoError(err)

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, stored.InvoiceStatus)
	s.True(stored.TotalAmount.Equal(created.TotalAmount))
	s.True(stored.AmountPaid.Equal(created.AmountPaid))
	s.True(stored.AmountDue.Equal(created.AmountDue))
	s.Len(stored.LineItems, len(created.LineItems))
	s.Equal(finalized.UpdatedBy, stored.UpdatedBy)
}

func (s *InvoiceServiceSuite) TestConcurrentFinalizeAndPayment() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)

	// A payment on a draft is legal, so whichever side commits first the
	// recorded amount must survive; a finalize losing the race sees a
	// non-draft invoice and is rejected instead of overwriting it.
	var wg sync.WaitGroup
	var finalizeErr, paymentErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, finalizeErr = s.service.FinalizeInvoice(s.GetContext(), created.ID)
	}()
	go func() {
		defer wg.Done()
		_, paymentErr = s.paymentService.RecordPayment(s.GetContext(), &dto.RecordPaymentRequest{
			InvoiceID:   created.ID,
			AmountPaid:  decimal.NewFromInt(400),
			PaymentDate: types.Today(),
		})
	}()
	wg.Wait()

	s.NoError(paymentErr)
	if finalizeErr != nil {
		s.True(ierr.IsInvalidOperation(finalizeErr))
	}

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPartiallyPaid, stored.InvoiceStatus)
	s.True(stored.AmountPaid.Equal(decimal.NewFromInt(400)))
	s.True(stored.AmountPaid.Add(stored.AmountDue).Equal(stored.TotalAmount))
}

func (s *InvoiceServiceSuite) TestConcurrentDeleteAndPayment() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createInvoiceRequest())
	s.NoError(err)
	_, err = s.service.FinalizeInvoice(s.GetContext(), created.ID)
	s.NoError(err)

	var wg sync.WaitGroup
	var deleteErr, paymentErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		deleteErr = s.service.DeleteInvoice(s.GetContext(), created.ID)
	}()
	go func() {
		defer wg.Done()
		_, paymentErr = s.paymentService.RecordPayment(s.GetContext(), &dto.RecordPaymentRequest{
			InvoiceID:   created.ID,
			AmountPaid:  decimal.NewFromInt(400),
			PaymentDate: types.Today(),
		})
	}()
	wg.Wait()

	// exactly one side wins: a deleted invoice cannot take a payment and
	// a paid invoice cannot be deleted
	if deleteErr == nil {
		s.Error(paymentErr)
		s.True(ierr.IsNotFound(paymentErr))
		_, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), created.ID)
		s.True(ierr.IsNotFound(err))
	} else {
		s.True(ierr.IsConflict(deleteErr))
		s.NoError(paymentErr)
		stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), created.ID)
		s.NoError(err)
		s.True(stored.AmountPaid.Equal(decimal.NewFromInt(400)))
	}
}

// recordPaymentRow seeds a published payment row directly, bypassing the
// payment service, so invoice tests control the ledger sum exactly.
func (s *InvoiceServiceSuite) recordPaymentRow(invoiceID, amount string) {
	p := &payment.Payment{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		InvoiceID:   invoiceID,
		UserID:      testutil.DefaultUserID,
		CustomerID:  s.testData.customer.ID,
		AmountPaid:  decimal.RequireFromString(amount),
		PaymentDate: types.Today(),
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PaymentRepo.Create(s.GetContext(), p))
}
