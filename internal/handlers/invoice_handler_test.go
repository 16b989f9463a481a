package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"pettycash/internal/database"
	"pettycash/internal/dto"
	"pettycash/internal/errors"
	"pettycash/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type InvoiceHandlerTestSuite struct {
	handlerSuite
}

func TestInvoiceHandlerSuite(t *testing.T) {
	suite.Run(t, new(InvoiceHandlerTestSuite))
}

func invoiceBody(invoiceType, number, date, extra string) string {
	return fmt.Sprintf(`{"type":%q,"track":"ab","number":%q,"invoiceDate":%q,"salesAmount":"100","taxAmount":"5"%s}`,
		invoiceType, number, date, extra)
}

func (s *InvoiceHandlerTestSuite) registerInvoice(body string) dto.InvoiceResponse {
	c, rec := s.request(http.MethodPost, "/api/v1/invoices", body, s.member)
	s.Require().NoError(s.invoiceHandler.RegisterInvoice(c))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.InvoiceResponse
	s.decodeData(rec, &resp)
	return resp
}

func (s *InvoiceHandlerTestSuite) TestRegisterAndGet() {
	expense := s.expenditure(day(2025, 3, 4), "105")
	created := s.registerInvoice(invoiceBody("electronic", "12345678", "2025-03-04",
		fmt.Sprintf(`,"vendorName":"Stationery Co","transactionId":%q`, expense.ID)))

	s.Equal("AB", created.Track)
	s.Equal("105.00", created.TotalAmount)
	s.Equal(expense.ID.String(), created.TransactionID)
	s.Equal(s.member.ID.String(), created.UploaderID)

	c, rec := s.request(http.MethodGet, "/api/v1/invoices/"+created.ID, "", s.member, "id", created.ID)
	s.Require().NoError(s.invoiceHandler.GetInvoice(c))
	s.Equal(http.StatusOK, rec.Code)

	var got dto.InvoiceResponse
	s.decodeData(rec, &got)
	s.Equal("2025-03-04", got.InvoiceDate)
}

func (s *InvoiceHandlerTestSuite) TestRegister_Errors() {
	s.registerInvoice(invoiceBody("electronic", "12345678", "2025-03-04", ""))

	s.Run("duplicate number", func() {
		c, rec := s.request(http.MethodPost, "/api/v1/invoices", invoiceBody("other", "12345678", "2025-03-05", ""), s.member)
		s.Require().NoError(s.invoiceHandler.RegisterInvoice(c))
		s.assertErrorCode(rec, http.StatusConflict, errors.InvoiceDuplicate)
	})

	s.Run("linked to an income", func() {
		income := s.income(day(2025, 3, 1), "1000")
		body := invoiceBody("electronic", "99999999", "2025-03-05", fmt.Sprintf(`,"transactionId":%q`, income.ID))
		c, rec := s.request(http.MethodPost, "/api/v1/invoices", body, s.member)
		s.Require().NoError(s.invoiceHandler.RegisterInvoice(c))
		s.assertErrorCode(rec, http.StatusBadRequest, errors.ValidationGeneral)
		s.Contains(rec.Body.String(), "transaction_id")
	})

	s.Run("request validation", func() {
		c, _ := s.request(http.MethodPost, "/api/v1/invoices", invoiceBody("receipt", "12AB", "2025-03-05", ""), s.member)
		var validationErrs validator.ValidationErrors
		s.ErrorAs(s.invoiceHandler.RegisterInvoice(c), &validationErrs)
	})

	s.Run("no actor", func() {
		c, rec := s.request(http.MethodPost, "/api/v1/invoices", invoiceBody("other", "1", "2025-03-05", ""), nil)
		s.Require().NoError(s.invoiceHandler.RegisterInvoice(c))
		s.assertErrorCode(rec, http.StatusUnauthorized, errors.AuthMissingToken)
	})
}

func (s *InvoiceHandlerTestSuite) TestGetInvoice_NotFound() {
	id := uuid.NewString()
	c, rec := s.request(http.MethodGet, "/api/v1/invoices/"+id, "", s.member, "id", id)
	s.Require().NoError(s.invoiceHandler.GetInvoice(c))
	s.assertErrorCode(rec, http.StatusNotFound, errors.InvoiceNotFound)
}

func (s *InvoiceHandlerTestSuite) TestListInvoices() {
	s.registerInvoice(invoiceBody("electronic", "00000001", "2025-03-01", ""))
	s.registerInvoice(invoiceBody("electronic", "00000002", "2025-03-02", ""))
	s.registerInvoice(invoiceBody("triplicate", "00000003", "2025-03-03", ""))

	c, rec := s.request(http.MethodGet, "/api/v1/invoices?type=electronic&limit=1", "", s.member)
	s.Require().NoError(s.invoiceHandler.ListInvoices(c))
	s.Equal(http.StatusOK, rec.Code)

	var resp dto.ListInvoicesResponse
	s.decodeData(rec, &resp)
	s.Equal(int64(2), resp.Pagination.Total)
	s.Require().Len(resp.Invoices, 1)
	s.Equal("00000002", resp.Invoices[0].Number)
}

func (s *InvoiceHandlerTestSuite) TestDeleteInvoice_OnlyUploaderOrApprover() {
	created := s.registerInvoice(invoiceBody("electronic", "00000001", "2025-03-01", ""))
	other := database.CreateTestUser(s.T(), s.db, "other")

	c, rec := s.request(http.MethodDelete, "/api/v1/invoices/"+created.ID, "", other, "id", created.ID)
	s.Require().NoError(s.invoiceHandler.DeleteInvoice(c))
	s.assertErrorCode(rec, http.StatusForbidden, errors.LedgerPolicyViolation)

	c, rec = s.request(http.MethodDelete, "/api/v1/invoices/"+created.ID, "", s.approver, "id", created.ID)
	s.Require().NoError(s.invoiceHandler.DeleteInvoice(c))
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *InvoiceHandlerTestSuite) TestInvoiceRegister() {
	s.registerInvoice(invoiceBody("triplicate", "00000003", "2025-03-20", ""))
	s.registerInvoice(invoiceBody("cash_register", "00000001", "2025-03-02", ""))

	c, rec := s.request(http.MethodGet, "/api/v1/invoices/report?year=2025&month=3", "", s.member)
	s.Require().NoError(s.invoiceHandler.InvoiceRegister(c))
	s.Equal(http.StatusOK, rec.Code)

	var resp dto.InvoiceRegisterResponse
	s.decodeData(rec, &resp)
	s.Equal("2025-03", resp.Period)
	s.Equal(2, resp.Count)
	s.Require().Len(resp.Groups, 2)
	s.Equal("cash_register", resp.Groups[0].Type)
	s.Equal("210.00", resp.Total)

	s.Run("defaults to current month", func() {
		c, rec := s.request(http.MethodGet, "/api/v1/invoices/report", "", s.member)
		s.Require().NoError(s.invoiceHandler.InvoiceRegister(c))

		var resp dto.InvoiceRegisterResponse
		s.decodeData(rec, &resp)
		s.Equal(time.Now().Format("2006-01"), resp.Period)
	})

	s.Run("workbook", func() {
		c, rec := s.request(http.MethodGet, "/api/v1/invoices/report?year=2025&month=3&format=xlsx", "", s.member)
		s.Require().NoError(s.invoiceHandler.InvoiceRegister(c))
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(services.XLSXContentType, rec.Header().Get("Content-Type"))
		s.Contains(rec.Header().Get("Content-Disposition"), "invoice_register_2025-03.xlsx")
	})
}
