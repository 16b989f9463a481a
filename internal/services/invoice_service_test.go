package services

import (
	"bytes"
	"testing"
	"time"

	"pettycash/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
)

type InvoiceServiceTestSuite struct {
	ledgerSuite
}

func TestInvoiceServiceSuite(t *testing.T) {
	suite.Run(t, new(InvoiceServiceTestSuite))
}

func (s *InvoiceServiceTestSuite) input(invoiceType models.InvoiceType, number string, day int) RegisterInvoiceInput {
	return RegisterInvoiceInput{
		Type:        invoiceType,
		Track:       "ab",
		Number:      number,
		InvoiceDate: date(2025, 3, day),
		VendorName:  "Stationery Co",
		SalesAmount: dec("100"),
		TaxAmount:   dec("5"),
	}
}

func (s *InvoiceServiceTestSuite) register(input RegisterInvoiceInput) *models.Invoice {
	invoice, err := s.invoices.Register(s.ctx, input, s.member)
	s.Require().NoError(err)
	return invoice
}

func (s *InvoiceServiceTestSuite) TestRegister_ComputesTotalAndNormalizes() {
	invoice := s.register(s.input(models.InvoiceTypeElectronic, "12345678", 5))

	s.Equal("AB", invoice.Track)
	s.Equal("AB12345678", invoice.FullNumber())
	s.Equal(s.member.ID, invoice.UploaderID)
	s.assertDecimal("105", invoice.TotalAmount)

	got, err := s.invoices.Get(s.ctx, invoice.ID)
	s.Require().NoError(err)
	s.assertDecimal("105", got.TotalAmount)
}

func (s *InvoiceServiceTestSuite) TestRegister_LinksExpenditure() {
	expense := s.spend(date(2025, 3, 5), "105")

	input := s.input(models.InvoiceTypeTriplicate, "00000001", 5)
	input.TransactionID = &expense.ID
	invoice := s.register(input)

	s.Require().NotNil(invoice.TransactionID)
	s.Equal(expense.ID, *invoice.TransactionID)
}

func (s *InvoiceServiceTestSuite) TestRegister_RejectsBadLinks() {
	income := s.receive(date(2025, 3, 1), "1000")
	missing := uuid.New()

	for name, id := range map[string]uuid.UUID{"income": income.ID, "missing": missing} {
		s.Run(name, func() {
			input := s.input(models.InvoiceTypeElectronic, "00000002", 5)
			input.TransactionID = &id

			_, err := s.invoices.Register(s.ctx, input, s.member)
			s.ErrorIs(err, ErrValidation)

			var verr *ValidationError
			s.Require().ErrorAs(err, &verr)
			s.Contains(verr.Fields, "transaction_id")
		})
	}
}

func (s *InvoiceServiceTestSuite) TestRegister_Validation() {
	testCases := []struct {
		name   string
		mutate func(in *RegisterInvoiceInput)
		field  string
	}{
		{"unknown type", func(in *RegisterInvoiceInput) { in.Type = "receipt" }, "type"},
		{"missing track", func(in *RegisterInvoiceInput) { in.Track = " " }, "track"},
		{"track with digits", func(in *RegisterInvoiceInput) { in.Track = "A1" }, "track"},
		{"number with letters", func(in *RegisterInvoiceInput) { in.Number = "12AB" }, "number"},
		{"number too long", func(in *RegisterInvoiceInput) { in.Number = "123456789012345678901" }, "number"},
		{"no date", func(in *RegisterInvoiceInput) { in.InvoiceDate = time.Time{} }, "invoice_date"},
		{"vendor too long", func(in *RegisterInvoiceInput) { in.VendorName = string(bytes.Repeat([]byte("v"), 101)) }, "vendor_name"},
		{"business number letters", func(in *RegisterInvoiceInput) { in.BusinessNumber = "ACME" }, "business_number"},
		{"negative sales", func(in *RegisterInvoiceInput) { in.SalesAmount = dec("-1") }, "sales_amount"},
		{"fractional cents", func(in *RegisterInvoiceInput) { in.TaxAmount = dec("0.001") }, "tax_amount"},
		{"zero total", func(in *RegisterInvoiceInput) { in.SalesAmount, in.TaxAmount = dec("0"), dec("0") }, "sales_amount"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			input := s.input(models.InvoiceTypeElectronic, "00000003", 5)
			tc.mutate(&input)

			_, err := s.invoices.Register(s.ctx, input, s.member)
			var verr *ValidationError
			s.Require().ErrorAs(err, &verr)
			s.Contains(verr.Fields, tc.field)
		})
	}
}

func (s *InvoiceServiceTestSuite) TestRegister_DuplicateNumber() {
	s.register(s.input(models.InvoiceTypeElectronic, "12345678", 5))

	_, err := s.invoices.Register(s.ctx, s.input(models.InvoiceTypeOther, "12345678", 6), s.approver)
	s.ErrorIs(err, ErrDuplicateInvoice)
	s.NotErrorIs(err, ErrStorage)
}

func (s *InvoiceServiceTestSuite) TestDelete_UploaderOrApprover() {
	own := s.register(s.input(models.InvoiceTypeElectronic, "00000010", 5))
	other := s.register(s.input(models.InvoiceTypeElectronic, "00000011", 5))

	err := s.invoices.Delete(s.ctx, own.ID, s.other)
	s.ErrorIs(err, ErrPolicyViolation)

	s.NoError(s.invoices.Delete(s.ctx, own.ID, s.member))
	s.NoError(s.invoices.Delete(s.ctx, other.ID, s.approver))

	_, err = s.invoices.Get(s.ctx, own.ID)
	s.ErrorIs(err, ErrInvoiceNotFound)
	s.ErrorIs(s.invoices.Delete(s.ctx, own.ID, s.approver), ErrNotFound)
}

func (s *InvoiceServiceTestSuite) TestMonthlyRegister_GroupsByType() {
	s.register(s.input(models.InvoiceTypeTriplicate, "00000001", 20))
	s.register(s.input(models.InvoiceTypeCashRegister, "00000002", 9))
	s.register(s.input(models.InvoiceTypeCashRegister, "00000003", 2))
	april := s.input(models.InvoiceTypeCashRegister, "00000004", 1)
	april.InvoiceDate = date(2025, 4, 1)
	s.register(april)

	register, err := s.invoices.MonthlyRegister(s.ctx, 2025, 3)
	s.Require().NoError(err)

	s.Equal(3, register.Count)
	s.Require().Len(register.Groups, 2)

	cash := register.Groups[0]
	s.Equal(models.InvoiceTypeCashRegister, cash.Type)
	s.Require().Len(cash.Invoices, 2)
	s.Equal("00000003", cash.Invoices[0].Number, "oldest first within a type")
	s.assertDecimal("200", cash.Sales)
	s.assertDecimal("10", cash.Tax)
	s.assertDecimal("210", cash.Total)

	s.Equal(models.InvoiceTypeTriplicate, register.Groups[1].Type)
	s.assertDecimal("315", register.Total)
	s.assertDecimal("15", register.Tax)
}

func (s *InvoiceServiceTestSuite) TestMonthlyRegister_EmptyMonthAndBadPeriod() {
	register, err := s.invoices.MonthlyRegister(s.ctx, 2025, 1)
	s.Require().NoError(err)
	s.Empty(register.Groups)
	s.assertDecimal("0", register.Total)

	_, err = s.invoices.MonthlyRegister(s.ctx, 2025, 13)
	s.ErrorIs(err, ErrValidation)
}

func (s *InvoiceServiceTestSuite) TestMonthlyRegister_Workbook() {
	s.register(s.input(models.InvoiceTypeElectronic, "00000001", 3))
	s.register(s.input(models.InvoiceTypeOther, "00000002", 4))

	register, err := s.invoices.MonthlyRegister(s.ctx, 2025, 3)
	s.Require().NoError(err)
	s.Equal("invoice_register_2025-03.xlsx", register.FileName())

	var buf bytes.Buffer
	s.Require().NoError(register.WriteXLSX(&buf))

	f, err := excelize.OpenReader(&buf)
	s.Require().NoError(err)
	defer f.Close()

	rows, err := f.GetRows("2025-03")
	s.Require().NoError(err)
	// header, electronic invoice and subtotal, other invoice and subtotal, total
	s.Require().Len(rows, 6)
	s.Equal("AB00000001", rows[1][1])
	s.Equal("Electronic subtotal", rows[2][0])
	s.Equal("Total", rows[5][0])

	total, err := f.GetCellValue("2025-03", "H6", excelize.Options{RawCellValue: true})
	s.Require().NoError(err)
	s.Equal("210", total)
}
