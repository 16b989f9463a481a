package dto

import (
	"time"

	"pettycash/internal/models"
)

// LineItemRequest is one priced row of an expenditure.
type LineItemRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Quantity  string `json:"quantity" validate:"required,decimal_amount"`
	Unit      string `json:"unit" validate:"max=20"`
	UnitPrice string `json:"unitPrice" validate:"required,decimal_amount"`
}

// ExpenditureRequest creates or replaces an expenditure.
type ExpenditureRequest struct {
	ApplicationDate string            `json:"applicationDate" validate:"omitempty,isodate"`
	TransactionDate string            `json:"transactionDate" validate:"required,isodate"`
	Description     string            `json:"description" validate:"required,max=200"`
	TaxRegime       string            `json:"taxRegime" validate:"required,oneof=taxable zero_tax tax_exempt"`
	TaxMethod       string            `json:"taxMethod" validate:"omitempty,oneof=exclusive inclusive"`
	CategoryID      string            `json:"categoryId" validate:"omitempty,uuid"`
	ERPDocNumber    string            `json:"erpDocumentNumber" validate:"max=100"`
	LineItems       []LineItemRequest `json:"lineItems" validate:"required,min=1,dive"`
}

// IncomeRequest creates or replaces an income.
type IncomeRequest struct {
	ApplicationDate string `json:"applicationDate" validate:"omitempty,isodate"`
	TransactionDate string `json:"transactionDate" validate:"required,isodate"`
	Description     string `json:"description" validate:"required,max=200"`
	Amount          string `json:"amount" validate:"required,decimal_amount"`
}

// RejectRequest carries the reason shown to the applicant.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// TransactionListQuery holds the listing filters.
type TransactionListQuery struct {
	Type       string `query:"type" validate:"omitempty,oneof=income expenditure"`
	Status     string `query:"status" validate:"omitempty,oneof=draft pending approved rejected"`
	From       string `query:"from" validate:"omitempty,isodate"`
	To         string `query:"to" validate:"omitempty,isodate"`
	CategoryID string `query:"category_id" validate:"omitempty,uuid"`
	Page       int    `query:"page" validate:"omitempty,min=1,max=1000000"`
	Limit      int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// LineItemResponse is a stored line item.
type LineItemResponse struct {
	ID        string `json:"id"`
	Position  int    `json:"position"`
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	Unit      string `json:"unit,omitempty"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
}

// TransactionResponse represents a ledger entry. Amounts are signed strings
// with two decimals.
type TransactionResponse struct {
	ID               string             `json:"id"`
	Type             string             `json:"type"`
	TaxRegime        string             `json:"taxRegime"`
	TaxMethod        string             `json:"taxMethod,omitempty"`
	ApplicationDate  string             `json:"applicationDate"`
	TransactionDate  string             `json:"transactionDate"`
	ApplicantID      string             `json:"applicantId"`
	Description      string             `json:"description"`
	Subtotal         string             `json:"subtotal"`
	Tax              string             `json:"tax"`
	TotalAmount      string             `json:"totalAmount"`
	Status           string             `json:"status"`
	ApproverID       string             `json:"approverId,omitempty"`
	ApprovedAt       *time.Time         `json:"approvedAt,omitempty"`
	RejectionReason  string             `json:"rejectionReason,omitempty"`
	CategoryID       string             `json:"categoryId,omitempty"`
	ERPDocNumber     string             `json:"erpDocumentNumber,omitempty"`
	IsSettlement     bool               `json:"isSettlement"`
	SettlementPeriod string             `json:"settlementPeriod,omitempty"`
	LineItems        []LineItemResponse `json:"lineItems,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// PaginationInfo contains pagination metadata
type PaginationInfo struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ListTransactionsResponse represents the response for listing transactions
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Pagination   PaginationInfo        `json:"pagination"`
}

// BalanceResponse is the derived cash balance.
type BalanceResponse struct {
	Balance string `json:"balance"`
	AsOf    string `json:"asOf,omitempty"`
}

// NewTransactionResponse converts a stored transaction.
func NewTransactionResponse(t *models.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:              t.ID.String(),
		Type:            string(t.Type),
		TaxRegime:       string(t.TaxRegime),
		TaxMethod:       string(t.TaxMethod),
		ApplicationDate: t.ApplicationDate.Format(time.DateOnly),
		TransactionDate: t.TransactionDate.Format(time.DateOnly),
		ApplicantID:     t.ApplicantID.String(),
		Description:     t.Description,
		Subtotal:        t.Subtotal.StringFixed(2),
		Tax:             t.Tax.StringFixed(2),
		TotalAmount:     t.TotalAmount.StringFixed(2),
		Status:          string(t.Status),
		ApprovedAt:      t.ApprovedAt,
		RejectionReason: t.RejectionReason,
		ERPDocNumber:    t.ERPDocNumber,
		IsSettlement:    t.IsSettlement,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	if t.ApproverID != nil {
		resp.ApproverID = t.ApproverID.String()
	}
	if t.CategoryID != nil {
		resp.CategoryID = t.CategoryID.String()
	}
	if t.SettlementPeriod != nil {
		resp.SettlementPeriod = *t.SettlementPeriod
	}
	for _, li := range t.LineItems {
		resp.LineItems = append(resp.LineItems, LineItemResponse{
			ID:        li.ID.String(),
			Position:  li.Position,
			Name:      li.Name,
			Quantity:  li.Quantity.String(),
			Unit:      li.Unit,
			UnitPrice: li.UnitPrice.StringFixed(2),
			LineTotal: li.LineTotal.StringFixed(2),
		})
	}
	return resp
}

// NewTransactionResponses converts a page of transactions.
func NewTransactionResponses(transactions []models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		out = append(out, NewTransactionResponse(&transactions[i]))
	}
	return out
}
