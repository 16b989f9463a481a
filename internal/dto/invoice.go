package dto

import (
	"time"

	"pettycash/internal/models"
	"pettycash/internal/services"
)

// InvoiceRequest registers a received invoice.
type InvoiceRequest struct {
	Type           string `json:"type" validate:"required,oneof=cash_register duplicate triplicate electronic other"`
	Track          string `json:"track" validate:"required,max=10"`
	Number         string `json:"number" validate:"required,max=20,numeric"`
	InvoiceDate    string `json:"invoiceDate" validate:"required,isodate"`
	VendorName     string `json:"vendorName" validate:"max=100"`
	BusinessNumber string `json:"businessNumber" validate:"omitempty,max=20,numeric"`
	SalesAmount    string `json:"salesAmount" validate:"required,decimal_amount"`
	TaxAmount      string `json:"taxAmount" validate:"required,decimal_amount"`
	TransactionID  string `json:"transactionId" validate:"omitempty,uuid"`
}

// InvoiceListQuery holds the invoice listing filters.
type InvoiceListQuery struct {
	Type          string `query:"type" validate:"omitempty,oneof=cash_register duplicate triplicate electronic other"`
	From          string `query:"from" validate:"omitempty,isodate"`
	To            string `query:"to" validate:"omitempty,isodate"`
	TransactionID string `query:"transaction_id" validate:"omitempty,uuid"`
	Page          int    `query:"page" validate:"omitempty,min=1,max=1000000"`
	Limit         int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// InvoiceResponse represents a registered invoice.
type InvoiceResponse struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Track          string    `json:"track"`
	Number         string    `json:"number"`
	InvoiceDate    string    `json:"invoiceDate"`
	VendorName     string    `json:"vendorName,omitempty"`
	BusinessNumber string    `json:"businessNumber,omitempty"`
	SalesAmount    string    `json:"salesAmount"`
	TaxAmount      string    `json:"taxAmount"`
	TotalAmount    string    `json:"totalAmount"`
	UploaderID     string    `json:"uploaderId"`
	TransactionID  string    `json:"transactionId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ListInvoicesResponse is a page of invoices.
type ListInvoicesResponse struct {
	Invoices   []InvoiceResponse `json:"invoices"`
	Pagination PaginationInfo    `json:"pagination"`
}

// InvoiceGroupResponse is one invoice type on the monthly register.
type InvoiceGroupResponse struct {
	Type     string            `json:"type"`
	Invoices []InvoiceResponse `json:"invoices"`
	Sales    string            `json:"sales"`
	Tax      string            `json:"tax"`
	Total    string            `json:"total"`
}

// InvoiceRegisterResponse is the monthly invoice register.
type InvoiceRegisterResponse struct {
	Period string                 `json:"period"`
	Count  int                    `json:"count"`
	Groups []InvoiceGroupResponse `json:"groups"`
	Sales  string                 `json:"sales"`
	Tax    string                 `json:"tax"`
	Total  string                 `json:"total"`
}

func NewInvoiceResponse(i *models.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:             i.ID.String(),
		Type:           string(i.Type),
		Track:          i.Track,
		Number:         i.Number,
		InvoiceDate:    i.InvoiceDate.Format(time.DateOnly),
		VendorName:     i.VendorName,
		BusinessNumber: i.BusinessNumber,
		SalesAmount:    i.SalesAmount.StringFixed(2),
		TaxAmount:      i.TaxAmount.StringFixed(2),
		TotalAmount:    i.TotalAmount.StringFixed(2),
		UploaderID:     i.UploaderID.String(),
		CreatedAt:      i.CreatedAt,
	}
	if i.TransactionID != nil {
		resp.TransactionID = i.TransactionID.String()
	}
	return resp
}

func NewInvoiceResponses(invoices []models.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, NewInvoiceResponse(&invoices[i]))
	}
	return out
}

func NewInvoiceRegisterResponse(r *services.InvoiceRegister) InvoiceRegisterResponse {
	resp := InvoiceRegisterResponse{
		Period: models.SettlementPeriodKey(r.Year, r.Month),
		Count:  r.Count,
		Groups: make([]InvoiceGroupResponse, 0, len(r.Groups)),
		Sales:  r.Sales.StringFixed(2),
		Tax:    r.Tax.StringFixed(2),
		Total:  r.Total.StringFixed(2),
	}
	for _, g := range r.Groups {
		resp.Groups = append(resp.Groups, InvoiceGroupResponse{
			Type:     string(g.Type),
			Invoices: NewInvoiceResponses(g.Invoices),
			Sales:    g.Sales.StringFixed(2),
			Tax:      g.Tax.StringFixed(2),
			Total:    g.Total.StringFixed(2),
		})
	}
	return resp
}
