package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateInvoiceRequest struct {
	ClientName  string           `json:"client_name" binding:"required"`
	ClientEmail string           `json:"client_email" binding:"required,email"`
	Items       []LineItem       `json:"items"`
	TaxRate     decimal.Decimal  `json:"tax_rate"`
	Total       *decimal.Decimal `json:"total"`
	Currency    string           `json:"currency" binding:"required,len=3"`
	Status      Status           `json:"status"`
	DueDate     *time.Time       `json:"due_date"`
	Notes       string           `json:"notes"`
}

type UpdateInvoiceRequest struct {
	ClientName  *string          `json:"client_name"`
	ClientEmail *string          `json:"client_email" binding:"omitempty,email"`
	Items       []LineItem       `json:"items"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
	Total       *decimal.Decimal `json:"total"`
	Currency    *string          `json:"currency" binding:"omitempty,len=3"`
	DueDate     *time.Time       `json:"due_date"`
	Notes       *string          `json:"notes"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required"`
}

type ListFilters struct {
	Statuses []string `form:"status"`
	Search   string   `form:"search"`
}

// CSVRow is the export shape of an invoice.
type CSVRow struct {
	InvoiceNumber string `csv:"invoice_number"`
	ClientName    string `csv:"client_name"`
	ClientEmail   string `csv:"client_email"`
	Total         string `csv:"total"`
	Currency      string `csv:"currency"`
	Status        string `csv:"status"`
	DueDate       string `csv:"due_date"`
	CreatedAt     string `csv:"created_at"`
}

func (i *Invoice) ToCSVRow() CSVRow {
	row := CSVRow{
		InvoiceNumber: i.InvoiceNumber,
		ClientName:    i.ClientName,
		ClientEmail:   i.ClientEmail,
		Total:         i.Total.StringFixed(2),
		Currency:      i.Currency,
		Status:        string(i.Status),
		CreatedAt:     i.CreatedAt.Format(time.DateOnly),
	}
	if i.DueDate != nil {
		row.DueDate = i.DueDate.Format(time.DateOnly)
	}
	return row
}
