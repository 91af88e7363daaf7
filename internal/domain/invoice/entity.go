package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (l LineItem) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

type Invoice struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientName    string          `json:"client_name"`
	ClientEmail   string          `json:"client_email"`
	Items         []LineItem      `json:"items"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	Status        Status          `json:"status"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ComputeTotal sums the line items and applies the tax rate (a percentage).
func ComputeTotal(items []LineItem, taxRate decimal.Decimal) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount())
	}
	tax := subtotal.Mul(taxRate).Div(decimal.NewFromInt(100))
	return subtotal.Add(tax).Round(2)
}
