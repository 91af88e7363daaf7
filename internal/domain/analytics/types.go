package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supported trailing windows, in months.
const (
	Window6  = 6
	Window12 = 12
)

// ActiveUserWindow is the fixed look-back for counting a user as active.
const ActiveUserWindow = 30 * 24 * time.Hour

// TopClientLimit caps the top clients list.
const TopClientLimit = 5

// BucketLabelLayout formats a bucket's month label.
const BucketLabelLayout = "Jan 2006"

type AdminStats struct {
	TotalUsers          int             `json:"total_users"`
	TotalInvoices       int             `json:"total_invoices"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	ActiveUsers         int             `json:"active_users"`
	SupportTickets      int             `json:"support_tickets"`
	FeedbackSubmissions int             `json:"feedback_submissions"`
}

type MonthlyBucket struct {
	Month        string          `json:"month"`
	Start        time.Time       `json:"start"`
	Revenue      decimal.Decimal `json:"revenue"`
	InvoiceCount int             `json:"invoice_count"`
}

// StatusDistribution counts invoices in the window by status. Statuses outside
// the four known ones land in Unclassified so the counts always sum to the total.
type StatusDistribution struct {
	Paid         int `json:"paid"`
	Sent         int `json:"sent"`
	Draft        int `json:"draft"`
	Overdue      int `json:"overdue"`
	Unclassified int `json:"unclassified"`
}

func (d StatusDistribution) Total() int {
	return d.Paid + d.Sent + d.Draft + d.Overdue + d.Unclassified
}

type TopClient struct {
	ClientName   string          `json:"client_name"`
	ClientEmail  string          `json:"client_email"`
	Revenue      decimal.Decimal `json:"revenue"`
	InvoiceCount int             `json:"invoice_count"`
}

type Snapshot struct {
	Window             int                `json:"window"`
	GeneratedAt        time.Time          `json:"generated_at"`
	Buckets            []MonthlyBucket    `json:"buckets"`
	RevenueGrowth      float64            `json:"revenue_growth"`
	InvoiceGrowth      float64            `json:"invoice_growth"`
	StatusDistribution StatusDistribution `json:"status_distribution"`
	TopClients         []TopClient        `json:"top_clients"`
	TotalRevenue       decimal.Decimal    `json:"total_revenue"`
	TotalInvoices      int                `json:"total_invoices"`
	PaidInvoices       int                `json:"paid_invoices"`
	AveragePaidInvoice decimal.Decimal    `json:"average_paid_invoice"`

	// Currency is set only when every invoice in the window shares one.
	Currency string `json:"currency,omitempty"`
}
