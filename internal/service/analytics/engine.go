package analytics

import (
	"slices"
	"strings"
	"time"

	"invoicely-service/internal/domain/analytics"
	"invoicely-service/internal/domain/invoice"
	"invoicely-service/internal/domain/support"
	"invoicely-service/internal/domain/user"
	xerrors "invoicely-service/internal/pkg/errors"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ValidWindow reports whether months is one of the supported trailing windows.
func ValidWindow(months int) bool {
	return months == analytics.Window6 || months == analytics.Window12
}

// ComputeAdminStats derives the dashboard counters from the four raw collections.
// Nil collections count as empty.
func ComputeAdminStats(users []user.User, invoices []invoice.Invoice, tickets []support.Ticket, feedback []support.Feedback, now time.Time) analytics.AdminStats {
	cutoff := now.Add(-analytics.ActiveUserWindow)

	return analytics.AdminStats{
		TotalUsers:    len(users),
		TotalInvoices: len(invoices),
		TotalRevenue:  PaidRevenue(invoices),
		ActiveUsers: lo.CountBy(users, func(u user.User) bool {
			return !u.CreatedAt.Before(cutoff)
		}),
		SupportTickets:      len(tickets),
		FeedbackSubmissions: len(feedback),
	}
}

// PaidRevenue sums the totals of paid invoices only.
func PaidRevenue(invoices []invoice.Invoice) decimal.Decimal {
	sum := decimal.Zero
	for _, inv := range invoices {
		if inv.Status == invoice.StatusPaid {
			sum = sum.Add(inv.Total)
		}
	}
	return sum
}

// BuildSnapshot buckets invoices into the trailing window of calendar months
// ending with the month of now (UTC).
func BuildSnapshot(invoices []invoice.Invoice, window int, now time.Time) (analytics.Snapshot, error) {
	if !ValidWindow(window) {
		return analytics.Snapshot{}, xerrors.Invalid("window must be %d or %d months, got %d", analytics.Window6, analytics.Window12, window)
	}

	now = now.UTC()
	current := monthStart(now)
	first := current.AddDate(0, -(window - 1), 0)

	buckets := make([]analytics.MonthlyBucket, window)
	for i := range buckets {
		start := first.AddDate(0, i, 0)
		buckets[i] = analytics.MonthlyBucket{
			Month:   start.Format(analytics.BucketLabelLayout),
			Start:   start,
			Revenue: decimal.Zero,
		}
	}

	snap := analytics.Snapshot{
		Window:      window,
		GeneratedAt: now,
		Buckets:     buckets,
	}

	var inWindow []invoice.Invoice
	for _, inv := range invoices {
		idx := monthIndex(first, inv.CreatedAt.UTC())
		if idx < 0 || idx >= window {
			continue
		}
		inWindow = append(inWindow, inv)

		buckets[idx].InvoiceCount++
		if inv.Status == invoice.StatusPaid {
			buckets[idx].Revenue = buckets[idx].Revenue.Add(inv.Total)
		}
		countStatus(&snap.StatusDistribution, inv.Status)
	}

	last, prev := buckets[window-1], buckets[window-2]
	snap.RevenueGrowth = GrowthPercent(prev.Revenue, last.Revenue)
	snap.InvoiceGrowth = GrowthPercent(decimal.NewFromInt(int64(prev.InvoiceCount)), decimal.NewFromInt(int64(last.InvoiceCount)))

	snap.TopClients = TopClients(inWindow, analytics.TopClientLimit)
	snap.TotalInvoices = len(inWindow)
	snap.Currency = sharedCurrency(inWindow)
	snap.TotalRevenue = PaidRevenue(inWindow)
	snap.PaidInvoices = snap.StatusDistribution.Paid
	snap.AveragePaidInvoice = decimal.Zero
	if snap.PaidInvoices > 0 {
		snap.AveragePaidInvoice = snap.TotalRevenue.Div(decimal.NewFromInt(int64(snap.PaidInvoices))).Round(2)
	}

	return snap, nil
}

// GrowthPercent is (current - previous) / previous * 100 rounded to two places,
// and 0 when previous is 0.
func GrowthPercent(previous, current decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2).InexactFloat64()
}

// TopClients groups paid invoices by client email (case-insensitive), sums their
// totals and returns the highest earners. Ties keep first-seen order.
func TopClients(invoices []invoice.Invoice, limit int) []analytics.TopClient {
	var clients []analytics.TopClient
	index := make(map[string]int)

	for _, inv := range invoices {
		if inv.Status != invoice.StatusPaid {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(inv.ClientEmail))
		i, ok := index[key]
		if !ok {
			i = len(clients)
			index[key] = i
			clients = append(clients, analytics.TopClient{
				ClientName:  inv.ClientName,
				ClientEmail: inv.ClientEmail,
				Revenue:     decimal.Zero,
			})
		}
		clients[i].Revenue = clients[i].Revenue.Add(inv.Total)
		clients[i].InvoiceCount++
	}

	slices.SortStableFunc(clients, func(a, b analytics.TopClient) int {
		return b.Revenue.Cmp(a.Revenue)
	})

	if len(clients) > limit {
		clients = clients[:limit]
	}
	if clients == nil {
		clients = []analytics.TopClient{}
	}
	return clients
}

// sharedCurrency returns the one currency all invoices use, or "" when they mix
// currencies or there are none.
func sharedCurrency(invoices []invoice.Invoice) string {
	currencies := lo.Uniq(lo.Map(invoices, func(inv invoice.Invoice, _ int) string {
		return strings.ToUpper(strings.TrimSpace(inv.Currency))
	}))
	if len(currencies) != 1 {
		return ""
	}
	return currencies[0]
}

func countStatus(d *analytics.StatusDistribution, status invoice.Status) {
	switch status {
	case invoice.StatusPaid:
		d.Paid++
	case invoice.StatusSent:
		d.Sent++
	case invoice.StatusDraft:
		d.Draft++
	case invoice.StatusOverdue:
		d.Overdue++
	default:
		d.Unclassified++
	}
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthIndex returns how many calendar months t lies after first.
func monthIndex(first, t time.Time) int {
	return (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
}
