package invoice

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"invoicely-service/internal/domain/invoice"
	xerrors "invoicely-service/internal/pkg/errors"
	"invoicely-service/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingNotifier struct {
	reasons []string
}

func (n *countingNotifier) StatsInvalidated(reason, _ string) {
	n.reasons = append(n.reasons, reason)
}

func newService() (*InvoiceService, *testutil.InMemoryInvoiceStore, *countingNotifier) {
	store := testutil.NewInMemoryInvoiceStore()
	notifier := &countingNotifier{}
	svc := NewInvoiceService(store, notifier, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC) }
	return svc, store, notifier
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewInvoiceNumber(t *testing.T) {
	number := NewInvoiceNumber(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^INV-202603-[0-9A-Z]{4}$`), number)
}

func TestCreate_ComputesTotalFromItems(t *testing.T) {
	svc, _, notifier := newService()

	inv, err := svc.Create(context.Background(), "u1", &invoice.CreateInvoiceRequest{
		ClientName:  " Acme ",
		ClientEmail: "billing@acme.io",
		Items: []invoice.LineItem{
			{Description: "Design", Quantity: d("2"), UnitPrice: d("150")},
			{Description: "Hosting", Quantity: d("1"), UnitPrice: d("49.99")},
		},
		TaxRate:  d("10"),
		Currency: "usd",
	})
	require.NoError(t, err)

	assert.True(t, d("384.99").Equal(inv.Total), inv.Total.String())
	assert.Equal(t, "Acme", inv.ClientName)
	assert.Equal(t, "USD", inv.Currency)
	assert.Equal(t, invoice.StatusDraft, inv.Status)
	assert.True(t, strings.HasPrefix(inv.InvoiceNumber, "INV-202603-"))
	assert.Equal(t, []string{"invoice_created"}, notifier.reasons)
}

func TestCreate_UsesSuppliedTotalWithoutItems(t *testing.T) {
	svc, _, _ := newService()
	total := d("99.999")

	inv, err := svc.Create(context.Background(), "u1", &invoice.CreateInvoiceRequest{
		ClientName: "Acme", ClientEmail: "a@acme.io", Currency: "EUR", Total: &total, Status: invoice.StatusSent,
	})
	require.NoError(t, err)
	assert.True(t, d("100").Equal(inv.Total))
	assert.Equal(t, invoice.StatusSent, inv.Status)
}

func TestCreate_Validation(t *testing.T) {
	svc, store, _ := newService()
	negative := d("-1")

	cases := map[string]*invoice.CreateInvoiceRequest{
		"no items or total": {ClientName: "A", ClientEmail: "a@a.io", Currency: "USD"},
		"negative total":    {ClientName: "A", ClientEmail: "a@a.io", Currency: "USD", Total: &negative},
		"bad status":        {ClientName: "A", ClientEmail: "a@a.io", Currency: "USD", Total: &negative, Status: "void"},
		"bad tax":           {ClientName: "A", ClientEmail: "a@a.io", Currency: "USD", TaxRate: d("120"), Items: []invoice.LineItem{{Description: "x", Quantity: d("1"), UnitPrice: d("1")}}},
		"zero quantity":     {ClientName: "A", ClientEmail: "a@a.io", Currency: "USD", Items: []invoice.LineItem{{Description: "x", Quantity: d("0"), UnitPrice: d("1")}}},
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "u1", req)
			assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
		})
	}

	all, _ := store.ListAll(context.Background())
	assert.Empty(t, all)
}

func TestUpdate_RecomputesTotal(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, "u1", &invoice.CreateInvoiceRequest{
		ClientName: "Acme", ClientEmail: "a@acme.io", Currency: "USD",
		Items: []invoice.LineItem{{Description: "Work", Quantity: d("10"), UnitPrice: d("10")}},
	})
	require.NoError(t, err)

	tax := d("16")
	updated, err := svc.Update(ctx, "u1", inv.ID, &invoice.UpdateInvoiceRequest{TaxRate: &tax})
	require.NoError(t, err)
	assert.True(t, d("116").Equal(updated.Total))

	manual := d("5")
	_, err = svc.Update(ctx, "u1", inv.ID, &invoice.UpdateInvoiceRequest{Total: &manual})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestOwnershipScoping(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	total := d("10")

	inv, err := svc.Create(ctx, "owner", &invoice.CreateInvoiceRequest{ClientName: "A", ClientEmail: "a@a.io", Currency: "USD", Total: &total})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "intruder", inv.ID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, "intruder", inv.ID, invoice.StatusPaid), xerrors.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "intruder", inv.ID), xerrors.ErrNotFound)

	require.NoError(t, svc.UpdateStatus(ctx, "owner", inv.ID, invoice.StatusPaid))
	got, err := svc.Get(ctx, "owner", inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, got.Status)

	require.NoError(t, svc.Delete(ctx, "owner", inv.ID))
	_, err = svc.Get(ctx, "owner", inv.ID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestList_FiltersAndRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	total := d("10")

	_, err := svc.Create(ctx, "u1", &invoice.CreateInvoiceRequest{ClientName: "Acme", ClientEmail: "a@acme.io", Currency: "USD", Total: &total, Status: invoice.StatusPaid})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", &invoice.CreateInvoiceRequest{ClientName: "Globex", ClientEmail: "g@globex.io", Currency: "USD", Total: &total})
	require.NoError(t, err)

	paid, err := svc.List(ctx, "u1", &invoice.ListFilters{Statuses: []string{"paid"}})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, "Acme", paid[0].ClientName)

	found, err := svc.List(ctx, "u1", &invoice.ListFilters{Search: "GLOBEX"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = svc.List(ctx, "u1", &invoice.ListFilters{Statuses: []string{"archived"}})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestExportCSV(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, err := svc.ExportCSV(ctx, "u1", nil)
	assert.ErrorIs(t, err, xerrors.ErrNothingToExport)

	total := d("42")
	_, err = svc.Create(ctx, "u1", &invoice.CreateInvoiceRequest{ClientName: "Acme", ClientEmail: "a@acme.io", Currency: "USD", Total: &total})
	require.NoError(t, err)

	file, err := svc.ExportCSV(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, "invoices-2026-03-15.csv", file.Name)
	assert.Contains(t, string(file.Body), "Acme,a@acme.io,42.00,USD,draft")
}
