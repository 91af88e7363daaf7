package analytics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"invoicely-service/internal/domain/invoice"
	xerrors "invoicely-service/internal/pkg/errors"
	"invoicely-service/internal/pkg/sequence"
	"invoicely-service/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// slowFirstList blocks the first ListByUser call until its context is cancelled.
type slowFirstList struct {
	*testutil.InMemoryInvoiceStore
	blocked atomic.Bool
	started chan struct{}
}

func (s *slowFirstList) ListByUser(ctx context.Context, userID string, f *invoice.ListFilters) ([]invoice.Invoice, error) {
	if s.blocked.CompareAndSwap(false, true) {
		close(s.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.InMemoryInvoiceStore.ListByUser(ctx, userID, f)
}

func newService(repo invoice.Repository) *AnalyticsService {
	svc := NewAnalyticsService(repo, sequence.New(), zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func seed(t *testing.T, store *testutil.InMemoryInvoiceStore, userID, id string, status invoice.Status, total string, created time.Time) {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), &invoice.Invoice{
		ID:            id,
		UserID:        userID,
		InvoiceNumber: "INV-" + id,
		ClientName:    "Acme",
		ClientEmail:   "billing@acme.io",
		Status:        status,
		Total:         decimal.RequireFromString(total),
		Currency:      "USD",
		CreatedAt:     created,
	}))
}

func TestGetSnapshot_ScopesToUser(t *testing.T) {
	store := testutil.NewInMemoryInvoiceStore()
	seed(t, store, "u1", "1", invoice.StatusPaid, "100", month(2026, time.March, 2))
	seed(t, store, "u2", "2", invoice.StatusPaid, "900", month(2026, time.March, 2))

	snap, err := newService(store).GetSnapshot(context.Background(), "u1", 6)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.TotalInvoices)
	assert.True(t, decimal.NewFromInt(100).Equal(snap.TotalRevenue))
}

func TestGetSnapshot_InvalidRange(t *testing.T) {
	_, err := newService(testutil.NewInMemoryInvoiceStore()).GetSnapshot(context.Background(), "u1", 9)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestGetSnapshot_StoreFailure(t *testing.T) {
	store := testutil.NewInMemoryInvoiceStore()
	store.ListErr = errors.New("connection reset")

	_, err := newService(store).GetSnapshot(context.Background(), "u1", 6)
	require.Error(t, err)
	assert.NotErrorIs(t, err, xerrors.ErrStaleRequest)
}

func TestGetSnapshot_NewerRequestSupersedesOlder(t *testing.T) {
	store := testutil.NewInMemoryInvoiceStore()
	seed(t, store, "u1", "1", invoice.StatusPaid, "100", month(2026, time.March, 2))
	repo := &slowFirstList{InMemoryInvoiceStore: store, started: make(chan struct{})}
	svc := newService(repo)

	olderErr := make(chan error, 1)
	go func() {
		_, err := svc.GetSnapshot(context.Background(), "u1", 6)
		olderErr <- err
	}()
	<-repo.started

	snap, err := svc.GetSnapshot(context.Background(), "u1", 12)
	require.NoError(t, err)
	assert.Equal(t, 12, snap.Window)

	select {
	case err := <-olderErr:
		assert.ErrorIs(t, err, xerrors.ErrStaleRequest)
	case <-time.After(2 * time.Second):
		t.Fatal("older request was not cancelled")
	}
	assert.Zero(t, svc.sequencer.InFlight())
}

func TestExportCSV(t *testing.T) {
	store := testutil.NewInMemoryInvoiceStore()
	seed(t, store, "u1", "1", invoice.StatusPaid, "100", month(2026, time.March, 2))

	file, err := newService(store).ExportCSV(context.Background(), "u1", 6)
	require.NoError(t, err)

	assert.Equal(t, "analytics-2026-03-15.csv", file.Name)
	assert.Contains(t, string(file.Body), "month,revenue,invoice_count\n")
	assert.Contains(t, string(file.Body), `"Mar 2026","100.00","1"`)
}

func TestExport_NothingToExport(t *testing.T) {
	svc := newService(testutil.NewInMemoryInvoiceStore())

	_, err := svc.ExportCSV(context.Background(), "u1", 6)
	assert.ErrorIs(t, err, xerrors.ErrNothingToExport)

	_, err = svc.ExportReport(context.Background(), "u1", 12)
	assert.ErrorIs(t, err, xerrors.ErrNothingToExport)
}

func TestExportReport(t *testing.T) {
	store := testutil.NewInMemoryInvoiceStore()
	seed(t, store, "u1", "1", invoice.StatusPaid, "100", month(2026, time.March, 2))

	file, err := newService(store).ExportReport(context.Background(), "u1", 12)
	require.NoError(t, err)

	assert.Equal(t, "analytics-2026-03-15.pdf", file.Name)
	assert.NotEmpty(t, file.Body)
}

func TestGetSnapshot_ReportsSharedCurrency(t *testing.T) {
	store := testutil.NewInMemoryInvoiceStore()
	seed(t, store, "u1", "1", invoice.StatusPaid, "100", month(2026, time.March, 2))
	seed(t, store, "u1", "2", invoice.StatusSent, "40", month(2026, time.February, 2))

	snap, err := newService(store).GetSnapshot(context.Background(), "u1", 6)
	require.NoError(t, err)
	assert.Equal(t, "USD", snap.Currency)
}
