package analytics

import (
	"context"
	"fmt"
	"time"

	"invoicely-service/internal/domain/analytics"
	"invoicely-service/internal/domain/invoice"
	xerrors "invoicely-service/internal/pkg/errors"
	"invoicely-service/internal/pkg/metrics"
	"invoicely-service/internal/pkg/sequence"
	"invoicely-service/internal/service/export"

	"go.uber.org/zap"
)

const viewSnapshot = "snapshot"

// AnalyticsService serves a user's rolling revenue view, recomputed from a full
// scan of their invoices on every request.
type AnalyticsService struct {
	invoices  invoice.Repository
	sequencer *sequence.Sequencer
	logger    *zap.Logger
	now       func() time.Time
}

func NewAnalyticsService(invoices invoice.Repository, sequencer *sequence.Sequencer, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		invoices:  invoices,
		sequencer: sequencer,
		logger:    logger,
		now:       time.Now,
	}
}

// GetSnapshot computes the snapshot for window months. When a newer request for
// the same user arrives first, this one is cancelled and returns ErrStaleRequest.
func (s *AnalyticsService) GetSnapshot(ctx context.Context, userID string, window int) (*analytics.Snapshot, error) {
	if !ValidWindow(window) {
		return nil, xerrors.Invalid("range must be %d or %d", analytics.Window6, analytics.Window12)
	}

	ctx, ticket := s.sequencer.Begin(ctx, viewSnapshot+":"+userID)

	invoices, err := s.invoices.ListByUser(ctx, userID, nil)
	if err != nil {
		if finishErr := ticket.Finish(); finishErr != nil {
			return nil, s.discard(userID, ticket)
		}
		s.logger.Error("failed to load invoices for snapshot", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	snap, err := BuildSnapshot(invoices, window, s.now())
	if err != nil {
		// BuildSnapshot only fails on input validation, which outranks staleness.
		_ = ticket.Finish()
		return nil, err
	}

	if err := ticket.Finish(); err != nil {
		return nil, s.discard(userID, ticket)
	}

	metrics.StatsComputations.WithLabelValues(viewSnapshot).Inc()
	return &snap, nil
}

func (s *AnalyticsService) discard(userID string, ticket sequence.Ticket) error {
	metrics.StaleRequestsDiscarded.WithLabelValues(viewSnapshot).Inc()
	s.logger.Debug("discarding superseded snapshot",
		zap.String("user_id", userID),
		zap.Uint64("token", ticket.Token()))
	return xerrors.ErrStaleRequest
}

// ExportCSV renders the snapshot's monthly buckets as csv.
func (s *AnalyticsService) ExportCSV(ctx context.Context, userID string, window int) (*export.File, error) {
	snap, err := s.snapshotForExport(ctx, userID, window)
	if err != nil {
		return nil, err
	}

	records := make([]export.Record, 0, len(snap.Buckets))
	for _, b := range snap.Buckets {
		records = append(records, export.Record{
			{Key: "month", Value: b.Month},
			{Key: "revenue", Value: b.Revenue.StringFixed(2)},
			{Key: "invoice_count", Value: b.InvoiceCount},
		})
	}

	return export.CSVFile("analytics", records, snap.GeneratedAt)
}

// ExportReport renders the snapshot as a printable pdf.
func (s *AnalyticsService) ExportReport(ctx context.Context, userID string, window int) (*export.File, error) {
	snap, err := s.snapshotForExport(ctx, userID, window)
	if err != nil {
		return nil, err
	}

	report := export.Report{
		Title:       "Revenue analytics",
		Subtitle:    fmt.Sprintf("Last %d months", snap.Window),
		GeneratedAt: snap.GeneratedAt,
		Currency:    snap.Currency,
		Stats: []export.Stat{
			{Label: "Total revenue", Value: snap.TotalRevenue.StringFixed(2)},
			{Label: "Invoices", Value: fmt.Sprintf("%d", snap.TotalInvoices)},
			{Label: "Paid invoices", Value: fmt.Sprintf("%d", snap.PaidInvoices)},
			{Label: "Average paid invoice", Value: snap.AveragePaidInvoice.StringFixed(2)},
			{Label: "Revenue growth", Value: fmt.Sprintf("%.2f%%", snap.RevenueGrowth)},
			{Label: "Invoice growth", Value: fmt.Sprintf("%.2f%%", snap.InvoiceGrowth)},
		},
		Buckets:    snap.Buckets,
		TopClients: snap.TopClients,
	}

	return export.PDFFile("analytics", report)
}

func (s *AnalyticsService) snapshotForExport(ctx context.Context, userID string, window int) (*analytics.Snapshot, error) {
	if !ValidWindow(window) {
		return nil, xerrors.Invalid("range must be %d or %d", analytics.Window6, analytics.Window12)
	}

	invoices, err := s.invoices.ListByUser(ctx, userID, nil)
	if err != nil {
		s.logger.Error("failed to load invoices for export", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	if len(invoices) == 0 {
		return nil, xerrors.ErrNothingToExport
	}

	snap, err := BuildSnapshot(invoices, window, s.now())
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
