// internal/service/invoice/invoice.go
package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"invoicely-service/internal/domain/invoice"
	xerrors "invoicely-service/internal/pkg/errors"
	"invoicely-service/internal/service/export"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const numberAttempts = 3

// StatsNotifier is told when invoice data behind the dashboards changes.
type StatsNotifier interface {
	StatsInvalidated(reason, userID string)
}

type InvoiceService struct {
	repo     invoice.Repository
	notifier StatsNotifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewInvoiceService(repo invoice.Repository, notifier StatsNotifier, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Create stores a new invoice for userID. When line items are given the total
// is derived from them and the tax rate; otherwise the supplied total is used.
func (s *InvoiceService) Create(ctx context.Context, userID string, req *invoice.CreateInvoiceRequest) (*invoice.Invoice, error) {
	status := req.Status
	if status == "" {
		status = invoice.StatusDraft
	}
	if !status.IsValid() {
		return nil, xerrors.Invalid("unknown invoice status %q", status)
	}
	if err := validateItems(req.Items, req.TaxRate); err != nil {
		return nil, err
	}

	total, err := resolveTotal(req.Items, req.TaxRate, req.Total)
	if err != nil {
		return nil, err
	}

	inv := &invoice.Invoice{
		ID:          uuid.NewString(),
		UserID:      userID,
		ClientName:  strings.TrimSpace(req.ClientName),
		ClientEmail: strings.TrimSpace(req.ClientEmail),
		Items:       lo.Ternary(req.Items == nil, []invoice.LineItem{}, req.Items),
		TaxRate:     req.TaxRate,
		Total:       total,
		Currency:    strings.ToUpper(req.Currency),
		Status:      status,
		DueDate:     req.DueDate,
		Notes:       req.Notes,
	}

	for attempt := 1; ; attempt++ {
		inv.InvoiceNumber = NewInvoiceNumber(s.now())
		err = s.repo.Create(ctx, inv)
		if err == nil {
			break
		}
		if !xerrors.Is(err, xerrors.ErrConflict) || attempt == numberAttempts {
			s.logger.Error("failed to create invoice", zap.String("user_id", userID), zap.Error(err))
			return nil, fmt.Errorf("failed to create invoice: %w", err)
		}
	}

	s.logger.Info("invoice created",
		zap.String("invoice_id", inv.ID),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("user_id", userID),
	)
	s.notifier.StatsInvalidated("invoice_created", userID)
	return inv, nil
}

func (s *InvoiceService) Get(ctx context.Context, userID, id string) (*invoice.Invoice, error) {
	return s.repo.FindByID(ctx, userID, id)
}

func (s *InvoiceService) List(ctx context.Context, userID string, filters *invoice.ListFilters) ([]invoice.Invoice, error) {
	if filters != nil {
		for _, st := range filters.Statuses {
			if !invoice.Status(st).IsValid() {
				return nil, xerrors.Invalid("unknown invoice status %q", st)
			}
		}
	}

	invoices, err := s.repo.ListByUser(ctx, userID, filters)
	if err != nil {
		s.logger.Error("failed to list invoices", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// Update applies the non-nil fields of req. Changing items or the tax rate
// recomputes the total.
func (s *InvoiceService) Update(ctx context.Context, userID, id string, req *invoice.UpdateInvoiceRequest) (*invoice.Invoice, error) {
	inv, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.ClientName != nil {
		inv.ClientName = strings.TrimSpace(*req.ClientName)
	}
	if req.ClientEmail != nil {
		inv.ClientEmail = strings.TrimSpace(*req.ClientEmail)
	}
	if req.Currency != nil {
		inv.Currency = strings.ToUpper(*req.Currency)
	}
	if req.DueDate != nil {
		inv.DueDate = req.DueDate
	}
	if req.Notes != nil {
		inv.Notes = *req.Notes
	}
	if req.Items != nil {
		inv.Items = req.Items
	}
	if req.TaxRate != nil {
		inv.TaxRate = *req.TaxRate
	}

	if err := validateItems(inv.Items, inv.TaxRate); err != nil {
		return nil, err
	}

	switch {
	case len(inv.Items) > 0 && (req.Items != nil || req.TaxRate != nil):
		inv.Total = invoice.ComputeTotal(inv.Items, inv.TaxRate)
	case req.Total != nil:
		if len(inv.Items) > 0 {
			return nil, xerrors.Invalid("total is derived from line items")
		}
		if req.Total.IsNegative() {
			return nil, xerrors.Invalid("total must not be negative")
		}
		inv.Total = req.Total.Round(2)
	}

	if err := s.repo.Update(ctx, inv); err != nil {
		if !xerrors.Is(err, xerrors.ErrNotFound) {
			s.logger.Error("failed to update invoice", zap.String("invoice_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.notifier.StatsInvalidated("invoice_updated", userID)
	return inv, nil
}

func (s *InvoiceService) UpdateStatus(ctx context.Context, userID, id string, status invoice.Status) error {
	if !status.IsValid() {
		return xerrors.Invalid("unknown invoice status %q", status)
	}
	if err := s.repo.UpdateStatus(ctx, userID, id, status); err != nil {
		return err
	}

	s.logger.Info("invoice status updated", zap.String("invoice_id", id), zap.String("status", string(status)))
	s.notifier.StatsInvalidated("invoice_status_changed", userID)
	return nil
}

func (s *InvoiceService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.notifier.StatsInvalidated("invoice_deleted", userID)
	return nil
}

// ExportCSV renders the user's filtered invoices with fixed columns.
func (s *InvoiceService) ExportCSV(ctx context.Context, userID string, filters *invoice.ListFilters) (*export.File, error) {
	invoices, err := s.List(ctx, userID, filters)
	if err != nil {
		return nil, err
	}

	rows := lo.Map(invoices, func(inv invoice.Invoice, _ int) invoice.CSVRow { return inv.ToCSVRow() })
	body, err := export.MarshalRows(rows)
	if err != nil {
		return nil, err
	}

	return &export.File{
		Name:        export.Filename("invoices", "csv", s.now()),
		ContentType: export.ContentTypeCSV,
		Body:        body,
	}, nil
}

// NewInvoiceNumber returns INV-YYYYMM-XXXX where XXXX is random.
func NewInvoiceNumber(at time.Time) string {
	id := ulid.Make().String()
	return fmt.Sprintf("INV-%s-%s", at.UTC().Format("200601"), id[len(id)-4:])
}

func validateItems(items []invoice.LineItem, taxRate decimal.Decimal) error {
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
		return xerrors.Invalid("tax_rate must be between 0 and 100")
	}
	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			return xerrors.Invalid("item %d: description is required", i+1)
		}
		if !item.Quantity.IsPositive() {
			return xerrors.Invalid("item %d: quantity must be positive", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return xerrors.Invalid("item %d: unit_price must not be negative", i+1)
		}
	}
	return nil
}

func resolveTotal(items []invoice.LineItem, taxRate decimal.Decimal, supplied *decimal.Decimal) (decimal.Decimal, error) {
	if len(items) > 0 {
		return invoice.ComputeTotal(items, taxRate), nil
	}
	if supplied == nil {
		return decimal.Zero, xerrors.Invalid("either items or total is required")
	}
	if supplied.IsNegative() {
		return decimal.Zero, xerrors.Invalid("total must not be negative")
	}
	return supplied.Round(2), nil
}
