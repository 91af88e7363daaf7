package admin

import (
	"context"

	"invoicely-service/internal/domain/admin"
	"invoicely-service/internal/domain/invoice"
	"invoicely-service/internal/domain/support"
	"invoicely-service/internal/domain/user"
	xerrors "invoicely-service/internal/pkg/errors"
	"invoicely-service/internal/service/export"

	"github.com/samber/lo"
)

// Export renders one filtered admin collection as csv.
func (s *AdminService) Export(ctx context.Context, collection admin.Collection, query string) (*export.File, error) {
	var records []export.Record

	switch collection {
	case admin.CollectionUsers:
		users, err := s.ListUsers(ctx, query)
		if err != nil {
			return nil, err
		}
		records = lo.Map(users, func(u user.User, _ int) export.Record { return userRecord(u) })
	case admin.CollectionInvoices:
		invoices, err := s.ListInvoices(ctx, query)
		if err != nil {
			return nil, err
		}
		records = lo.Map(invoices, func(i invoice.Invoice, _ int) export.Record { return invoiceRecord(i) })
	case admin.CollectionTickets:
		tickets, err := s.ListTickets(ctx, query)
		if err != nil {
			return nil, err
		}
		records = lo.Map(tickets, func(t support.Ticket, _ int) export.Record { return ticketRecord(t) })
	case admin.CollectionFeedback:
		feedback, err := s.ListFeedback(ctx, query)
		if err != nil {
			return nil, err
		}
		records = lo.Map(feedback, func(f support.Feedback, _ int) export.Record { return feedbackRecord(f) })
	default:
		return nil, xerrors.Invalid("unknown collection %q", collection)
	}

	return export.CSVFile(string(collection), records, s.now())
}

func userRecord(u user.User) export.Record {
	return export.Record{
		{Key: "id", Value: u.ID},
		{Key: "full_name", Value: u.FullName},
		{Key: "email", Value: u.Email},
		{Key: "plan", Value: string(u.Plan)},
		{Key: "plan_expires_at", Value: u.PlanExpiresAt},
		{Key: "is_banned", Value: u.IsBanned},
		{Key: "role", Value: string(u.Role)},
		{Key: "created_at", Value: u.CreatedAt},
	}
}

func invoiceRecord(i invoice.Invoice) export.Record {
	return export.Record{
		{Key: "invoice_number", Value: i.InvoiceNumber},
		{Key: "client_name", Value: i.ClientName},
		{Key: "client_email", Value: i.ClientEmail},
		{Key: "total", Value: i.Total.StringFixed(2)},
		{Key: "currency", Value: i.Currency},
		{Key: "status", Value: string(i.Status)},
		{Key: "user_id", Value: i.UserID},
		{Key: "created_at", Value: i.CreatedAt},
	}
}

func ticketRecord(t support.Ticket) export.Record {
	return export.Record{
		{Key: "id", Value: t.ID},
		{Key: "name", Value: t.Name},
		{Key: "email", Value: t.Email},
		{Key: "subject", Value: t.Subject},
		{Key: "category", Value: string(t.Category)},
		{Key: "priority", Value: string(t.Priority)},
		{Key: "status", Value: string(t.Status)},
		{Key: "created_at", Value: t.CreatedAt},
	}
}

func feedbackRecord(f support.Feedback) export.Record {
	return export.Record{
		{Key: "id", Value: f.ID},
		{Key: "name", Value: f.Name},
		{Key: "email", Value: f.Email},
		{Key: "type", Value: string(f.Type)},
		{Key: "rating", Value: f.Rating},
		{Key: "message", Value: f.Message},
		{Key: "status", Value: string(f.Status)},
		{Key: "created_at", Value: f.CreatedAt},
	}
}
