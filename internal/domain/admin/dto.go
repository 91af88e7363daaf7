package admin

import (
	"invoicely-service/internal/domain/analytics"
	"invoicely-service/internal/domain/invoice"
	"invoicely-service/internal/domain/support"
	"invoicely-service/internal/domain/user"
)

// Collection names an exportable admin list.
type Collection string

const (
	CollectionUsers    Collection = "users"
	CollectionInvoices Collection = "invoices"
	CollectionTickets  Collection = "tickets"
	CollectionFeedback Collection = "feedback"
)

func (c Collection) IsValid() bool {
	switch c {
	case CollectionUsers, CollectionInvoices, CollectionTickets, CollectionFeedback:
		return true
	}
	return false
}

// Overview is the admin dashboard payload. Stats are computed over the full
// collections; the lists are narrowed by the search query.
type Overview struct {
	Stats    analytics.AdminStats `json:"stats"`
	Users    []user.User          `json:"users"`
	Invoices []invoice.Invoice    `json:"invoices"`
	Tickets  []support.Ticket     `json:"tickets"`
	Feedback []support.Feedback   `json:"feedback"`
	Warnings []string             `json:"warnings,omitempty"`
}
