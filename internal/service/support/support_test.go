package support

import (
	"context"
	"testing"

	"invoicely-service/internal/domain/support"
	"invoicely-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopNotifier struct{ calls int }

func (n *nopNotifier) StatsInvalidated(string, string) { n.calls++ }

func TestCreateTicket(t *testing.T) {
	tickets := testutil.NewInMemoryTicketStore()
	notifier := &nopNotifier{}
	svc := NewSupportService(tickets, testutil.NewInMemoryFeedbackStore(), notifier, zap.NewNop())
	ctx := context.Background()

	anon, err := svc.CreateTicket(ctx, "", &support.CreateTicketRequest{
		Name: "Visitor", Email: "Visitor@Example.com", Subject: "Pricing", Message: "Do you offer discounts?",
		Category: support.CategoryBilling,
	})
	require.NoError(t, err)
	assert.Nil(t, anon.UserID)
	assert.Equal(t, "visitor@example.com", anon.Email)
	assert.Equal(t, support.PriorityMedium, anon.Priority)
	assert.Equal(t, support.TicketOpen, anon.Status)

	_, err = svc.CreateTicket(ctx, "u1", &support.CreateTicketRequest{
		Name: "Ada", Email: "ada@example.com", Subject: "Export", Message: "CSV is empty",
		Category: support.CategoryTechnical, Priority: support.PriorityHigh,
	})
	require.NoError(t, err)

	mine, err := svc.ListMyTickets(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, support.PriorityHigh, mine[0].Priority)
	assert.Equal(t, 2, notifier.calls)
}

func TestSubmitFeedback(t *testing.T) {
	feedback := testutil.NewInMemoryFeedbackStore()
	svc := NewSupportService(testutil.NewInMemoryTicketStore(), feedback, &nopNotifier{}, zap.NewNop())
	ctx := context.Background()

	f, err := svc.SubmitFeedback(ctx, "u1", &support.SubmitFeedbackRequest{
		Name: "Ada", Email: "ada@example.com", Type: support.FeedbackImprovement, Rating: 4, Message: " Faster exports ",
	})
	require.NoError(t, err)
	assert.Equal(t, support.FeedbackNew, f.Status)
	assert.Equal(t, "Faster exports", f.Message)

	mine, err := svc.ListMyFeedback(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	others, err := svc.ListMyFeedback(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, others)
}
