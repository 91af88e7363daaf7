package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"invoicely-service/internal/domain/admin"
	"invoicely-service/internal/domain/invoice"
	"invoicely-service/internal/domain/support"
	"invoicely-service/internal/domain/user"
	xerrors "invoicely-service/internal/pkg/errors"
	"invoicely-service/internal/pkg/session"
	"invoicely-service/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

type fakeSessions struct {
	mu          sync.Mutex
	invalidated []string
	plans       map[string]string
}

func (f *fakeSessions) UpdateSessions(_ context.Context, userID string, mutate func(*session.SessionData)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sd := &session.SessionData{UserID: userID}
	mutate(sd)
	if f.plans == nil {
		f.plans = map[string]string{}
	}
	f.plans[userID] = sd.Plan
	return nil
}

func (f *fakeSessions) InvalidateAllUserSessions(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, userID)
	return nil
}

type recordingNotifier struct {
	planChanges  []user.Plan
	forceLogouts []string
	invalidated  []string
}

func (n *recordingNotifier) NotifyPlanChanged(_ string, plan user.Plan, _ *time.Time) {
	n.planChanges = append(n.planChanges, plan)
}

func (n *recordingNotifier) ForceLogout(userID, _ string) {
	n.forceLogouts = append(n.forceLogouts, userID)
}

func (n *recordingNotifier) StatsInvalidated(reason, _ string) {
	n.invalidated = append(n.invalidated, reason)
}

type fixture struct {
	svc      *AdminService
	users    *testutil.InMemoryUserStore
	invoices *testutil.InMemoryInvoiceStore
	tickets  *testutil.InMemoryTicketStore
	feedback *testutil.InMemoryFeedbackStore
	sessions *fakeSessions
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    testutil.NewInMemoryUserStore(),
		invoices: testutil.NewInMemoryInvoiceStore(),
		tickets:  testutil.NewInMemoryTicketStore(),
		feedback: testutil.NewInMemoryFeedbackStore(),
		sessions: &fakeSessions{},
		notifier: &recordingNotifier{},
	}
	f.svc = NewAdminService(f.users, f.invoices, f.tickets, f.feedback, f.sessions, f.notifier, zap.NewNop())
	f.svc.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, f.users.Create(ctx, &user.User{ID: "u1", FullName: "Ada Lovelace", Email: "ada@example.com", Plan: user.PlanFree, CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, f.users.Create(ctx, &user.User{ID: "u2", FullName: "Grace Hopper", Email: "grace@navy.mil", Plan: user.PlanPro, CreatedAt: now.Add(-90 * 24 * time.Hour)}))
	require.NoError(t, f.invoices.Create(ctx, &invoice.Invoice{ID: "i1", UserID: "u1", InvoiceNumber: "INV-202603-AAAA", ClientName: "Acme", ClientEmail: "a@acme.io", Status: invoice.StatusPaid, Total: decimal.NewFromInt(250), CreatedAt: now}))
	require.NoError(t, f.invoices.Create(ctx, &invoice.Invoice{ID: "i2", UserID: "u2", InvoiceNumber: "INV-202603-BBBB", ClientName: "Globex", ClientEmail: "g@globex.io", Status: invoice.StatusDraft, Total: decimal.NewFromInt(75), CreatedAt: now}))
	require.NoError(t, f.tickets.Create(ctx, &support.Ticket{ID: "t1", Name: "Ada", Email: "ada@example.com", Subject: "Billing question", Category: support.CategoryBilling, Status: support.TicketOpen}))
	require.NoError(t, f.feedback.Create(ctx, &support.Feedback{ID: "f1", Name: "Grace", Email: "grace@navy.mil", Type: support.FeedbackFeature, Rating: 5, Message: "Dark mode", Status: support.FeedbackNew}))
	return f
}

func TestGetOverview(t *testing.T) {
	f := newFixture(t)

	overview, err := f.svc.GetOverview(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 2, overview.Stats.TotalUsers)
	assert.Equal(t, 1, overview.Stats.ActiveUsers)
	assert.Equal(t, 2, overview.Stats.TotalInvoices)
	assert.True(t, decimal.NewFromInt(250).Equal(overview.Stats.TotalRevenue))
	assert.Equal(t, 1, overview.Stats.SupportTickets)
	assert.Equal(t, 1, overview.Stats.FeedbackSubmissions)
	assert.Len(t, overview.Users, 2)
	assert.Empty(t, overview.Warnings)
}

func TestGetOverview_SearchNarrowsListsNotStats(t *testing.T) {
	f := newFixture(t)

	overview, err := f.svc.GetOverview(context.Background(), "  GRACE ")
	require.NoError(t, err)

	require.Len(t, overview.Users, 1)
	assert.Equal(t, "u2", overview.Users[0].ID)
	assert.Empty(t, overview.Invoices)
	assert.Empty(t, overview.Tickets)
	assert.Len(t, overview.Feedback, 1)
	assert.Equal(t, 2, overview.Stats.TotalUsers)
}

func TestGetOverview_FailedCollectionIsContained(t *testing.T) {
	f := newFixture(t)
	f.invoices.ListErr = errors.New("relation \"invoices\" does not exist")

	overview, err := f.svc.GetOverview(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"invoices unavailable"}, overview.Warnings)
	assert.Zero(t, overview.Stats.TotalInvoices)
	assert.True(t, overview.Stats.TotalRevenue.IsZero())
	assert.NotNil(t, overview.Invoices)
	assert.Equal(t, 2, overview.Stats.TotalUsers)
}

func TestUpdateUserPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.UpdateUserPlan(ctx, "u2", user.PlanAgency)
	require.NoError(t, err)
	assert.Equal(t, user.PlanAgency, u.Plan)
	require.NotNil(t, u.PlanExpiresAt)
	assert.Equal(t, now.Add(30*24*time.Hour), *u.PlanExpiresAt)
	assert.Equal(t, "agency", f.sessions.plans["u2"])

	u, err = f.svc.UpdateUserPlan(ctx, "u2", user.PlanFree)
	require.NoError(t, err)
	assert.Equal(t, user.PlanFree, u.Plan)
	assert.Nil(t, u.PlanExpiresAt)

	assert.Equal(t, []user.Plan{user.PlanAgency, user.PlanFree}, f.notifier.planChanges)
	assert.Equal(t, []string{"plan_changed", "plan_changed"}, f.notifier.invalidated)
}

func TestUpdateUserPlan_RejectsUnknownPlan(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateUserPlan(context.Background(), "u1", user.Plan("enterprise"))
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	stored, _ := f.users.FindByID(context.Background(), "u1")
	assert.Equal(t, user.PlanFree, stored.Plan)
	assert.Empty(t, f.notifier.planChanges)
}

func TestUpdateUserPlan_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateUserPlan(context.Background(), "missing", user.PlanPro)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestToggleUserBan_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.ToggleUserBan(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, res.IsBanned)
	assert.Equal(t, []string{"u1"}, f.sessions.invalidated)
	assert.Equal(t, []string{"u1"}, f.notifier.forceLogouts)

	res, err = f.svc.ToggleUserBan(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, res.IsBanned)
	assert.Len(t, f.sessions.invalidated, 1)

	stored, _ := f.users.FindByID(ctx, "u1")
	assert.False(t, stored.IsBanned)
}

func TestUpdateTicketStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.UpdateTicketStatus(ctx, "t1", support.TicketResolved))
	tickets, _ := f.tickets.ListAll(ctx)
	assert.Equal(t, support.TicketResolved, tickets[0].Status)

	assert.ErrorIs(t, f.svc.UpdateTicketStatus(ctx, "t1", "escalated"), xerrors.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.UpdateTicketStatus(ctx, "nope", support.TicketClosed), xerrors.ErrNotFound)
}

func TestUpdateFeedbackStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.UpdateFeedbackStatus(ctx, "f1", support.FeedbackPlanned))
	assert.ErrorIs(t, f.svc.UpdateFeedbackStatus(ctx, "f1", "wontfix"), xerrors.ErrInvalidInput)
}

func TestExport(t *testing.T) {
	f := newFixture(t)

	file, err := f.svc.Export(context.Background(), admin.CollectionUsers, "ada")
	require.NoError(t, err)

	assert.Equal(t, "users-2026-03-15.csv", file.Name)
	assert.Equal(t,
		"id,full_name,email,plan,plan_expires_at,is_banned,role,created_at\n"+
			`"u1","Ada Lovelace","ada@example.com","free","","false","","2026-03-13T10:00:00Z"`,
		string(file.Body))
}

func TestExport_EmptyAndUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Export(context.Background(), admin.CollectionInvoices, "no such client")
	assert.ErrorIs(t, err, xerrors.ErrNothingToExport)

	_, err = f.svc.Export(context.Background(), admin.Collection("secrets"), "")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}
