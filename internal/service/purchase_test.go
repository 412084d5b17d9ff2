package service

import (
	"context"
	"testing"
	"time"

	"stagepass/internal/apperrors"
	"stagepass/internal/config"
	"stagepass/internal/database"
	"stagepass/internal/models"
	"stagepass/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServices wires real repositories against the configured Postgres and
// skips the test when it is unreachable.
func testServices(t *testing.T) (*repository.Repositories, *Services) {
	t.Helper()

	cfg := config.Load()
	db, err := database.Connect(cfg.Database)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations())
	repos := repository.NewRepositories(db)
	return repos, NewServices(repos, nil, nil)
}

func newDBUser(t *testing.T, repos *repository.Repositories) *models.User {
	t.Helper()

	user := &models.User{
		Email:        "scan-" + uuid.New().String() + "@example.com",
		PasswordHash: "test-hash",
		FirstName:    "Test",
		Surname:      "User",
		IsActive:     true,
	}
	require.NoError(t, repos.Users.Create(context.Background(), user))
	return user
}

func newDBEvent(t *testing.T, repos *repository.Repositories, organizerID int64, start time.Time, end *time.Time) *models.Event {
	t.Helper()

	event := &models.Event{
		OrganizerID: organizerID,
		Title:       "Scan Event " + uuid.New().String()[:8],
		StartDate:   start,
		EndDate:     end,
		Price:       decimal.NewFromInt(25),
	}
	require.NoError(t, repos.Events.Create(context.Background(), event))
	return event
}

// newDBTicket buys one general-admission ticket through the repository layer,
// which has no sales-window cutoff, so fixtures can exist for events that are
// already running.
func newDBTicket(t *testing.T, repos *repository.Repositories, event *models.Event, buyerID int64) *models.Ticket {
	t.Helper()

	order, err := repos.Purchases.ExecutePurchase(context.Background(), repository.PurchaseInput{
		Event:    event,
		BuyerID:  buyerID,
		Quantity: 1,
		Now:      time.Now(),
	})
	require.NoError(t, err)
	require.Len(t, order.Tickets, 1)
	return &order.Tickets[0]
}

func TestScanTicketConsumesOnceWhileRunning(t *testing.T) {
	repos, services := testServices(t)
	ctx := context.Background()

	organizer := newDBUser(t, repos)
	buyer := newDBUser(t, repos)
	// Started an hour ago, no end date: the event counts as running.
	event := newDBEvent(t, repos, organizer.ID, time.Now().Add(-time.Hour), nil)
	ticket := newDBTicket(t, repos, event, buyer.ID)

	scanned, err := services.Purchases.ScanTicket(ctx, &models.ScanTicketRequest{TicketCode: ticket.TicketCode})
	require.NoError(t, err)
	assert.True(t, scanned.IsScanned)
	assert.NotNil(t, scanned.UsedAt)

	_, err = services.Purchases.ScanTicket(ctx, &models.ScanTicketRequest{TicketCode: ticket.TicketCode})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestScanTicketRejectsEventNotStarted(t *testing.T) {
	repos, services := testServices(t)
	ctx := context.Background()

	organizer := newDBUser(t, repos)
	buyer := newDBUser(t, repos)
	event := newDBEvent(t, repos, organizer.ID, time.Now().Add(24*time.Hour), nil)
	ticket := newDBTicket(t, repos, event, buyer.ID)

	_, err := services.Purchases.ScanTicket(ctx, &models.ScanTicketRequest{TicketCode: ticket.TicketCode})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// The failed scan must not consume the ticket.
	fresh, err := repos.Tickets.GetByCode(ctx, ticket.TicketCode)
	require.NoError(t, err)
	assert.False(t, fresh.IsScanned)
	assert.Nil(t, fresh.UsedAt)
}

func TestScanTicketRejectsEventEnded(t *testing.T) {
	repos, services := testServices(t)
	ctx := context.Background()

	organizer := newDBUser(t, repos)
	buyer := newDBUser(t, repos)
	end := time.Now().Add(-24 * time.Hour)
	event := newDBEvent(t, repos, organizer.ID, time.Now().Add(-48*time.Hour), &end)
	ticket := newDBTicket(t, repos, event, buyer.ID)

	_, err := services.Purchases.ScanTicket(ctx, &models.ScanTicketRequest{TicketCode: ticket.TicketCode})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestScanTicketRejectsCancelledEvent(t *testing.T) {
	repos, services := testServices(t)
	ctx := context.Background()

	organizer := newDBUser(t, repos)
	buyer := newDBUser(t, repos)
	event := newDBEvent(t, repos, organizer.ID, time.Now().Add(-time.Hour), nil)
	ticket := newDBTicket(t, repos, event, buyer.ID)

	require.NoError(t, repos.Events.Cancel(ctx, event.ID))

	_, err := services.Purchases.ScanTicket(ctx, &models.ScanTicketRequest{TicketCode: ticket.TicketCode})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestScanTicketUnknownCode(t *testing.T) {
	_, services := testServices(t)

	_, err := services.Purchases.ScanTicket(context.Background(), &models.ScanTicketRequest{TicketCode: uuid.New().String()})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestMarkTicketUsedByID(t *testing.T) {
	repos, services := testServices(t)
	ctx := context.Background()

	organizer := newDBUser(t, repos)
	buyer := newDBUser(t, repos)
	event := newDBEvent(t, repos, organizer.ID, time.Now().Add(-time.Hour), nil)
	ticket := newDBTicket(t, repos, event, buyer.ID)

	used, err := services.Purchases.MarkTicketUsed(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, used.IsScanned)
	assert.Equal(t, ticket.TicketCode, used.TicketCode)
}
