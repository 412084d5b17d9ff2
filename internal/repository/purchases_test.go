package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"stagepass/internal/apperrors"
	"stagepass/internal/config"
	"stagepass/internal/database"
	"stagepass/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepos connects to the configured Postgres and skips the test when it is
// unreachable. These tests exercise real transactions and row locks, which no
// in-memory fake can model.
func testRepos(t *testing.T) *Repositories {
	t.Helper()

	cfg := config.Load()
	db, err := database.Connect(cfg.Database)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations())
	return NewRepositories(db)
}

func createTestUser(t *testing.T, repos *Repositories) *models.User {
	t.Helper()

	user := &models.User{
		Email:        "buyer-" + uuid.New().String() + "@example.com",
		PasswordHash: "test-hash",
		FirstName:    "Test",
		Surname:      "Buyer",
		IsActive:     true,
	}
	require.NoError(t, repos.Users.Create(context.Background(), user))
	return user
}

func createTestEvent(t *testing.T, repos *Repositories, organizerID int64, venueID *int64, price decimal.Decimal, start time.Time) *models.Event {
	t.Helper()

	event := &models.Event{
		OrganizerID: organizerID,
		Title:       "Test Event " + uuid.New().String()[:8],
		StartDate:   start,
		VenueID:     venueID,
		Price:       price,
	}
	require.NoError(t, repos.Events.Create(context.Background(), event))
	return event
}

// createSeatedEvent builds a venue with a 1-section, 1-row, 3-seat layout and
// an event whose seats are generated from it.
func createSeatedEvent(t *testing.T, repos *Repositories, organizerID int64, price decimal.Decimal) (*models.Event, []models.Seat) {
	t.Helper()
	ctx := context.Background()

	venue := &models.Venue{
		Name:    "Test Hall " + uuid.New().String()[:8],
		Address: "1 Test Lane",
		City:    "Testville",
	}
	require.NoError(t, repos.Venues.Create(ctx, venue))

	layout := models.LayoutData{Sections: map[string]models.SectionLayout{
		"A": {Rows: map[string][]models.SeatNumber{"1": {"1", "2", "3"}}},
	}}
	require.NoError(t, repos.Venues.SaveLayout(ctx, &models.SeatingLayout{VenueID: venue.ID, LayoutData: layout}))

	event := createTestEvent(t, repos, organizerID, &venue.ID, price, time.Now().Add(24*time.Hour))

	created, err := repos.Seats.RegenerateForEvent(ctx, event.ID, venue.ID, &layout)
	require.NoError(t, err)
	require.Equal(t, 3, created)

	seats, err := repos.Seats.ListByEvent(ctx, event.ID, nil)
	require.NoError(t, err)
	require.Len(t, seats, 3)
	return event, seats
}

func TestExecutePurchaseGeneralAdmission(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	organizer := createTestUser(t, repos)
	buyer := createTestUser(t, repos)
	event := createTestEvent(t, repos, organizer.ID, nil, decimal.NewFromInt(20), time.Now().Add(24*time.Hour))

	order, err := repos.Purchases.ExecutePurchase(ctx, PurchaseInput{
		Event:    event,
		BuyerID:  buyer.ID,
		Quantity: 3,
		Now:      time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, order.Quantity)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(60)),
		"expected total 60, got %s", order.TotalAmount)
	require.Len(t, order.Tickets, 3)
	for _, ticket := range order.Tickets {
		assert.True(t, ticket.Price.Equal(decimal.NewFromInt(20)))
		assert.Nil(t, ticket.SeatID)
		assert.Nil(t, ticket.PricingTierID)
		assert.NotEmpty(t, ticket.TicketCode)
	}

	stored, err := repos.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 3, stored.Quantity)
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(60)))
	assert.Len(t, stored.Tickets, 3)
}

func TestExecutePurchaseTierExhaustion(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	organizer := createTestUser(t, repos)
	buyer := createTestUser(t, repos)
	event := createTestEvent(t, repos, organizer.ID, nil, decimal.NewFromInt(20), time.Now().Add(24*time.Hour))

	windowStart := time.Now().Add(-time.Hour)
	early := &models.PricingTier{
		EventID:           event.ID,
		Name:              "Early",
		Price:             decimal.NewFromInt(10),
		StartDate:         windowStart,
		QuantityThreshold: 1,
	}
	require.NoError(t, repos.Tiers.Create(ctx, early))
	regular := &models.PricingTier{
		EventID:   event.ID,
		Name:      "Regular",
		Price:     decimal.NewFromInt(15),
		StartDate: windowStart,
	}
	require.NoError(t, repos.Tiers.Create(ctx, regular))

	// First ticket takes the cheapest open tier.
	first, err := repos.Purchases.ExecutePurchase(ctx, PurchaseInput{
		Event: event, BuyerID: buyer.ID, Quantity: 1, Now: time.Now(),
	})
	require.NoError(t, err)
	require.Len(t, first.Tickets, 1)
	assert.True(t, first.Tickets[0].Price.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, first.Tickets[0].TierName)
	assert.Equal(t, "Early", *first.Tickets[0].TierName)

	// Early is now exhausted (1/1); the next purchase falls through to
	// Regular based on the in-transaction count.
	second, err := repos.Purchases.ExecutePurchase(ctx, PurchaseInput{
		Event: event, BuyerID: buyer.ID, Quantity: 1, Now: time.Now(),
	})
	require.NoError(t, err)
	require.Len(t, second.Tickets, 1)
	assert.True(t, second.Tickets[0].Price.Equal(decimal.NewFromInt(15)))
	require.NotNil(t, second.Tickets[0].TierName)
	assert.Equal(t, "Regular", *second.Tickets[0].TierName)
}

func TestExecutePurchaseRejectsSeatHeldByOther(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	organizer := createTestUser(t, repos)
	holder := createTestUser(t, repos)
	intruder := createTestUser(t, repos)
	event, seats := createSeatedEvent(t, repos, organizer.ID, decimal.NewFromInt(20))
	seat := seats[0]

	ok, err := repos.Seats.Reserve(ctx, seat.ID, holder.ID, time.Now().Add(15*time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	// Someone else cannot buy the held seat.
	_, err = repos.Purchases.ExecutePurchase(ctx, PurchaseInput{
		Event: event, BuyerID: intruder.ID, Quantity: 1, SeatIDs: []int64{seat.ID}, Now: time.Now(),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields["seats"], seat.Label())

	// The holder completes the purchase.
	order, err := repos.Purchases.ExecutePurchase(ctx, PurchaseInput{
		Event: event, BuyerID: holder.ID, Quantity: 1, SeatIDs: []int64{seat.ID}, Now: time.Now(),
	})
	require.NoError(t, err)
	require.Len(t, order.Tickets, 1)

	sold, err := repos.Seats.GetByID(ctx, seat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeatSold, sold.Status)
	require.NotNil(t, sold.TicketID)
	assert.Equal(t, order.Tickets[0].ID, *sold.TicketID)
}

func TestExecutePurchaseTreatsExpiredHoldAsFree(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	organizer := createTestUser(t, repos)
	holder := createTestUser(t, repos)
	buyer := createTestUser(t, repos)
	event, seats := createSeatedEvent(t, repos, organizer.ID, decimal.NewFromInt(20))
	seat := seats[0]

	ok, err := repos.Seats.Reserve(ctx, seat.ID, holder.ID, time.Now().Add(-20*time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	order, err := repos.Purchases.ExecutePurchase(ctx, PurchaseInput{
		Event: event, BuyerID: buyer.ID, Quantity: 1, SeatIDs: []int64{seat.ID}, Now: time.Now(),
	})
	require.NoError(t, err)
	require.Len(t, order.Tickets, 1)
	assert.Equal(t, buyer.ID, order.Tickets[0].OwnerID)

	sold, err := repos.Seats.GetByID(ctx, seat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeatSold, sold.Status)
}

func TestExecutePurchaseNoDoubleSale(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	organizer := createTestUser(t, repos)
	buyers := []*models.User{createTestUser(t, repos), createTestUser(t, repos)}
	event, seats := createSeatedEvent(t, repos, organizer.ID, decimal.NewFromInt(20))
	seat := seats[0]

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repos.Purchases.ExecutePurchase(ctx, PurchaseInput{
				Event: event, BuyerID: buyers[i].ID, Quantity: 1, SeatIDs: []int64{seat.ID}, Now: time.Now(),
			})
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case apperrors.IsKind(err, apperrors.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one racer may win the seat")
	assert.Equal(t, 1, conflicts)

	count, err := repos.Tickets.CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	sold, err := repos.Seats.GetByID(ctx, seat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeatSold, sold.Status)
}

func TestExecutePurchaseEnforcesCapacity(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	organizer := createTestUser(t, repos)
	buyer := createTestUser(t, repos)
	event := createTestEvent(t, repos, organizer.ID, nil, decimal.NewFromInt(20), time.Now().Add(24*time.Hour))

	capacity := 2
	_, err := repos.Purchases.ExecutePurchase(ctx, PurchaseInput{
		Event: event, BuyerID: buyer.ID, Quantity: 2, Capacity: &capacity, Now: time.Now(),
	})
	require.NoError(t, err)

	_, err = repos.Purchases.ExecutePurchase(ctx, PurchaseInput{
		Event: event, BuyerID: buyer.ID, Quantity: 1, Capacity: &capacity, Now: time.Now(),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestReleaseSoldSeatRestoresLedger(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	organizer := createTestUser(t, repos)
	buyer := createTestUser(t, repos)
	event, seats := createSeatedEvent(t, repos, organizer.ID, decimal.NewFromInt(20))

	order, err := repos.Purchases.ExecutePurchase(ctx, PurchaseInput{
		Event:    event,
		BuyerID:  buyer.ID,
		Quantity: 2,
		SeatIDs:  []int64{seats[0].ID, seats[1].ID},
		Now:      time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(40)))

	ticket, err := repos.Purchases.ReleaseSoldSeat(ctx, seats[0].ID)
	require.NoError(t, err)
	require.NotNil(t, ticket.SeatID)
	assert.Equal(t, seats[0].ID, *ticket.SeatID)

	gone, err := repos.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, gone, "released ticket must be deleted")

	freed, err := repos.Seats.GetByID(ctx, seats[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeatAvailable, freed.Status)
	assert.Nil(t, freed.TicketID)

	// The ledger shrinks in the same transaction as the delete.
	shrunk, err := repos.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, shrunk.Quantity)
	assert.True(t, shrunk.TotalAmount.Equal(decimal.NewFromInt(20)))

	_, err = repos.Purchases.ReleaseSoldSeat(ctx, seats[0].ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestMarkScannedConsumesTicketOnce(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	organizer := createTestUser(t, repos)
	buyer := createTestUser(t, repos)
	event := createTestEvent(t, repos, organizer.ID, nil, decimal.NewFromInt(20), time.Now().Add(24*time.Hour))

	order, err := repos.Purchases.ExecutePurchase(ctx, PurchaseInput{
		Event: event, BuyerID: buyer.ID, Quantity: 1, Now: time.Now(),
	})
	require.NoError(t, err)
	ticketID := order.Tickets[0].ID

	ok, err := repos.Tickets.MarkScanned(ctx, ticketID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repos.Tickets.MarkScanned(ctx, ticketID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "a second scan must lose the compare-and-swap")

	scanned, err := repos.Tickets.GetByID(ctx, ticketID)
	require.NoError(t, err)
	assert.True(t, scanned.IsScanned)
	assert.NotNil(t, scanned.UsedAt)
}
