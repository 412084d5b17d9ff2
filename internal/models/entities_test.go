package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrInt64(v int64) *int64        { return &v }

func TestSeatLifecyclePredicates(t *testing.T) {
	now := time.Now()

	available := Seat{Status: SeatAvailable}
	assert.True(t, available.LogicallyAvailable(now))
	assert.False(t, available.ActivelyReserved(now))

	held := Seat{
		Status:            SeatReserved,
		ReservedBy:        ptrInt64(7),
		ReservationExpiry: ptrTime(now.Add(10 * time.Minute)),
	}
	assert.True(t, held.ActivelyReserved(now))
	assert.False(t, held.LogicallyAvailable(now))

	// An expired hold is free for everyone even though the row still says
	// reserved.
	expired := Seat{
		Status:            SeatReserved,
		ReservedBy:        ptrInt64(7),
		ReservationExpiry: ptrTime(now.Add(-time.Minute)),
	}
	assert.False(t, expired.ActivelyReserved(now))
	assert.True(t, expired.LogicallyAvailable(now))

	sold := Seat{Status: SeatSold}
	assert.False(t, sold.LogicallyAvailable(now))
	assert.False(t, sold.ActivelyReserved(now))
}

func TestSeatPurchasableBy(t *testing.T) {
	now := time.Now()

	held := Seat{
		Status:            SeatReserved,
		ReservedBy:        ptrInt64(7),
		ReservationExpiry: ptrTime(now.Add(10 * time.Minute)),
	}
	assert.True(t, held.PurchasableBy(7, now), "holder can buy their held seat")
	assert.False(t, held.PurchasableBy(8, now), "someone else's live hold blocks purchase")

	expired := Seat{
		Status:            SeatReserved,
		ReservedBy:        ptrInt64(7),
		ReservationExpiry: ptrTime(now.Add(-time.Minute)),
	}
	assert.True(t, expired.PurchasableBy(8, now), "expired hold is open to anyone")

	sold := Seat{Status: SeatSold}
	assert.False(t, sold.PurchasableBy(7, now))
}

func TestSeatLabel(t *testing.T) {
	seat := Seat{Section: "Floor", RowLabel: "A", SeatNumber: "12"}
	assert.Equal(t, "Floor-A-12", seat.Label())
}

func TestPricingTierActiveAt(t *testing.T) {
	now := time.Now()

	open := PricingTier{StartDate: now.Add(-time.Hour)}
	assert.True(t, open.ActiveAt(now), "open-ended tier stays active")

	windowed := PricingTier{
		StartDate: now.Add(-time.Hour),
		EndDate:   ptrTime(now.Add(time.Hour)),
	}
	assert.True(t, windowed.ActiveAt(now))
	assert.False(t, windowed.ActiveAt(now.Add(2*time.Hour)))

	future := PricingTier{StartDate: now.Add(time.Hour)}
	assert.False(t, future.ActiveAt(now))
}

func TestPricingTierExhausted(t *testing.T) {
	unlimited := PricingTier{QuantityThreshold: 0}
	assert.False(t, unlimited.Exhausted(1000000))

	capped := PricingTier{QuantityThreshold: 50}
	assert.False(t, capped.Exhausted(49))
	assert.True(t, capped.Exhausted(50))
	assert.True(t, capped.Exhausted(51))
}

func TestSelectTierCheapestFirst(t *testing.T) {
	now := time.Now()

	// Candidates arrive pre-sorted by (price asc, start_date asc), the way
	// the repository query orders them.
	tiers := []TierAvailability{
		{Tier: PricingTier{ID: 1, Name: "Early Bird", Price: decimal.NewFromInt(30), StartDate: now.Add(-time.Hour)}, Sold: 0},
		{Tier: PricingTier{ID: 2, Name: "Regular", Price: decimal.NewFromInt(50), StartDate: now.Add(-time.Hour)}, Sold: 0},
	}

	selected := SelectTier(tiers, now)
	assert.NotNil(t, selected)
	assert.Equal(t, "Early Bird", selected.Name)
}

func TestSelectTierSkipsExhausted(t *testing.T) {
	now := time.Now()

	tiers := []TierAvailability{
		{Tier: PricingTier{ID: 1, Name: "Early Bird", Price: decimal.NewFromInt(30), StartDate: now.Add(-time.Hour), QuantityThreshold: 100}, Sold: 100},
		{Tier: PricingTier{ID: 2, Name: "Regular", Price: decimal.NewFromInt(50), StartDate: now.Add(-time.Hour)}, Sold: 40},
	}

	selected := SelectTier(tiers, now)
	assert.NotNil(t, selected)
	assert.Equal(t, "Regular", selected.Name, "exhausted cheapest tier is skipped")
}

func TestSelectTierUnexhaustsWhenSalesDrop(t *testing.T) {
	now := time.Now()

	tiers := []TierAvailability{
		{Tier: PricingTier{ID: 1, Name: "Early Bird", Price: decimal.NewFromInt(30), StartDate: now.Add(-time.Hour), QuantityThreshold: 100}, Sold: 100},
	}
	assert.Nil(t, SelectTier(tiers, now))

	// A refunded ticket lowers the sold count and re-opens the tier.
	tiers[0].Sold = 99
	selected := SelectTier(tiers, now)
	assert.NotNil(t, selected)
	assert.Equal(t, "Early Bird", selected.Name)
}

func TestSelectTierIgnoresInactiveWindows(t *testing.T) {
	now := time.Now()

	tiers := []TierAvailability{
		{Tier: PricingTier{ID: 1, Price: decimal.NewFromInt(20), StartDate: now.Add(time.Hour)}, Sold: 0},
		{Tier: PricingTier{ID: 2, Price: decimal.NewFromInt(40), StartDate: now.Add(-2 * time.Hour), EndDate: ptrTime(now.Add(-time.Hour))}, Sold: 0},
	}

	assert.Nil(t, SelectTier(tiers, now), "future and expired tiers never apply")
}

func TestEventTimeBounds(t *testing.T) {
	now := time.Now()

	event := Event{StartDate: now.Add(-time.Hour), EndDate: ptrTime(now.Add(time.Hour))}
	assert.True(t, event.HasStarted(now))
	assert.False(t, event.HasEnded(now))
	assert.True(t, event.HasEnded(now.Add(2*time.Hour)))

	openEnded := Event{StartDate: now.Add(time.Hour)}
	assert.False(t, openEnded.HasStarted(now))
	assert.False(t, openEnded.HasEnded(now.Add(1000*time.Hour)), "no end date means never ended")
}
