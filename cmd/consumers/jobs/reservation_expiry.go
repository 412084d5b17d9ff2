package jobs

import (
	"context"
	"log/slog"
	"time"

	"stagepass/internal/service"
)

// ReservationExpiryJob periodically resets seat holds whose expiry has
// passed. This is housekeeping: the reservation and purchase paths already
// treat expired holds as free, the sweep just returns the rows to their
// canonical state.
type ReservationExpiryJob struct {
	reservations *service.ReservationService
	ticker       *time.Ticker
	done         chan bool
}

func NewReservationExpiryJob(reservations *service.ReservationService) *ReservationExpiryJob {
	return &ReservationExpiryJob{
		reservations: reservations,
		done:         make(chan bool),
	}
}

// Start begins the background sweep every 30 seconds.
func (j *ReservationExpiryJob) Start(ctx context.Context) {
	slog.Info("Starting reservation expiry job",
		"check_interval", "30s", "hold_duration", service.HoldDuration)

	j.ticker = time.NewTicker(30 * time.Second)

	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.sweep(ctx)
			case <-j.done:
				slog.Info("Reservation expiry job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job.
func (j *ReservationExpiryJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *ReservationExpiryJob) sweep(ctx context.Context) {
	if _, err := j.reservations.SweepExpiredHolds(ctx); err != nil {
		slog.Error("Failed to sweep expired holds", "error", err)
	}
}
