package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stagepass/internal/apperrors"
	"stagepass/internal/messaging"
	"stagepass/internal/models"
	"stagepass/internal/monitoring"
	"stagepass/internal/repository"
)

// HoldDuration is how long a seat hold lasts before it silently expires.
const HoldDuration = 15 * time.Minute

// ReservationService manages temporary seat holds.
type ReservationService struct {
	seats      *repository.SeatRepository
	events     *repository.EventRepository
	natsClient *messaging.NATSClient
}

func NewReservationService(repos *repository.Repositories, natsClient *messaging.NATSClient) *ReservationService {
	return &ReservationService{
		seats:      repos.Seats,
		events:     repos.Events,
		natsClient: natsClient,
	}
}

// Reserve places a hold on the seat for the caller. The seat must be
// available, where an expired hold counts as available. A pre-check failure
// is a validation error; losing the compare-and-swap after a clean pre-check
// is a conflict.
func (s *ReservationService) Reserve(ctx context.Context, principal models.Principal, seatID int64) (*models.SeatResponse, error) {
	now := time.Now()

	seat, err := s.seats.GetByID(ctx, seatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seat: %w", err)
	}
	if seat == nil {
		return nil, apperrors.NotFound("seat")
	}

	event, err := s.events.GetByID(ctx, seat.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperrors.NotFound("event")
	}
	if event.IsCancelled {
		return nil, apperrors.Validation("event is cancelled")
	}
	if event.HasEnded(now) {
		return nil, apperrors.Validation("event has ended")
	}

	if !seat.LogicallyAvailable(now) {
		return nil, apperrors.Validation("seat is not available")
	}

	expiry := now.Add(HoldDuration)
	ok, err := s.seats.Reserve(ctx, seatID, principal.UserID, expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve seat: %w", err)
	}
	if !ok {
		monitoring.TrackSeatConflict()
		return nil, apperrors.Conflict("seat was taken by another buyer")
	}

	monitoring.TrackReservation("reserve")
	s.publish(models.EventSeatReserved, models.SeatReservedEvent{
		SeatID:    seatID,
		EventID:   seat.EventID,
		UserID:    principal.UserID,
		ExpiresAt: expiry,
		Timestamp: now,
	})

	seat.Status = models.SeatReserved
	seat.ReservedBy = &principal.UserID
	seat.ReservationExpiry = &expiry
	response := models.SeatToResponse(seat)
	return &response, nil
}

// Unreserve releases a hold before its expiry. Only the holder or staff may
// do this; a purchase that raced ahead wins.
func (s *ReservationService) Unreserve(ctx context.Context, principal models.Principal, seatID int64) (*models.SeatResponse, error) {
	now := time.Now()

	seat, err := s.seats.GetByID(ctx, seatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seat: %w", err)
	}
	if seat == nil {
		return nil, apperrors.NotFound("seat")
	}

	if seat.Status != models.SeatReserved {
		return nil, apperrors.Validation("seat is not reserved")
	}
	if !principal.IsStaff && (seat.ReservedBy == nil || *seat.ReservedBy != principal.UserID) {
		return nil, apperrors.Permission("only the holder or staff may release this hold")
	}

	ok, err := s.seats.Unreserve(ctx, seatID, principal.UserID, principal.IsStaff)
	if err != nil {
		return nil, fmt.Errorf("failed to unreserve seat: %w", err)
	}
	if !ok {
		monitoring.TrackSeatConflict()
		return nil, apperrors.Conflict("seat state changed concurrently")
	}

	monitoring.TrackReservation("unreserve")
	s.publish(models.EventSeatUnreserved, models.SeatUnreservedEvent{
		SeatID:    seatID,
		EventID:   seat.EventID,
		UserID:    principal.UserID,
		Timestamp: now,
	})

	seat.Status = models.SeatAvailable
	seat.ReservedBy = nil
	seat.ReservationExpiry = nil
	response := models.SeatToResponse(seat)
	return &response, nil
}

// SweepExpiredHolds bulk-resets expired holds. Run periodically by the
// consumer binary; correctness never depends on it because every state
// transition re-checks expiry itself.
func (s *ReservationService) SweepExpiredHolds(ctx context.Context) (int64, error) {
	count, err := s.seats.ResetExpiredHolds(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired holds: %w", err)
	}
	if count > 0 {
		monitoring.TrackExpiredHolds(int(count))
		slog.Info("Swept expired seat holds", "count", count)
	}
	return count, nil
}

func (s *ReservationService) publish(subject string, event interface{}) {
	if s.natsClient == nil {
		return
	}
	if err := s.natsClient.Publish(subject, event); err != nil {
		slog.Error("Failed to publish event", "subject", subject, "error", err)
	}
}
