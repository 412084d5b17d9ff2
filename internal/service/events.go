package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stagepass/internal/apperrors"
	"stagepass/internal/messaging"
	"stagepass/internal/models"
	"stagepass/internal/repository"
)

// EventService manages events and their generated seats.
type EventService struct {
	events     *repository.EventRepository
	venues     *repository.VenueRepository
	seats      *repository.SeatRepository
	natsClient *messaging.NATSClient
}

func NewEventService(repos *repository.Repositories, natsClient *messaging.NATSClient) *EventService {
	return &EventService{
		events:     repos.Events,
		venues:     repos.Venues,
		seats:      repos.Seats,
		natsClient: natsClient,
	}
}

// Create persists a new event and generates its seats from the venue layout.
// The saved-event message goes out as well so downstream consumers see every
// save, but seat generation runs inline here: the creator gets the seat count
// in the response.
func (s *EventService) Create(ctx context.Context, principal models.Principal, req *models.CreateEventRequest) (*models.CreateEventResponse, error) {
	if req.Price.IsNegative() {
		return nil, apperrors.ValidationField("price", "price must not be negative")
	}
	if req.EndDate != nil && !req.EndDate.After(req.StartDate) {
		return nil, apperrors.ValidationField("end_date", "end date must be after start date")
	}

	if req.VenueID != nil {
		venue, err := s.venues.GetByID(ctx, *req.VenueID)
		if err != nil {
			return nil, fmt.Errorf("failed to load venue: %w", err)
		}
		if venue == nil {
			return nil, apperrors.NotFound("venue")
		}
	}

	event := &models.Event{
		OrganizerID: principal.UserID,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		VenueID:     req.VenueID,
		Price:       req.Price,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	created, err := s.regenerateSeats(ctx, event)
	if err != nil {
		return nil, err
	}

	s.publish(models.EventSaved, models.EventSavedEvent{
		EventID:   event.ID,
		Timestamp: time.Now(),
	})

	return &models.CreateEventResponse{ID: event.ID, SeatsCreated: created}, nil
}

// GetEvent returns one event.
func (s *EventService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperrors.NotFound("event")
	}
	return event, nil
}

// EventDetails returns the event with its derived availability. The count is
// never stored; it is recomputed from seat rows on each call.
func (s *EventService) EventDetails(ctx context.Context, id int64) (*models.EventResponse, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	response := &models.EventResponse{Event: *event}
	if event.VenueID != nil {
		layout, err := s.venues.GetLayout(ctx, *event.VenueID)
		if err != nil {
			return nil, fmt.Errorf("failed to load venue layout: %w", err)
		}
		if layout != nil {
			available, err := s.seats.CountAvailable(ctx, id, time.Now())
			if err != nil {
				return nil, fmt.Errorf("failed to count available seats: %w", err)
			}
			response.AvailableSeats = &available
		}
	}
	return response, nil
}

// Cancel marks the event cancelled. Organizer or staff only. Purchases,
// reservations and scans all reject cancelled events on their own paths.
func (s *EventService) Cancel(ctx context.Context, principal models.Principal, id int64) error {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(principal, event) {
		return apperrors.Permission("only the organizer or staff may cancel this event")
	}

	if err := s.events.Cancel(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("event")
		}
		return fmt.Errorf("failed to cancel event: %w", err)
	}
	return nil
}

// ListSeats returns the event's seats in stable order, optionally filtered by
// status. Seats with expired holds are reported as available even though the
// row still says reserved; the reset happens lazily.
func (s *EventService) ListSeats(ctx context.Context, eventID int64, status *string) (models.ListSeatsResponse, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	if status != nil {
		switch *status {
		case models.SeatAvailable, models.SeatReserved, models.SeatSold:
		default:
			return nil, apperrors.ValidationField("status", "unknown seat status")
		}
	}

	seats, err := s.seats.ListByEvent(ctx, eventID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list seats: %w", err)
	}

	now := time.Now()
	response := make(models.ListSeatsResponse, 0, len(seats))
	for i := range seats {
		seat := &seats[i]

		effective := seat.Status
		var expiry *time.Time
		if seat.Status == models.SeatReserved {
			if seat.ActivelyReserved(now) {
				expiry = seat.ReservationExpiry
			} else {
				effective = models.SeatAvailable
			}
		}
		if status != nil && effective != *status {
			continue
		}

		response = append(response, models.ListSeatsResponseItem{
			ID:                seat.ID,
			Section:           seat.Section,
			Row:               seat.RowLabel,
			Number:            seat.SeatNumber,
			Status:            effective,
			ReservationExpiry: expiry,
		})
	}
	return response, nil
}

// RegenerateSeats rebuilds the event's seats from its venue layout.
// Organizer or staff only: regeneration deletes every existing seat row,
// holds and sold links included.
func (s *EventService) RegenerateSeats(ctx context.Context, principal models.Principal, eventID int64) (*models.RegenerateSeatsResponse, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !canManage(principal, event) {
		return nil, apperrors.Permission("only the organizer or staff may regenerate seats")
	}

	created, err := s.regenerateSeats(ctx, event)
	if err != nil {
		return nil, err
	}
	return &models.RegenerateSeatsResponse{EventID: eventID, SeatsCreated: created}, nil
}

// OnEventSaved is the consumer-side regeneration trigger: rebuild seats for
// the saved event, applying the same skip rules as the inline path.
func (s *EventService) OnEventSaved(ctx context.Context, eventID int64) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		slog.Warn("Saved event no longer exists", "event_id", eventID)
		return nil
	}
	_, err = s.regenerateSeats(ctx, event)
	return err
}

// regenerateSeats applies the generation rules: no venue means no seats to
// manage, a venue without a layout leaves existing seats untouched, and a
// layout replaces all seats wholesale.
func (s *EventService) regenerateSeats(ctx context.Context, event *models.Event) (int, error) {
	if event.VenueID == nil {
		return 0, nil
	}

	layout, err := s.venues.GetLayout(ctx, *event.VenueID)
	if err != nil {
		return 0, fmt.Errorf("failed to load venue layout: %w", err)
	}
	if layout == nil {
		return 0, nil
	}

	created, err := s.seats.RegenerateForEvent(ctx, event.ID, *event.VenueID, &layout.LayoutData)
	if err != nil {
		return 0, fmt.Errorf("failed to regenerate seats: %w", err)
	}

	slog.Info("Regenerated event seats", "event_id", event.ID, "seats", created)
	s.publish(models.EventSeatsRegenerated, models.SeatsRegeneratedEvent{
		EventID:      event.ID,
		SeatsCreated: created,
		Timestamp:    time.Now(),
	})
	return created, nil
}

func (s *EventService) publish(subject string, event interface{}) {
	if s.natsClient == nil {
		return
	}
	if err := s.natsClient.Publish(subject, event); err != nil {
		slog.Error("Failed to publish event", "subject", subject, "error", err)
	}
}
