package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"stagepass/internal/apperrors"
	"stagepass/internal/messaging"
	"stagepass/internal/models"
	"stagepass/internal/monitoring"
	"stagepass/internal/repository"
)

// PurchaseService owns the buy, refund, and entry-scan flows.
type PurchaseService struct {
	repos      *repository.Repositories
	natsClient *messaging.NATSClient
	pricing    *PricingService
}

func NewPurchaseService(repos *repository.Repositories, natsClient *messaging.NATSClient, pricing *PricingService) *PurchaseService {
	return &PurchaseService{
		repos:      repos,
		natsClient: natsClient,
		pricing:    pricing,
	}
}

// Purchase buys tickets atomically: either every requested ticket is created
// and every selected seat flips to sold, or nothing changes. Validation runs
// first without locks; the repository repeats it on locked rows before
// committing, so a lost race surfaces as a conflict rather than a partial
// order.
func (s *PurchaseService) Purchase(ctx context.Context, principal models.Principal, req *models.PurchaseTicketsRequest) (*models.OrderResponse, error) {
	now := time.Now()

	order, eventID, err := s.purchase(ctx, principal, req, now)
	switch {
	case err == nil:
		monitoring.TrackPurchase("success")
	case apperrors.IsKind(err, apperrors.KindConflict):
		monitoring.TrackPurchase("conflict")
		monitoring.TrackSeatConflict()
	case apperrors.IsKind(err, apperrors.KindValidation):
		monitoring.TrackPurchase("validation")
	case apperrors.IsKind(err, apperrors.KindNotFound):
		monitoring.TrackPurchase("not_found")
	default:
		monitoring.TrackPurchase("error")
	}
	if err != nil {
		return nil, err
	}

	// A purchase can exhaust a tier, changing the advertised price.
	s.pricing.InvalidatePrice(ctx, eventID)

	s.publish(models.EventOrderPurchased, models.OrderPurchasedEvent{
		OrderID:     order.ID,
		EventID:     eventID,
		BuyerID:     order.BuyerID,
		Quantity:    order.Quantity,
		TotalAmount: order.TotalAmount,
		TierName:    orderTierName(order),
		Timestamp:   now,
	})

	response := models.OrderToResponse(order)
	return &response, nil
}

func (s *PurchaseService) purchase(ctx context.Context, principal models.Principal, req *models.PurchaseTicketsRequest, now time.Time) (*models.Order, int64, error) {
	event, err := s.repos.Events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, 0, apperrors.NotFound("event")
	}
	if event.IsCancelled {
		return nil, 0, apperrors.Validation("event is cancelled")
	}
	// Sales close at the event start.
	if event.HasStarted(now) {
		return nil, 0, apperrors.Validation("event has already started")
	}

	input := repository.PurchaseInput{
		Event:    event,
		BuyerID:  principal.UserID,
		Quantity: req.Quantity,
		SeatIDs:  req.SelectedSeats,
		Now:      now,
	}

	hasLayout := false
	if event.VenueID != nil {
		venue, err := s.repos.Venues.GetByID(ctx, *event.VenueID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load venue: %w", err)
		}
		if venue != nil {
			input.Capacity = venue.Capacity
		}
		layout, err := s.repos.Venues.GetLayout(ctx, *event.VenueID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load venue layout: %w", err)
		}
		hasLayout = layout != nil
	}

	// Layout events are sold seat by seat; everything else is pure capacity.
	if hasLayout && len(req.SelectedSeats) == 0 {
		return nil, 0, apperrors.ValidationField("selected_seats", "seat selection is required for this event")
	}
	if !hasLayout && len(req.SelectedSeats) > 0 {
		return nil, 0, apperrors.ValidationField("selected_seats", "this event has no seating layout")
	}

	if len(req.SelectedSeats) > 0 {
		if err := s.validateSeatSelection(ctx, principal, event, req, now); err != nil {
			return nil, 0, err
		}
	} else if err := s.validateGeneralAvailability(ctx, event, input); err != nil {
		return nil, 0, err
	}

	order, err := s.repos.Purchases.ExecutePurchase(ctx, input)
	if err != nil {
		return nil, 0, err
	}
	return order, event.ID, nil
}

// validateSeatSelection checks the selected seats without locks. The same
// checks run again on locked rows inside the purchase transaction; failing
// here is a validation error, failing there is a conflict.
func (s *PurchaseService) validateSeatSelection(ctx context.Context, principal models.Principal, event *models.Event, req *models.PurchaseTicketsRequest, now time.Time) error {
	if len(req.SelectedSeats) != req.Quantity {
		return apperrors.ValidationField("quantity", "quantity must match the number of selected seats")
	}

	seen := make(map[int64]struct{}, len(req.SelectedSeats))
	for _, id := range req.SelectedSeats {
		if _, dup := seen[id]; dup {
			return apperrors.ValidationField("selected_seats", "duplicate seat in selection")
		}
		seen[id] = struct{}{}
	}

	seats, err := s.repos.Seats.GetByIDsForEvent(ctx, event.ID, req.SelectedSeats)
	if err != nil {
		return fmt.Errorf("failed to load selected seats: %w", err)
	}

	byID := make(map[int64]*models.Seat, len(seats))
	for i := range seats {
		byID[seats[i].ID] = &seats[i]
	}

	var badLabels []string
	for _, id := range req.SelectedSeats {
		seat, ok := byID[id]
		if !ok {
			return apperrors.ValidationField("selected_seats", fmt.Sprintf("seat %d does not belong to this event", id))
		}
		if !seat.PurchasableBy(principal.UserID, now) {
			badLabels = append(badLabels, seat.Label())
		}
	}
	if len(badLabels) > 0 {
		sort.Strings(badLabels)
		return apperrors.Validation("selected seats are not available").WithField("seats", badLabels...)
	}
	return nil
}

// validateGeneralAvailability pre-checks remaining capacity for a general
// admission purchase. Venue-less events are unlimited.
func (s *PurchaseService) validateGeneralAvailability(ctx context.Context, event *models.Event, input repository.PurchaseInput) error {
	if input.Capacity == nil {
		return nil
	}

	sold, err := s.repos.Tickets.CountByEvent(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to count sold tickets: %w", err)
	}
	if *input.Capacity-sold < input.Quantity {
		return apperrors.Validation("not enough capacity remaining")
	}
	return nil
}

// PurchaseSeat is the single-seat convenience wrapper: buy exactly this seat.
func (s *PurchaseService) PurchaseSeat(ctx context.Context, principal models.Principal, seatID int64) (*models.OrderResponse, error) {
	seat, err := s.repos.Seats.GetByID(ctx, seatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seat: %w", err)
	}
	if seat == nil {
		return nil, apperrors.NotFound("seat")
	}

	return s.Purchase(ctx, principal, &models.PurchaseTicketsRequest{
		EventID:       seat.EventID,
		Quantity:      1,
		SelectedSeats: []int64{seatID},
	})
}

// ReleaseSeat refunds a sold seat: the occupying ticket is deleted, the seat
// returns to available and the order ledger shrinks accordingly. Organizer
// or staff only.
func (s *PurchaseService) ReleaseSeat(ctx context.Context, principal models.Principal, seatID int64) (*models.SeatResponse, error) {
	seat, err := s.repos.Seats.GetByID(ctx, seatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seat: %w", err)
	}
	if seat == nil {
		return nil, apperrors.NotFound("seat")
	}

	event, err := s.repos.Events.GetByID(ctx, seat.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperrors.NotFound("event")
	}
	if !canManage(principal, event) {
		return nil, apperrors.Permission("only the organizer or staff may release a sold seat")
	}

	ticket, err := s.repos.Purchases.ReleaseSoldSeat(ctx, seatID)
	if err != nil {
		return nil, err
	}

	monitoring.TrackReservation("release")
	// Removing a ticket can un-exhaust a tier.
	s.pricing.InvalidatePrice(ctx, seat.EventID)
	s.publish(models.EventSeatReleased, models.SeatReleasedEvent{
		SeatID:    seatID,
		EventID:   seat.EventID,
		TicketID:  &ticket.ID,
		Timestamp: time.Now(),
	})

	seat.Status = models.SeatAvailable
	seat.ReservedBy = nil
	seat.ReservationExpiry = nil
	seat.TicketID = nil
	response := models.SeatToResponse(seat)
	return &response, nil
}

// ScanTicket validates and consumes a ticket by its code at the venue
// entrance. A ticket scans successfully exactly once, and only while its
// event is running.
func (s *PurchaseService) ScanTicket(ctx context.Context, req *models.ScanTicketRequest) (*models.TicketResponse, error) {
	ticket, err := s.repos.Tickets.GetByCode(ctx, req.TicketCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if ticket == nil {
		monitoring.TrackScan("unknown_code")
		return nil, apperrors.NotFound("ticket")
	}
	return s.scan(ctx, ticket)
}

// MarkTicketUsed is the by-id variant of ScanTicket.
func (s *PurchaseService) MarkTicketUsed(ctx context.Context, ticketID int64) (*models.TicketResponse, error) {
	ticket, err := s.repos.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if ticket == nil {
		monitoring.TrackScan("unknown_code")
		return nil, apperrors.NotFound("ticket")
	}
	return s.scan(ctx, ticket)
}

func (s *PurchaseService) scan(ctx context.Context, ticket *models.Ticket) (*models.TicketResponse, error) {
	now := time.Now()

	if ticket.IsScanned {
		monitoring.TrackScan("already_scanned")
		return nil, apperrors.Validation("ticket has already been scanned")
	}

	event, err := s.repos.Events.GetByID(ctx, ticket.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperrors.NotFound("event")
	}
	if event.IsCancelled {
		monitoring.TrackScan("event_cancelled")
		return nil, apperrors.Validation("event is cancelled")
	}
	if !event.HasStarted(now) {
		monitoring.TrackScan("not_started")
		return nil, apperrors.Validation("event has not started yet")
	}
	if event.HasEnded(now) {
		monitoring.TrackScan("event_ended")
		return nil, apperrors.Validation("event has ended")
	}

	ok, err := s.repos.Tickets.MarkScanned(ctx, ticket.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark ticket scanned: %w", err)
	}
	if !ok {
		monitoring.TrackScan("already_scanned")
		return nil, apperrors.Validation("ticket has already been scanned")
	}

	monitoring.TrackScan("success")
	s.publish(models.EventTicketScanned, models.TicketScannedEvent{
		TicketID:   ticket.ID,
		TicketCode: ticket.TicketCode,
		EventID:    ticket.EventID,
		Timestamp:  now,
	})

	ticket.IsScanned = true
	ticket.UsedAt = &now
	response := models.TicketToResponse(ticket)
	return &response, nil
}

// GetOrder returns an order with its tickets. Buyers see their own orders;
// staff see all.
func (s *PurchaseService) GetOrder(ctx context.Context, principal models.Principal, orderID int64) (*models.OrderResponse, error) {
	order, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, apperrors.NotFound("order")
	}
	if !principal.IsStaff && order.BuyerID != principal.UserID {
		return nil, apperrors.Permission("not your order")
	}

	response := models.OrderToResponse(order)
	return &response, nil
}

// ListOrderTickets returns the tickets of one order, with the same access
// rule as GetOrder.
func (s *PurchaseService) ListOrderTickets(ctx context.Context, principal models.Principal, orderID int64) ([]models.TicketResponse, error) {
	order, err := s.GetOrder(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}
	return order.Tickets, nil
}

// ListMyTickets returns every ticket the caller owns, across all orders.
func (s *PurchaseService) ListMyTickets(ctx context.Context, principal models.Principal) ([]models.TicketResponse, error) {
	tickets, err := s.repos.Tickets.ListByOwner(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	responses := make([]models.TicketResponse, len(tickets))
	for i := range tickets {
		responses[i] = models.TicketToResponse(&tickets[i])
	}
	return responses, nil
}

// ListMyOrders returns the caller's orders, newest first, without tickets.
func (s *PurchaseService) ListMyOrders(ctx context.Context, principal models.Principal) ([]models.OrderResponse, error) {
	orders, err := s.repos.Orders.ListByBuyer(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	responses := make([]models.OrderResponse, len(orders))
	for i := range orders {
		responses[i] = models.OrderToResponse(&orders[i])
	}
	return responses, nil
}

// orderTierName returns the tier that priced the order's tickets, nil when
// the base price applied.
func orderTierName(order *models.Order) *string {
	if len(order.Tickets) == 0 {
		return nil
	}
	return order.Tickets[0].TierName
}

func (s *PurchaseService) publish(subject string, event interface{}) {
	if s.natsClient == nil {
		return
	}
	if err := s.natsClient.Publish(subject, event); err != nil {
		slog.Error("Failed to publish event", "subject", subject, "error", err)
	}
}
