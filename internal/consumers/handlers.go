package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"stagepass/internal/models"
	"stagepass/internal/service"

	"github.com/nats-io/stan.go"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{services: services}
}

// HandleEventSaved regenerates seats for a saved event. The regeneration is
// idempotent (full delete and recreate), so redelivered messages are safe.
func (h *Handlers) HandleEventSaved(m *stan.Msg) {
	var event models.EventSavedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal event saved message", "error", err)
		return
	}

	slog.Info("Processing event saved", "event_id", event.EventID)

	if err := h.services.Events.OnEventSaved(context.Background(), event.EventID); err != nil {
		slog.Error("Failed to regenerate seats for saved event",
			"event_id", event.EventID, "error", err)
		// No ack: let the message redeliver.
		return
	}

	m.Ack()
}

func (h *Handlers) HandleOrderPurchased(m *stan.Msg) {
	var event models.OrderPurchasedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal order purchased message", "error", err)
		return
	}

	slog.Info("Processing order purchased",
		"order_id", event.OrderID,
		"event_id", event.EventID,
		"quantity", event.Quantity,
		"total_amount", event.TotalAmount)

	// Confirmation emails and analytics would hang off this event.

	m.Ack()
}

func (h *Handlers) HandleTicketScanned(m *stan.Msg) {
	var event models.TicketScannedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal ticket scanned message", "error", err)
		return
	}

	slog.Info("Processing ticket scanned",
		"ticket_id", event.TicketID, "event_id", event.EventID)

	m.Ack()
}

func (h *Handlers) HandleSeatReserved(m *stan.Msg) {
	var event models.SeatReservedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal seat reserved message", "error", err)
		return
	}

	slog.Info("Processing seat reserved",
		"seat_id", event.SeatID, "event_id", event.EventID, "user_id", event.UserID)

	m.Ack()
}

func (h *Handlers) HandleSeatReleased(m *stan.Msg) {
	var event models.SeatReleasedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal seat released message", "error", err)
		return
	}

	slog.Info("Processing seat released",
		"seat_id", event.SeatID, "event_id", event.EventID)

	m.Ack()
}
