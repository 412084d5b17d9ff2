package handlers

import (
	"net/http"

	"stagepass/internal/middleware"

	"github.com/gin-gonic/gin"
)

// ListSeats handles GET /api/events/:id/seats with an optional ?status=
// filter.
func (h *Handlers) ListSeats(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var status *string
	if raw, set := c.GetQuery("status"); set {
		status = &raw
	}

	seats, err := h.services.Events.ListSeats(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seats)
}

// ReserveSeat handles POST /api/seats/:id/reserve
func (h *Handlers) ReserveSeat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	seat, err := h.services.Reservations.Reserve(c.Request.Context(), middleware.MustPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seat)
}

// UnreserveSeat handles POST /api/seats/:id/unreserve
func (h *Handlers) UnreserveSeat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	seat, err := h.services.Reservations.Unreserve(c.Request.Context(), middleware.MustPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seat)
}

// PurchaseSeat handles POST /api/seats/:id/purchase, the single-seat
// convenience wrapper around the batch purchase.
func (h *Handlers) PurchaseSeat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.services.Purchases.PurchaseSeat(c.Request.Context(), middleware.MustPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ReleaseSeat handles POST /api/seats/:id/release
func (h *Handlers) ReleaseSeat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	seat, err := h.services.Purchases.ReleaseSeat(c.Request.Context(), middleware.MustPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seat)
}
