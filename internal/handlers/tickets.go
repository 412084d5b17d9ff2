package handlers

import (
	"net/http"

	"stagepass/internal/middleware"
	"stagepass/internal/models"

	"github.com/gin-gonic/gin"
)

// ListMyTickets handles GET /api/tickets
func (h *Handlers) ListMyTickets(c *gin.Context) {
	tickets, err := h.services.Purchases.ListMyTickets(c.Request.Context(), middleware.MustPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if tickets == nil {
		tickets = []models.TicketResponse{}
	}
	c.JSON(http.StatusOK, tickets)
}

// ScanTicket handles POST /api/tickets/scan, the entry gate endpoint.
func (h *Handlers) ScanTicket(c *gin.Context) {
	var req models.ScanTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ticket, err := h.services.Purchases.ScanTicket(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// MarkTicketUsed handles POST /api/tickets/:id/mark_used, the by-id variant
// of the scan endpoint.
func (h *Handlers) MarkTicketUsed(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.services.Purchases.MarkTicketUsed(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}
