package handlers

import (
	"net/http"

	"stagepass/internal/middleware"
	"stagepass/internal/models"

	"github.com/gin-gonic/gin"
)

// PurchaseTickets handles POST /api/orders/purchase_tickets, the atomic
// batch purchase.
func (h *Handlers) PurchaseTickets(c *gin.Context) {
	var req models.PurchaseTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.services.Purchases.Purchase(c.Request.Context(), middleware.MustPrincipal(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.services.Purchases.GetOrder(c.Request.Context(), middleware.MustPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrderTickets handles GET /api/orders/:id/tickets
func (h *Handlers) GetOrderTickets(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	tickets, err := h.services.Purchases.ListOrderTickets(c.Request.Context(), middleware.MustPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if tickets == nil {
		tickets = []models.TicketResponse{}
	}
	c.JSON(http.StatusOK, tickets)
}

// ListMyOrders handles GET /api/orders
func (h *Handlers) ListMyOrders(c *gin.Context) {
	orders, err := h.services.Purchases.ListMyOrders(c.Request.Context(), middleware.MustPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.OrderResponse{}
	}
	c.JSON(http.StatusOK, orders)
}
