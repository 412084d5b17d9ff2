package handlers

import (
	"net/http"

	"stagepass/internal/middleware"
	"stagepass/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateEvent handles POST /api/events
func (h *Handlers) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.services.Events.Create(c.Request.Context(), middleware.MustPrincipal(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response)
}

// GetEvent handles GET /api/events/:id
func (h *Handlers) GetEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	event, err := h.services.Events.EventDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// CancelEvent handles POST /api/events/:id/cancel
func (h *Handlers) CancelEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Events.Cancel(c.Request.Context(), middleware.MustPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCurrentPrice handles GET /api/events/:id/current-price. The response
// comes from the short-TTL cache when warm, so the body is written as raw
// JSON.
func (h *Handlers) GetCurrentPrice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	data, err := h.services.Pricing.CurrentPriceRaw(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// RegenerateSeats handles POST /api/events/:id/regenerate-seats
func (h *Handlers) RegenerateSeats(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	response, err := h.services.Events.RegenerateSeats(c.Request.Context(), middleware.MustPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ListTiers handles GET /api/events/:id/pricing-tiers
func (h *Handlers) ListTiers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	tiers, err := h.services.Pricing.ListTiers(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if tiers == nil {
		tiers = []models.PricingTier{}
	}
	c.JSON(http.StatusOK, tiers)
}

// CreateTier handles POST /api/events/:id/pricing-tiers
func (h *Handlers) CreateTier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.PricingTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tier, err := h.services.Pricing.CreateTier(c.Request.Context(), middleware.MustPrincipal(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tier)
}

// UpdateTier handles PUT /api/events/:id/pricing-tiers/:tierID
func (h *Handlers) UpdateTier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tierID, ok := pathID(c, "tierID")
	if !ok {
		return
	}

	var req models.PricingTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tier, err := h.services.Pricing.UpdateTier(c.Request.Context(), middleware.MustPrincipal(c), id, tierID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tier)
}

// DeleteTier handles DELETE /api/events/:id/pricing-tiers/:tierID
func (h *Handlers) DeleteTier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tierID, ok := pathID(c, "tierID")
	if !ok {
		return
	}

	if err := h.services.Pricing.DeleteTier(c.Request.Context(), middleware.MustPrincipal(c), id, tierID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
