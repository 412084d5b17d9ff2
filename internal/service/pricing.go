package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stagepass/internal/apperrors"
	"stagepass/internal/cache"
	"stagepass/internal/models"
	"stagepass/internal/repository"
)

// PricingService resolves the effective ticket price of an event and manages
// its pricing tiers.
type PricingService struct {
	events *repository.EventRepository
	tiers  *repository.PricingTierRepository
	cache  *cache.Client
}

func NewPricingService(repos *repository.Repositories, cacheClient *cache.Client) *PricingService {
	return &PricingService{
		events: repos.Events,
		tiers:  repos.Tiers,
		cache:  cacheClient,
	}
}

// CurrentPriceRaw returns the current-price response as marshalled JSON,
// served from the short-TTL cache when possible. Only this read path is
// cached; purchases always resolve the price from the database.
func (s *PricingService) CurrentPriceRaw(ctx context.Context, eventID int64) ([]byte, error) {
	if s.cache != nil {
		if data, err := s.cache.GetCurrentPriceRaw(ctx, eventID); err == nil {
			return data, nil
		}
	}

	response, err := s.CurrentPrice(ctx, eventID, time.Now())
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal price response: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetCurrentPrice(ctx, eventID, response); err != nil {
			slog.Warn("Failed to cache current price", "event_id", eventID, "error", err)
		}
	}

	return data, nil
}

// CurrentPrice resolves the effective price at now: the cheapest active,
// non-exhausted tier if any, otherwise the event base price.
func (s *PricingService) CurrentPrice(ctx context.Context, eventID int64, now time.Time) (*models.CurrentPriceResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperrors.NotFound("event")
	}

	tiers, err := s.tiers.ActiveWithSales(ctx, eventID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing tiers: %w", err)
	}

	if tier := models.SelectTier(tiers, now); tier != nil {
		name := tier.Name
		return &models.CurrentPriceResponse{
			Price:          tier.Price,
			TierName:       &name,
			IsDynamicPrice: true,
		}, nil
	}

	return &models.CurrentPriceResponse{
		Price:          event.Price,
		TierName:       nil,
		IsDynamicPrice: false,
	}, nil
}

// InvalidatePrice drops the cached price response for the event. Called after
// any mutation that can change the effective price.
func (s *PricingService) InvalidatePrice(ctx context.Context, eventID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCurrentPrice(ctx, eventID); err != nil {
		slog.Warn("Failed to invalidate price cache", "event_id", eventID, "error", err)
	}
}

// ListTiers returns all tiers of an event.
func (s *PricingService) ListTiers(ctx context.Context, eventID int64) ([]models.PricingTier, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperrors.NotFound("event")
	}
	return s.tiers.ListByEvent(ctx, eventID)
}

// CreateTier adds a pricing tier to an event. Only the organizer or staff
// may manage tiers.
func (s *PricingService) CreateTier(ctx context.Context, principal models.Principal, eventID int64, req *models.PricingTierRequest) (*models.PricingTier, error) {
	event, err := s.authorizeTierChange(ctx, principal, eventID)
	if err != nil {
		return nil, err
	}

	tier, err := tierFromRequest(event.ID, req, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.tiers.Create(ctx, tier); err != nil {
		return nil, fmt.Errorf("failed to create pricing tier: %w", err)
	}

	s.InvalidatePrice(ctx, eventID)
	return tier, nil
}

// UpdateTier replaces a tier's fields.
func (s *PricingService) UpdateTier(ctx context.Context, principal models.Principal, eventID, tierID int64, req *models.PricingTierRequest) (*models.PricingTier, error) {
	event, err := s.authorizeTierChange(ctx, principal, eventID)
	if err != nil {
		return nil, err
	}

	existing, err := s.tiers.GetByID(ctx, eventID, tierID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing tier: %w", err)
	}
	if existing == nil {
		return nil, apperrors.NotFound("pricing tier")
	}

	tier, err := tierFromRequest(event.ID, req, existing.StartDate)
	if err != nil {
		return nil, err
	}
	tier.ID = tierID

	if err := s.tiers.Update(ctx, tier); err != nil {
		return nil, fmt.Errorf("failed to update pricing tier: %w", err)
	}

	s.InvalidatePrice(ctx, eventID)
	return tier, nil
}

// DeleteTier removes a tier. Existing tickets keep their snapshot price and
// their pricing_tier_id becomes null.
func (s *PricingService) DeleteTier(ctx context.Context, principal models.Principal, eventID, tierID int64) error {
	if _, err := s.authorizeTierChange(ctx, principal, eventID); err != nil {
		return err
	}

	if err := s.tiers.Delete(ctx, eventID, tierID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("pricing tier")
		}
		return fmt.Errorf("failed to delete pricing tier: %w", err)
	}

	s.InvalidatePrice(ctx, eventID)
	return nil
}

func (s *PricingService) authorizeTierChange(ctx context.Context, principal models.Principal, eventID int64) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperrors.NotFound("event")
	}
	if !canManage(principal, event) {
		return nil, apperrors.Permission("only the organizer or staff may manage pricing tiers")
	}
	return event, nil
}

// tierFromRequest validates the tier payload. A missing start date defaults
// to now (used on create) or keeps the stored value (used on update).
func tierFromRequest(eventID int64, req *models.PricingTierRequest, defaultStart time.Time) (*models.PricingTier, error) {
	if req.Price.IsNegative() {
		return nil, apperrors.ValidationField("price", "price must not be negative")
	}
	if req.QuantityThreshold < 0 {
		return nil, apperrors.ValidationField("quantity_threshold", "quantity threshold must not be negative")
	}

	start := defaultStart
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if req.EndDate != nil && !req.EndDate.After(start) {
		return nil, apperrors.ValidationField("end_date", "end date must be after start date")
	}

	return &models.PricingTier{
		EventID:           eventID,
		Name:              req.Name,
		Price:             req.Price,
		StartDate:         start,
		EndDate:           req.EndDate,
		QuantityThreshold: req.QuantityThreshold,
	}, nil
}
