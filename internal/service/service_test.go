package service

import (
	"testing"
	"time"

	"stagepass/internal/apperrors"
	"stagepass/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanManage(t *testing.T) {
	event := &models.Event{OrganizerID: 10}

	assert.True(t, canManage(models.Principal{UserID: 10}, event), "organizer")
	assert.True(t, canManage(models.Principal{UserID: 99, IsStaff: true}, event), "staff")
	assert.False(t, canManage(models.Principal{UserID: 99}, event), "stranger")
}

func TestTierFromRequestValidation(t *testing.T) {
	now := time.Now()

	_, err := tierFromRequest(1, &models.PricingTierRequest{
		Name:  "Bad",
		Price: decimal.NewFromInt(-1),
	}, now)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = tierFromRequest(1, &models.PricingTierRequest{
		Name:              "Bad",
		QuantityThreshold: -5,
	}, now)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	past := now.Add(-time.Hour)
	_, err = tierFromRequest(1, &models.PricingTierRequest{
		Name:    "Bad",
		EndDate: &past,
	}, now)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestTierFromRequestDefaultsStartDate(t *testing.T) {
	now := time.Now()

	tier, err := tierFromRequest(7, &models.PricingTierRequest{
		Name:  "Early Bird",
		Price: decimal.NewFromInt(30),
	}, now)
	require.NoError(t, err)

	assert.Equal(t, int64(7), tier.EventID)
	assert.Equal(t, now, tier.StartDate, "missing start date falls back to the given default")
	assert.Nil(t, tier.EndDate)

	explicit := now.Add(time.Hour)
	end := explicit.Add(24 * time.Hour)
	tier, err = tierFromRequest(7, &models.PricingTierRequest{
		Name:      "Late",
		Price:     decimal.NewFromInt(60),
		StartDate: &explicit,
		EndDate:   &end,
	}, now)
	require.NoError(t, err)
	assert.Equal(t, explicit, tier.StartDate)
}

func TestHoldDuration(t *testing.T) {
	assert.Equal(t, 15*time.Minute, HoldDuration)
}
