package bot

import (
	"testing"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSplitCallback(t *testing.T) {
	payload, ok := splitCallback("approve:68a1b2c3", callbackApprovePrefix)
	require.True(t, ok)
	assert.Equal(t, "68a1b2c3", payload)

	_, ok = splitCallback("reject:68a1b2c3", callbackApprovePrefix)
	assert.False(t, ok)

	payload, ok = splitCallback("dl:ext_abc:1080p", callbackDownloadPrefix)
	require.True(t, ok)
	assert.Equal(t, "ext_abc:1080p", payload)
}

func TestPlansKeyboard(t *testing.T) {
	plans := []*models.SubscriptionPlan{
		{ID: primitive.NewObjectID(), PlanName: "Starter", Price: 99, DurationDays: 7},
		{ID: primitive.NewObjectID(), PlanName: "Monthly Max", Price: 299, DurationDays: 30},
	}

	keyboard := plansKeyboard(plans)
	require.Len(t, keyboard.InlineKeyboard, 2)

	first := keyboard.InlineKeyboard[0][0]
	assert.Contains(t, first.Text, "Starter")
	assert.Contains(t, first.Text, "₹99")
	require.NotNil(t, first.CallbackData)
	assert.Equal(t, callbackPlanPrefix+plans[0].ID.Hex(), *first.CallbackData)
}

func TestQualitiesKeyboard(t *testing.T) {
	extraction := &models.Extraction{
		ExtractionID:       "ext_abc",
		RecommendedQuality: "720p",
		AvailableQualities: []models.VideoQuality{
			{QualityID: "360p"},
			{QualityID: "480p"},
			{QualityID: "720p"},
			{QualityID: "1080p"},
		},
	}

	keyboard := qualitiesKeyboard(extraction)

	// Three buttons per row, remainder on the last.
	require.Len(t, keyboard.InlineKeyboard, 2)
	assert.Len(t, keyboard.InlineKeyboard[0], 3)
	assert.Len(t, keyboard.InlineKeyboard[1], 1)

	recommended := keyboard.InlineKeyboard[0][2]
	assert.Equal(t, "⭐ 720p", recommended.Text)
	require.NotNil(t, recommended.CallbackData)
	assert.Equal(t, "dl:ext_abc:720p", *recommended.CallbackData)
}

func TestPaymentDecisionKeyboard(t *testing.T) {
	keyboard := paymentDecisionKeyboard("68a1b2c3")
	require.Len(t, keyboard.InlineKeyboard, 1)
	require.Len(t, keyboard.InlineKeyboard[0], 2)

	assert.Equal(t, "approve:68a1b2c3", *keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "reject:68a1b2c3", *keyboard.InlineKeyboard[0][1].CallbackData)
}

func TestMyPlanSummary(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	status := &services.SubscriptionStatus{
		Subscriptions: []models.Subscription{
			{PlanType: "monthly", ExpiryDate: now.AddDate(0, 0, 12)},
			{PlanType: "weekly", ExpiryDate: now.AddDate(0, 0, -2)},
		},
		DaysRemaining: 12,
		TotalSpent:    299,
	}

	text := myPlanSummary(status, now)

	assert.Contains(t, text, "monthly")
	assert.Contains(t, text, now.AddDate(0, 0, 12).Format("02 Jan 2006"))
	assert.NotContains(t, text, "weekly")
	assert.Contains(t, text, "12 days remaining")
	assert.Contains(t, text, "₹299")
}
