package services

import (
	"context"
	"testing"
	"time"

	"ottbot/internal/config"
	"ottbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuotaFixture(t *testing.T) (QuotaService, *fakeUserRepo) {
	t.Helper()

	userRepo := newFakeUserRepo()
	usageRepo := newFakeUsageRepo()

	svc := NewQuotaService(usageRepo, userRepo, &config.QuotaConfig{
		FreeDailyLimit:    3,
		PremiumDailyLimit: 50,
		AdminDailyLimit:   1000,
	}, testLogger())

	return svc, userRepo
}

func TestDailyLimit(t *testing.T) {
	svc, userRepo := newQuotaFixture(t)
	ctx := context.Background()

	t.Run("free users", func(t *testing.T) {
		seedUser(t, userRepo, 1)

		limit, err := svc.DailyLimit(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, limit)
	})

	t.Run("unknown users fall back to the free tier", func(t *testing.T) {
		limit, err := svc.DailyLimit(ctx, 999)
		require.NoError(t, err)
		assert.Equal(t, 3, limit)
	})

	t.Run("premium users", func(t *testing.T) {
		seedUser(t, userRepo, 2)
		require.NoError(t, userRepo.AppendSubscription(ctx, 2, &models.Subscription{
			PlanType:   "monthly",
			StartDate:  time.Now(),
			ExpiryDate: time.Now().AddDate(0, 0, 30),
		}, 299))

		limit, err := svc.DailyLimit(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 50, limit)
	})

	t.Run("expired subscription drops back to free", func(t *testing.T) {
		seedUser(t, userRepo, 3)
		require.NoError(t, userRepo.AppendSubscription(ctx, 3, &models.Subscription{
			PlanType:   "monthly",
			StartDate:  time.Now().AddDate(0, 0, -60),
			ExpiryDate: time.Now().AddDate(0, 0, -30),
		}, 299))

		limit, err := svc.DailyLimit(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, 3, limit)
	})

	t.Run("admins", func(t *testing.T) {
		user := &models.User{TelegramID: 4, IsAdmin: true}
		require.NoError(t, userRepo.Create(ctx, user))

		limit, err := svc.DailyLimit(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, 1000, limit)
	})
}

func TestConsume(t *testing.T) {
	svc, userRepo := newQuotaFixture(t)
	ctx := context.Background()
	seedUser(t, userRepo, 1)

	// Free tier allows three extractions.
	for i := 1; i <= 3; i++ {
		ok, status, err := svc.Consume(ctx, 1, models.UsageTypeExtraction)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, i, status.UsedToday)
		assert.Equal(t, 3-i, status.Remaining)
	}

	// The fourth is refused.
	ok, status, err := svc.Consume(ctx, 1, models.UsageTypeExtraction)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, status.HasQuota)
	assert.Zero(t, status.Remaining)

	// Downloads count separately from extractions.
	ok, _, err = svc.Consume(ctx, 1, models.UsageTypeDownload)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetStatus(t *testing.T) {
	svc, userRepo := newQuotaFixture(t)
	ctx := context.Background()
	seedUser(t, userRepo, 1)

	status, err := svc.GetStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, status.DailyLimit)
	assert.Zero(t, status.UsedToday)
	assert.True(t, status.HasQuota)

	// Resets at the next UTC midnight.
	now := time.Now().UTC()
	assert.Equal(t, 0, status.ResetsAt.Hour())
	assert.True(t, status.ResetsAt.After(now))
	assert.True(t, status.ResetsAt.Sub(now) <= 24*time.Hour)

	_, _, err = svc.Consume(ctx, 1, models.UsageTypeExtraction)
	require.NoError(t, err)

	status, err = svc.GetStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, status.UsedToday)
	assert.Equal(t, 2, status.Remaining)
}
