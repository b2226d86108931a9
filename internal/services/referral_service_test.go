package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"ottbot/internal/config"
	"ottbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReferralFixture(t *testing.T, threshold int) (ReferralService, *fakeReferralRepo, *fakeUserRepo) {
	t.Helper()

	log := testLogger()
	referralRepo := newFakeReferralRepo()
	userRepo := newFakeUserRepo()
	subscription := NewSubscriptionService(userRepo, nil, log)

	svc := NewReferralService(referralRepo, subscription, &config.ReferralConfig{
		RewardThreshold: threshold,
		RewardDays:      30,
		RewardPlan:      "monthly",
	}, log)

	return svc, referralRepo, userRepo
}

func TestGetOrCreateStats(t *testing.T) {
	svc, _, _ := newReferralFixture(t, 20)
	ctx := context.Background()

	stats, err := svc.GetOrCreateStats(ctx, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stats.ReferralCode, "REF"))
	assert.Len(t, stats.ReferralCode, 11)
	assert.Zero(t, stats.TotalReferrals)

	// Same user gets the same code back.
	again, err := svc.GetOrCreateStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, stats.ReferralCode, again.ReferralCode)

	// Different users get different codes.
	other, err := svc.GetOrCreateStats(ctx, 2)
	require.NoError(t, err)
	assert.NotEqual(t, stats.ReferralCode, other.ReferralCode)
}

func TestRecordReferral(t *testing.T) {
	ctx := context.Background()

	t.Run("records a new referral and bumps counters", func(t *testing.T) {
		svc, repo, _ := newReferralFixture(t, 20)

		referrer, err := svc.GetOrCreateStats(ctx, 1)
		require.NoError(t, err)

		ok, err := svc.RecordReferral(ctx, referrer.ReferralCode, &TelegramProfile{TelegramID: 2, Username: "friend"})
		require.NoError(t, err)
		assert.True(t, ok)

		stats, err := repo.GetStats(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalReferrals)
		assert.Equal(t, 1, stats.PendingReferrals)
		assert.Zero(t, stats.ValidReferrals)

		edge, err := repo.GetEdgeByReferred(ctx, 2)
		require.NoError(t, err)
		assert.False(t, edge.IsValid)
		assert.False(t, edge.RewardClaimed)
	})

	t.Run("rejects self-referral", func(t *testing.T) {
		svc, _, _ := newReferralFixture(t, 20)

		referrer, err := svc.GetOrCreateStats(ctx, 1)
		require.NoError(t, err)

		ok, err := svc.RecordReferral(ctx, referrer.ReferralCode, &TelegramProfile{TelegramID: 1})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rejects unknown code", func(t *testing.T) {
		svc, _, _ := newReferralFixture(t, 20)

		ok, err := svc.RecordReferral(ctx, "REFDEADBEEF", &TelegramProfile{TelegramID: 2})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("a user can be referred only once", func(t *testing.T) {
		svc, repo, _ := newReferralFixture(t, 20)

		first, err := svc.GetOrCreateStats(ctx, 1)
		require.NoError(t, err)
		second, err := svc.GetOrCreateStats(ctx, 3)
		require.NoError(t, err)

		ok, err := svc.RecordReferral(ctx, first.ReferralCode, &TelegramProfile{TelegramID: 2})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.RecordReferral(ctx, second.ReferralCode, &TelegramProfile{TelegramID: 2})
		require.NoError(t, err)
		assert.False(t, ok)

		// The losing referrer's counters stay untouched.
		stats, err := repo.GetStats(ctx, 3)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalReferrals)
	})
}

func TestValidateReferral(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newReferralFixture(t, 20)

	referrer, err := svc.GetOrCreateStats(ctx, 1)
	require.NoError(t, err)

	ok, err := svc.RecordReferral(ctx, referrer.ReferralCode, &TelegramProfile{TelegramID: 2})
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("first validation wins", func(t *testing.T) {
		won, err := svc.ValidateReferral(ctx, 2)
		require.NoError(t, err)
		assert.True(t, won)

		stats, err := repo.GetStats(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.ValidReferrals)
		assert.Zero(t, stats.PendingReferrals)
	})

	t.Run("revalidation is a no-op", func(t *testing.T) {
		won, err := svc.ValidateReferral(ctx, 2)
		require.NoError(t, err)
		assert.False(t, won)

		stats, err := repo.GetStats(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.ValidReferrals)
	})

	t.Run("unreferred user is a no-op", func(t *testing.T) {
		won, err := svc.ValidateReferral(ctx, 999)
		require.NoError(t, err)
		assert.False(t, won)
	})
}

func TestCheckRewards(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newReferralFixture(t, 2)

	_, err := svc.GetOrCreateStats(ctx, 1)
	require.NoError(t, err)

	// 3 valid referrals at threshold 2: one full unit plus one of progress.
	require.NoError(t, repo.IncrementStats(ctx, 1, 3, 3, 0))

	status, err := svc.CheckRewards(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, status.ValidReferrals)
	assert.Equal(t, 2, status.RequiredCount)
	assert.Equal(t, 1, status.EligibleRewards)
	assert.Equal(t, 1, status.PendingRewards)
	assert.Zero(t, status.RewardsEarned)
	assert.Equal(t, 1, status.Progress)
	assert.Equal(t, 1, status.NextRewardAt)
}

func TestClaimReward(t *testing.T) {
	ctx := context.Background()

	t.Run("claims grant premium days and are single-shot", func(t *testing.T) {
		svc, repo, userRepo := newReferralFixture(t, 2)
		seedUser(t, userRepo, 1)

		_, err := svc.GetOrCreateStats(ctx, 1)
		require.NoError(t, err)
		require.NoError(t, repo.IncrementStats(ctx, 1, 2, 2, 0))

		won, sub, err := svc.ClaimReward(ctx, 1)
		require.NoError(t, err)
		assert.True(t, won)
		require.NotNil(t, sub)
		assert.Equal(t, models.SubscriptionSourceReferral, sub.Source)

		user, err := userRepo.GetByTelegramID(ctx, 1)
		require.NoError(t, err)
		require.Len(t, user.ActiveSubscriptions, 1)

		// Nothing left to claim.
		won, _, err = svc.ClaimReward(ctx, 1)
		require.NoError(t, err)
		assert.False(t, won)
	})

	t.Run("nothing to claim below the threshold", func(t *testing.T) {
		svc, repo, userRepo := newReferralFixture(t, 2)
		seedUser(t, userRepo, 1)

		_, err := svc.GetOrCreateStats(ctx, 1)
		require.NoError(t, err)
		require.NoError(t, repo.IncrementStats(ctx, 1, 1, 1, 0))

		won, _, err := svc.ClaimReward(ctx, 1)
		require.NoError(t, err)
		assert.False(t, won)
	})

	t.Run("concurrent claims settle to one winner", func(t *testing.T) {
		svc, repo, userRepo := newReferralFixture(t, 2)
		seedUser(t, userRepo, 1)

		_, err := svc.GetOrCreateStats(ctx, 1)
		require.NoError(t, err)
		require.NoError(t, repo.IncrementStats(ctx, 1, 2, 2, 0))

		const claimers = 8
		var wins int32
		var mu sync.Mutex
		var wg sync.WaitGroup

		for i := 0; i < claimers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				won, _, err := svc.ClaimReward(ctx, 1)
				assert.NoError(t, err)
				if won {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, wins)

		user, err := userRepo.GetByTelegramID(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, user.ActiveSubscriptions, 1)
	})
}
