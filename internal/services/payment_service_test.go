package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"ottbot/internal/config"
	"ottbot/internal/models"
	"ottbot/internal/utils"
	"ottbot/pkg/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentFixture(t *testing.T) (PaymentService, *fakePaymentRepo, *fakeUserRepo, *fakeReferralRepo) {
	t.Helper()

	log := testLogger()
	paymentRepo := newFakePaymentRepo()
	userRepo := newFakeUserRepo()
	referralRepo := newFakeReferralRepo()

	subscription := NewSubscriptionService(userRepo, nil, log)
	referral := NewReferralService(referralRepo, subscription, &config.ReferralConfig{
		RewardThreshold: 2,
		RewardDays:      30,
		RewardPlan:      "monthly",
	}, log)

	svc := NewPaymentService(paymentRepo, subscription, referral, nil, nil, &config.PaymentConfig{
		AdminUPIID: "admin@upi",
		PayeeName:  "OTT Subscription",
	}, log)

	return svc, paymentRepo, userRepo, referralRepo
}

func seedUser(t *testing.T, userRepo *fakeUserRepo, telegramID int64) *models.User {
	t.Helper()

	user := &models.User{TelegramID: telegramID, FirstName: "Test"}
	require.NoError(t, userRepo.Create(context.Background(), user))
	return user
}

func TestCreatePayment(t *testing.T) {
	svc, _, userRepo, _ := newPaymentFixture(t)
	ctx := context.Background()
	seedUser(t, userRepo, 100)

	t.Run("creates pending payment with UPI details", func(t *testing.T) {
		details, err := svc.CreatePayment(ctx, &CreatePaymentRequest{
			TelegramID: 100,
			Amount:     299,
			PlanType:   "monthly",
			Platforms:  []string{"netflix", "hotstar"},
		})
		require.NoError(t, err)

		assert.Equal(t, models.PaymentStatusPending, details.Payment.Status)
		assert.Equal(t, "admin@upi", details.UPIID)
		assert.Contains(t, details.UPIURI, "upi://pay?")
		assert.Contains(t, details.UPIURI, "am=299.00")
		assert.NotEmpty(t, details.QRCode)
		assert.Contains(t, details.Instructions, "admin@upi")
	})

	t.Run("rejects out-of-range amounts", func(t *testing.T) {
		_, err := svc.CreatePayment(ctx, &CreatePaymentRequest{TelegramID: 100, Amount: 0, PlanType: "monthly"})
		assert.Error(t, err)

		_, err = svc.CreatePayment(ctx, &CreatePaymentRequest{TelegramID: 100, Amount: 1e7, PlanType: "monthly"})
		assert.Error(t, err)
	})
}

func TestApprovePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("activates subscription with plan duration", func(t *testing.T) {
		svc, _, userRepo, _ := newPaymentFixture(t)
		seedUser(t, userRepo, 100)

		details, err := svc.CreatePayment(ctx, &CreatePaymentRequest{
			TelegramID: 100,
			Amount:     99,
			PlanType:   "weekly",
		})
		require.NoError(t, err)

		won, sub, err := svc.ApprovePayment(ctx, details.Payment.ID, "admin")
		require.NoError(t, err)
		assert.True(t, won)
		require.NotNil(t, sub)

		expectedExpiry := sub.StartDate.AddDate(0, 0, 7)
		assert.WithinDuration(t, expectedExpiry, sub.ExpiryDate, time.Second)

		user, err := userRepo.GetByTelegramID(ctx, 100)
		require.NoError(t, err)
		require.Len(t, user.ActiveSubscriptions, 1)
		assert.Equal(t, models.SubscriptionSourcePayment, user.ActiveSubscriptions[0].Source)
		assert.Equal(t, 99.0, user.TotalSpent)
		assert.True(t, user.HasActiveSubscription(time.Now()))
	})

	t.Run("second decision is a no-op", func(t *testing.T) {
		svc, _, userRepo, _ := newPaymentFixture(t)
		seedUser(t, userRepo, 100)

		details, err := svc.CreatePayment(ctx, &CreatePaymentRequest{TelegramID: 100, Amount: 299, PlanType: "monthly"})
		require.NoError(t, err)

		won, _, err := svc.ApprovePayment(ctx, details.Payment.ID, "admin1")
		require.NoError(t, err)
		assert.True(t, won)

		won, _, err = svc.ApprovePayment(ctx, details.Payment.ID, "admin2")
		require.NoError(t, err)
		assert.False(t, won)

		rejected, err := svc.RejectPayment(ctx, details.Payment.ID, "admin2", "late")
		require.NoError(t, err)
		assert.False(t, rejected)

		user, err := userRepo.GetByTelegramID(ctx, 100)
		require.NoError(t, err)
		assert.Len(t, user.ActiveSubscriptions, 1)

		p, err := svc.GetPayment(ctx, details.Payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusVerified, p.Status)
		assert.Equal(t, "admin1", p.VerifiedBy)
	})

	t.Run("concurrent approvals produce exactly one subscription", func(t *testing.T) {
		svc, _, userRepo, _ := newPaymentFixture(t)
		seedUser(t, userRepo, 100)

		details, err := svc.CreatePayment(ctx, &CreatePaymentRequest{TelegramID: 100, Amount: 299, PlanType: "monthly"})
		require.NoError(t, err)

		const admins = 10
		var wins int32
		var mu sync.Mutex
		var wg sync.WaitGroup

		for i := 0; i < admins; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				won, _, err := svc.ApprovePayment(ctx, details.Payment.ID, "admin")
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

		user, err := userRepo.GetByTelegramID(ctx, 100)
		require.NoError(t, err)
		assert.Len(t, user.ActiveSubscriptions, 1)
	})

	t.Run("verified payment validates the payer's referral", func(t *testing.T) {
		svc, _, userRepo, referralRepo := newPaymentFixture(t)
		seedUser(t, userRepo, 1) // referrer
		seedUser(t, userRepo, 2) // referred

		require.NoError(t, referralRepo.InsertStats(ctx, &models.ReferralStats{TelegramID: 1, ReferralCode: "REFAA11BB22"}))
		require.NoError(t, referralRepo.CreateEdge(ctx, &models.Referral{ReferrerTelegramID: 1, ReferredTelegramID: 2}))
		require.NoError(t, referralRepo.IncrementStats(ctx, 1, 1, 0, 1))

		details, err := svc.CreatePayment(ctx, &CreatePaymentRequest{TelegramID: 2, Amount: 299, PlanType: "monthly"})
		require.NoError(t, err)

		won, _, err := svc.ApprovePayment(ctx, details.Payment.ID, "admin")
		require.NoError(t, err)
		require.True(t, won)

		edge, err := referralRepo.GetEdgeByReferred(ctx, 2)
		require.NoError(t, err)
		assert.True(t, edge.IsValid)

		stats, err := referralRepo.GetStats(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.ValidReferrals)
		assert.Equal(t, 0, stats.PendingReferrals)
	})
}

func TestRejectPayment(t *testing.T) {
	svc, _, userRepo, _ := newPaymentFixture(t)
	ctx := context.Background()
	seedUser(t, userRepo, 100)

	details, err := svc.CreatePayment(ctx, &CreatePaymentRequest{TelegramID: 100, Amount: 299, PlanType: "monthly"})
	require.NoError(t, err)

	won, err := svc.RejectPayment(ctx, details.Payment.ID, "admin", "unreadable screenshot")
	require.NoError(t, err)
	assert.True(t, won)

	p, err := svc.GetPayment(ctx, details.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRejected, p.Status)
	assert.Equal(t, "unreadable screenshot", p.RejectionReason)

	// A rejected payment grants nothing.
	user, err := userRepo.GetByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, user.ActiveSubscriptions)
	assert.Zero(t, user.TotalSpent)

	// And cannot be approved afterwards.
	approved, _, err := svc.ApprovePayment(ctx, details.Payment.ID, "admin")
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestGetLatestPendingForUser(t *testing.T) {
	svc, _, userRepo, _ := newPaymentFixture(t)
	ctx := context.Background()
	seedUser(t, userRepo, 100)

	first, err := svc.CreatePayment(ctx, &CreatePaymentRequest{TelegramID: 100, Amount: 99, PlanType: "weekly"})
	require.NoError(t, err)

	_, err = svc.RejectPayment(ctx, first.Payment.ID, "admin", "wrong amount")
	require.NoError(t, err)

	second, err := svc.CreatePayment(ctx, &CreatePaymentRequest{TelegramID: 100, Amount: 299, PlanType: "monthly"})
	require.NoError(t, err)

	pending, err := svc.GetLatestPendingForUser(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, second.Payment.ID, pending.ID)
}

func TestConfirmPaymentLink(t *testing.T) {
	ctx := context.Background()

	sign := func(secret string, body []byte) string {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		return hex.EncodeToString(mac.Sum(nil))
	}

	newLinkFixture := func(t *testing.T, secret string) (PaymentService, *fakePaymentRepo, *fakeUserRepo) {
		t.Helper()

		log := testLogger()
		paymentRepo := newFakePaymentRepo()
		userRepo := newFakeUserRepo()
		referralRepo := newFakeReferralRepo()

		subscription := NewSubscriptionService(userRepo, nil, log)
		referral := NewReferralService(referralRepo, subscription, &config.ReferralConfig{
			RewardThreshold: 2,
			RewardDays:      30,
			RewardPlan:      "monthly",
		}, log)

		razorpay := payment.NewRazorpayProvider("key", "key_secret", secret)
		svc := NewPaymentService(paymentRepo, subscription, referral, nil, razorpay, &config.PaymentConfig{
			AdminUPIID: "admin@upi",
			PayeeName:  "OTT Subscription",
		}, log)

		return svc, paymentRepo, userRepo
	}

	seedLinkedPayment := func(t *testing.T, svc PaymentService, repo *fakePaymentRepo, linkID string) *models.Payment {
		t.Helper()

		details, err := svc.CreatePayment(ctx, &CreatePaymentRequest{
			TelegramID: 100,
			Amount:     299,
			PlanType:   "monthly",
		})
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, details.Payment.ID, map[string]interface{}{"payment_link_id": linkID}))
		return details.Payment
	}

	t.Run("paid event settles the payment", func(t *testing.T) {
		svc, paymentRepo, userRepo := newLinkFixture(t, "whsec")
		seedUser(t, userRepo, 100)
		seedLinkedPayment(t, svc, paymentRepo, "plink_abc")

		body := []byte(`{"event":"payment_link.paid","payload":{"payment_link":{"entity":{"id":"plink_abc"}}}}`)

		settled, err := svc.ConfirmPaymentLink(ctx, body, sign("whsec", body))
		require.NoError(t, err)
		require.NotNil(t, settled)

		assert.Equal(t, models.PaymentStatusVerified, settled.Status)
		assert.Equal(t, "razorpay", settled.VerifiedBy)

		user, err := userRepo.GetByTelegramID(ctx, 100)
		require.NoError(t, err)
		assert.True(t, user.HasActiveSubscription(time.Now()))
	})

	t.Run("rejects a bad signature", func(t *testing.T) {
		svc, paymentRepo, userRepo := newLinkFixture(t, "whsec")
		seedUser(t, userRepo, 100)
		seedLinkedPayment(t, svc, paymentRepo, "plink_abc")

		body := []byte(`{"event":"payment_link.paid","payload":{"payment_link":{"entity":{"id":"plink_abc"}}}}`)

		_, err := svc.ConfirmPaymentLink(ctx, body, sign("wrong", body))
		assert.Error(t, err)
	})

	t.Run("ignores other event types", func(t *testing.T) {
		svc, _, userRepo := newLinkFixture(t, "whsec")
		seedUser(t, userRepo, 100)

		body := []byte(`{"event":"payment_link.expired","payload":{"payment_link":{"entity":{"id":"plink_abc"}}}}`)

		settled, err := svc.ConfirmPaymentLink(ctx, body, sign("whsec", body))
		require.NoError(t, err)
		assert.Nil(t, settled)
	})

	t.Run("errors when no payment matches the link", func(t *testing.T) {
		svc, _, userRepo := newLinkFixture(t, "whsec")
		seedUser(t, userRepo, 100)

		body := []byte(`{"event":"payment_link.paid","payload":{"payment_link":{"entity":{"id":"plink_missing"}}}}`)

		_, err := svc.ConfirmPaymentLink(ctx, body, sign("whsec", body))
		assert.Error(t, err)
	})

	t.Run("fails when payment links are not configured", func(t *testing.T) {
		svc, _, _, _ := newPaymentFixture(t)

		_, err := svc.ConfirmPaymentLink(ctx, []byte(`{}`), "sig")
		assert.Error(t, err)
	})
}

func TestGetPaymentsByStatus(t *testing.T) {
	svc, _, userRepo, _ := newPaymentFixture(t)
	ctx := context.Background()
	seedUser(t, userRepo, 100)

	first, err := svc.CreatePayment(ctx, &CreatePaymentRequest{TelegramID: 100, Amount: 99, PlanType: "weekly"})
	require.NoError(t, err)
	_, err = svc.CreatePayment(ctx, &CreatePaymentRequest{TelegramID: 100, Amount: 299, PlanType: "monthly"})
	require.NoError(t, err)

	decided, _, err := svc.ApprovePayment(ctx, first.Payment.ID, "admin")
	require.NoError(t, err)
	require.True(t, decided)

	params := &utils.PaginationParams{Page: 1, PageSize: 10, Sort: "created_at", Order: "desc"}

	pending, total, err := svc.GetPaymentsByStatus(ctx, models.PaymentStatusPending, params)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, 299.0, pending[0].Amount)

	verified, total, err := svc.GetPaymentsByStatus(ctx, models.PaymentStatusVerified, params)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, verified, 1)
	assert.Equal(t, 99.0, verified[0].Amount)
}
