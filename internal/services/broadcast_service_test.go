package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ottbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeBroadcastRepo struct {
	mu         sync.Mutex
	broadcasts map[primitive.ObjectID]*models.Broadcast
}

func newFakeBroadcastRepo() *fakeBroadcastRepo {
	return &fakeBroadcastRepo{broadcasts: make(map[primitive.ObjectID]*models.Broadcast)}
}

func (r *fakeBroadcastRepo) Create(ctx context.Context, broadcast *models.Broadcast) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	broadcast.ID = primitive.NewObjectID()
	broadcast.Status = models.BroadcastStatusSending
	broadcast.CreatedAt = time.Now()
	copied := *broadcast
	r.broadcasts[broadcast.ID] = &copied
	return nil
}

func (r *fakeBroadcastRepo) Finish(ctx context.Context, id primitive.ObjectID, sentCount, failCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.broadcasts[id]
	if !ok {
		return errors.New("broadcast missing")
	}
	b.Status = models.BroadcastStatusFinished
	b.SentCount = sentCount
	b.FailCount = failCount
	return nil
}

func (r *fakeBroadcastRepo) GetRecent(ctx context.Context, limit int) ([]*models.Broadcast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Broadcast
	for _, b := range r.broadcasts {
		copied := *b
		out = append(out, &copied)
	}
	return out, nil
}

type recordingSender struct {
	mu     sync.Mutex
	sent   []int64
	failAt map[int64]bool
}

func (s *recordingSender) SendMessage(chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAt[chatID] {
		return errors.New("blocked by user")
	}
	s.sent = append(s.sent, chatID)
	return nil
}

func TestBroadcast(t *testing.T) {
	ctx := context.Background()
	log := testLogger()

	setup := func(t *testing.T) (BroadcastService, *fakeBroadcastRepo, *fakeUserRepo) {
		t.Helper()
		broadcastRepo := newFakeBroadcastRepo()
		userRepo := newFakeUserRepo()
		return NewBroadcastService(broadcastRepo, userRepo, log), broadcastRepo, userRepo
	}

	t.Run("delivers to all users and records counts", func(t *testing.T) {
		svc, _, userRepo := setup(t)
		seedUser(t, userRepo, 1)
		seedUser(t, userRepo, 2)
		seedUser(t, userRepo, 3)

		sender := &recordingSender{failAt: map[int64]bool{2: true}}

		result, err := svc.Broadcast(ctx, "maintenance tonight", models.BroadcastAudienceAll, "admin", sender)
		require.NoError(t, err)

		assert.Equal(t, models.BroadcastStatusFinished, result.Status)
		assert.Equal(t, 2, result.SentCount)
		assert.Equal(t, 1, result.FailCount)
		assert.Len(t, sender.sent, 2)
	})

	t.Run("premium audience only reaches subscribers", func(t *testing.T) {
		svc, _, userRepo := setup(t)
		seedUser(t, userRepo, 1)
		seedUser(t, userRepo, 2)
		require.NoError(t, userRepo.AppendSubscription(ctx, 2, &models.Subscription{
			StartDate:  time.Now(),
			ExpiryDate: time.Now().AddDate(0, 0, 30),
		}, 299))

		sender := &recordingSender{}

		result, err := svc.Broadcast(ctx, "thanks for subscribing", models.BroadcastAudiencePremium, "admin", sender)
		require.NoError(t, err)

		assert.Equal(t, 1, result.SentCount)
		require.Len(t, sender.sent, 1)
		assert.EqualValues(t, 2, sender.sent[0])
	})

	t.Run("empty message is rejected", func(t *testing.T) {
		svc, _, _ := setup(t)

		_, err := svc.Broadcast(ctx, "", models.BroadcastAudienceAll, "admin", &recordingSender{})
		assert.Error(t, err)
	})
}

func TestBroadcastStart(t *testing.T) {
	ctx := context.Background()

	t.Run("returns immediately and delivers in the background", func(t *testing.T) {
		broadcastRepo := newFakeBroadcastRepo()
		userRepo := newFakeUserRepo()
		svc := &broadcastService{
			broadcastRepo: broadcastRepo,
			userRepo:      userRepo,
			sendDelay:     time.Millisecond,
			logger:        testLogger(),
		}

		seedUser(t, userRepo, 1)
		seedUser(t, userRepo, 2)
		seedUser(t, userRepo, 3)

		sender := &recordingSender{}

		result, err := svc.Start(ctx, "maintenance tonight", models.BroadcastAudienceAll, "admin", sender)
		require.NoError(t, err)
		assert.Equal(t, models.BroadcastStatusSending, result.Status)

		require.Eventually(t, func() bool {
			recent, err := broadcastRepo.GetRecent(ctx, 10)
			return err == nil && len(recent) == 1 && recent[0].Status == models.BroadcastStatusFinished
		}, 2*time.Second, 5*time.Millisecond)

		recent, err := broadcastRepo.GetRecent(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, recent[0].SentCount)
		assert.Equal(t, 0, recent[0].FailCount)
	})

	t.Run("fan-out survives the caller's cancellation", func(t *testing.T) {
		broadcastRepo := newFakeBroadcastRepo()
		userRepo := newFakeUserRepo()
		svc := &broadcastService{
			broadcastRepo: broadcastRepo,
			userRepo:      userRepo,
			sendDelay:     time.Millisecond,
			logger:        testLogger(),
		}

		seedUser(t, userRepo, 1)
		seedUser(t, userRepo, 2)

		callerCtx, cancel := context.WithCancel(ctx)
		_, err := svc.Start(callerCtx, "still going", models.BroadcastAudienceAll, "admin", &recordingSender{})
		require.NoError(t, err)
		cancel()

		require.Eventually(t, func() bool {
			recent, err := broadcastRepo.GetRecent(ctx, 10)
			return err == nil && len(recent) == 1 && recent[0].Status == models.BroadcastStatusFinished
		}, 2*time.Second, 5*time.Millisecond)

		recent, err := broadcastRepo.GetRecent(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, recent[0].SentCount)
	})

	t.Run("empty message fails before anything is persisted", func(t *testing.T) {
		broadcastRepo := newFakeBroadcastRepo()
		svc := &broadcastService{
			broadcastRepo: broadcastRepo,
			userRepo:      newFakeUserRepo(),
			sendDelay:     time.Millisecond,
			logger:        testLogger(),
		}

		_, err := svc.Start(ctx, "", models.BroadcastAudienceAll, "admin", &recordingSender{})
		assert.Error(t, err)

		recent, err := broadcastRepo.GetRecent(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})
}
