package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/repositories/interfaces"
	"ottbot/internal/utils"
	"ottbot/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testLogger() *logger.Logger {
	log, _ := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	return log
}

// fakePaymentRepo is an in-memory PaymentRepository with the same atomicity
// guarantees as the real one.
type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[primitive.ObjectID]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[primitive.ObjectID]*models.Payment)}
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment.ID = primitive.NewObjectID()
	payment.Status = models.PaymentStatusPending
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()

	copied := *payment
	r.payments[payment.ID] = &copied
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePaymentRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if linkID, ok := updates["payment_link_id"].(string); ok {
		p.PaymentLinkID = linkID
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (r *fakePaymentRepo) SetScreenshot(ctx context.Context, id primitive.ObjectID, fileID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	p.ScreenshotFileID = fileID
	p.ScreenshotURL = url
	return nil
}

func (r *fakePaymentRepo) MarkDecided(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus, decidedBy, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}

	now := time.Now()
	p.Status = status
	p.VerifiedBy = decidedBy
	p.VerificationDate = &now
	if status == models.PaymentStatusRejected {
		p.RejectionReason = reason
	}
	return true, nil
}

func (r *fakePaymentRepo) GetPending(ctx context.Context) ([]*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []*models.Payment
	for _, p := range r.payments {
		if p.Status == models.PaymentStatusPending {
			copied := *p
			pending = append(pending, &copied)
		}
	}
	return pending, nil
}

func (r *fakePaymentRepo) GetByUser(ctx context.Context, telegramID int64, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var payments []*models.Payment
	for _, p := range r.payments {
		if p.TelegramID == telegramID {
			copied := *p
			payments = append(payments, &copied)
		}
	}
	return payments, int64(len(payments)), nil
}

func (r *fakePaymentRepo) GetByStatus(ctx context.Context, status models.PaymentStatus, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var payments []*models.Payment
	for _, p := range r.payments {
		if p.Status == status {
			copied := *p
			payments = append(payments, &copied)
		}
	}
	return payments, int64(len(payments)), nil
}

func (r *fakePaymentRepo) GetByPaymentLinkID(ctx context.Context, linkID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.payments {
		if p.PaymentLinkID == linkID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakePaymentRepo) CountByStatus(ctx context.Context, status models.PaymentStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, p := range r.payments {
		if p.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakePaymentRepo) TotalRevenue(ctx context.Context) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total float64
	for _, p := range r.payments {
		if p.Status == models.PaymentStatusVerified {
			total += p.Amount
		}
	}
	return total, nil
}

func (r *fakePaymentRepo) GetPaymentsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Payment, error) {
	return nil, nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.TelegramID]; exists {
		return interfaces.ErrDuplicate
	}

	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.TelegramID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeUserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[telegramID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *u
	copied.ActiveSubscriptions = append([]models.Subscription(nil), u.ActiveSubscriptions...)
	return &copied, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, telegramID int64, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[telegramID]
	if !ok {
		return interfaces.ErrNotFound
	}
	if username, ok := updates["telegram_username"].(string); ok {
		u.TelegramUsername = username
	}
	if prefs, ok := updates["preferences"].(*models.UserPreferences); ok {
		u.Preferences = *prefs
	}
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, telegramID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, telegramID)
	return nil
}

func (r *fakeUserRepo) AppendSubscription(ctx context.Context, telegramID int64, sub *models.Subscription, amountPaid float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[telegramID]
	if !ok {
		return interfaces.ErrNotFound
	}
	u.ActiveSubscriptions = append(u.ActiveSubscriptions, *sub)
	u.TotalSpent += amountPaid
	u.IsPremium = true
	return nil
}

func (r *fakeUserRepo) DeactivateExpiredSubscriptions(ctx context.Context, telegramID int64, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[telegramID]
	if !ok {
		return interfaces.ErrNotFound
	}
	for i := range u.ActiveSubscriptions {
		if u.ActiveSubscriptions[i].Expired(now) {
			u.ActiveSubscriptions[i].IsActive = false
		}
	}
	return nil
}

func (r *fakeUserRepo) IncrementUsageTotals(ctx context.Context, telegramID int64, extractions, downloads int64, dataMB float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[telegramID]
	if !ok {
		return interfaces.ErrNotFound
	}
	u.TotalExtractions += extractions
	u.TotalDownloads += downloads
	u.TotalDataDownloadedMB += dataMB
	return nil
}

func (r *fakeUserRepo) TouchLastActive(ctx context.Context, telegramID int64) error {
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []*models.User
	for _, u := range r.users {
		copied := *u
		users = append(users, &copied)
	}
	return users, int64(len(users)), nil
}

func (r *fakeUserRepo) ListTelegramIDs(ctx context.Context, audience models.BroadcastAudience, now time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []int64
	for id, u := range r.users {
		active := u.HasActiveSubscription(now)
		switch audience {
		case models.BroadcastAudiencePremium:
			if active {
				ids = append(ids, id)
			}
		case models.BroadcastAudienceFree:
			if !active {
				ids = append(ids, id)
			}
		default:
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeUserRepo) CountTotal(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CountWithActiveSubscription(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, u := range r.users {
		if u.HasActiveSubscription(now) {
			count++
		}
	}
	return count, nil
}

// fakeReferralRepo is an in-memory ReferralRepository.
type fakeReferralRepo struct {
	mu    sync.Mutex
	edges map[int64]*models.Referral // keyed by referred telegram id
	stats map[int64]*models.ReferralStats
	codes map[string]int64
}

func newFakeReferralRepo() *fakeReferralRepo {
	return &fakeReferralRepo{
		edges: make(map[int64]*models.Referral),
		stats: make(map[int64]*models.ReferralStats),
		codes: make(map[string]int64),
	}
}

func (r *fakeReferralRepo) CreateEdge(ctx context.Context, referral *models.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.edges[referral.ReferredTelegramID]; exists {
		return interfaces.ErrDuplicate
	}

	referral.ID = primitive.NewObjectID()
	referral.CreatedAt = time.Now()
	copied := *referral
	r.edges[referral.ReferredTelegramID] = &copied
	return nil
}

func (r *fakeReferralRepo) GetEdgeByReferred(ctx context.Context, referredTelegramID int64) (*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	edge, ok := r.edges[referredTelegramID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *edge
	return &copied, nil
}

func (r *fakeReferralRepo) GetEdgesByReferrer(ctx context.Context, referrerTelegramID int64) ([]*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var edges []*models.Referral
	for _, edge := range r.edges {
		if edge.ReferrerTelegramID == referrerTelegramID {
			copied := *edge
			edges = append(edges, &copied)
		}
	}
	return edges, nil
}

func (r *fakeReferralRepo) MarkValidated(ctx context.Context, referredTelegramID int64, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	edge, ok := r.edges[referredTelegramID]
	if !ok || edge.IsValid {
		return false, nil
	}
	edge.IsValid = true
	edge.ValidatedAt = &at
	return true, nil
}

func (r *fakeReferralRepo) InsertStats(ctx context.Context, stats *models.ReferralStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stats[stats.TelegramID]; exists {
		return interfaces.ErrDuplicate
	}
	if _, exists := r.codes[stats.ReferralCode]; exists {
		return interfaces.ErrDuplicate
	}

	stats.ID = primitive.NewObjectID()
	stats.CreatedAt = time.Now()
	copied := *stats
	r.stats[stats.TelegramID] = &copied
	r.codes[stats.ReferralCode] = stats.TelegramID
	return nil
}

func (r *fakeReferralRepo) GetStats(ctx context.Context, telegramID int64) (*models.ReferralStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[telegramID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *stats
	return &copied, nil
}

func (r *fakeReferralRepo) GetStatsByCode(ctx context.Context, code string) (*models.ReferralStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	telegramID, ok := r.codes[code]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *r.stats[telegramID]
	return &copied, nil
}

func (r *fakeReferralRepo) IncrementStats(ctx context.Context, telegramID int64, totalDelta, validDelta, pendingDelta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[telegramID]
	if !ok {
		return interfaces.ErrNotFound
	}
	stats.TotalReferrals += totalDelta
	stats.ValidReferrals += validDelta
	stats.PendingReferrals += pendingDelta
	return nil
}

func (r *fakeReferralRepo) IncrementEarnedIf(ctx context.Context, telegramID int64, expectedEarned int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[telegramID]
	if !ok || stats.RewardsEarned != expectedEarned {
		return false, nil
	}
	stats.RewardsEarned++
	return true, nil
}

func (r *fakeReferralRepo) TopReferrers(ctx context.Context, limit int) ([]*models.ReferralStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.ReferralStats
	for _, stats := range r.stats {
		if stats.ValidReferrals > 0 {
			copied := *stats
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeReferralRepo) CountEdges(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.edges)), nil
}

func (r *fakeReferralRepo) CountValidEdges(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, edge := range r.edges {
		if edge.IsValid {
			count++
		}
	}
	return count, nil
}

// fakeUsageRepo is an in-memory UsageRepository.
type fakeUsageRepo struct {
	mu      sync.Mutex
	buckets map[string]*models.DailyUsage
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{buckets: make(map[string]*models.DailyUsage)}
}

func usageKey(telegramID int64, date string) string {
	return fmt.Sprintf("%s/%d", date, telegramID)
}

func (r *fakeUsageRepo) IncrementUsage(ctx context.Context, telegramID int64, date string, usageType models.UsageType) (*models.DailyUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := usageKey(telegramID, date)
	bucket, ok := r.buckets[key]
	if !ok {
		bucket = &models.DailyUsage{TelegramID: telegramID, Date: date}
		r.buckets[key] = bucket
	}

	if usageType == models.UsageTypeDownload {
		bucket.DownloadCount++
	} else {
		bucket.ExtractionCount++
	}
	bucket.LastUsedAt = time.Now()

	copied := *bucket
	return &copied, nil
}

func (r *fakeUsageRepo) GetUsage(ctx context.Context, telegramID int64, date string) (*models.DailyUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.buckets[usageKey(telegramID, date)]
	if !ok {
		return &models.DailyUsage{TelegramID: telegramID, Date: date}, nil
	}
	copied := *bucket
	return &copied, nil
}

// fakeExtractionRepo is an in-memory ExtractionRepository.
type fakeExtractionRepo struct {
	mu          sync.Mutex
	extractions map[string]*models.Extraction
}

func newFakeExtractionRepo() *fakeExtractionRepo {
	return &fakeExtractionRepo{extractions: make(map[string]*models.Extraction)}
}

func (r *fakeExtractionRepo) Create(ctx context.Context, extraction *models.Extraction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	extraction.ID = primitive.NewObjectID()
	extraction.Timestamp = time.Now()
	copied := *extraction
	r.extractions[extraction.ExtractionID] = &copied
	return nil
}

func (r *fakeExtractionRepo) GetByExtractionID(ctx context.Context, extractionID string) (*models.Extraction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.extractions[extractionID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeExtractionRepo) GetByUser(ctx context.Context, telegramID int64, params *utils.PaginationParams) ([]*models.Extraction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Extraction
	for _, e := range r.extractions {
		if e.TelegramID == telegramID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeExtractionRepo) MarkDownloadStarted(ctx context.Context, extractionID, quality string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.extractions[extractionID]
	if !ok {
		return false, nil
	}
	e.DownloadedQuality = quality
	e.DownloadStatus = models.DownloadStatusReady
	e.DownloadStartedAt = &at
	return true, nil
}

func (r *fakeExtractionRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, e := range r.extractions {
		if e.Timestamp.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeExtractionRepo) CountByUser(ctx context.Context, telegramID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, e := range r.extractions {
		if e.TelegramID == telegramID {
			count++
		}
	}
	return count, nil
}
