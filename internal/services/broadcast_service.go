package services

import (
	"context"
	"fmt"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/repositories/interfaces"
	"ottbot/pkg/logger"
)

// MessageSender delivers one message to one chat. The Telegram bot satisfies
// this; tests substitute a recorder.
type MessageSender interface {
	SendMessage(chatID int64, text string) error
}

type BroadcastService interface {
	// Broadcast sends the message to the chosen audience and persists the
	// delivery record with sent/failed counts. It blocks until the fan-out
	// finishes.
	Broadcast(ctx context.Context, message string, audience models.BroadcastAudience, sentBy string, sender MessageSender) (*models.Broadcast, error)

	// Start validates the request, persists the record, then runs the
	// fan-out in the background and returns immediately. Delivery is
	// throttled, so a large audience takes minutes; callers must not hold
	// a bot update or HTTP request open for it.
	Start(ctx context.Context, message string, audience models.BroadcastAudience, sentBy string, sender MessageSender) (*models.Broadcast, error)

	GetRecent(ctx context.Context, limit int) ([]*models.Broadcast, error)
}

type broadcastService struct {
	broadcastRepo interfaces.BroadcastRepository
	userRepo      interfaces.UserRepository
	sendDelay     time.Duration
	logger        *logger.Logger
}

func NewBroadcastService(broadcastRepo interfaces.BroadcastRepository, userRepo interfaces.UserRepository, log *logger.Logger) BroadcastService {
	return &broadcastService{
		broadcastRepo: broadcastRepo,
		userRepo:      userRepo,
		// Telegram throttles bots around 30 messages per second.
		sendDelay: 40 * time.Millisecond,
		logger:    log,
	}
}

func (s *broadcastService) Broadcast(ctx context.Context, message string, audience models.BroadcastAudience, sentBy string, sender MessageSender) (*models.Broadcast, error) {
	broadcast, ids, err := s.prepare(ctx, message, audience, sentBy)
	if err != nil {
		return nil, err
	}

	if err := s.deliver(ctx, broadcast, ids, sender); err != nil {
		return nil, err
	}

	return broadcast, nil
}

func (s *broadcastService) Start(ctx context.Context, message string, audience models.BroadcastAudience, sentBy string, sender MessageSender) (*models.Broadcast, error) {
	broadcast, ids, err := s.prepare(ctx, message, audience, sentBy)
	if err != nil {
		return nil, err
	}

	// The goroutine owns the record from here; hand the caller a snapshot.
	snapshot := *broadcast

	// Detach from the caller's cancellation: the originating bot update or
	// HTTP request finishes long before the fan-out does.
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := s.deliver(bg, broadcast, ids, sender); err != nil {
			s.logger.WithError(err).Error("background broadcast failed")
		}
	}()

	return &snapshot, nil
}

// prepare validates the request, persists the sending record and resolves the
// audience, so Start can surface those errors synchronously.
func (s *broadcastService) prepare(ctx context.Context, message string, audience models.BroadcastAudience, sentBy string) (*models.Broadcast, []int64, error) {
	if message == "" {
		return nil, nil, fmt.Errorf("broadcast message is empty")
	}
	if audience == "" {
		audience = models.BroadcastAudienceAll
	}

	broadcast := &models.Broadcast{
		Message:  message,
		Audience: audience,
		SentBy:   sentBy,
	}
	if err := s.broadcastRepo.Create(ctx, broadcast); err != nil {
		return nil, nil, err
	}

	ids, err := s.userRepo.ListTelegramIDs(ctx, audience, time.Now())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve broadcast audience: %w", err)
	}

	return broadcast, ids, nil
}

func (s *broadcastService) deliver(ctx context.Context, broadcast *models.Broadcast, ids []int64, sender MessageSender) error {
	sent, failed := 0, 0
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := sender.SendMessage(id, broadcast.Message); err != nil {
			failed++
			s.logger.WithError(err).WithTelegramID(id).Debug("broadcast delivery failed")
		} else {
			sent++
		}

		time.Sleep(s.sendDelay)
	}

	if err := s.broadcastRepo.Finish(ctx, broadcast.ID, sent, failed); err != nil {
		s.logger.WithError(err).Error("failed to finalize broadcast record")
	}

	broadcast.Status = models.BroadcastStatusFinished
	broadcast.SentCount = sent
	broadcast.FailCount = failed

	s.logger.WithFields(map[string]interface{}{
		"audience": broadcast.Audience,
		"sent":     sent,
		"failed":   failed,
	}).Info("broadcast finished")

	return nil
}

func (s *broadcastService) GetRecent(ctx context.Context, limit int) ([]*models.Broadcast, error) {
	return s.broadcastRepo.GetRecent(ctx, limit)
}
