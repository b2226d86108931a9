package bot

import (
	"context"
	"fmt"
	"time"

	"ottbot/internal/services"
	"ottbot/internal/utils"
)

// Conversation stages the bot tracks between updates.
const (
	StageIdle           = ""
	StageAwaitingPSSH   = "awaiting_pssh"
	StageAwaitingReason = "awaiting_reject_reason"
)

// ConversationState is the per-chat state kept in Redis between updates.
type ConversationState struct {
	Stage     string            `json:"stage"`
	PaymentID string            `json:"payment_id,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// SessionStore keeps conversation state in Redis so the bot survives
// restarts mid-flow.
type SessionStore struct {
	cache services.CacheService
	ttl   time.Duration
}

func NewSessionStore(cache services.CacheService, ttl time.Duration) *SessionStore {
	return &SessionStore{
		cache: cache,
		ttl:   ttl,
	}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("%s%d", utils.CacheSessionPrefix, chatID)
}

// Get returns the chat's conversation state, or an idle state when none is
// stored.
func (s *SessionStore) Get(ctx context.Context, chatID int64) (*ConversationState, error) {
	var state ConversationState
	err := s.cache.Get(ctx, sessionKey(chatID), &state)
	if err != nil {
		if services.IsCacheMiss(err) {
			return &ConversationState{}, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &state, nil
}

func (s *SessionStore) Set(ctx context.Context, chatID int64, state *ConversationState) error {
	if err := s.cache.Set(ctx, sessionKey(chatID), state, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context, chatID int64) error {
	if err := s.cache.Delete(ctx, sessionKey(chatID)); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
