package bot

import (
	"context"
	"fmt"

	"ottbot/internal/config"
	"ottbot/internal/services"
	"ottbot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot is the Telegram front end. It long-polls for updates and drives the
// subscription, payment, referral and extraction flows.
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.Config
	sessions *SessionStore
	logger   *logger.Logger

	users         services.UserService
	subscriptions services.SubscriptionService
	payments      services.PaymentService
	referrals     services.ReferralService
	quota         services.QuotaService
	extractions   services.ExtractionService
	broadcasts    services.BroadcastService
	stats         services.StatsService

	adminIDs map[int64]bool
}

// Services bundles the service layer the bot depends on.
type Services struct {
	Users         services.UserService
	Subscriptions services.SubscriptionService
	Payments      services.PaymentService
	Referrals     services.ReferralService
	Quota         services.QuotaService
	Extractions   services.ExtractionService
	Broadcasts    services.BroadcastService
	Stats         services.StatsService
}

func New(cfg *config.Config, svcs *Services, sessions *SessionStore, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	api.Debug = cfg.Telegram.Debug

	adminIDs := make(map[int64]bool, len(cfg.Telegram.AdminIDs))
	for _, id := range cfg.Telegram.AdminIDs {
		adminIDs[id] = true
	}

	return &Bot{
		api:           api,
		cfg:           cfg,
		sessions:      sessions,
		logger:        log,
		users:         svcs.Users,
		subscriptions: svcs.Subscriptions,
		payments:      svcs.Payments,
		referrals:     svcs.Referrals,
		quota:         svcs.Quota,
		extractions:   svcs.Extractions,
		broadcasts:    svcs.Broadcasts,
		stats:         svcs.Stats,
		adminIDs:      adminIDs,
	}, nil
}

// Username returns the bot's Telegram username as reported by the API.
func (b *Bot) Username() string {
	if b.cfg.Telegram.BotUsername != "" {
		return b.cfg.Telegram.BotUsername
	}
	return b.api.Self.UserName
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.cfg.Telegram.UpdateTimeout

	updates := b.api.GetUpdatesChan(updateConfig)
	b.logger.WithField("username", b.api.Self.UserName).Info("bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("panic handling update %d: %v", update.UpdateID, r)
		}
	}()

	if msg := update.Message; msg != nil && msg.From != nil {
		if err := b.users.TouchLastActive(ctx, msg.From.ID); err != nil {
			b.logger.WithError(err).WithField("telegram_id", msg.From.ID).Debug("failed to touch last active")
		}
	}

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil && len(update.Message.Photo) > 0:
		b.handlePhoto(ctx, update.Message)
	case update.Message != nil && update.Message.Text != "":
		b.handleText(ctx, update.Message)
	}
}

// SendMessage implements services.MessageSender for broadcasts.
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.SendMessage(chatID, text); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Warn("failed to send message")
	}
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Warn("failed to send message")
	}
}

func (b *Bot) replyWithPhoto(chatID int64, caption string, photo []byte, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "qr.png", Bytes: photo})
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Warn("failed to send photo")
	}
}

// notifyAdmins fans a message with an optional keyboard out to every
// configured admin chat.
func (b *Bot) notifyAdmins(text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	for adminID := range b.adminIDs {
		msg := tgbotapi.NewMessage(adminID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		if keyboard != nil {
			msg.ReplyMarkup = *keyboard
		}
		if _, err := b.api.Send(msg); err != nil {
			b.logger.WithError(err).WithField("admin_id", adminID).Warn("failed to notify admin")
		}
	}
}

func (b *Bot) isAdmin(telegramID int64) bool {
	return b.adminIDs[telegramID]
}
