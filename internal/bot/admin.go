package bot

import (
	"context"
	"fmt"
	"strings"

	"ottbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// cmdBroadcast sends "/broadcast [all|premium|free] <message>" to the
// chosen audience. Admin only.
func (b *Bot) cmdBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !b.isAdmin(msg.From.ID) {
		b.reply(chatID, "Unknown command. Try /help.")
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		b.reply(chatID, "Usage: /broadcast [all|premium|free] <message>")
		return
	}

	audience := models.BroadcastAudienceAll
	text := args
	fields := strings.SplitN(args, " ", 2)
	switch models.BroadcastAudience(fields[0]) {
	case models.BroadcastAudienceAll, models.BroadcastAudiencePremium, models.BroadcastAudienceFree:
		if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
			b.reply(chatID, "Usage: /broadcast [all|premium|free] <message>")
			return
		}
		audience = models.BroadcastAudience(fields[0])
		text = fields[1]
	}

	sentBy := msg.From.UserName
	if sentBy == "" {
		sentBy = fmt.Sprintf("%d", msg.From.ID)
	}

	// Delivery is throttled and can take minutes, so it runs in the
	// background instead of blocking the update loop.
	if _, err := b.broadcasts.Start(ctx, text, audience, sentBy, b); err != nil {
		b.logger.WithError(err).Error("broadcast failed")
		b.reply(chatID, "Broadcast failed: "+err.Error())
		return
	}

	b.reply(chatID, fmt.Sprintf("📣 Broadcasting to the %s audience. Counts land in /stats once delivery finishes.", audience))
}

// cmdStats shows the dashboard overview. Admin only.
func (b *Bot) cmdStats(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !b.isAdmin(msg.From.ID) {
		b.reply(chatID, "Unknown command. Try /help.")
		return
	}

	overview, err := b.stats.GetOverview(ctx)
	if err != nil {
		b.logger.WithError(err).Error("failed to compute overview")
		b.reply(chatID, "Could not compute stats: "+err.Error())
		return
	}

	b.reply(chatID, fmt.Sprintf(
		"<b>Overview</b>\n\n"+
			"👥 Users: %d (%d premium)\n"+
			"💳 Payments: %d pending, %d verified\n"+
			"💰 Revenue: ₹%.2f\n"+
			"🔗 Referrals: %d (%d valid)\n"+
			"🔑 Extractions (24h): %d",
		overview.TotalUsers, overview.PremiumUsers,
		overview.PendingPayments, overview.VerifiedPayments,
		overview.TotalRevenue,
		overview.TotalReferrals, overview.ValidReferrals,
		overview.Extractions24h,
	))
}

// cmdPending lists payments awaiting a decision with decision buttons.
// Admin only.
func (b *Bot) cmdPending(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !b.isAdmin(msg.From.ID) {
		b.reply(chatID, "Unknown command. Try /help.")
		return
	}

	payments, err := b.payments.GetPendingPayments(ctx)
	if err != nil {
		b.logger.WithError(err).Error("failed to fetch pending payments")
		b.reply(chatID, "Could not fetch pending payments: "+err.Error())
		return
	}
	if len(payments) == 0 {
		b.reply(chatID, "No pending payments. 🎉")
		return
	}

	for _, payment := range payments {
		text := fmt.Sprintf(
			"💳 <code>%s</code>\nUser: <code>%d</code>\nPlan: %s — ₹%.2f\nCreated: %s",
			payment.ID.Hex(), payment.TelegramID, payment.PlanType, payment.Amount,
			payment.CreatedAt.Format("02 Jan 15:04"),
		)
		if payment.ScreenshotFileID == "" {
			text += "\n⚠️ No screenshot yet"
		}
		b.replyWithKeyboard(chatID, text, paymentDecisionKeyboard(payment.ID.Hex()))
	}
}

func (b *Bot) approvePayment(ctx context.Context, query *tgbotapi.CallbackQuery, paymentIDHex string) {
	chatID := query.Message.Chat.ID
	if !b.isAdmin(query.From.ID) {
		return
	}

	paymentID, err := primitive.ObjectIDFromHex(paymentIDHex)
	if err != nil {
		b.reply(chatID, "Bad payment ID.")
		return
	}

	payment, err := b.payments.GetPayment(ctx, paymentID)
	if err != nil {
		b.reply(chatID, "Payment not found.")
		return
	}

	adminName := query.From.UserName
	if adminName == "" {
		adminName = fmt.Sprintf("%d", query.From.ID)
	}

	decided, subscription, err := b.payments.ApprovePayment(ctx, paymentID, adminName)
	if err != nil {
		b.logger.WithError(err).Error("failed to approve payment")
		b.reply(chatID, "Approval failed: "+err.Error())
		return
	}
	if !decided {
		b.reply(chatID, "This payment was already decided.")
		return
	}

	b.reply(chatID, fmt.Sprintf("✅ Payment <code>%s</code> approved.", paymentIDHex))
	b.reply(payment.TelegramID, fmt.Sprintf(
		"✅ Payment verified! Your <b>%s</b> plan is active until %s. Enjoy!",
		subscription.PlanType, subscription.ExpiryDate.Format("02 Jan 2006"),
	))
}

// beginRejection asks the admin for a reason and stashes the payment ID in
// the admin's session.
func (b *Bot) beginRejection(ctx context.Context, query *tgbotapi.CallbackQuery, paymentIDHex string) {
	chatID := query.Message.Chat.ID
	if !b.isAdmin(query.From.ID) {
		return
	}

	state := &ConversationState{Stage: StageAwaitingReason, PaymentID: paymentIDHex}
	if err := b.sessions.Set(ctx, chatID, state); err != nil {
		b.logger.WithError(err).Error("failed to save session")
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}

	b.reply(chatID, fmt.Sprintf("Send the rejection reason for <code>%s</code> (or /cancel):", paymentIDHex))
}

func (b *Bot) finishRejection(ctx context.Context, msg *tgbotapi.Message, state *ConversationState) {
	chatID := msg.Chat.ID
	if !b.isAdmin(msg.From.ID) {
		return
	}

	reason := strings.TrimSpace(msg.Text)
	if reason == "" {
		b.reply(chatID, "The reason cannot be empty. Try again or /cancel.")
		return
	}

	paymentID, err := primitive.ObjectIDFromHex(state.PaymentID)
	if err != nil {
		b.reply(chatID, "Bad payment ID in session, start over from /pending.")
		if err := b.sessions.Clear(ctx, chatID); err != nil {
			b.logger.WithError(err).Warn("failed to clear session")
		}
		return
	}

	payment, err := b.payments.GetPayment(ctx, paymentID)
	if err != nil {
		b.reply(chatID, "Payment not found.")
		return
	}

	adminName := msg.From.UserName
	if adminName == "" {
		adminName = fmt.Sprintf("%d", msg.From.ID)
	}

	decided, err := b.payments.RejectPayment(ctx, paymentID, adminName, reason)
	if err != nil {
		b.logger.WithError(err).Error("failed to reject payment")
		b.reply(chatID, "Rejection failed: "+err.Error())
		return
	}

	if err := b.sessions.Clear(ctx, chatID); err != nil {
		b.logger.WithError(err).Warn("failed to clear session")
	}

	if !decided {
		b.reply(chatID, "This payment was already decided.")
		return
	}

	b.reply(chatID, fmt.Sprintf("❌ Payment <code>%s</code> rejected.", state.PaymentID))
	b.reply(payment.TelegramID, fmt.Sprintf(
		"❌ Your payment was rejected.\nReason: %s\n\nIf this looks wrong, send a clearer screenshot or contact support.",
		reason,
	))
}
