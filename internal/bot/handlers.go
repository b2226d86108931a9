package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ottbot/internal/models"
	"ottbot/internal/services"
	"ottbot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func profileFromUser(from *tgbotapi.User) *services.TelegramProfile {
	return &services.TelegramProfile{
		TelegramID: from.ID,
		Username:   from.UserName,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.logger.LogBotUpdate(chatID, "command", map[string]interface{}{"command": msg.Command()})

	switch msg.Command() {
	case "start":
		b.cmdStart(ctx, msg)
	case "help":
		b.cmdHelp(chatID)
	case "plans":
		b.cmdPlans(ctx, chatID)
	case "myplan":
		b.cmdMyPlan(ctx, chatID, msg.From.ID)
	case "refer":
		b.cmdRefer(ctx, chatID, msg.From.ID)
	case "quota":
		b.cmdQuota(ctx, chatID, msg.From.ID)
	case "extract":
		b.cmdExtract(ctx, chatID)
	case "cancel":
		if err := b.sessions.Clear(ctx, chatID); err != nil {
			b.logger.WithError(err).Warn("failed to clear session")
		}
		b.reply(chatID, "Cancelled.")
	case "broadcast":
		b.cmdBroadcast(ctx, msg)
	case "stats":
		b.cmdStats(ctx, msg)
	case "pending":
		b.cmdPending(ctx, msg)
	default:
		b.reply(chatID, "Unknown command. Try /help.")
	}
}

func (b *Bot) cmdStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	profile := profileFromUser(msg.From)

	user, created, err := b.users.EnsureUser(ctx, profile)
	if err != nil {
		b.logger.WithError(err).Error("failed to ensure user")
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}

	// A deep-link payload carries the referrer's code: t.me/<bot>?start=REFXXXXXXXX
	payload := strings.TrimSpace(msg.CommandArguments())
	if created && payload != "" {
		recorded, err := b.referrals.RecordReferral(ctx, payload, profile)
		if err != nil {
			b.logger.WithError(err).Warn("failed to record referral")
		} else if recorded {
			b.reply(chatID, "🎉 You joined via a referral link. Your friend gets credit once you make your first purchase!")
		}
	}

	greeting := fmt.Sprintf(
		"👋 Welcome, <b>%s</b>!\n\n"+
			"I sell OTT subscription bundles and extract Widevine keys.\n\n"+
			"• /plans — browse subscription bundles\n"+
			"• /extract — extract content keys\n"+
			"• /refer — earn free premium\n"+
			"• /help — everything else",
		user.FirstName,
	)
	b.replyWithKeyboard(chatID, greeting, mainMenuKeyboard())
}

func (b *Bot) cmdHelp(chatID int64) {
	help := "<b>Commands</b>\n\n" +
		"/plans — subscription bundles and prices\n" +
		"/myplan — your active subscriptions\n" +
		"/refer — your referral code and rewards\n" +
		"/quota — today's extraction quota\n" +
		"/extract — extract Widevine keys\n" +
		"/cancel — abort the current flow\n\n" +
		"To pay, pick a plan, pay via UPI and send the payment screenshot here."
	if b.cfg.Telegram.SupportChatURL != "" {
		help += "\n\nSupport: " + b.cfg.Telegram.SupportChatURL
	}
	b.reply(chatID, help)
}

func (b *Bot) cmdPlans(ctx context.Context, chatID int64) {
	plans, err := b.subscriptions.GetActivePlans(ctx)
	if err != nil {
		b.logger.WithError(err).Error("failed to load plans")
		b.reply(chatID, "Could not load plans, please try again.")
		return
	}
	if len(plans) == 0 {
		b.reply(chatID, "No plans available right now, check back soon.")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>Available bundles</b>\n\n")
	for _, plan := range plans {
		sb.WriteString(fmt.Sprintf("<b>%s</b> — ₹%.0f for %d days\n", plan.PlanName, plan.Price, plan.DurationDays))
		if len(plan.Platforms) > 0 {
			sb.WriteString("  " + strings.Join(plan.Platforms, ", ") + "\n")
		}
	}
	sb.WriteString("\nPick a plan to get UPI payment details:")
	b.replyWithKeyboard(chatID, sb.String(), plansKeyboard(plans))
}

func (b *Bot) cmdMyPlan(ctx context.Context, chatID, telegramID int64) {
	now := time.Now().UTC()

	// Sync stored is_active flags before showing the summary.
	if err := b.subscriptions.RefreshFlags(ctx, telegramID, now); err != nil {
		b.logger.WithError(err).WithField("telegram_id", telegramID).Warn("failed to refresh subscription flags")
	}

	status, err := b.subscriptions.GetStatus(ctx, telegramID, now)
	if err != nil {
		b.reply(chatID, "You are not registered yet. Send /start first.")
		return
	}

	if !status.IsPremium {
		b.replyWithKeyboard(chatID, "You have no active subscription. Browse /plans to get one!", mainMenuKeyboard())
		return
	}

	b.reply(chatID, myPlanSummary(status, now))
}

func myPlanSummary(status *services.SubscriptionStatus, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("<b>Your subscriptions</b>\n\n")
	for _, sub := range status.Subscriptions {
		if sub.Expired(now) {
			continue
		}
		sb.WriteString(fmt.Sprintf("• %s — expires %s\n", sub.PlanType, sub.ExpiryDate.Format("02 Jan 2006")))
	}
	sb.WriteString(fmt.Sprintf("\n⏳ %d days remaining\n💰 Total spent: ₹%.0f", status.DaysRemaining, status.TotalSpent))
	return sb.String()
}

func (b *Bot) cmdRefer(ctx context.Context, chatID, telegramID int64) {
	stats, err := b.referrals.GetOrCreateStats(ctx, telegramID)
	if err != nil {
		b.logger.WithError(err).Error("failed to load referral stats")
		b.reply(chatID, "Could not load your referral stats, please try again.")
		return
	}

	rewards, err := b.referrals.CheckRewards(ctx, telegramID)
	if err != nil {
		b.logger.WithError(err).Error("failed to compute rewards")
		b.reply(chatID, "Could not load your referral stats, please try again.")
		return
	}

	link := fmt.Sprintf("https://t.me/%s?start=%s", b.Username(), stats.ReferralCode)
	text := fmt.Sprintf(
		"<b>Refer & Earn</b>\n\n"+
			"Your code: <code>%s</code>\n"+
			"Your link: %s\n\n"+
			"✅ Valid referrals: %d\n"+
			"⏳ Progress to next reward: %d/%d\n"+
			"🎁 Rewards earned: %d\n\n"+
			"Every %d friends who join and buy a plan earn you %d days of premium.",
		stats.ReferralCode, link,
		rewards.ValidReferrals,
		rewards.Progress, rewards.RequiredCount,
		rewards.RewardsEarned,
		rewards.RequiredCount, b.cfg.Referral.RewardDays,
	)

	if rewards.PendingRewards > 0 {
		text += fmt.Sprintf("\n\n🎉 You have <b>%d</b> unclaimed reward(s)!", rewards.PendingRewards)
		b.replyWithKeyboard(chatID, text, claimKeyboard())
		return
	}
	b.reply(chatID, text)
}

func (b *Bot) cmdQuota(ctx context.Context, chatID, telegramID int64) {
	status, err := b.quota.GetStatus(ctx, telegramID)
	if err != nil {
		b.logger.WithError(err).Error("failed to load quota")
		b.reply(chatID, "Could not load your quota, please try again.")
		return
	}

	text := fmt.Sprintf(
		"<b>Today's quota</b>\n\n"+
			"Used: %d / %d\n"+
			"Remaining: %d\n"+
			"Resets: %s UTC",
		status.UsedToday, status.DailyLimit,
		status.Remaining,
		status.ResetsAt.Format("02 Jan 15:04"),
	)
	if total, err := b.extractions.CountUserExtractions(ctx, telegramID); err == nil && total > 0 {
		text += fmt.Sprintf("\nAll-time extractions: %d", total)
	}
	if !status.HasQuota {
		text += "\n\n⚠️ Quota exhausted. Upgrade via /plans for a higher daily limit."
	}
	b.reply(chatID, text)
}

func (b *Bot) cmdExtract(ctx context.Context, chatID int64) {
	state := &ConversationState{Stage: StageAwaitingPSSH}
	if err := b.sessions.Set(ctx, chatID, state); err != nil {
		b.logger.WithError(err).Error("failed to save session")
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}

	b.reply(chatID, "Send the extraction request, one value per line:\n\n"+
		"<code>PSSH\nlicense URL\nmanifest URL (optional)</code>\n\n"+
		"Send /cancel to abort.")
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	state, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		b.logger.WithError(err).Warn("failed to load session")
		return
	}

	switch state.Stage {
	case StageAwaitingPSSH:
		b.runExtraction(ctx, msg)
	case StageAwaitingReason:
		b.finishRejection(ctx, msg, state)
	default:
		b.replyWithKeyboard(chatID, "Pick an option or send /help:", mainMenuKeyboard())
	}
}

func (b *Bot) runExtraction(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	lines := strings.Split(strings.TrimSpace(msg.Text), "\n")
	if len(lines) < 2 {
		b.reply(chatID, "I need at least the PSSH and the license URL, one per line.")
		return
	}

	req := &services.ExtractRequest{
		TelegramID: msg.From.ID,
		PSSH:       strings.TrimSpace(lines[0]),
		LicenseURL: strings.TrimSpace(lines[1]),
	}
	if len(lines) > 2 {
		req.ManifestURL = strings.TrimSpace(lines[2])
	}

	if err := b.sessions.Clear(ctx, chatID); err != nil {
		b.logger.WithError(err).Warn("failed to clear session")
	}

	extraction, err := b.extractions.ExtractKeys(ctx, req)
	if err != nil {
		if errors.Is(err, services.ErrQuotaExceeded) {
			b.reply(chatID, "⚠️ Daily quota exhausted. Upgrade via /plans for a higher limit.")
			return
		}
		b.logger.WithError(err).Error("extraction failed")
		b.reply(chatID, "Extraction failed: "+err.Error())
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔑 <b>Keys extracted</b> (%s)\n\n", extraction.Platform))
	for _, key := range extraction.Keys {
		sb.WriteString(fmt.Sprintf("<code>%s:%s</code>\n", key.KID, key.Key))
	}
	sb.WriteString(fmt.Sprintf("\nRecommended quality: <b>%s</b>\nPick one to start the download:", extraction.RecommendedQuality))
	b.replyWithKeyboard(chatID, sb.String(), qualitiesKeyboard(extraction))
}

// handlePhoto treats any photo as a payment screenshot for the user's
// latest pending payment.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	payment, err := b.payments.GetLatestPendingForUser(ctx, msg.From.ID)
	if err != nil {
		b.reply(chatID, "I couldn't find a pending payment for you. Pick a plan with /plans first.")
		return
	}

	// Largest rendition is last.
	fileID := msg.Photo[len(msg.Photo)-1].FileID

	screenshot, err := b.downloadPhoto(fileID)
	if err != nil {
		b.logger.WithError(err).Warn("failed to download screenshot, keeping file ID only")
	}

	if err := b.payments.AttachProof(ctx, payment.ID, fileID, screenshot); err != nil {
		b.logger.WithError(err).Error("failed to attach proof")
		b.reply(chatID, "Could not save your screenshot, please try again.")
		return
	}

	b.reply(chatID, "📸 Screenshot received! Your payment is under review, you'll hear from us shortly.")

	username := msg.From.UserName
	if username == "" {
		username = msg.From.FirstName
	}
	notice := fmt.Sprintf(
		"💳 <b>Payment proof received</b>\n\n"+
			"User: @%s (<code>%d</code>)\n"+
			"Plan: %s\n"+
			"Amount: ₹%.2f\n"+
			"Payment: <code>%s</code>",
		username, msg.From.ID,
		payment.PlanType, payment.Amount, payment.ID.Hex(),
	)
	keyboard := paymentDecisionKeyboard(payment.ID.Hex())
	b.notifyAdmins(notice, &keyboard)
}

func (b *Bot) downloadPhoto(fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file URL: %w", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d downloading file", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, utils.MaxScreenshotSize))
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Ack immediately so the client stops the spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.WithError(err).Warn("failed to answer callback")
	}

	// Stale callbacks arrive without the originating message.
	if query.Message == nil {
		return
	}

	chatID := query.Message.Chat.ID
	data := query.Data

	switch {
	case data == callbackPlans:
		b.cmdPlans(ctx, chatID)
	case data == callbackMyPlan:
		b.cmdMyPlan(ctx, chatID, query.From.ID)
	case data == callbackRefer:
		b.cmdRefer(ctx, chatID, query.From.ID)
	case data == callbackQuota:
		b.cmdQuota(ctx, chatID, query.From.ID)
	case data == callbackClaimReward:
		b.claimReward(ctx, chatID, query.From.ID)
	default:
		if planID, ok := splitCallback(data, callbackPlanPrefix); ok {
			b.buyPlan(ctx, chatID, query.From, planID)
			return
		}
		if payload, ok := splitCallback(data, callbackDownloadPrefix); ok {
			b.startDownload(ctx, chatID, query.From.ID, payload)
			return
		}
		if paymentID, ok := splitCallback(data, callbackApprovePrefix); ok {
			b.approvePayment(ctx, query, paymentID)
			return
		}
		if paymentID, ok := splitCallback(data, callbackRejectPrefix); ok {
			b.beginRejection(ctx, query, paymentID)
			return
		}
	}
}

func (b *Bot) buyPlan(ctx context.Context, chatID int64, from *tgbotapi.User, planID string) {
	plans, err := b.subscriptions.GetActivePlans(ctx)
	if err != nil {
		b.logger.WithError(err).Error("failed to load plans")
		b.reply(chatID, "Could not load the plan, please try again.")
		return
	}

	var plan *models.SubscriptionPlan
	for _, p := range plans {
		if p.ID.Hex() == planID {
			plan = p
			break
		}
	}
	if plan == nil {
		b.reply(chatID, "That plan is no longer available. See /plans for current offers.")
		return
	}

	user, _, err := b.users.EnsureUser(ctx, profileFromUser(from))
	if err != nil {
		b.logger.WithError(err).Error("failed to ensure user")
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}

	details, err := b.payments.CreatePayment(ctx, &services.CreatePaymentRequest{
		UserID:     user.ID,
		TelegramID: from.ID,
		Amount:     plan.Price,
		PlanType:   plan.PlanType,
		Platforms:  plan.Platforms,
	})
	if err != nil {
		b.logger.WithError(err).Error("failed to create payment")
		b.reply(chatID, "Could not start the payment, please try again.")
		return
	}

	caption := details.Instructions
	if details.PaymentLinkURL != "" {
		caption += "\n\nOr pay online: " + details.PaymentLinkURL
	}
	b.replyWithPhoto(chatID, caption, details.QRCode, nil)
}

func (b *Bot) startDownload(ctx context.Context, chatID, telegramID int64, payload string) {
	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 {
		return
	}
	extractionID, quality := parts[0], parts[1]

	extraction, err := b.extractions.StartDownload(ctx, telegramID, extractionID, quality)
	if err != nil {
		if errors.Is(err, services.ErrQuotaExceeded) {
			b.reply(chatID, "⚠️ Daily quota exhausted. Upgrade via /plans for a higher limit.")
			return
		}
		b.logger.WithError(err).Warn("failed to start download")
		b.reply(chatID, "Could not start the download: "+err.Error())
		return
	}

	var size float64
	for _, q := range extraction.AvailableQualities {
		if q.QualityID == extraction.DownloadedQuality {
			size = q.FileSizeMB
			break
		}
	}
	b.reply(chatID, fmt.Sprintf("⬇️ Download ready in <b>%s</b> (~%.0f MB). Keys above decrypt the stream.", extraction.DownloadedQuality, size))
}

func (b *Bot) claimReward(ctx context.Context, chatID, telegramID int64) {
	claimed, subscription, err := b.referrals.ClaimReward(ctx, telegramID)
	if err != nil {
		b.logger.WithError(err).Error("failed to claim reward")
		b.reply(chatID, "Could not claim the reward, please try again.")
		return
	}
	if !claimed {
		b.reply(chatID, "Nothing to claim yet. Keep referring — check /refer for progress.")
		return
	}

	b.reply(chatID, fmt.Sprintf(
		"🎉 Reward claimed! <b>%d days</b> of premium added, valid until %s.",
		b.cfg.Referral.RewardDays,
		subscription.ExpiryDate.Format("02 Jan 2006"),
	))
}
