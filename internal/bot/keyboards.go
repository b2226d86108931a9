package bot

import (
	"fmt"
	"strings"

	"ottbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data prefixes. Payment decisions carry the payment's hex ID,
// downloads carry "<extraction_id>:<quality>".
const (
	callbackPlanPrefix     = "plan:"
	callbackApprovePrefix  = "approve:"
	callbackRejectPrefix   = "reject:"
	callbackDownloadPrefix = "dl:"
	callbackClaimReward    = "claim_reward"
	callbackMyPlan         = "my_plan"
	callbackRefer          = "refer"
	callbackQuota          = "quota"
	callbackPlans          = "plans"
)

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📺 Plans", callbackPlans),
			tgbotapi.NewInlineKeyboardButtonData("💳 My Plan", callbackMyPlan),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎁 Refer & Earn", callbackRefer),
			tgbotapi.NewInlineKeyboardButtonData("📊 Quota", callbackQuota),
		),
	)
}

func plansKeyboard(plans []*models.SubscriptionPlan) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(plans))
	for _, plan := range plans {
		label := fmt.Sprintf("%s — ₹%.0f / %d days", plan.PlanName, plan.Price, plan.DurationDays)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callbackPlanPrefix+plan.ID.Hex()),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func qualitiesKeyboard(extraction *models.Extraction) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, (len(extraction.AvailableQualities)+2)/3)
	row := make([]tgbotapi.InlineKeyboardButton, 0, 3)
	for _, q := range extraction.AvailableQualities {
		label := q.QualityID
		if q.QualityID == extraction.RecommendedQuality {
			label = "⭐ " + label
		}
		data := callbackDownloadPrefix + extraction.ExtractionID + ":" + q.QualityID
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, data))
		if len(row) == 3 {
			rows = append(rows, row)
			row = make([]tgbotapi.InlineKeyboardButton, 0, 3)
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func paymentDecisionKeyboard(paymentID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", callbackApprovePrefix+paymentID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", callbackRejectPrefix+paymentID),
		),
	)
}

func claimKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎁 Claim reward", callbackClaimReward),
		),
	)
}

// splitCallback splits "<prefix><payload>" callback data, reporting whether
// the data carried the prefix.
func splitCallback(data, prefix string) (string, bool) {
	if !strings.HasPrefix(data, prefix) {
		return "", false
	}
	return strings.TrimPrefix(data, prefix), true
}
