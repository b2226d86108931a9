package config

import "time"

type TelegramConfig struct {
	BotToken       string        `yaml:"bot_token"`
	AdminIDs       []int64       `yaml:"admin_ids"`
	LogChannelID   int64         `yaml:"log_channel_id"`
	UpdateTimeout  int           `yaml:"update_timeout"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	Debug          bool          `yaml:"debug"`
	BotUsername    string        `yaml:"bot_username"`
	SupportChatURL string        `yaml:"support_chat_url"`
}

func loadTelegramConfig() *TelegramConfig {
	return &TelegramConfig{
		BotToken:       getEnv("TELEGRAM_BOT_TOKEN", ""),
		AdminIDs:       getEnvAsInt64Slice("TELEGRAM_ADMIN_IDS", nil),
		LogChannelID:   getEnvAsInt64("TELEGRAM_LOG_CHANNEL_ID", 0),
		UpdateTimeout:  getEnvAsInt("TELEGRAM_UPDATE_TIMEOUT", 60),
		SessionTTL:     getEnvAsDuration("TELEGRAM_SESSION_TTL", 30*time.Minute),
		Debug:          getEnvAsBool("TELEGRAM_DEBUG", false),
		BotUsername:    getEnv("TELEGRAM_BOT_USERNAME", ""),
		SupportChatURL: getEnv("TELEGRAM_SUPPORT_CHAT_URL", ""),
	}
}
