package config

type ReferralConfig struct {
	// RewardThreshold is how many valid referrals earn one reward unit.
	RewardThreshold int `yaml:"reward_threshold"`
	// RewardDays is the premium time granted per claimed reward.
	RewardDays int    `yaml:"reward_days"`
	RewardPlan string `yaml:"reward_plan"`
}

func loadReferralConfig() *ReferralConfig {
	return &ReferralConfig{
		RewardThreshold: getEnvAsInt("REFERRAL_COUNT", 20),
		RewardDays:      getEnvAsInt("REFERRAL_REWARD_DAYS", 30),
		RewardPlan:      getEnv("REFERRAL_REWARD_PLAN", "monthly"),
	}
}

type QuotaConfig struct {
	FreeDailyLimit    int `yaml:"free_daily_limit"`
	PremiumDailyLimit int `yaml:"premium_daily_limit"`
	AdminDailyLimit   int `yaml:"admin_daily_limit"`
}

func loadQuotaConfig() *QuotaConfig {
	return &QuotaConfig{
		FreeDailyLimit:    getEnvAsInt("FREE_USER_LIMIT", 3),
		PremiumDailyLimit: getEnvAsInt("PREMIUM_USER_LIMIT", 50),
		AdminDailyLimit:   getEnvAsInt("ADMIN_USER_LIMIT", 1000),
	}
}
