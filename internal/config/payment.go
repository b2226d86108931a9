package config

type PaymentConfig struct {
	AdminUPIID            string `yaml:"admin_upi_id"`
	PayeeName             string `yaml:"payee_name"`
	RazorpayKeyID         string `yaml:"razorpay_key_id"`
	RazorpayKeySecret     string `yaml:"razorpay_key_secret"`
	RazorpayWebhookSecret string `yaml:"razorpay_webhook_secret"`
	PaymentLinks          bool   `yaml:"payment_links"`
}

func loadPaymentConfig() *PaymentConfig {
	return &PaymentConfig{
		AdminUPIID:            getEnv("ADMIN_UPI_ID", "admin@upi"),
		PayeeName:             getEnv("UPI_PAYEE_NAME", "OTT Subscription"),
		RazorpayKeyID:         getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayWebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
		PaymentLinks:          getEnvAsBool("RAZORPAY_PAYMENT_LINKS", false),
	}
}
