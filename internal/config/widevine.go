package config

import "time"

type WidevineConfig struct {
	APIKey  string        `yaml:"api_key"`
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
}

func loadWidevineConfig() *WidevineConfig {
	return &WidevineConfig{
		APIKey:  getEnv("WIDEVINE_API_KEY", "wv_mock_key_12345"),
		APIURL:  getEnv("WIDEVINE_API_URL", "https://api.example.com"),
		Timeout: getEnvAsDuration("WIDEVINE_TIMEOUT", 30*time.Second),
	}
}
