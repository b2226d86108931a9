package validators

type ExtractKeysRequest struct {
	TelegramID  int64             `json:"telegram_id" validate:"required"`
	PSSH        string            `json:"pssh" validate:"required,pssh"`
	LicenseURL  string            `json:"license_url" validate:"required,url"`
	ManifestURL string            `json:"manifest_url" validate:"omitempty,url"`
	Headers     map[string]string `json:"headers" validate:"omitempty,max=20"`
}

type StartDownloadRequest struct {
	TelegramID   int64  `json:"telegram_id" validate:"required"`
	ExtractionID string `json:"extraction_id" validate:"required,min=4,max=64"`
	Quality      string `json:"quality" validate:"omitempty,quality_id"`
}

type ConfigSaveRequest struct {
	UserID         string `json:"user_id" validate:"required,min=1,max=64"`
	WidevineAPIKey string `json:"widevine_api_key" validate:"omitempty,max=200"`
	TelegramChatID int64  `json:"telegram_chat_id" validate:"omitempty"`
}
