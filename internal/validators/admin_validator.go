package validators

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type BroadcastRequest struct {
	Message  string `json:"message" validate:"required,min=1,max=4096"`
	Audience string `json:"audience" validate:"omitempty,oneof=all premium free"`
}

type PreferencesUpdateRequest struct {
	PreferredLanguages    []string `json:"preferred_languages" validate:"omitempty,max=10,dive,min=2,max=30"`
	PreferredGenres       []string `json:"preferred_genres" validate:"omitempty,max=20,dive,min=2,max=50"`
	PreferredPlatforms    []string `json:"preferred_platforms" validate:"omitempty,max=20,dive,min=2,max=50"`
	NotificationFrequency string   `json:"notification_frequency" validate:"omitempty,oneof=daily weekly never"`
	NotificationTime      string   `json:"notification_time" validate:"omitempty,datetime=15:04"`
	Region                string   `json:"region" validate:"omitempty,max=50"`
}
