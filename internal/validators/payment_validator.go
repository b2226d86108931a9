package validators

type PaymentCreateRequest struct {
	TelegramID int64    `json:"telegram_id" validate:"required"`
	Amount     float64  `json:"amount" validate:"required,upi_amount"`
	PlanType   string   `json:"plan_type" validate:"required,plan_type"`
	Platforms  []string `json:"platforms" validate:"omitempty,max=10,dive,min=2,max=50"`
}

type PaymentRejectRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}

type GrantDaysRequest struct {
	PlanType string `json:"plan_type" validate:"required,plan_type"`
	Days     int    `json:"days" validate:"required,min=1,max=3650"`
}

type PlatformSaveRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=50"`
	DisplayName string   `json:"display_name" validate:"omitempty,max=100"`
	Icon        string   `json:"icon" validate:"omitempty,max=10"`
	Country     string   `json:"country" validate:"omitempty,max=50"`
	MonthlyPlan *float64 `json:"monthly_plan" validate:"omitempty,min=0"`
	YearlyPlan  *float64 `json:"yearly_plan" validate:"omitempty,min=0"`
	Features    []string `json:"features" validate:"omitempty,max=20"`
	WebsiteURL  string   `json:"website_url" validate:"omitempty,url"`
}

type PlanCreateRequest struct {
	PlanName     string   `json:"plan_name" validate:"required,min=3,max=100"`
	PlanType     string   `json:"plan_type" validate:"required,plan_type"`
	Platforms    []string `json:"platforms" validate:"omitempty,max=20,dive,min=2,max=50"`
	Price        float64  `json:"price" validate:"required,upi_amount"`
	DurationDays int      `json:"duration_days" validate:"required,min=1,max=3650"`
	Features     []string `json:"features" validate:"omitempty,max=20"`
}
