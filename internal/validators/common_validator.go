package validators

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validation functions
	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("referral_code", validateReferralCode)
	validate.RegisterValidation("plan_type", validatePlanType)
	validate.RegisterValidation("quality_id", validateQualityID)
	validate.RegisterValidation("upi_amount", validateUPIAmount)
	validate.RegisterValidation("pssh", validatePSSH)
}

var (
	referralCodeRe = regexp.MustCompile(`^REF[A-Z0-9]{8}$`)
	qualityIDRe    = regexp.MustCompile(`^(\d{3,4}p|4k)$`)
	psshRe         = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)
)

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// ToMap flattens the errors into field -> message, the shape the API's
// validation error envelope expects.
func (v ValidationErrors) ToMap() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		out[err.Field] = err.Message
	}
	return out
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, ValidationError{
				Field:   err.Field(),
				Tag:     err.Tag(),
				Value:   fmt.Sprintf("%v", err.Value()),
				Message: getErrorMessage(err),
			})
		}
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "url":
		return "must be a valid URL"
	case "object_id":
		return "must be a valid object ID"
	case "referral_code":
		return "must be a valid referral code"
	case "plan_type":
		return "must be a known plan type"
	case "quality_id":
		return "must be a quality label like 720p or 4k"
	case "upi_amount":
		return "must be a payable amount"
	case "pssh":
		return "must be a base64 PSSH box"
	default:
		return fmt.Sprintf("failed %s validation", err.Tag())
	}
}

func validateObjectID(fl validator.FieldLevel) bool {
	_, err := primitive.ObjectIDFromHex(fl.Field().String())
	return err == nil
}

func validateReferralCode(fl validator.FieldLevel) bool {
	return referralCodeRe.MatchString(strings.ToUpper(fl.Field().String()))
}

func validatePlanType(fl validator.FieldLevel) bool {
	value := strings.ToLower(strings.TrimSpace(fl.Field().String()))
	if value == "" {
		return false
	}
	for _, known := range []string{"weekly", "monthly", "yearly"} {
		if strings.Contains(value, known) {
			return true
		}
	}
	// Custom plan names are accepted, the duration falls back to monthly.
	return len(value) <= 50
}

func validateQualityID(fl validator.FieldLevel) bool {
	return qualityIDRe.MatchString(fl.Field().String())
}

func validateUPIAmount(fl validator.FieldLevel) bool {
	amount := fl.Field().Float()
	return amount >= 1.0 && amount <= 100000.0
}

func validatePSSH(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return len(value) >= 4 && psshRe.MatchString(value)
}
