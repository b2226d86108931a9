package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeysRequestValidation(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		errs := ValidateStruct(&ExtractKeysRequest{
			TelegramID: 12345,
			PSSH:       "AAAAW3Bzc2gAAAAA7e+LqXnWSs6jyCfc1R0h7QAAADsIARIQ",
			LicenseURL: "https://example.com/license",
		})
		assert.Empty(t, errs)
	})

	t.Run("missing license URL", func(t *testing.T) {
		errs := ValidateStruct(&ExtractKeysRequest{
			TelegramID: 12345,
			PSSH:       "AAAAW3Bzc2g=",
		})
		require.NotEmpty(t, errs)
		assert.Equal(t, "LicenseURL", errs[0].Field)
	})

	t.Run("garbage PSSH", func(t *testing.T) {
		errs := ValidateStruct(&ExtractKeysRequest{
			TelegramID: 12345,
			PSSH:       "not base64 at all!!",
			LicenseURL: "https://example.com/license",
		})
		require.NotEmpty(t, errs)
		assert.Equal(t, "PSSH", errs[0].Field)
	})
}

func TestStartDownloadRequestValidation(t *testing.T) {
	t.Run("quality is optional", func(t *testing.T) {
		errs := ValidateStruct(&StartDownloadRequest{
			TelegramID:   12345,
			ExtractionID: "ext_abcdef0123456789",
		})
		assert.Empty(t, errs)
	})

	t.Run("bogus quality label", func(t *testing.T) {
		errs := ValidateStruct(&StartDownloadRequest{
			TelegramID:   12345,
			ExtractionID: "ext_abcdef0123456789",
			Quality:      "best",
		})
		require.NotEmpty(t, errs)
		assert.Equal(t, "Quality", errs[0].Field)
	})

	t.Run("4k is a valid label", func(t *testing.T) {
		errs := ValidateStruct(&StartDownloadRequest{
			TelegramID:   12345,
			ExtractionID: "ext_abcdef0123456789",
			Quality:      "4k",
		})
		assert.Empty(t, errs)
	})
}

func TestPaymentCreateRequestValidation(t *testing.T) {
	t.Run("amount outside UPI range", func(t *testing.T) {
		errs := ValidateStruct(&PaymentCreateRequest{
			TelegramID: 12345,
			Amount:     0.5,
			PlanType:   "monthly",
		})
		require.NotEmpty(t, errs)
		assert.Equal(t, "Amount", errs[0].Field)
	})

	t.Run("plan type variants pass", func(t *testing.T) {
		for _, planType := range []string{"weekly", "Monthly", "super yearly deal", "festival combo"} {
			errs := ValidateStruct(&PaymentCreateRequest{
				TelegramID: 12345,
				Amount:     299,
				PlanType:   planType,
			})
			assert.Empty(t, errs, planType)
		}
	})
}

func TestBroadcastRequestValidation(t *testing.T) {
	errs := ValidateStruct(&BroadcastRequest{Message: "hello", Audience: "premium"})
	assert.Empty(t, errs)

	errs = ValidateStruct(&BroadcastRequest{Message: "hello", Audience: "bots"})
	require.NotEmpty(t, errs)
	assert.Equal(t, "Audience", errs[0].Field)

	errs = ValidateStruct(&BroadcastRequest{Audience: "all"})
	require.NotEmpty(t, errs)
	assert.Equal(t, "Message", errs[0].Field)
}

func TestValidationErrorsToMap(t *testing.T) {
	errs := ValidateStruct(&AdminLoginRequest{Username: "ab", Password: "short"})
	require.Len(t, errs, 2)

	m := errs.ToMap()
	assert.Contains(t, m, "Username")
	assert.Contains(t, m, "Password")
	assert.Contains(t, errs.Error(), "Username")
}
