package payment

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUPIURI(t *testing.T) {
	uri := BuildUPIURI(&UPIRequest{
		UPIID:         "merchant@upi",
		PayeeName:     "OTT Subscription",
		Amount:        299,
		TransactionID: "abc123",
	})

	require.True(t, strings.HasPrefix(uri, "upi://pay?"))

	parsed, err := url.Parse(uri)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "merchant@upi", q.Get("pa"))
	assert.Equal(t, "OTT Subscription", q.Get("pn"))
	assert.Equal(t, "299.00", q.Get("am"))
	assert.Equal(t, "INR", q.Get("cu"))
	assert.Equal(t, "abc123", q.Get("tn"))
}

func TestBuildUPIURIWithoutTransaction(t *testing.T) {
	uri := BuildUPIURI(&UPIRequest{UPIID: "merchant@upi", PayeeName: "Shop", Amount: 99.5})

	parsed, err := url.Parse(uri)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "99.50", q.Get("am"))
	assert.Empty(t, q.Get("tn"))
}

func TestGenerateUPIQR(t *testing.T) {
	png, err := GenerateUPIQR(&UPIRequest{UPIID: "merchant@upi", PayeeName: "Shop", Amount: 299}, 0)
	require.NoError(t, err)

	// PNG magic bytes.
	require.True(t, len(png) > 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestPaymentInstructions(t *testing.T) {
	text := PaymentInstructions("merchant@upi", 299, []string{"Netflix", "Hotstar"})

	assert.Contains(t, text, "merchant@upi")
	assert.Contains(t, text, "₹299.00")
	assert.Contains(t, text, "Netflix, Hotstar")
	assert.Contains(t, text, "screenshot")
}
