package payment

import (
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// UPIRequest describes a UPI collect intent for a payment.
type UPIRequest struct {
	UPIID         string
	PayeeName     string
	Amount        float64
	TransactionID string
}

// BuildUPIURI renders the upi:// deep link understood by UPI apps.
func BuildUPIURI(req *UPIRequest) string {
	params := url.Values{}
	params.Set("pa", req.UPIID)
	params.Set("pn", req.PayeeName)
	params.Set("am", fmt.Sprintf("%.2f", req.Amount))
	params.Set("cu", "INR")
	if req.TransactionID != "" {
		params.Set("tn", req.TransactionID)
	}

	return "upi://pay?" + params.Encode()
}

// GenerateUPIQR renders the UPI intent as a PNG QR code.
func GenerateUPIQR(req *UPIRequest, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}

	png, err := qrcode.Encode(BuildUPIURI(req), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode UPI QR: %w", err)
	}

	return png, nil
}

// PaymentInstructions renders the text shown to a user after picking a plan.
func PaymentInstructions(upiID string, amount float64, platforms []string) string {
	var b strings.Builder

	b.WriteString("💳 Payment Instructions\n\n")
	fmt.Fprintf(&b, "Amount: ₹%.2f\n", amount)
	if len(platforms) > 0 {
		fmt.Fprintf(&b, "Platforms: %s\n", strings.Join(platforms, ", "))
	}
	fmt.Fprintf(&b, "\nPay via UPI to: %s\n\n", upiID)
	b.WriteString("After paying, send a screenshot of the payment here. ")
	b.WriteString("An admin will verify it and activate your subscription.")

	return b.String()
}
