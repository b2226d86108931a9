package widevine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const mockKeyPrefix = "wv_mock"

type Key struct {
	KID string `json:"kid"`
	Key string `json:"key"`
}

type ExtractRequest struct {
	PSSH       string            `json:"pssh"`
	LicenseURL string            `json:"license_url"`
	Headers    map[string]string `json:"headers,omitempty"`
	Challenge  string            `json:"challenge,omitempty"`
}

type ExtractResult struct {
	Success bool   `json:"success"`
	Keys    []Key  `json:"keys"`
	Error   string `json:"error,omitempty"`
}

// Extractor talks to a remote key-extraction API. With a mock API key it
// derives deterministic sample keys from the PSSH instead of calling out.
type Extractor struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

func NewExtractor(apiKey, apiURL string, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Extractor{
		apiKey:     apiKey,
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (e *Extractor) ExtractKeys(ctx context.Context, req *ExtractRequest) (*ExtractResult, error) {
	if strings.HasPrefix(e.apiKey, mockKeyPrefix) {
		return &ExtractResult{
			Success: true,
			Keys: []Key{
				{
					KID: mockDigest(req.PSSH, 0, 16),
					Key: mockDigest(req.PSSH, 16, 32),
				},
			},
		}, nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extract request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL+"/api/keys", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build extract request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("extraction API call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return &ExtractResult{
			Success: false,
			Error:   fmt.Sprintf("API error %d: %s", resp.StatusCode, string(snippet)),
		}, nil
	}

	var apiResp struct {
		Keys []Key `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}

	return &ExtractResult{
		Success: true,
		Keys:    apiResp.Keys,
	}, nil
}

// mockDigest folds a PSSH slice into a stable 32-hex-char value so repeated
// mock extractions of the same PSSH return the same keys.
func mockDigest(pssh string, from, to int) string {
	if len(pssh) < to {
		pssh = pssh + strings.Repeat("0", to-len(pssh))
	}

	var sum int
	for _, c := range pssh[from:to] {
		sum += int(c)
	}

	return strings.Repeat(fmt.Sprintf("%02x", sum%256), 16)
}
