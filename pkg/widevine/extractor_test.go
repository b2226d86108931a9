package widevine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockExtraction(t *testing.T) {
	extractor := NewExtractor("wv_mock_key_12345", "https://api.example.com", 0)
	ctx := context.Background()

	req := &ExtractRequest{
		PSSH:       "AAAAW3Bzc2gAAAAA7e+LqXnWSs6jyCfc1R0h7QAAADsIARIQ",
		LicenseURL: "https://example.com/license",
	}

	result, err := extractor.ExtractKeys(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.Keys, 1)

	assert.Len(t, result.Keys[0].KID, 32)
	assert.Len(t, result.Keys[0].Key, 32)

	// Deterministic per PSSH.
	again, err := extractor.ExtractKeys(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, result.Keys, again.Keys)

	// Different PSSH, different keys.
	other, err := extractor.ExtractKeys(ctx, &ExtractRequest{
		PSSH:       "BBBBW3Bzc2gAAAAA7e+LqXnWSs6jyCfc1R0h7QAAADsIARIQ",
		LicenseURL: "https://example.com/license",
	})
	require.NoError(t, err)
	assert.NotEqual(t, result.Keys[0].KID, other.Keys[0].KID)
}

func TestMockExtractionShortPSSH(t *testing.T) {
	extractor := NewExtractor("wv_mock_key", "", 0)

	result, err := extractor.ExtractKeys(context.Background(), &ExtractRequest{PSSH: "ab"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.Keys[0].KID, 32)
}
