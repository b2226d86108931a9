package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMPD = `<?xml version="1.0"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011">
  <Period>
    <AdaptationSet mimeType="video/mp4">
      <Representation id="1" width="1920" height="1080" bandwidth="4800000" codecs="avc1.640028"/>
      <Representation id="2" width="1280" height="720" bandwidth="2400000" codecs="avc1.64001f"/>
      <Representation id="3" width="640" height="360" bandwidth="800000" codecs="avc1.42c01e"/>
    </AdaptationSet>
  </Period>
</MPD>`

const sampleM3U8 = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080
1080p.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2500000,RESOLUTION=1280x720
720p.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1000000,RESOLUTION=854x480
480p.m3u8`

func TestParseDASHManifest(t *testing.T) {
	qualities := ParseDASHManifest(sampleMPD)
	require.Len(t, qualities, 3)

	assert.Equal(t, "1080p", qualities[0].QualityID)
	assert.Equal(t, "1920x1080", qualities[0].Resolution)
	assert.Equal(t, 4800, qualities[0].Bitrate)
	assert.Equal(t, "avc1", qualities[0].Codec)

	assert.Equal(t, "720p", qualities[1].QualityID)
	assert.Equal(t, "360p", qualities[2].QualityID)
}

func TestParseHLSManifest(t *testing.T) {
	qualities := ParseHLSManifest(sampleM3U8)
	require.Len(t, qualities, 3)

	assert.Equal(t, "1080p", qualities[0].QualityID)
	assert.Equal(t, 5000, qualities[0].Bitrate)
	assert.Equal(t, "480p", qualities[2].QualityID)
}

func TestQualityLabel(t *testing.T) {
	assert.Equal(t, "4k", QualityLabel("3840x2160"))
	assert.Equal(t, "720p", QualityLabel("1280x720"))
	assert.Equal(t, "999x999", QualityLabel("999x999"))
}

func TestRecommendedQuality(t *testing.T) {
	t.Run("prefers 720p", func(t *testing.T) {
		assert.Equal(t, "720p", RecommendedQuality(DefaultLadder()))
	})

	t.Run("falls back to the middle rendition", func(t *testing.T) {
		qualities := []Quality{
			{QualityID: "360p"},
			{QualityID: "480p"},
			{QualityID: "1080p"},
		}
		assert.Equal(t, "480p", RecommendedQuality(qualities))
	})

	t.Run("empty ladder", func(t *testing.T) {
		assert.Empty(t, RecommendedQuality(nil))
	})
}

func TestDefaultLadder(t *testing.T) {
	ladder := DefaultLadder()
	require.Len(t, ladder, 6)
	assert.Equal(t, "360p", ladder[0].QualityID)
	assert.Equal(t, "4k", ladder[5].QualityID)
	assert.Equal(t, 15000, ladder[5].Bitrate)
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.hotstar.com/in/widevine/license", "Hotstar"},
		{"https://spapi.zee5.com/widevine/getLicense", "Zee5"},
		{"https://drm.sonyliv.com/proxy", "SonyLIV"},
		{"https://www.netflix.com/license", "Netflix"},
		{"https://atv-ps.primevideo.com/cdp", "Prime Video"},
		{"https://cwip-shaka-proxy.appspot.com/no_auth", "Shaka Demo"},
		{"https://license.example.com/wv", "Example"},
		{"", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPlatform(tt.url))
		})
	}
}
