package video

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Quality describes one rendition available in a stream.
type Quality struct {
	QualityID  string  `json:"quality_id"`
	Resolution string  `json:"resolution"`
	Bitrate    int     `json:"bitrate"` // kbps
	Codec      string  `json:"codec"`
	FPS        int     `json:"fps"`
	FileSizeMB float64 `json:"file_size_mb"`
}

var qualityLabels = []struct {
	label    string
	patterns []string
}{
	{"4k", []string{"3840x2160", "4096x2160", "2160p"}},
	{"1440p", []string{"2560x1440", "1440p"}},
	{"1080p", []string{"1920x1080", "1080p"}},
	{"720p", []string{"1280x720", "720p"}},
	{"480p", []string{"854x480", "720x480", "480p"}},
	{"360p", []string{"640x360", "360p"}},
	{"240p", []string{"426x240", "240p"}},
}

var (
	dashResolutionRe = regexp.MustCompile(`width="(\d+)"\s+height="(\d+)"`)
	dashBandwidthRe  = regexp.MustCompile(`bandwidth="(\d+)"`)
	dashCodecRe      = regexp.MustCompile(`codecs="([^"]+)"`)
	hlsStreamRe      = regexp.MustCompile(`(?s)#EXT-X-STREAM-INF:[^\n]*?BANDWIDTH=(\d+)[^\n]*?RESOLUTION=(\d+x\d+)`)
)

// Detector finds available renditions from DASH/HLS manifests, falling back
// to a standard ladder when the manifest cannot be read.
type Detector struct {
	httpClient *http.Client
}

func NewDetector(timeout time.Duration) *Detector {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Detector{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// DefaultLadder is the rendition set reported when no manifest is available.
func DefaultLadder() []Quality {
	return []Quality{
		{QualityID: "360p", Resolution: "640x360", Bitrate: 800, Codec: "h264", FPS: 30, FileSizeMB: 50},
		{QualityID: "480p", Resolution: "854x480", Bitrate: 1500, Codec: "h264", FPS: 30, FileSizeMB: 120},
		{QualityID: "720p", Resolution: "1280x720", Bitrate: 3000, Codec: "h264", FPS: 30, FileSizeMB: 250},
		{QualityID: "1080p", Resolution: "1920x1080", Bitrate: 5000, Codec: "h264", FPS: 30, FileSizeMB: 450},
		{QualityID: "1440p", Resolution: "2560x1440", Bitrate: 8000, Codec: "h265", FPS: 60, FileSizeMB: 700},
		{QualityID: "4k", Resolution: "3840x2160", Bitrate: 15000, Codec: "h265", FPS: 60, FileSizeMB: 1200},
	}
}

// DetectFromManifest fetches the manifest and parses its renditions. Any
// fetch or parse failure degrades to the default ladder.
func (d *Detector) DetectFromManifest(ctx context.Context, manifestURL string, headers map[string]string) []Quality {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return DefaultLadder()
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return DefaultLadder()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return DefaultLadder()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return DefaultLadder()
	}
	content := string(body)

	var qualities []Quality
	switch {
	case strings.Contains(strings.ToLower(manifestURL), ".mpd") || strings.Contains(strings.ToLower(content), "<mpd"):
		qualities = ParseDASHManifest(content)
	case strings.Contains(strings.ToLower(manifestURL), ".m3u8") || strings.Contains(content, "#EXTM3U"):
		qualities = ParseHLSManifest(content)
	}

	if len(qualities) == 0 {
		return DefaultLadder()
	}
	return qualities
}

// ParseDASHManifest extracts renditions from an MPD document.
func ParseDASHManifest(content string) []Quality {
	resolutions := dashResolutionRe.FindAllStringSubmatch(content, -1)
	bandwidths := dashBandwidthRe.FindAllStringSubmatch(content, -1)
	codecs := dashCodecRe.FindAllStringSubmatch(content, -1)

	var qualities []Quality
	for i, match := range resolutions {
		resolution := match[1] + "x" + match[2]

		q := Quality{
			QualityID:  QualityLabel(resolution),
			Resolution: resolution,
			Codec:      "h264",
			FPS:        30,
		}

		if i < len(bandwidths) {
			if bw, err := strconv.Atoi(bandwidths[i][1]); err == nil {
				q.Bitrate = bw / 1000
			}
		}
		if i < len(codecs) {
			q.Codec = strings.SplitN(codecs[i][1], ".", 2)[0]
		}

		qualities = append(qualities, q)
	}

	return qualities
}

// ParseHLSManifest extracts renditions from an M3U8 master playlist.
func ParseHLSManifest(content string) []Quality {
	matches := hlsStreamRe.FindAllStringSubmatch(content, -1)

	var qualities []Quality
	for _, match := range matches {
		bandwidth, _ := strconv.Atoi(match[1])
		resolution := match[2]

		qualities = append(qualities, Quality{
			QualityID:  QualityLabel(resolution),
			Resolution: resolution,
			Bitrate:    bandwidth / 1000,
			Codec:      "h264",
			FPS:        30,
		})
	}

	return qualities
}

// QualityLabel maps a WxH resolution string to its common label.
func QualityLabel(resolution string) string {
	for _, entry := range qualityLabels {
		for _, pattern := range entry.patterns {
			if strings.Contains(resolution, pattern) {
				return entry.label
			}
		}
	}
	return resolution
}

// RecommendedQuality picks 720p when present, otherwise the middle rendition.
func RecommendedQuality(qualities []Quality) string {
	if len(qualities) == 0 {
		return ""
	}

	for _, q := range qualities {
		if strings.Contains(q.QualityID, "720p") {
			return q.QualityID
		}
	}

	return qualities[len(qualities)/2].QualityID
}

// DetectPlatform names the OTT platform from a license or manifest URL.
func DetectPlatform(rawURL string) string {
	if rawURL == "" {
		return "Unknown"
	}

	lower := strings.ToLower(rawURL)

	platforms := []struct {
		needle string
		name   string
	}{
		{"hotstar", "Hotstar"},
		{"zee5", "Zee5"},
		{"sonyliv", "SonyLIV"},
		{"sunnxt", "SunNXT"},
		{"jiocinema", "JioCinema"},
		{"mxplayer", "MX Player"},
		{"altbalaji", "ALTBalaji"},
		{"netflix", "Netflix"},
		{"primevideo", "Prime Video"},
		{"amazon", "Prime Video"},
		{"disneyplus", "Disney+"},
		{"hbomax", "HBO Max"},
		{"hulu", "Hulu"},
		{"shaka", "Shaka Demo"},
		{"bitmovin", "Bitmovin Demo"},
	}

	for _, p := range platforms {
		if strings.Contains(lower, p.needle) {
			return p.name
		}
	}

	if host := hostOf(lower); host != "" {
		parts := strings.Split(host, ".")
		if len(parts) >= 2 {
			name := parts[len(parts)-2]
			return strings.ToUpper(name[:1]) + name[1:]
		}
	}

	return "Unknown"
}

func hostOf(rawURL string) string {
	trimmed := rawURL
	if idx := strings.Index(trimmed, "://"); idx >= 0 {
		trimmed = trimmed[idx+3:]
	}
	if idx := strings.IndexAny(trimmed, "/?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if idx := strings.Index(trimmed, ":"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}
