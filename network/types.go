package network

import (
	"fmt"
	"strings"
)

// Quality is the compression profile passed through to the service.
type Quality string

// Qualities accepted by the compression service.
const (
	QualityLow     Quality = "low"
	QualityMedium  Quality = "medium"
	QualityHigh    Quality = "high"
	QualityMaximum Quality = "maximum"
)

// DefaultQuality is used until the user picks another profile.
const DefaultQuality = QualityMedium

// Qualities lists every accepted profile, from smallest output to best quality.
var Qualities = []Quality{QualityLow, QualityMedium, QualityHigh, QualityMaximum}

// ParseQuality ...
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if !q.Valid() {
		return "", fmt.Errorf("invalid quality %q, must be one of: %s", s, joinQualities())
	}
	return q, nil
}

// Valid reports whether q is one of the accepted profiles.
func (q Quality) Valid() bool {
	for _, known := range Qualities {
		if q == known {
			return true
		}
	}
	return false
}

// Description is a short hint for presenting the profile to a user.
func (q Quality) Description() string {
	switch q {
	case QualityLow:
		return "maximum compression, suitable for screen viewing"
	case QualityMedium:
		return "balanced (recommended)"
	case QualityHigh:
		return "high quality, suitable for printing"
	case QualityMaximum:
		return "maximum quality, archive"
	default:
		return ""
	}
}

func joinQualities() string {
	values := make([]string, 0, len(Qualities))
	for _, q := range Qualities {
		values = append(values, string(q))
	}
	return strings.Join(values, ", ")
}

// CompressionResult is the service's answer to a successful compression.
type CompressionResult struct {
	Filename         string  `json:"filename"`
	OriginalSize     int64   `json:"original_size"`
	CompressedSize   int64   `json:"compressed_size"`
	CompressionRatio float64 `json:"compression_ratio"`
	// DownloadURL is the service-relative download path, when the service sends one.
	DownloadURL string `json:"download_url,omitempty"`
}

// SavedBytes can be negative when the service produced a larger file.
func (r CompressionResult) SavedBytes() int64 {
	return r.OriginalSize - r.CompressedSize
}

type errorResponse struct {
	Detail interface{} `json:"detail"`
}

type healthResponse struct {
	Status string `json:"status"`
}
