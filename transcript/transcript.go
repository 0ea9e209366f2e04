// Package transcript defines the canonical in-memory transcript model and
// the assembler that builds it from raw source entries.
package transcript

import (
	"fmt"
	"math"
	"strings"
)

// TrackInfo describes one transcript track offered for a video.
type TrackInfo struct {
	// LanguageCode is the track's language code, e.g. "en" or "pt-BR".
	LanguageCode string `json:"language_code"`
	// Name is the human-readable language name shown by the platform.
	Name string `json:"language"`
	// IsGenerated is true for automatic speech recognition tracks.
	IsGenerated bool `json:"is_generated"`
	// IsTranslatable is true if the platform can translate this track.
	IsTranslatable bool `json:"is_translatable"`
}

// Track is a catalog entry together with the handle a source needs to fetch
// its content.
type Track struct {
	TrackInfo
	// Locator is opaque to everything but the source that produced it.
	Locator string
}

// Segment is one timed unit of transcript text.
type Segment struct {
	Text     string
	Start    *float64
	Duration *float64
}

// End returns Start+Duration when both are present.
func (s Segment) End() (float64, bool) {
	if s.Start == nil || s.Duration == nil {
		return 0, false
	}
	return *s.Start + *s.Duration, true
}

// Timestamp formats the segment start as [HH:MM:SS], truncating fractional
// seconds. It returns "" when the start is absent.
func (s Segment) Timestamp() string {
	if s.Start == nil {
		return ""
	}
	return FormatTimestamp(*s.Start)
}

// FormatTimestamp renders seconds as [HH:MM:SS] using truncation.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	hours := int(math.Floor(seconds / 3600))
	minutes := int(math.Floor(math.Mod(seconds, 3600) / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("[%02d:%02d:%02d]", hours, minutes, secs)
}

// Transcript is the complete result of one extraction.
type Transcript struct {
	VideoID        string
	LanguageCode   string
	Segments       []Segment
	IsGenerated    bool
	IsTranslatable bool
}

// FullText joins segment texts with single spaces, in order.
func (t *Transcript) FullText() string {
	texts := make([]string, len(t.Segments))
	for i, seg := range t.Segments {
		texts[i] = seg.Text
	}
	return strings.Join(texts, " ")
}

// TotalDuration is the end of the last segment, if it can be computed.
func (t *Transcript) TotalDuration() (float64, bool) {
	if len(t.Segments) == 0 {
		return 0, false
	}
	return t.Segments[len(t.Segments)-1].End()
}

// Len returns the number of segments.
func (t *Transcript) Len() int {
	return len(t.Segments)
}
