package transcript

import (
	"strconv"
	"strings"
)

// RawEntry is the contract a source's timed-text entry must satisfy to be
// assembled. Start and duration are optional.
type RawEntry interface {
	Text() string
	StartSeconds() (float64, bool)
	DurationSeconds() (float64, bool)
}

// MapEntry is a mapping-style raw entry with "text", "start" and "duration"
// keys. Times may be numbers or numeric strings.
type MapEntry map[string]any

func (m MapEntry) Text() string {
	s, _ := m["text"].(string)
	return s
}

func (m MapEntry) StartSeconds() (float64, bool) {
	return number(m["start"])
}

func (m MapEntry) DurationSeconds() (float64, bool) {
	return number(m["duration"])
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Assemble builds a Transcript with one segment per entry, in input order.
// Text is trimmed; absent times stay absent.
func Assemble(videoID, languageCode string, entries []RawEntry) *Transcript {
	segments := make([]Segment, 0, len(entries))
	for _, e := range entries {
		seg := Segment{Text: strings.TrimSpace(e.Text())}
		if start, ok := e.StartSeconds(); ok {
			seg.Start = &start
		}
		if dur, ok := e.DurationSeconds(); ok {
			seg.Duration = &dur
		}
		segments = append(segments, seg)
	}
	return &Transcript{
		VideoID:      videoID,
		LanguageCode: languageCode,
		Segments:     segments,
	}
}
