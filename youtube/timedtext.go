package youtube

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"yttranscript/transcript"
)

// timedtextXML is the default caption track body:
// <transcript><text start="1.2" dur="3.4">Hello</text>...</transcript>
type timedtextXML struct {
	Texts []xmlText `xml:"text"`
}

type xmlText struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Body  string `xml:",chardata"`
}

// xmlEntry is one <text> element. It implements transcript.RawEntry.
type xmlEntry struct {
	text     string
	start    string
	duration string
}

func (e xmlEntry) Text() string { return e.text }

func (e xmlEntry) StartSeconds() (float64, bool) { return parseSeconds(e.start) }

func (e xmlEntry) DurationSeconds() (float64, bool) { return parseSeconds(e.duration) }

func parseSeconds(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseTimedtextXML parses a caption track body into raw entries.
// Character data is HTML-unescaped and inline markup is dropped.
// Elements without text are skipped.
func parseTimedtextXML(data []byte) ([]transcript.RawEntry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrTrackNotFound
	}

	var doc timedtextXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: timedtext xml: %v", ErrMalformedResponse, err)
	}

	entries := make([]transcript.RawEntry, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		if t.Body == "" {
			continue
		}
		entries = append(entries, xmlEntry{
			text:     stripMarkup(t.Body),
			start:    t.Start,
			duration: t.Dur,
		})
	}
	return entries, nil
}

// stripMarkup removes HTML tags and decodes entities.
func stripMarkup(s string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}

// json3Response is the fmt=json3 timedtext body.
type json3Response struct {
	Events []json3Event `json:"events"`
}

// json3Event represents a single timed event in the json3 response.
type json3Event struct {
	TStartMs    *int64         `json:"tStartMs"`
	DDurationMs *int64         `json:"dDurationMs"`
	Segs        []json3Segment `json:"segs,omitempty"`
}

// json3Segment represents text in a json3 event.
type json3Segment struct {
	UTF8 string `json:"utf8"`
}

// json3Entry is one json3 event. It implements transcript.RawEntry.
type json3Entry struct {
	text       string
	startMs    *int64
	durationMs *int64
}

func (e json3Entry) Text() string { return e.text }

func (e json3Entry) StartSeconds() (float64, bool) { return msToSeconds(e.startMs) }

func (e json3Entry) DurationSeconds() (float64, bool) { return msToSeconds(e.durationMs) }

func msToSeconds(ms *int64) (float64, bool) {
	if ms == nil {
		return 0, false
	}
	return float64(*ms) / 1000.0, true
}

// parseJSON3 parses a json3 timedtext body. Events without text (window
// definitions and line breaks) are skipped.
func parseJSON3(data []byte) ([]transcript.RawEntry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrTrackNotFound
	}

	var resp json3Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: timedtext json3: %v", ErrMalformedResponse, err)
	}

	var entries []transcript.RawEntry
	for _, event := range resp.Events {
		var text strings.Builder
		for _, seg := range event.Segs {
			text.WriteString(seg.UTF8)
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		entries = append(entries, json3Entry{
			text:       text.String(),
			startMs:    event.TStartMs,
			durationMs: event.DDurationMs,
		})
	}
	return entries, nil
}
