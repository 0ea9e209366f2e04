package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		start *float64
		want  string
	}{
		{"zero", f(0), "[00:00:00]"},
		{"truncates fraction", f(65.7), "[00:01:05]"},
		{"hours", f(3665.0), "[01:01:05]"},
		{"just under a minute", f(59.999), "[00:00:59]"},
		{"absent", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg := Segment{Text: "x", Start: tt.start}
			assert.Equal(t, tt.want, seg.Timestamp())
		})
	}
}

func TestSegmentEnd(t *testing.T) {
	end, ok := Segment{Start: f(2.5), Duration: f(3.0)}.End()
	require.True(t, ok)
	assert.InDelta(t, 5.5, end, 1e-9)

	_, ok = Segment{Start: f(2.5)}.End()
	assert.False(t, ok)

	_, ok = Segment{Duration: f(1)}.End()
	assert.False(t, ok)
}

func TestFullText(t *testing.T) {
	tr := &Transcript{Segments: []Segment{
		{Text: "Hello world"},
		{Text: "This is"},
		{Text: "a test"},
	}}
	assert.Equal(t, "Hello world This is a test", tr.FullText())
	assert.Equal(t, "", (&Transcript{}).FullText())
}

func TestTotalDuration(t *testing.T) {
	tr := &Transcript{Segments: []Segment{
		{Text: "a", Start: f(0), Duration: f(2.5)},
		{Text: "b", Start: f(2.5), Duration: f(3.0)},
	}}
	d, ok := tr.TotalDuration()
	require.True(t, ok)
	assert.InDelta(t, 5.5, d, 1e-9)

	tr.Segments[1].Duration = nil
	_, ok = tr.TotalDuration()
	assert.False(t, ok, "last segment without duration")

	tr.Segments[1].Duration = f(1)
	tr.Segments[1].Start = nil
	_, ok = tr.TotalDuration()
	assert.False(t, ok, "last segment without start")

	_, ok = (&Transcript{}).TotalDuration()
	assert.False(t, ok, "empty transcript")
}

type attrEntry struct {
	text       string
	start, dur *float64
}

func (a attrEntry) Text() string { return a.text }

func (a attrEntry) StartSeconds() (float64, bool) {
	if a.start == nil {
		return 0, false
	}
	return *a.start, true
}

func (a attrEntry) DurationSeconds() (float64, bool) {
	if a.dur == nil {
		return 0, false
	}
	return *a.dur, true
}

func TestAssemble(t *testing.T) {
	entries := []RawEntry{
		attrEntry{text: "  Hello world \n", start: f(0), dur: f(2.5)},
		MapEntry{"text": "This is a test", "start": 2.5, "duration": "3.0"},
		MapEntry{"text": "no timing"},
		attrEntry{text: "This is a test", start: f(1.0)},
	}

	tr := Assemble("ABCDEFGHIJK", "en", entries)

	require.Len(t, tr.Segments, 4)
	assert.Equal(t, "ABCDEFGHIJK", tr.VideoID)
	assert.Equal(t, "en", tr.LanguageCode)

	assert.Equal(t, "Hello world", tr.Segments[0].Text)
	assert.Equal(t, 0.0, *tr.Segments[0].Start)
	assert.Equal(t, 2.5, *tr.Segments[0].Duration)

	assert.Equal(t, 2.5, *tr.Segments[1].Start)
	assert.Equal(t, 3.0, *tr.Segments[1].Duration)

	assert.Nil(t, tr.Segments[2].Start)
	assert.Nil(t, tr.Segments[2].Duration)

	// Source order is kept even when starts go backwards; duplicates stay.
	assert.Equal(t, "This is a test", tr.Segments[3].Text)
	assert.Equal(t, 1.0, *tr.Segments[3].Start)
	assert.Nil(t, tr.Segments[3].Duration)
}

func TestAssembleEmpty(t *testing.T) {
	tr := Assemble("ABCDEFGHIJK", "en", nil)
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, "", tr.FullText())
}

func TestMapEntryNumbers(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want float64
		ok   bool
	}{
		{"float64", 1.5, 1.5, true},
		{"int", 2, 2, true},
		{"string", " 3.25 ", 3.25, true},
		{"bad string", "soon", 0, false},
		{"missing", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MapEntry{"start": tt.v}.StartSeconds()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
