package format

import (
	"fmt"
	"strings"
	"time"

	"yttranscript/transcript"
)

// cue is a segment with resolved timing.
type cue struct {
	start, end float64
	text       string
}

// cues keeps only timed segments. A missing duration ends the cue where the
// next timed segment starts, or at its own start if it is the last one.
func cues(t *transcript.Transcript) []cue {
	var out []cue
	for i, seg := range t.Segments {
		if seg.Start == nil {
			continue
		}
		c := cue{start: *seg.Start, end: *seg.Start, text: seg.Text}
		if end, ok := seg.End(); ok {
			c.end = end
		} else {
			for _, next := range t.Segments[i+1:] {
				if next.Start != nil {
					c.end = *next.Start
					break
				}
			}
		}
		out = append(out, c)
	}
	return out
}

// SRTFormatter renders SubRip cues. Timing is always included.
type SRTFormatter struct{}

// Format implements Formatter.
func (SRTFormatter) Format(t *transcript.Transcript, _ bool) string {
	var sb strings.Builder
	for i, c := range cues(t) {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d\n", i+1)
		fmt.Fprintf(&sb, "%s --> %s\n", formatSRTTime(c.start), formatSRTTime(c.end))
		sb.WriteString(c.text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// VTTFormatter renders WebVTT cues. Timing is always included.
type VTTFormatter struct{}

// Format implements Formatter.
func (VTTFormatter) Format(t *transcript.Transcript, _ bool) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n")
	for _, c := range cues(t) {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%s --> %s\n", formatVTTTime(c.start), formatVTTTime(c.end))
		sb.WriteString(c.text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatVTTTime formats seconds as HH:MM:SS.mmm.
func formatVTTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds*1000+0.5) * time.Millisecond
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}

// formatSRTTime formats seconds as HH:MM:SS,mmm.
func formatSRTTime(seconds float64) string {
	return strings.Replace(formatVTTTime(seconds), ".", ",", 1)
}
