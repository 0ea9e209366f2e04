// Package format renders transcripts into text formats.
package format

import (
	"errors"
	"fmt"
	"strings"

	"yttranscript/transcript"
)

// Format identifies an output format.
type Format string

const (
	// FormatPlain is one line of text per segment.
	FormatPlain Format = "plain"
	// FormatMarkdown is a bullet list, one item per segment.
	FormatMarkdown Format = "markdown"
	// FormatJSON is reserved for machine-readable output and not implemented.
	FormatJSON Format = "json"
	// FormatSRT is the SubRip format
	FormatSRT Format = "srt"
	// FormatVTT is the WebVTT format
	FormatVTT Format = "vtt"
)

var (
	// ErrUnsupported is returned for format identifiers that are not recognized.
	ErrUnsupported = errors.New("format: unsupported format")
	// ErrNotImplemented is returned for recognized formats without a renderer.
	ErrNotImplemented = errors.New("format: not yet implemented")
)

// Formatter turns a transcript into a string.
type Formatter interface {
	Format(t *transcript.Transcript, timestamps bool) string
}

var aliases = map[string]Format{
	"plain":    FormatPlain,
	"text":     FormatPlain,
	"txt":      FormatPlain,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
	"json":     FormatJSON,
	"srt":      FormatSRT,
	"vtt":      FormatVTT,
	"webvtt":   FormatVTT,
}

// Parse maps a user-supplied identifier to a Format. Matching is
// case-insensitive.
func Parse(id string) (Format, error) {
	f, ok := aliases[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, id)
	}
	return f, nil
}

// Get returns the formatter for f.
func Get(f Format) (Formatter, error) {
	switch f {
	case FormatPlain:
		return PlainFormatter{}, nil
	case FormatMarkdown:
		return MarkdownFormatter{}, nil
	case FormatSRT:
		return SRTFormatter{}, nil
	case FormatVTT:
		return VTTFormatter{}, nil
	case FormatJSON:
		return nil, fmt.Errorf("%w: %s output", ErrNotImplemented, f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, string(f))
	}
}

// Render parses id, picks the formatter and renders t.
func Render(t *transcript.Transcript, id string, timestamps bool) (string, error) {
	f, err := Parse(id)
	if err != nil {
		return "", err
	}
	fm, err := Get(f)
	if err != nil {
		return "", err
	}
	return fm.Format(t, timestamps), nil
}

// Names lists the identifiers accepted on the command line.
func Names() []string {
	return []string{string(FormatPlain), string(FormatMarkdown), string(FormatJSON), string(FormatSRT), string(FormatVTT)}
}

// PlainFormatter renders one line per segment.
type PlainFormatter struct{}

// Format implements Formatter.
func (PlainFormatter) Format(t *transcript.Transcript, timestamps bool) string {
	lines := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		line := seg.Text
		if ts := seg.Timestamp(); timestamps && ts != "" {
			line = ts + " " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// MarkdownFormatter renders a bullet list with bold timestamps.
type MarkdownFormatter struct{}

// Format implements Formatter.
func (MarkdownFormatter) Format(t *transcript.Transcript, timestamps bool) string {
	lines := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		var sb strings.Builder
		sb.WriteString("- ")
		if ts := seg.Timestamp(); timestamps && ts != "" {
			sb.WriteString("**")
			sb.WriteString(ts)
			sb.WriteString("** ")
		}
		sb.WriteString(seg.Text)
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}
