package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yttranscript"
	httpclient "yttranscript/http"
	"yttranscript/internal/config"
	"yttranscript/internal/output"
	"yttranscript/transcript"
	"yttranscript/youtube"
)

const testVideo = "dQw4w9WgXcQ"

type stubSource struct {
	tracks  []transcript.Track
	listErr error
}

func (s *stubSource) ListTracks(ctx context.Context, videoID string) ([]transcript.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.tracks, s.listErr
}

func (s *stubSource) FetchTrack(ctx context.Context, videoID string, track transcript.Track) ([]transcript.RawEntry, error) {
	return []transcript.RawEntry{
		transcript.MapEntry{"text": "hello " + track.LanguageCode, "start": 0.0, "duration": 1.5},
		transcript.MapEntry{"text": "world", "start": 1.5, "duration": 2.0},
	}, nil
}

func defaultTracks() []transcript.Track {
	return []transcript.Track{
		{TrackInfo: transcript.TrackInfo{LanguageCode: "en", Name: "English"}},
		{TrackInfo: transcript.TrackInfo{LanguageCode: "es", Name: "Spanish (auto-generated)", IsGenerated: true}},
	}
}

type harness struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
	stdin  string
	source yttranscript.Source
}

// isolate keeps user config files and environment out of the test.
func isolate(t *testing.T) {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, "YTTRANSCRIPT_") {
			t.Setenv(key, "")
		}
	}
}

func (h *harness) run(t *testing.T, ctx context.Context, args ...string) int {
	t.Helper()
	if h.source == nil {
		h.source = &stubSource{tracks: defaultTracks()}
	}
	a := &app{
		stdin:  strings.NewReader(h.stdin),
		stdout: &h.stdout,
		stderr: &h.stderr,
		newSource: func(context.Context, *config.Config, *httpclient.Client, zerolog.Logger) (yttranscript.Source, error) {
			return h.source, nil
		},
	}
	return a.execute(ctx, args)
}

func TestExtractToStdout(t *testing.T) {
	isolate(t)
	var h harness

	code := h.run(t, context.Background(), "https://youtu.be/"+testVideo)

	assert.Equal(t, exitOK, code, h.stderr.String())
	assert.Equal(t, "hello en\nworld\n", h.stdout.String())
	assert.Contains(t, h.stderr.String(), "Fetching transcript...")
}

func TestExtractLanguageAndFormat(t *testing.T) {
	isolate(t)
	var h harness

	code := h.run(t, context.Background(), testVideo, "-l", "es", "-f", "MARKDOWN")

	assert.Equal(t, exitOK, code, h.stderr.String())
	assert.Equal(t, "- hello es\n- world\n", h.stdout.String())
}

func TestListLanguages(t *testing.T) {
	isolate(t)
	var h harness

	code := h.run(t, context.Background(), testVideo, "--list-languages")

	assert.Equal(t, exitOK, code, h.stderr.String())
	assert.Equal(t, "Available languages:\n- en (English)\n- es (Spanish (auto-generated)) (auto-generated)\n", h.stdout.String())
}

func TestListLanguagesRejectsOutputOptions(t *testing.T) {
	for _, extra := range [][]string{{"-o", "out.txt"}, {"-t"}, {"--copy"}, {"-f", "markdown"}} {
		t.Run(strings.Join(extra, " "), func(t *testing.T) {
			isolate(t)
			var h harness

			args := append([]string{testVideo, "--list-languages"}, extra...)
			code := h.run(t, context.Background(), args...)

			assert.Equal(t, exitUsage, code)
			assert.Contains(t, h.stderr.String(), "--list-languages cannot be used with other output options")
			assert.Empty(t, h.stdout.String())
		})
	}
}

func TestWriteOutputFile(t *testing.T) {
	isolate(t)
	var h harness
	path := filepath.Join(t.TempDir(), "nested", "out.txt")

	code := h.run(t, context.Background(), testVideo, "-o", path)

	assert.Equal(t, exitOK, code, h.stderr.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello en\nworld", string(data))
	assert.Empty(t, h.stdout.String())
	assert.Contains(t, h.stderr.String(), fmt.Sprintf("Transcript saved to '%s'", path))
}

func TestOverwriteDeclined(t *testing.T) {
	isolate(t)
	h := harness{stdin: "n\n"}
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o644))

	code := h.run(t, context.Background(), testVideo, "-o", path)

	assert.Equal(t, exitOK, code)
	assert.Contains(t, h.stderr.String(), "Operation cancelled.")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestOverwriteForced(t *testing.T) {
	isolate(t)
	var h harness
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	code := h.run(t, context.Background(), testVideo, "-o", path, "--force")

	assert.Equal(t, exitOK, code, h.stderr.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello en\nworld", string(data))
}

func TestExitStatuses(t *testing.T) {
	tests := []struct {
		name   string
		source yttranscript.Source
		args   []string
		want   int
		stderr string
	}{
		{name: "missing argument", args: nil, want: exitUsage},
		{name: "unknown flag", args: []string{testVideo, "--bogus"}, want: exitUsage},
		{name: "invalid reference", args: []string{"https://vimeo.com/123"}, want: exitUsage, stderr: "Expected format:"},
		{name: "bad max attempts", args: []string{testVideo, "--max-attempts", "0"}, want: exitUsage},
		{name: "unsupported format", args: []string{testVideo, "-f", "docx"}, want: exitUnsupported, stderr: "Unsupported format: docx"},
		{name: "json not implemented", args: []string{testVideo, "-f", "json"}, want: exitNotImplemented},
		{name: "language not found", args: []string{testVideo, "-l", "ja"}, want: exitLanguage},
		{
			name:   "no transcript",
			source: &stubSource{listErr: youtube.ErrTranscriptsDisabled},
			args:   []string{testVideo},
			want:   exitNoTranscript,
		},
		{
			name:   "network failure",
			source: &stubSource{listErr: youtube.ErrRequestBlocked},
			args:   []string{testVideo, "--max-attempts", "1"},
			want:   exitNetwork,
		},
		{
			name:   "malformed payload",
			source: &stubSource{listErr: youtube.ErrMalformedResponse},
			args:   []string{testVideo},
			want:   exitInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			h := harness{source: tt.source}

			code := h.run(t, context.Background(), tt.args...)

			assert.Equal(t, tt.want, code, h.stderr.String())
			if tt.stderr != "" {
				assert.Contains(t, h.stderr.String(), tt.stderr)
			}
		})
	}
}

func TestFormatFlagOverridesConfiguredFormat(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("yttranscript.yaml", []byte("default_format: docx\n"), 0o644))
	var h harness

	code := h.run(t, context.Background(), testVideo, "-f", "markdown")

	assert.Equal(t, exitOK, code, h.stderr.String())
	assert.Equal(t, "- hello en\n- world\n", h.stdout.String())
}

func TestUnknownConfiguredFormat(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("yttranscript.yaml", []byte("default_format: docx\n"), 0o644))
	var h harness

	code := h.run(t, context.Background(), testVideo)

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, h.stderr.String(), "default_format")
	assert.Empty(t, h.stdout.String())
}

func TestInterrupted(t *testing.T) {
	isolate(t)
	var h harness
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code := h.run(t, ctx, testVideo)

	assert.Equal(t, exitInterrupted, code)
	assert.Contains(t, h.stderr.String(), "Operation cancelled by user.")
}

func TestMetricsFileWritten(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "yttranscript.prom")
	t.Setenv("YTTRANSCRIPT_METRICS_FILE", path)
	var h harness

	code := h.run(t, context.Background(), testVideo)

	require.Equal(t, exitOK, code, h.stderr.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "yttranscript_source_requests_total")
	assert.Contains(t, string(data), "yttranscript_segments 2")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"declined", output.ErrDeclined, exitOK},
		{"canceled", context.Canceled, exitInterrupted},
		{"usage", &usageError{errors.New("bad flag")}, exitUsage},
		{"file", &output.FileError{Path: "x", Err: errors.New("denied")}, exitFileOutput},
		{"clipboard", output.ErrClipboardUnavailable, exitFileOutput},
		{"invalid reference", yttranscript.ErrInvalidReference, exitUsage},
		{"no transcript", yttranscript.ErrNoTranscriptAvailable, exitNoTranscript},
		{"language", yttranscript.ErrLanguageNotFound, exitLanguage},
		{"network", yttranscript.ErrNetworkFailure, exitNetwork},
		{"unsupported", yttranscript.ErrRenderUnsupported, exitUnsupported},
		{"not implemented", yttranscript.ErrRenderNotImplemented, exitNotImplemented},
		{"internal", yttranscript.ErrInternal, exitInternal},
		{"unexpected", errors.New("boom"), exitUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
