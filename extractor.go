package yttranscript

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"yttranscript/format"
	"yttranscript/internal/metrics"
	"yttranscript/internal/retry"
	"yttranscript/transcript"
	"yttranscript/youtube"
)

// Source is a transcript catalog and content provider.
//
// Errors should wrap the youtube package sentinels so they can be classified
// as transient or permanent.
type Source interface {
	ListTracks(ctx context.Context, videoID string) ([]transcript.Track, error)
	FetchTrack(ctx context.Context, videoID string, track transcript.Track) ([]transcript.RawEntry, error)
}

// Extractor runs the catalog, selection, fetch and assembly pipeline.
type Extractor struct {
	source  Source
	retry   retry.Config
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRetryConfig sets the retry policy for source calls.
func WithRetryConfig(cfg retry.Config) Option {
	return func(e *Extractor) {
		e.retry = cfg
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Extractor) {
		e.log = logger
	}
}

// WithMetrics records source calls, retries and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) {
		e.metrics = m
	}
}

// NewExtractor creates an Extractor over source.
func NewExtractor(source Source, opts ...Option) *Extractor {
	e := &Extractor{
		source: source,
		retry:  retry.DefaultConfig(),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveReference parses a watch URL, short link, embed URL or bare ID.
func ResolveReference(input string) (youtube.Reference, error) {
	ref, err := youtube.ParseReference(input)
	if err != nil {
		return youtube.Reference{}, &Error{
			Kind: KindInvalidReference,
			Msg:  fmt.Sprintf("Invalid YouTube URL or video ID: %s", input),
			Err:  err,
		}
	}
	return ref, nil
}

// ExtractTranscript fetches the transcript of videoID. An empty language
// selects English if present, otherwise the first available track.
func (e *Extractor) ExtractTranscript(ctx context.Context, videoID, language string) (*transcript.Transcript, error) {
	start := time.Now()
	defer func() { e.metrics.ObserveDuration("extract", time.Since(start)) }()

	tracks, err := e.listTracks(ctx, videoID, language)
	if err != nil {
		return nil, err
	}

	track, err := selectTrack(videoID, tracks, language)
	if err != nil {
		return nil, err
	}
	e.log.Debug().
		Str("video_id", videoID).
		Str("language", track.LanguageCode).
		Bool("generated", track.IsGenerated).
		Msg("track selected")

	entries, err := retry.Value(ctx, e.retryConfig("fetch"), youtube.IsTransient,
		func(ctx context.Context) ([]transcript.RawEntry, error) {
			entries, err := e.source.FetchTrack(ctx, videoID, track)
			e.metrics.RecordSourceRequest("fetch", outcome(err))
			return entries, err
		})
	if err != nil {
		return nil, mapSourceError(err, videoID, language)
	}

	code := track.LanguageCode
	if language != "" {
		code = language
	}
	t := transcript.Assemble(videoID, code, entries)
	t.IsGenerated = track.IsGenerated
	t.IsTranslatable = track.IsTranslatable

	e.metrics.SetSegments(t.Len())
	e.log.Info().Str("video_id", videoID).Str("language", code).Int("segments", t.Len()).Msg("transcript extracted")
	return t, nil
}

// ListLanguages returns every track in the catalog, human-authored first.
func (e *Extractor) ListLanguages(ctx context.Context, videoID string) ([]transcript.TrackInfo, error) {
	start := time.Now()
	defer func() { e.metrics.ObserveDuration("list", time.Since(start)) }()

	tracks, err := e.listTracks(ctx, videoID, "")
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, &Error{
			Kind:    KindNoTranscriptAvailable,
			VideoID: videoID,
			Msg:     fmt.Sprintf("No transcripts available for video %s", videoID),
		}
	}

	infos := make([]transcript.TrackInfo, len(tracks))
	for i, t := range tracks {
		infos[i] = t.TrackInfo
	}
	return infos, nil
}

func (e *Extractor) listTracks(ctx context.Context, videoID, language string) ([]transcript.Track, error) {
	tracks, err := retry.Value(ctx, e.retryConfig("list"), youtube.IsTransient,
		func(ctx context.Context) ([]transcript.Track, error) {
			tracks, err := e.source.ListTracks(ctx, videoID)
			e.metrics.RecordSourceRequest("list", outcome(err))
			return tracks, err
		})
	if err != nil {
		return nil, mapSourceError(err, videoID, language)
	}
	return tracks, nil
}

// retryConfig adds logging and metrics to the configured retry hook and
// honors Retry-After unless a floor is already set.
func (e *Extractor) retryConfig(op string) retry.Config {
	cfg := e.retry
	if cfg.MinWait == nil {
		cfg.MinWait = youtube.RetryAfter
	}
	next := cfg.OnRetry
	cfg.OnRetry = func(attempt int, wait time.Duration, err error) {
		e.log.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("transient source failure, retrying")
		e.metrics.RecordRetrySleep(op)
		if next != nil {
			next(attempt, wait, err)
		}
	}
	return cfg
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isContextErr(err):
		return "canceled"
	case youtube.IsTransient(err):
		return "transient"
	default:
		return "permanent"
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// mapSourceError turns a source or retry error into an *Error. Context
// errors pass through untouched.
func mapSourceError(err error, videoID, language string) error {
	if isContextErr(err) {
		return err
	}

	attempts := 1
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		attempts = exhausted.Attempts
	}

	newErr := func(kind Kind, msg string) *Error {
		return &Error{Kind: kind, VideoID: videoID, Msg: msg, Err: err}
	}

	switch {
	case errors.Is(err, youtube.ErrTranscriptsDisabled):
		return newErr(KindNoTranscriptAvailable, fmt.Sprintf(
			"Transcripts are disabled for video %s. "+
				"The video may be private or have transcripts turned off.", videoID))
	case errors.Is(err, youtube.ErrVideoUnavailable):
		return newErr(KindNoTranscriptAvailable, fmt.Sprintf(
			"Video %s is unavailable. "+
				"It may be private, deleted, or region-restricted.", videoID))
	case errors.Is(err, youtube.ErrTrackNotFound):
		if language != "" {
			return newErr(KindLanguageNotFound, fmt.Sprintf(
				"No transcript found for language '%s' in video %s. "+
					"Use --list-languages to see available options.", language, videoID))
		}
		return newErr(KindNoTranscriptAvailable, fmt.Sprintf(
			"No transcript available for video %s. "+
				"The video may not have transcripts or may be private.", videoID))
	case errors.Is(err, youtube.ErrMalformedResponse):
		return newErr(KindInternal, fmt.Sprintf(
			"Unexpected response from YouTube for video %s: %v", videoID, err))
	case errors.Is(err, youtube.ErrPoTokenRequired):
		return newErr(KindNetworkFailure, fmt.Sprintf(
			"YouTube requires a proof-of-origin token for video %s. "+
				"Please try again later.", videoID))
	case errors.Is(err, youtube.ErrRequestBlocked):
		return newErr(KindNetworkFailure, fmt.Sprintf(
			"Request blocked by YouTube after %d attempts. "+
				"Please wait and try again later. Original error: %v", attempts, err))
	default:
		return newErr(KindNetworkFailure, fmt.Sprintf(
			"YouTube request failed after %d attempts. "+
				"Please wait and try again later. Original error: %v", attempts, err))
	}
}

// Render formats a transcript. formatID is case-insensitive.
func Render(t *transcript.Transcript, formatID string, timestamps bool) (string, error) {
	out, err := format.Render(t, formatID, timestamps)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, format.ErrNotImplemented):
		return "", &Error{
			Kind: KindRenderNotImplemented,
			Msg:  fmt.Sprintf("Format '%s' is not yet implemented", formatID),
			Err:  err,
		}
	default:
		return "", &Error{
			Kind: KindRenderUnsupported,
			Msg:  fmt.Sprintf("Unsupported format: %s", formatID),
			Err:  err,
		}
	}
}
