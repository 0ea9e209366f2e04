package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	httpclient "yttranscript/http"
	"yttranscript/internal/retry"
)

// Sentinel errors for transcript sources.
var (
	// ErrInvalidURL indicates the input is not a recognizable video reference.
	ErrInvalidURL = errors.New("youtube: invalid video reference")

	// ErrTranscriptsDisabled indicates the video has no caption tracks.
	ErrTranscriptsDisabled = errors.New("youtube: transcripts are disabled for this video")

	// ErrVideoUnavailable indicates the video is private, deleted or restricted.
	ErrVideoUnavailable = errors.New("youtube: video unavailable")

	// ErrTrackNotFound indicates the requested track returned no content.
	ErrTrackNotFound = errors.New("youtube: transcript track not found")

	// ErrRateLimited indicates YouTube throttled the request.
	ErrRateLimited = errors.New("youtube: rate limited")

	// ErrRequestBlocked indicates a bot check or captcha blocked the request.
	ErrRequestBlocked = errors.New("youtube: request blocked")

	// ErrRequestFailed indicates a network failure or unexpected HTTP status.
	ErrRequestFailed = errors.New("youtube: request failed")

	// ErrMalformedResponse indicates a payload that could not be parsed.
	ErrMalformedResponse = errors.New("youtube: malformed response")

	// ErrPoTokenRequired indicates the track URL needs a proof-of-origin token.
	ErrPoTokenRequired = errors.New("youtube: proof-of-origin token required")
)

// SourceError wraps a source failure with the operation and video involved.
type SourceError struct {
	Op      string // "list" or "fetch"
	VideoID string
	Err     error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("youtube: %s %s: %v", e.Op, e.VideoID, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether a source error is worth retrying.
// Unknown errors are treated as transient; context errors never are.
func IsTransient(err error) bool {
	for _, permanent := range []error{
		ErrInvalidURL,
		ErrTranscriptsDisabled,
		ErrVideoUnavailable,
		ErrTrackNotFound,
		ErrMalformedResponse,
		ErrPoTokenRequired,
	} {
		if errors.Is(err, permanent) {
			return false
		}
	}
	return retry.IsRetryable(err)
}

// RetryAfter returns the wait YouTube asked for when it throttled the
// request behind err, or zero.
func RetryAfter(err error) time.Duration {
	var rlErr *httpclient.RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr.RetryAfter
	}
	return 0
}

// classifyHTTPError maps transport errors onto source sentinels.
func classifyHTTPError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var rlErr *httpclient.RateLimitError
	if errors.As(err, &rlErr) {
		if rlErr.IsBotDetection {
			return fmt.Errorf("%w: %w", ErrRequestBlocked, err)
		}
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	if errors.Is(err, httpclient.ErrBodyTooLarge) {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return fmt.Errorf("%w: %w", ErrRequestFailed, err)
}
