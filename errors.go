package yttranscript

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the pipeline reports.
type Kind int

const (
	// KindInvalidReference means the input is not a recognizable video URL or ID.
	KindInvalidReference Kind = iota + 1
	// KindNoTranscriptAvailable means the video has no usable transcript.
	KindNoTranscriptAvailable
	// KindLanguageNotFound means an explicitly requested language is absent.
	KindLanguageNotFound
	// KindNetworkFailure means the source kept failing after retries.
	KindNetworkFailure
	// KindRenderUnsupported means the output format is unknown.
	KindRenderUnsupported
	// KindRenderNotImplemented means the output format is known but has no renderer.
	KindRenderNotImplemented
	// KindInternal means the source returned something we could not understand.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidReference:
		return "invalid reference"
	case KindNoTranscriptAvailable:
		return "no transcript available"
	case KindLanguageNotFound:
		return "language not found"
	case KindNetworkFailure:
		return "network failure"
	case KindRenderUnsupported:
		return "unsupported format"
	case KindRenderNotImplemented:
		return "format not implemented"
	case KindInternal:
		return "internal error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the error type returned by the pipeline.
//
// Match a kind with errors.Is against the sentinels below:
//
//	if errors.Is(err, yttranscript.ErrLanguageNotFound) {
//		fmt.Println("try --list-languages")
//	}
type Error struct {
	Kind    Kind
	VideoID string
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels, one per kind.
var (
	ErrInvalidReference      = &Error{Kind: KindInvalidReference}
	ErrNoTranscriptAvailable = &Error{Kind: KindNoTranscriptAvailable}
	ErrLanguageNotFound      = &Error{Kind: KindLanguageNotFound}
	ErrNetworkFailure        = &Error{Kind: KindNetworkFailure}
	ErrRenderUnsupported     = &Error{Kind: KindRenderUnsupported}
	ErrRenderNotImplemented  = &Error{Kind: KindRenderNotImplemented}
	ErrInternal              = &Error{Kind: KindInternal}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
