// Package yttranscript extracts YouTube transcripts and renders them as text.
//
// The pipeline resolves a video reference, loads the caption catalog from a
// Source, picks a track, fetches it with retries on transient failures,
// assembles segments and renders them.
//
// Quick Start
//
//	ref, err := yttranscript.ResolveReference("https://youtu.be/dQw4w9WgXcQ")
//	if err != nil {
//		log.Fatal(err)
//	}
//	ex := yttranscript.NewExtractor(src)
//	t, err := ex.ExtractTranscript(ctx, ref.ID, "")
//	if err != nil {
//		log.Fatal(err)
//	}
//	out, err := yttranscript.Render(t, "markdown", true)
//
// Language selection
//
// An explicit language must match a track's code exactly; human-authored
// tracks win over generated ones. Without a language, English is tried
// first, then the first track in the catalog.
//
// Errors
//
// Every failure is an *Error carrying a Kind, except context cancellation,
// which is returned as is. Use errors.Is with the Err* sentinels or KindOf.
package yttranscript
