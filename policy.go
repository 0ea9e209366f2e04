package yttranscript

import (
	"fmt"

	"yttranscript/transcript"
)

// defaultLanguage is tried first when no language is requested.
const defaultLanguage = "en"

// selectTrack applies the language policy to a catalog.
func selectTrack(videoID string, tracks []transcript.Track, requested string) (transcript.Track, error) {
	if requested != "" {
		if track, ok := findTrack(tracks, requested); ok {
			return track, nil
		}
		return transcript.Track{}, &Error{
			Kind:    KindLanguageNotFound,
			VideoID: videoID,
			Msg: fmt.Sprintf("No transcript found for language '%s' in video %s. "+
				"Use --list-languages to see available options.", requested, videoID),
		}
	}

	if track, ok := findTrack(tracks, defaultLanguage); ok {
		return track, nil
	}
	if len(tracks) > 0 {
		return tracks[0], nil
	}
	return transcript.Track{}, &Error{
		Kind:    KindNoTranscriptAvailable,
		VideoID: videoID,
		Msg:     fmt.Sprintf("No transcripts available for video %s", videoID),
	}
}

// findTrack looks up an exact language code, preferring a human-authored
// track over a generated one.
func findTrack(tracks []transcript.Track, code string) (transcript.Track, bool) {
	var generated *transcript.Track
	for i := range tracks {
		if tracks[i].LanguageCode != code {
			continue
		}
		if !tracks[i].IsGenerated {
			return tracks[i], true
		}
		if generated == nil {
			generated = &tracks[i]
		}
	}
	if generated != nil {
		return *generated, true
	}
	return transcript.Track{}, false
}
