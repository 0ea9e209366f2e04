package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// videoIDRegex matches a bare 11-character video ID.
var videoIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// videoIDLength is the length of every YouTube video ID.
const videoIDLength = 11

// Reference identifies a single video.
type Reference struct {
	// ID is the 11-character video ID.
	ID string
	// CanonicalURL is the input URL, or a watch URL built from a bare ID.
	CanonicalURL string
}

// ParseReference resolves a watch URL, short link, embed URL or bare video
// ID into a Reference. It performs no network I/O.
//
// Supported forms:
//   - dQw4w9WgXcQ
//   - https://www.youtube.com/watch?v=dQw4w9WgXcQ
//   - https://youtu.be/dQw4w9WgXcQ
//   - https://www.youtube.com/embed/dQw4w9WgXcQ
func ParseReference(input string) (Reference, error) {
	input = strings.TrimSpace(input)

	if videoIDRegex.MatchString(input) {
		return Reference{
			ID:           input,
			CanonicalURL: "https://youtube.com/watch?v=" + input,
		}, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return Reference{}, fmt.Errorf("%w: %q: %v", ErrInvalidURL, input, err)
	}

	host := strings.ToLower(u.Hostname())
	var id string
	switch {
	case strings.Contains(host, "youtube.com"):
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		}
	case strings.Contains(host, "youtu.be"):
		id = strings.TrimPrefix(u.Path, "/")
	default:
		return Reference{}, fmt.Errorf("%w: unsupported host in %q", ErrInvalidURL, input)
	}

	if id == "" || len(id) != videoIDLength {
		return Reference{}, fmt.Errorf("%w: no video ID in %q", ErrInvalidURL, input)
	}

	return Reference{ID: id, CanonicalURL: input}, nil
}
