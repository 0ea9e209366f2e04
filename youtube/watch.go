package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	httpclient "yttranscript/http"
	"yttranscript/transcript"
	"yttranscript/youtube/innertube"
)

// apiKeyRegex finds the Innertube API key in the watch page scripts.
var apiKeyRegex = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([a-zA-Z0-9_-]+)"`)

// WatchSource reads the caption catalog from the watch page and the
// Innertube player endpoint, and track content from the timedtext URLs the
// player response hands out. It is the default transcript source.
type WatchSource struct {
	client    *httpclient.Client
	innertube *innertube.Client
	baseURL   string
	log       zerolog.Logger
}

// NewWatchSource creates a watch page source. baseURL is normally
// innertube.DefaultBaseURL; tests point it at an httptest server.
func NewWatchSource(client *httpclient.Client, baseURL string, logger zerolog.Logger) *WatchSource {
	if baseURL == "" {
		baseURL = innertube.DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &WatchSource{
		client:    client,
		innertube: innertube.NewClient(client, innertube.WithBaseURL(baseURL)),
		baseURL:   baseURL,
		log:       logger,
	}
}

// ListTracks returns the caption tracks of a video, human-authored tracks
// first, each group in source order.
func (s *WatchSource) ListTracks(ctx context.Context, videoID string) ([]transcript.Track, error) {
	tracks, err := s.listTracks(ctx, videoID)
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		return nil, &SourceError{Op: "list", VideoID: videoID, Err: err}
	}
	return tracks, nil
}

func (s *WatchSource) listTracks(ctx context.Context, videoID string) ([]transcript.Track, error) {
	apiKey, err := s.fetchAPIKey(ctx, videoID)
	if err != nil {
		return nil, err
	}

	player, err := s.innertube.Player(ctx, apiKey, videoID)
	if err != nil {
		var decodeErr *innertube.DecodeError
		if errors.As(err, &decodeErr) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return nil, classifyHTTPError(err)
	}

	if err := checkPlayability(player.PlayabilityStatus); err != nil {
		return nil, err
	}

	captionTracks := player.Tracks()
	if len(captionTracks) == 0 {
		return nil, ErrTranscriptsDisabled
	}

	canTranslate := player.CanTranslate()
	tracks := make([]transcript.Track, 0, len(captionTracks))
	for _, ct := range captionTracks {
		tracks = append(tracks, transcript.Track{
			TrackInfo: transcript.TrackInfo{
				LanguageCode:   ct.LanguageCode,
				Name:           ct.Name.GetText(),
				IsGenerated:    ct.Kind == "asr",
				IsTranslatable: ct.IsTranslatable && canTranslate,
			},
			Locator: ct.BaseURL,
		})
	}

	s.log.Debug().Str("video_id", videoID).Int("tracks", len(tracks)).Msg("caption catalog loaded")
	return orderTracks(tracks), nil
}

// FetchTrack downloads and parses one caption track.
func (s *WatchSource) FetchTrack(ctx context.Context, videoID string, track transcript.Track) ([]transcript.RawEntry, error) {
	entries, err := s.fetchTrack(ctx, track)
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		return nil, &SourceError{Op: "fetch", VideoID: videoID, Err: err}
	}
	return entries, nil
}

func (s *WatchSource) fetchTrack(ctx context.Context, track transcript.Track) ([]transcript.RawEntry, error) {
	trackURL, err := trackContentURL(track.Locator)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Get(ctx, trackURL, nil)
	if err != nil {
		return nil, classifyHTTPError(err)
	}
	return parseTimedtextXML(resp.Body)
}

// trackContentURL prepares a caption base URL for download. The srv3 format
// is dropped in favour of the default XML, and URLs flagged exp=xpe are
// rejected since they need a proof-of-origin token.
func trackContentURL(locator string) (string, error) {
	if locator == "" {
		return "", ErrTrackNotFound
	}
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("%w: caption url: %v", ErrMalformedResponse, err)
	}
	q := u.Query()
	if q.Get("exp") == "xpe" {
		return "", ErrPoTokenRequired
	}
	if q.Get("fmt") == "srv3" {
		q.Del("fmt")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// fetchAPIKey loads the watch page and extracts the Innertube API key,
// accepting the cookie consent interstitial once if it is shown.
func (s *WatchSource) fetchAPIKey(ctx context.Context, videoID string) (string, error) {
	watchURL := s.baseURL + "/watch?v=" + url.QueryEscape(videoID)

	page, err := s.fetchWatchPage(ctx, watchURL)
	if err != nil {
		return "", err
	}

	if page.consentValue != "" || page.consentForm {
		if page.consentValue == "" {
			return "", fmt.Errorf("%w: consent form without token", ErrMalformedResponse)
		}
		s.log.Debug().Str("video_id", videoID).Msg("accepting cookie consent")
		if err := s.client.Session().SetCookie(s.baseURL, "CONSENT", "YES+"+page.consentValue); err != nil {
			return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
		page, err = s.fetchWatchPage(ctx, watchURL)
		if err != nil {
			return "", err
		}
		if page.consentForm {
			return "", fmt.Errorf("%w: consent cookie was not accepted", ErrRequestBlocked)
		}
	}

	if page.apiKey != "" {
		return page.apiKey, nil
	}
	if page.recaptcha {
		return "", fmt.Errorf("%w: recaptcha challenge on watch page", ErrRequestBlocked)
	}
	return "", fmt.Errorf("%w: INNERTUBE_API_KEY not found", ErrMalformedResponse)
}

// watchPage is what the watch page HTML tells us.
type watchPage struct {
	apiKey       string
	consentForm  bool
	consentValue string
	recaptcha    bool
}

func (s *WatchSource) fetchWatchPage(ctx context.Context, watchURL string) (*watchPage, error) {
	resp, err := s.client.Get(ctx, watchURL, nil)
	if err != nil {
		return nil, classifyHTTPError(err)
	}
	return parseWatchPage(resp.Body)
}

// parseWatchPage walks the watch page DOM looking for the consent form,
// a reCAPTCHA widget and the Innertube API key.
func parseWatchPage(body []byte) (*watchPage, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: watch page: %v", ErrMalformedResponse, err)
	}

	page := &watchPage{}
	var walk func(n *html.Node, inConsent bool)
	walk = func(n *html.Node, inConsent bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "form":
				if strings.Contains(attr(n, "action"), "consent.youtube.com") {
					page.consentForm = true
					inConsent = true
				}
			case "input":
				if inConsent && attr(n, "name") == "v" && page.consentValue == "" {
					page.consentValue = attr(n, "value")
				}
			case "script":
				if page.apiKey == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					if m := apiKeyRegex.FindStringSubmatch(n.FirstChild.Data); m != nil {
						page.apiKey = m[1]
					}
				}
			}
			if hasClass(n, "g-recaptcha") {
				page.recaptcha = true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inConsent)
		}
	}
	walk(doc, false)

	return page, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// checkPlayability maps a non-OK playability status onto a sentinel.
func checkPlayability(status innertube.PlayabilityStatus) error {
	switch status.Status {
	case "OK", "":
		return nil
	case "LOGIN_REQUIRED":
		if strings.Contains(status.Reason, "not a bot") {
			return fmt.Errorf("%w: %s", ErrRequestBlocked, status.Reason)
		}
	}
	if status.Reason != "" {
		return fmt.Errorf("%w: %s", ErrVideoUnavailable, status.Reason)
	}
	return fmt.Errorf("%w: playability status %s", ErrVideoUnavailable, status.Status)
}

// orderTracks puts human-authored tracks before generated ones, keeping the
// source order within each group.
func orderTracks(tracks []transcript.Track) []transcript.Track {
	sort.SliceStable(tracks, func(i, j int) bool {
		return !tracks[i].IsGenerated && tracks[j].IsGenerated
	})
	return tracks
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
