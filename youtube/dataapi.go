package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	gtransport "google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	httpclient "yttranscript/http"
	"yttranscript/transcript"
)

// DefaultTimedtextURL is the public timedtext endpoint.
const DefaultTimedtextURL = "https://www.youtube.com/api/timedtext"

// DataAPISource lists caption tracks through the YouTube Data API v3 and
// downloads their content from the public timedtext endpoint as json3.
type DataAPISource struct {
	service      *youtube.Service
	client       *httpclient.Client
	timedtextURL string
	log          zerolog.Logger
}

// DataAPIOption configures a DataAPISource.
type DataAPIOption func(*dataAPIOptions)

type dataAPIOptions struct {
	timedtextURL  string
	clientOptions []option.ClientOption
}

// WithTimedtextURL overrides the timedtext endpoint.
func WithTimedtextURL(u string) DataAPIOption {
	return func(o *dataAPIOptions) {
		o.timedtextURL = u
	}
}

// WithClientOptions passes extra options to the Data API service, such as
// option.WithEndpoint.
func WithClientOptions(opts ...option.ClientOption) DataAPIOption {
	return func(o *dataAPIOptions) {
		o.clientOptions = append(o.clientOptions, opts...)
	}
}

// NewDataAPISource creates a Data API backed source. Requests share the
// rate limiter and session of client.
func NewDataAPISource(ctx context.Context, apiKey string, client *httpclient.Client, logger zerolog.Logger, opts ...DataAPIOption) (*DataAPISource, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}

	o := &dataAPIOptions{timedtextURL: DefaultTimedtextURL}
	for _, opt := range opts {
		opt(o)
	}

	// WithHTTPClient overrides WithAPIKey, so the key rides on the transport.
	std := client.StdClient()
	std.Transport = &gtransport.APIKey{Key: apiKey, Transport: std.Transport}

	clientOpts := append([]option.ClientOption{option.WithHTTPClient(std)}, o.clientOptions...)
	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &DataAPISource{
		service:      service,
		client:       client,
		timedtextURL: o.timedtextURL,
		log:          logger,
	}, nil
}

// ListTracks returns the caption tracks reported by captions.list,
// human-authored tracks first.
func (d *DataAPISource) ListTracks(ctx context.Context, videoID string) ([]transcript.Track, error) {
	resp, err := d.service.Captions.List([]string{"snippet"}, videoID).Context(ctx).Do()
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		return nil, &SourceError{Op: "list", VideoID: videoID, Err: classifyAPIError(err)}
	}

	if len(resp.Items) == 0 {
		return nil, &SourceError{Op: "list", VideoID: videoID, Err: ErrTranscriptsDisabled}
	}

	tracks := make([]transcript.Track, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil {
			continue
		}
		name := item.Snippet.Name
		if name == "" {
			name = item.Snippet.Language
		}
		tracks = append(tracks, transcript.Track{
			TrackInfo: transcript.TrackInfo{
				LanguageCode: item.Snippet.Language,
				Name:         name,
				IsGenerated:  item.Snippet.TrackKind == "asr",
			},
		})
	}

	d.log.Debug().Str("video_id", videoID).Int("tracks", len(tracks)).Msg("caption catalog loaded from data api")
	return orderTracks(tracks), nil
}

// FetchTrack downloads a track from the timedtext endpoint.
func (d *DataAPISource) FetchTrack(ctx context.Context, videoID string, track transcript.Track) ([]transcript.RawEntry, error) {
	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", track.LanguageCode)
	params.Set("fmt", "json3")
	if track.IsGenerated {
		params.Set("kind", "asr")
	}

	resp, err := d.client.Get(ctx, d.timedtextURL+"?"+params.Encode(), nil)
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		return nil, &SourceError{Op: "fetch", VideoID: videoID, Err: classifyHTTPError(err)}
	}

	entries, err := parseJSON3(resp.Body)
	if err != nil {
		return nil, &SourceError{Op: "fetch", VideoID: videoID, Err: err}
	}
	return entries, nil
}

// classifyAPIError maps Google API errors onto source sentinels.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return classifyHTTPError(err)
	}

	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "quotaExceeded", "rateLimitExceeded", "userRateLimitExceeded":
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}

	switch apiErr.Code {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrVideoUnavailable, err)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrTranscriptsDisabled, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
}
