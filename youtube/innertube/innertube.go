// Package innertube provides access to YouTube's internal Innertube API
// for fetching a video's player response, which carries the caption track
// catalog.
package innertube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	ythttp "yttranscript/http"
)

const (
	// DefaultBaseURL is the origin hosting the Innertube endpoints.
	DefaultBaseURL = "https://www.youtube.com"

	// playerPath is the Innertube endpoint returning playability and captions.
	playerPath = "/youtubei/v1/player"

	// defaultClientName is the client identifier. The ANDROID client gets
	// caption URLs that do not require a proof-of-origin token.
	defaultClientName = "ANDROID"
	// defaultClientVersion is the client version for ANDROID requests.
	defaultClientVersion = "20.10.38"
)

// Client handles Innertube API interactions.
type Client struct {
	httpClient *ythttp.Client
	baseURL    string
}

// ClientOption configures the Innertube client.
type ClientOption func(*Client)

// WithBaseURL points the client at another origin (used by tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewClient creates a new Innertube API client.
func NewClient(httpClient *ythttp.Client, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// PlayerRequest represents a request to the player endpoint.
type PlayerRequest struct {
	Context ClientContext `json:"context"`
	VideoID string        `json:"videoId"`
}

// ClientContext contains client identification for the API request.
type ClientContext struct {
	Client InnertubeClient `json:"client"`
}

// InnertubeClient identifies the client making the request.
type InnertubeClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
}

// PlayerResponse is the subset of the player response used for transcripts.
type PlayerResponse struct {
	PlayabilityStatus PlayabilityStatus `json:"playabilityStatus"`
	Captions          *Captions         `json:"captions,omitempty"`
}

// PlayabilityStatus reports whether the video can be played.
type PlayabilityStatus struct {
	// Status is "OK", "LOGIN_REQUIRED", "ERROR", "UNPLAYABLE" and so on.
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Captions wraps the caption track list.
type Captions struct {
	PlayerCaptionsTracklistRenderer *TracklistRenderer `json:"playerCaptionsTracklistRenderer,omitempty"`
}

// TracklistRenderer lists caption tracks and translation targets.
type TracklistRenderer struct {
	CaptionTracks        []CaptionTrack        `json:"captionTracks,omitempty"`
	TranslationLanguages []TranslationLanguage `json:"translationLanguages,omitempty"`
}

// CaptionTrack describes one caption track.
type CaptionTrack struct {
	BaseURL        string    `json:"baseUrl"`
	Name           *TextRuns `json:"name,omitempty"`
	LanguageCode   string    `json:"languageCode"`
	Kind           string    `json:"kind,omitempty"` // "asr" for generated tracks
	IsTranslatable bool      `json:"isTranslatable,omitempty"`
}

// TranslationLanguage is a language a track can be machine translated into.
type TranslationLanguage struct {
	LanguageCode string    `json:"languageCode"`
	LanguageName *TextRuns `json:"languageName,omitempty"`
}

// TextRuns represents text that may be simple or composed of runs.
type TextRuns struct {
	SimpleText string    `json:"simpleText,omitempty"`
	Runs       []TextRun `json:"runs,omitempty"`
}

// TextRun is a single run of text.
type TextRun struct {
	Text string `json:"text"`
}

// GetText extracts plain text from TextRuns.
func (t *TextRuns) GetText() string {
	if t == nil {
		return ""
	}
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var parts []string
	for _, run := range t.Runs {
		parts = append(parts, run.Text)
	}
	return strings.Join(parts, "")
}

// Tracks returns the caption tracks, or nil if the response has none.
func (r *PlayerResponse) Tracks() []CaptionTrack {
	if r.Captions == nil || r.Captions.PlayerCaptionsTracklistRenderer == nil {
		return nil
	}
	return r.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
}

// CanTranslate reports whether any translation targets are offered.
func (r *PlayerResponse) CanTranslate() bool {
	if r.Captions == nil || r.Captions.PlayerCaptionsTracklistRenderer == nil {
		return false
	}
	return len(r.Captions.PlayerCaptionsTracklistRenderer.TranslationLanguages) > 0
}

// Player fetches the player response for a video. It makes a single request;
// HTTP errors are returned as produced by the http package.
func (c *Client) Player(ctx context.Context, apiKey, videoID string) (*PlayerResponse, error) {
	req := &PlayerRequest{
		Context: ClientContext{
			Client: InnertubeClient{
				ClientName:    defaultClientName,
				ClientVersion: defaultClientVersion,
			},
		},
		VideoID: videoID,
	}

	endpoint := c.baseURL + playerPath + "?key=" + url.QueryEscape(apiKey)
	headers := map[string]string{
		"Origin": c.baseURL,
	}

	httpResp, err := c.httpClient.PostJSON(ctx, endpoint, req, headers)
	if err != nil {
		return nil, fmt.Errorf("player request: %w", err)
	}

	var resp PlayerResponse
	if err := json.Unmarshal(httpResp.Body, &resp); err != nil {
		return nil, &DecodeError{Err: err}
	}

	return &resp, nil
}

// DecodeError indicates the player response was not valid JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("innertube: decode player response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
