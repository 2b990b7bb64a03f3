package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vibecut/api/internal/config"
)

// APIError is a non-2xx answer from VideoDB.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("videodb error (status %d): %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors and throttling.
// Other client errors are permanent.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// VideoStore covers the VideoDB operations used by the engine.
type VideoStore interface {
	Upload(ctx context.Context, sourceURL string) (string, error)
	IndexSpokenWords(ctx context.Context, videoID string) error
	IndexScenes(ctx context.Context, videoID, prompt string) error
	Search(ctx context.Context, req *SearchRequest) ([]SearchResult, error)
	Compile(ctx context.Context, req *CompileRequest) (string, error)
	ListVideos(ctx context.Context, collection string) ([]string, error)
}

// VideoDBClient talks to the VideoDB REST API
type VideoDBClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	collection string
}

// SearchRequest is one query against a video or a collection
type SearchRequest struct {
	Query        string            `json:"query"`
	VideoID      string            `json:"-"`
	Collection   string            `json:"-"`
	SearchType   string            `json:"search_type"`
	IndexType    string            `json:"index_type"`
	Limit        int               `json:"result_threshold,omitempty"`
	SceneIndexID string            `json:"scene_index_id,omitempty"`
	Filters      map[string]string `json:"filter,omitempty"`
}

// SearchResult is one raw hit. Description and Score are optional.
type SearchResult struct {
	VideoID     string   `json:"video_id"`
	Start       float64  `json:"start"`
	End         float64  `json:"end"`
	Description string   `json:"text,omitempty"`
	Score       *float64 `json:"search_score,omitempty"`
}

// CompileClip is one span of a source video in a compilation timeline
type CompileClip struct {
	VideoID string  `json:"video_id"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// CompileRequest describes a compilation or a low-resolution preview
type CompileRequest struct {
	Clips          []CompileClip `json:"clips"`
	Preset         string        `json:"preset,omitempty"`
	Transition     string        `json:"transition,omitempty"`
	AspectRatio    string        `json:"aspect_ratio,omitempty"`
	Theme          string        `json:"theme,omitempty"`
	TargetDuration float64       `json:"target_duration,omitempty"`
	Preview        bool          `json:"preview,omitempty"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data"`
}

// NewVideoDBClient creates a new VideoDB client
func NewVideoDBClient(cfg *config.VideoDBConfig) *VideoDBClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &VideoDBClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}
}

// Collection returns the default collection name
func (c *VideoDBClient) Collection() string {
	return c.collection
}

// Upload asks VideoDB to ingest the video at sourceURL and returns its id
func (c *VideoDBClient) Upload(ctx context.Context, sourceURL string) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("/collection/%s/upload", url.PathEscape(c.collection))
	if err := c.do(ctx, http.MethodPost, endpoint, map[string]string{"url": sourceURL}, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("videodb upload returned no video id")
	}
	return result.ID, nil
}

// IndexSpokenWords builds the transcript index of a video
func (c *VideoDBClient) IndexSpokenWords(ctx context.Context, videoID string) error {
	endpoint := fmt.Sprintf("/video/%s/index", url.PathEscape(videoID))
	return c.do(ctx, http.MethodPost, endpoint, map[string]string{"index_type": "spoken_word"}, nil)
}

// IndexScenes builds the visual scene index of a video using prompt
func (c *VideoDBClient) IndexScenes(ctx context.Context, videoID, prompt string) error {
	endpoint := fmt.Sprintf("/video/%s/index/scene", url.PathEscape(videoID))
	body := map[string]string{
		"extraction_type": "shot",
		"prompt":          prompt,
	}
	return c.do(ctx, http.MethodPost, endpoint, body, nil)
}

// Search runs one query. An empty hit list is not an error.
func (c *VideoDBClient) Search(ctx context.Context, req *SearchRequest) ([]SearchResult, error) {
	var endpoint string
	if req.VideoID != "" {
		endpoint = fmt.Sprintf("/video/%s/search", url.PathEscape(req.VideoID))
	} else {
		collection := req.Collection
		if collection == "" {
			collection = c.collection
		}
		endpoint = fmt.Sprintf("/collection/%s/search", url.PathEscape(collection))
	}

	body := *req
	if body.SearchType == "" {
		body.SearchType = "semantic"
	}
	if body.IndexType == "" {
		body.IndexType = "scene"
	}

	var result struct {
		Shots []SearchResult `json:"shots"`
	}
	if err := c.do(ctx, http.MethodPost, endpoint, &body, &result); err != nil {
		return nil, err
	}
	if result.Shots == nil {
		return []SearchResult{}, nil
	}
	return result.Shots, nil
}

// Compile renders a timeline and returns a playable stream URL
func (c *VideoDBClient) Compile(ctx context.Context, req *CompileRequest) (string, error) {
	var result struct {
		StreamURL string `json:"stream_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/compile", req, &result); err != nil {
		return "", err
	}
	if result.StreamURL == "" {
		return "", fmt.Errorf("videodb compile returned no stream url")
	}
	return result.StreamURL, nil
}

// ListVideos returns the ids of all videos in a collection
func (c *VideoDBClient) ListVideos(ctx context.Context, collection string) ([]string, error) {
	if collection == "" {
		collection = c.collection
	}
	var result struct {
		Videos []struct {
			ID string `json:"id"`
		} `json:"videos"`
	}
	endpoint := fmt.Sprintf("/collection/%s/video", url.PathEscape(collection))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(result.Videos))
	for _, v := range result.Videos {
		ids = append(ids, v.ID)
	}
	return ids, nil
}

// do sends a request with an optional JSON body and decodes the data field
// of the response envelope into result
func (c *VideoDBClient) do(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-access-token", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Body: env.Message}
	}

	if result == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *VideoDBClient) IsConfigured() bool {
	return c.apiKey != "" && c.baseURL != ""
}
