package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"airwave/internal/logger"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = 200 * time.Millisecond
)

// Client resolves content metadata against an HTTP catalog service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// movieResponse is the catalog's movie detail payload
type movieResponse struct {
	Title      string `json:"title"`
	RuntimeMin int    `json:"runtime"`
	PosterPath string `json:"poster_path"`
}

// episodeResponse is the catalog's episode detail payload
type episodeResponse struct {
	Name       string `json:"name"`
	RuntimeMin int    `json:"runtime"`
	StillPath  string `json:"still_path"`
}

// showResponse is the catalog's show detail payload
type showResponse struct {
	Name       string `json:"name"`
	PosterPath string `json:"poster_path"`
}

// APIError represents an error returned by the catalog API
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"status_message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog API error (code %d): %s", e.StatusCode, e.Message)
}

// NewClient creates a new catalog API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewClientWithHTTP creates a catalog client with a custom HTTP client (useful for testing)
func NewClientWithHTTP(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// ResolveMovie resolves a movie by catalog id
func (c *Client) ResolveMovie(ctx context.Context, catalogID string) (*Metadata, error) {
	endpoint := fmt.Sprintf("%s/movie/%s?api_key=%s", c.baseURL, catalogID, c.apiKey)

	var payload movieResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("failed to resolve movie %s: %w", catalogID, err)
	}

	return &Metadata{
		Title:           payload.Title,
		DurationSeconds: int64(payload.RuntimeMin) * 60,
		ArtworkRef:      payload.PosterPath,
	}, nil
}

// ResolveEpisode resolves a single episode of a show
func (c *Client) ResolveEpisode(ctx context.Context, catalogID string, season, episode int) (*Metadata, error) {
	endpoint := fmt.Sprintf("%s/tv/%s/season/%d/episode/%d?api_key=%s",
		c.baseURL, catalogID, season, episode, c.apiKey)

	var payload episodeResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("failed to resolve episode %s s%02de%02d: %w", catalogID, season, episode, err)
	}

	return &Metadata{
		Title:           payload.Name,
		DurationSeconds: int64(payload.RuntimeMin) * 60,
		ArtworkRef:      payload.StillPath,
	}, nil
}

// ResolveShow resolves show-level metadata for the artwork fallback
func (c *Client) ResolveShow(ctx context.Context, catalogID string) (*Metadata, error) {
	endpoint := fmt.Sprintf("%s/tv/%s?api_key=%s", c.baseURL, catalogID, c.apiKey)

	var payload showResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("failed to resolve show %s: %w", catalogID, err)
	}

	return &Metadata{
		Title:      payload.Name,
		ArtworkRef: payload.PosterPath,
	}, nil
}

// getJSON performs a GET with bounded retries on transport errors and 5xx
// responses. 404 maps to ErrNotFound and is never retried.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if err := checkResponse(resp); err != nil {
				return err
			}

			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to decode catalog response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(defaultRetries),
		retry.Delay(defaultRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			logger.Log.Warn().
				Err(err).
				Uint("attempt", attempt).
				Msg("Retrying catalog request")
		}),
	)
}

// checkResponse maps non-2xx responses to errors
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusNotFound {
		return retry.Unrecoverable(ErrNotFound)
	}

	body, readErr := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if readErr == nil && len(body) > 0 {
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = string(body)
		}
	}
	apiErr.StatusCode = resp.StatusCode

	// Client errors other than 404 will not improve on retry
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return retry.Unrecoverable(apiErr)
	}
	return apiErr
}
