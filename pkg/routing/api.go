package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"routewatch/internal/models"
)

// DefaultBaseURL is the public TomTom API host.
const DefaultBaseURL = "https://api.tomtom.com"

// ErrFetchFailed classifies every way a route request can fail: transport
// errors, non-2xx responses and bodies that are not JSON.
var ErrFetchFailed = errors.New("fetch failed")

// StatusError is returned, wrapped in ErrFetchFailed, for non-2xx responses.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status: %s", e.Status)
	}
	return fmt.Sprintf("unexpected status: %s: %s", e.Status, e.Body)
}

// Client calls the TomTom Routing calculateRoute endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
}

// NewClient returns a client for baseURL. A zero timeout leaves requests unbounded.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		userAgent:  "routewatch/1.0",
	}
}

// RouteURL builds the traffic-aware calculateRoute URL for r.
func (c *Client) RouteURL(r models.RouteDescriptor) string {
	locations := fmt.Sprintf("%s,%s:%s,%s",
		formatDegrees(r.StartLat), formatDegrees(r.StartLon),
		formatDegrees(r.EndLat), formatDegrees(r.EndLon),
	)
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("traffic", "true")
	return fmt.Sprintf("%s/routing/1/calculateRoute/%s/json?%s", c.baseURL, locations, params.Encode())
}

// CalculateRoute fetches the route for r and returns the response body as is.
// Every failure wraps ErrFetchFailed. No retries are made.
func (c *Client) CalculateRoute(ctx context.Context, r models.RouteDescriptor) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RouteURL(r), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, redact(err, c.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrFetchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   errorDetail(body),
		})
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrFetchFailed)
	}
	return json.RawMessage(body), nil
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// errorDetail extracts the provider's error message, falling back to a
// truncated body.
func errorDetail(body []byte) string {
	var e ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.DetailedError.Message != "" {
		return e.DetailedError.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// redact keeps the API key out of transport errors, which embed the URL.
func redact(err error, apiKey string) error {
	var uerr *url.Error
	if apiKey == "" || !errors.As(err, &uerr) {
		return err
	}
	return &url.Error{
		Op:  uerr.Op,
		URL: strings.ReplaceAll(uerr.URL, url.QueryEscape(apiKey), "REDACTED"),
		Err: uerr.Err,
	}
}
