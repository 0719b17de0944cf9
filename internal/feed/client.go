// Package feed fetches trips-for-route snapshots from a OneBusAway server
// and converts them into positioning snapshots.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cbmason/trainspotting/internal/logging"
	"github.com/cbmason/trainspotting/internal/models"
)

// DefaultBaseURL is the Puget Sound OneBusAway API.
const DefaultBaseURL = "https://api.pugetsound.onebusaway.org/api/where"

const (
	maxBodySize       = 25 * 1024 * 1024
	defaultMaxRetries = 3
)

var validRouteID = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

// StatusError is a non-OK answer from the server, either as an HTTP status
// or as the code field of the response envelope.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.StatusCode)
}

// Temporary reports whether retrying could help.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client talks to one OneBusAway server.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	newBackOff func() backoff.BackOff
	maxRetries uint64
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackOff sets the retry policy factory. A new policy is created for
// every fetch.
func WithBackOff(newBackOff func() backoff.BackOff, maxRetries uint64) Option {
	return func(c *Client) {
		c.newBackOff = newBackOff
		c.maxRetries = maxRetries
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient returns a client for baseURL authenticating with apiKey.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("feed: API key is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("feed: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("feed: invalid base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		apiKey:     apiKey,
		httpClient: newHTTPClient(),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
		maxRetries: defaultMaxRetries,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "feed_client"))
	return c, nil
}

// newHTTPClient clones the default transport so proxies and keepalives
// still apply, and bounds every request.
func newHTTPClient() *http.Client {
	var transport *http.Transport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = &http.Transport{}
	}
	transport.MaxIdleConnsPerHost = 4
	transport.IdleConnTimeout = 90 * time.Second
	transport.TLSHandshakeTimeout = 10 * time.Second

	return &http.Client{
		Timeout:   10 * time.Second,
		Transport: transport,
	}
}

// Endpoint returns the trips-for-route URL for routeID, without the key.
func (c *Client) Endpoint(routeID string) (string, error) {
	if !validRouteID.MatchString(routeID) {
		return "", fmt.Errorf("feed: invalid route id %q", routeID)
	}
	u := *c.baseURL
	u.Path = u.Path + "/trips-for-route/" + routeID + ".json"
	return u.String(), nil
}

// FetchTripsForRoute fetches the active trips of routeID with their status
// and schedule. Server errors and transport failures are retried; client
// errors are not.
func (c *Client) FetchTripsForRoute(ctx context.Context, routeID string) (*models.TripsForRouteResponse, error) {
	endpoint, err := c.Endpoint(routeID)
	if err != nil {
		return nil, err
	}

	var resp *models.TripsForRouteResponse
	operation := func() error {
		r, err := c.fetchOnce(ctx, endpoint)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && !statusErr.Temporary() {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("trips-for-route fetch failed, retrying",
			slog.String("route", routeID),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()))
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, fmt.Errorf("fetch trips for route %s: %w", routeID, err)
	}
	return resp, nil
}

func (c *Client) fetchOnce(ctx context.Context, endpoint string) (*models.TripsForRouteResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	q.Set("includeStatus", "true")
	q.Set("includeSchedule", "true")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", redactKey(err, c.apiKey))
	}
	defer logging.SafeCloseWithLogging(httpResp.Body, c.logger, "http_response_body")

	if httpResp.StatusCode != http.StatusOK {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: httpResp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > maxBodySize {
		return nil, backoff.Permanent(fmt.Errorf("response exceeds size limit of %d bytes", maxBodySize))
	}

	var resp models.TripsForRouteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode trips-for-route response: %w", err))
	}
	if resp.Code != 0 && resp.Code != http.StatusOK {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.Code}
	}
	return &resp, nil
}

// redactKey keeps the API key out of *url.Error messages.
func redactKey(err error, key string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{
			Op:  urlErr.Op,
			URL: strings.ReplaceAll(urlErr.URL, url.QueryEscape(key), "REDACTED"),
			Err: urlErr.Err,
		}
	}
	return err
}
