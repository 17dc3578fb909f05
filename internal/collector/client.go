package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"Yahoo2FNU/internal/apperr"
)

// DefaultUserAgent is sent when no user agent is configured. The quote page
// serves a consent wall to clients without a browser user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"

// ClientOptions configures NewClient.
type ClientOptions struct {
	ProxyURL    string
	UserAgent   string
	Timeout     time.Duration // 0 means no client timeout
	MinInterval time.Duration // minimum spacing between requests, 0 disables
}

// Client performs the provider's GET requests. One Client is shared by the
// session acquirer and the history fetcher.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Limiter   *rate.Limiter
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// NewClient creates a Client with optional proxy support.
func NewClient(opts ClientOptions) *Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	return &Client{
		HTTP: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		UserAgent: ua,
		Limiter:   rate.NewLimiter(limit, 1),
	}
}

// Get issues a GET with the given extra headers and reads the whole body.
// Transport failures are KindNetwork; the status is not checked here.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, apperr.Wrap(apperr.KindNetwork, err, "wait for request slot")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, err, "failed to build request")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, err, "GET %s", redact(req.URL))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindIo, err, "read response body")
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// redact drops the query so crumbs never reach error messages.
func redact(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	return fmt.Sprint(&c)
}
