package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sort"
	"strings"
	"time"

	"github.com/valisehq/valise/internal/core"
	"github.com/valisehq/valise/internal/interpolate"
	"golang.org/x/net/publicsuffix"
)

// Client executes endpoint definitions over HTTP. Cookies received from a
// server are retained for the lifetime of the client.
type Client struct {
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// NewClient creates a new HTTP client with the given options.
func NewClient(opts ...Option) *Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithTransport sets a custom HTTP transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = transport
	}
}

// WithNoRedirects disables automatic redirect following.
func WithNoRedirects() Option {
	return func(c *Client) {
		c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
}

// Send executes an endpoint and returns the response. Variables from env are
// substituted into the URL, headers and body before the request is built; a
// nil env sends the endpoint verbatim.
func (c *Client) Send(ctx context.Context, ep *core.Endpoint, env *interpolate.Engine) (*core.Response, error) {
	if err := ep.Validate(); err != nil {
		return nil, err
	}

	httpReq, err := c.toHTTPRequest(ctx, ep, env)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return fromHTTPResponse(httpResp, bodyBytes, time.Since(start)), nil
}

// toHTTPRequest builds an http.Request from an endpoint definition.
func (c *Client) toHTTPRequest(ctx context.Context, ep *core.Endpoint, env *interpolate.Engine) (*http.Request, error) {
	resolve := func(s string) (string, error) {
		if env == nil {
			return s, nil
		}
		return env.Interpolate(s)
	}

	rawURL, err := resolve(ep.URL())
	if err != nil {
		return nil, fmt.Errorf("url: %w", err)
	}

	var bodyReader io.Reader
	if ep.BodyContent() != "" {
		body, err := resolve(ep.BodyContent())
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		bodyReader = strings.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, ep.Method(), rawURL, bodyReader)
	if err != nil {
		return nil, err
	}

	for _, h := range ep.Headers() {
		if !h.Active {
			continue
		}
		value, err := resolve(h.Value)
		if err != nil {
			return nil, fmt.Errorf("header %s: %w", h.Name, err)
		}
		httpReq.Header.Add(h.Name, value)
	}

	if bodyReader != nil && httpReq.Header.Get("Content-Type") == "" {
		if ct := contentTypeFor(ep.BodyType()); ct != "" {
			httpReq.Header.Set("Content-Type", ct)
		}
	}

	return httpReq, nil
}

// contentTypeFor maps a body type to its conventional Content-Type.
func contentTypeFor(bodyType string) string {
	switch bodyType {
	case "json":
		return "application/json"
	case "xml":
		return "application/xml"
	case "urlencoded":
		return "application/x-www-form-urlencoded"
	case "text", "raw":
		return "text/plain"
	}
	return ""
}

// fromHTTPResponse converts an http.Response into a core.Response. Headers
// are sorted by name so the response panel renders a stable order.
func fromHTTPResponse(httpResp *http.Response, bodyBytes []byte, duration time.Duration) *core.Response {
	status := core.NewStatus(httpResp.StatusCode, http.StatusText(httpResp.StatusCode))

	keys := make([]string, 0, len(httpResp.Header))
	for key := range httpResp.Header {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var headers []core.KeyValueItem
	for _, key := range keys {
		for _, value := range httpResp.Header[key] {
			headers = append(headers, core.KeyValueItem{Name: key, Value: value, Active: true})
		}
	}

	contentType := httpResp.Header.Get("Content-Type")

	return core.NewResponse(status).
		WithHeaders(headers).
		WithBody(bodyBytes, contentType).
		WithDuration(duration)
}
