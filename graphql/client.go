// Package graphql is a minimal GraphQL-over-HTTP client for the patient
// service together with the fixed set of documents the console sends.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Executor runs one GraphQL document against the remote service and returns
// the raw data payload.
type Executor interface {
	Execute(ctx context.Context, document string, variables map[string]interface{}) (json.RawMessage, error)
}

type request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors gqlerror.List   `json:"errors,omitempty"`
}

// Client posts documents to a single GraphQL endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *logrus.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every request. Zero keeps requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used to report failed calls.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient returns a Client for endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Transport: defaultTransport()},
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Execute sends document and variables in a single POST. A response carrying
// errors fails with *RemoteError; a failed exchange or undecodable body fails
// with *TransportError. On success the data field is returned verbatim.
func (c *Client) Execute(ctx context.Context, document string, variables map[string]interface{}) (json.RawMessage, error) {
	data, err := c.execute(ctx, document, variables)
	if err != nil {
		c.logger.WithError(err).WithField("endpoint", c.endpoint).Warn("GraphQL request failed")
		return nil, err
	}
	return data, nil
}

func (c *Client) execute(ctx context.Context, document string, variables map[string]interface{}) (json.RawMessage, error) {
	if variables == nil {
		variables = map[string]interface{}{}
	}
	body, err := json.Marshal(request{Query: document, Variables: variables})
	if err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErrorf("read response: %w", err)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, transportErrorf("unexpected status %d", resp.StatusCode)
		}
		return nil, transportErrorf("decode response: %w", err)
	}

	if len(out.Errors) > 0 {
		first := out.Errors[0]
		remote := &RemoteError{Message: first.Message, Count: len(out.Errors)}
		if first.Path != nil {
			remote.Path = first.Path.String()
		}
		return nil, remote
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, transportErrorf("unexpected status %d", resp.StatusCode)
	}

	if isNull(out.Data) {
		return nil, nil
	}
	return out.Data, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// defaultTransport caps connections per host so a slow service cannot pile
// up sockets behind stuck requests.
func defaultTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxConnsPerHost:     50,
		MaxIdleConnsPerHost: 10,
		MaxIdleConns:        50,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
