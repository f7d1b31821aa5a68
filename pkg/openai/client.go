package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

// APIError is returned for any non-2xx completion response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion api returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Client posts chat completion requests. The bearer token and the JSON
// content type are fixed when the client is built and never change.
type Client struct {
	endpoint string
	header   http.Header
	http     *http.Client
}

type Option func(*options)

type options struct {
	endpoint string
	base     *http.Client
}

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithHTTPClient sets the client whose transport carries the authenticated
// requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.base = c }
}

func NewClient(token string, opts ...Option) *Client {
	o := options{endpoint: DefaultEndpoint}
	for _, opt := range opts {
		opt(&o)
	}

	ctx := context.Background()
	if nil != o.base {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.base)
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	return &Client{
		endpoint: o.endpoint,
		header:   header,
		http:     oauth2.NewClient(ctx, src),
	}
}

func (c *Client) Endpoint() string { return c.endpoint }

// Complete sends req and decodes the response. No timeout is applied beyond
// whatever ctx carries.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body, err := json.Marshal(req)
	if nil != err {
		return nil, errors.Wrap(err, "unable to encode completion request")
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if nil != err {
		return nil, errors.Wrap(err, "unable to create completion request")
	}
	for k, v := range c.header {
		r.Header[k] = v
	}

	resp, err := c.http.Do(r)
	if nil != err {
		return nil, errors.Wrap(err, "unable to send completion request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var data CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); nil != err {
		return nil, errors.Wrap(err, "unable to decode completion response")
	}
	return &data, nil
}
