package http

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loopdial/loopdial/internal/resolver"
)

// Client is a thin wrapper around http.Client that substitutes a
// localhost-aware resolver for hosts in the localhost family and annotates
// every response with its elapsed request time.
type Client struct {
	httpClient *http.Client
	resolver   *resolver.Resolver
	baseURL    string
	headers    map[string]string
	log        *logrus.Logger
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// NewClient creates a new client with the given options. Unless a transport
// is supplied, the client installs one whose dialer routes localhost-family
// hosts through the resolver and leaves every other host on default name
// resolution.
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: make(map[string]string),
		log:     logrus.StandardLogger(),
	}

	for _, option := range options {
		option(client)
	}

	if client.resolver == nil {
		client.resolver = resolver.New(resolver.WithLogger(client.log))
	}

	if client.httpClient.Transport == nil {
		client.httpClient.Transport = &http.Transport{
			Proxy:       http.ProxyFromEnvironment,
			DialContext: NewDialContext(client.resolver, nil, client.log),
		}
	}

	return client
}

// WithBaseURL sets the base URL for the client.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the overall request timeout for the client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithResolver supplies the localhost-aware resolver.
func WithResolver(r *resolver.Resolver) ClientOption {
	return func(c *Client) {
		c.resolver = r
	}
}

// WithTransport replaces the transport entirely. The caller is then
// responsible for any localhost-aware dialing it wants.
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.httpClient.Transport = transport
	}
}

// WithLogger sets the logger used by the client and its default resolver.
func WithLogger(log *logrus.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// Resolver returns the client's localhost-aware resolver.
func (c *Client) Resolver() *resolver.Resolver {
	return c.resolver
}
