package http

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loopdial/loopdial/internal/resolver"
)

// DurationHeader is the synthetic response header carrying the elapsed
// request time in milliseconds. It is set by this client, never by the
// server.
const DurationHeader = "X-Request-Duration-Ms"

// Do executes a request and returns the response annotated with its elapsed
// time. The measured window runs from just before dispatch to just after the
// response headers and body arrive; client-side overhead outside that window
// (request building, connection pooling) is not included, which is accepted
// imprecision.
//
// Underlying transport errors are passed through unmodified. If the error
// carries a partial response (as redirect-policy errors do), that response is
// still annotated and returned alongside the error; a pure network error with
// no response yields (nil, err) and no annotation.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := req.Build(c.baseURL)
	if err != nil {
		return nil, err
	}

	for key, value := range c.headers {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header.Set(key, value)
		}
	}

	if host := httpReq.URL.Hostname(); resolver.IsLocalHost(host) {
		c.log.WithFields(logrus.Fields{
			"host": host,
			"port": resolver.PortForURL(httpReq.URL),
		}).Debug("request targets a localhost-family host")
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq.WithContext(ctx))
	elapsed := time.Since(start)

	if err != nil {
		if httpResp == nil {
			return nil, err
		}
		// Error with an attached response (e.g. a redirect-policy failure):
		// annotate what we have and surface the error unchanged.
		return newResponse(httpResp, elapsed), err
	}

	return newResponse(httpResp, elapsed), nil
}

// newResponse drains the body and wraps an http.Response with the elapsed
// time, both as a field and as the DurationHeader annotation.
func newResponse(httpResp *http.Response, elapsed time.Duration) *Response {
	var bodyBytes []byte
	if httpResp.Body != nil {
		bodyBytes, _ = io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
	}

	headers := httpResp.Header.Clone()
	if headers == nil {
		headers = make(http.Header)
	}
	headers.Set(DurationHeader, strconv.FormatInt(elapsed.Milliseconds(), 10))

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    headers,
		Duration:   elapsed,
		Body:       bodyBytes,
	}
}
