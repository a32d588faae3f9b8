package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// Response is an HTTP response with its body fully read and the request's
// elapsed time attached.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Duration   time.Duration
	Body       []byte
}

// GetBody returns the response body.
func (r *Response) GetBody() []byte {
	return r.Body
}

// GetBodyAsString returns the response body as a string.
func (r *Response) GetBodyAsString() string {
	return string(r.Body)
}

// GetBodyAsJSON unmarshals the response body into v.
func (r *Response) GetBodyAsJSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// GetJSON extracts a value from a JSON body by gjson path, e.g.
// "user.name" or "items.0.id". The zero result reports Exists() == false
// when the path is absent or the body is not JSON.
func (r *Response) GetJSON(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// GetHeader returns the value of the named header.
func (r *Response) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// DurationMillis returns the elapsed request time in milliseconds.
func (r *Response) DurationMillis() int64 {
	return r.Duration.Milliseconds()
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect reports whether the status code is in the 3xx range.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsClientError reports whether the status code is in the 4xx range.
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError reports whether the status code is in the 5xx range.
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}
