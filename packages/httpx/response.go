package httpx

import (
	"strings"
	"time"
)

// Response is the normalized view of one HTTP exchange. Header keys are
// lower-cased on construction so lookups never care about casing.
//
// A transport failure (DNS, connect, timeout) is represented as a synthetic
// response: StatusCode 0, empty headers and body, Error carrying the
// transport error text. Synthetic responses flow through the same analyzer
// and evaluator stages as real ones.
type Response struct {
	StatusCode    int
	StatusMessage string
	Headers       map[string]string
	Body          []byte
	Duration      time.Duration
	Error         string
}

// SyntheticFailure builds the zero-status response for a failed transport
// attempt.
func SyntheticFailure(err error, elapsed time.Duration) *Response {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Response{
		StatusCode: 0,
		Headers:    map[string]string{},
		Body:       nil,
		Duration:   elapsed,
		Error:      msg,
	}
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// Header returns the named header value, case-insensitively.
func (r *Response) Header(key string) string {
	return r.Headers[strings.ToLower(key)]
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType(), "application/json")
}

// IsSuccess reports whether the status code counts as a successful outcome
// for summary purposes: 2xx and 3xx pass, everything else (including the
// synthetic status 0) fails.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
