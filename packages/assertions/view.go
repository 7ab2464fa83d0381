package assertions

import (
	"strings"

	"github.com/XiangYd616/webtest/packages/httpx"
	"github.com/tidwall/gjson"
)

// ResponseView bundles everything an assertion can look at: status, headers,
// raw body, parsed JSON body (when parsable), elapsed time, and the captured
// network-error message for synthetic failure responses.
type ResponseView struct {
	StatusCode   int
	Headers      map[string]string // lower-cased keys
	Body         string
	JSON         gjson.Result
	HasJSON      bool
	ResponseTime int64 // milliseconds
	Error        string
}

// NewResponseView builds the evaluation view for a response. The body is
// parsed as JSON whenever it is valid JSON, regardless of content type;
// assertions against unparsable bodies see an undefined JSON value.
func NewResponseView(resp *httpx.Response) *ResponseView {
	v := &ResponseView{
		StatusCode:   resp.StatusCode,
		Headers:      resp.Headers,
		Body:         resp.BodyString(),
		ResponseTime: resp.DurationMs(),
		Error:        resp.Error,
	}
	if len(resp.Body) > 0 && gjson.ValidBytes(resp.Body) {
		v.JSON = gjson.ParseBytes(resp.Body)
		v.HasJSON = true
	}
	return v
}

// HeaderValue returns a header value case-insensitively, plus whether the
// header is present at all.
func (v *ResponseView) HeaderValue(name string) (string, bool) {
	val, ok := v.Headers[strings.ToLower(name)]
	return val, ok
}
