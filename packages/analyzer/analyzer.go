// Package analyzer classifies an HTTP response: status category, header
// signals (caching, security, compression), body structure, and a latency
// bucket. Its output feeds the assertion evaluator and the per-endpoint
// recommendations.
package analyzer

import (
	"strconv"
	"strings"
	"time"

	"github.com/XiangYd616/webtest/packages/httpx"
	"github.com/tidwall/gjson"
)

// Status categories.
const (
	CategorySuccess     = "success"
	CategoryRedirect    = "redirect"
	CategoryClientError = "client_error"
	CategoryServerError = "server_error"
	CategoryUnknown     = "unknown"
)

// Performance categories and their upper bounds in milliseconds.
const (
	PerfExcellent  = "excellent"  // < 200ms
	PerfGood       = "good"       // < 500ms
	PerfAcceptable = "acceptable" // < 1000ms
	PerfSlow       = "slow"       // < 2000ms
	PerfVerySlow   = "very_slow"
)

// SecurityHeaderNames are the response headers checked by the security
// analysis, lower-cased.
var SecurityHeaderNames = []string{
	"x-frame-options",
	"x-content-type-options",
	"strict-transport-security",
	"content-security-policy",
}

type Analysis struct {
	Status      StatusInfo      `json:"status"`
	Headers     HeaderInfo      `json:"headers"`
	Body        BodyInfo        `json:"body"`
	Performance PerformanceInfo `json:"performance"`
}

type StatusInfo struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
}

type HeaderInfo struct {
	ContentType   string       `json:"contentType"`
	ContentLength int64        `json:"contentLength"`
	Server        string       `json:"server,omitempty"`
	Caching       CachingInfo  `json:"caching"`
	Security      SecurityInfo `json:"security"`
	Compression   string       `json:"compression,omitempty"`
}

type CachingInfo struct {
	CacheControl string `json:"cacheControl,omitempty"`
	Expires      string `json:"expires,omitempty"`
	ETag         string `json:"etag,omitempty"`
}

type SecurityInfo struct {
	HasCORS bool `json:"hasCORS"`
	// HasSecurityHeaders maps each known security header to whether the
	// response carries it.
	HasSecurityHeaders map[string]bool `json:"hasSecurityHeaders"`
}

type BodyInfo struct {
	Size      int        `json:"size"`
	Type      string     `json:"type"`
	Valid     bool       `json:"valid"`
	Structure *Structure `json:"structure,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Structure summarizes the shape of a parsed JSON body.
type Structure struct {
	Type      string   `json:"type"`
	Length    int      `json:"length,omitempty"`
	ItemTypes []string `json:"itemTypes,omitempty"`
	Keys      []string `json:"keys,omitempty"`
	KeyCount  int      `json:"keyCount,omitempty"`
}

type PerformanceInfo struct {
	ResponseTime int64  `json:"responseTime"`
	Category     string `json:"category"`
}

// Analyze builds the full analysis for a response and its elapsed time.
func Analyze(resp *httpx.Response, elapsed time.Duration) *Analysis {
	return &Analysis{
		Status:      analyzeStatus(resp),
		Headers:     analyzeHeaders(resp),
		Body:        analyzeBody(resp),
		Performance: analyzePerformance(elapsed),
	}
}

func analyzeStatus(resp *httpx.Response) StatusInfo {
	return StatusInfo{
		Code:     resp.StatusCode,
		Message:  resp.StatusMessage,
		Category: StatusCategory(resp.StatusCode),
	}
}

// StatusCategory buckets a status code.
func StatusCategory(code int) string {
	switch {
	case code >= 200 && code < 300:
		return CategorySuccess
	case code >= 300 && code < 400:
		return CategoryRedirect
	case code >= 400 && code < 500:
		return CategoryClientError
	case code >= 500 && code < 600:
		return CategoryServerError
	default:
		return CategoryUnknown
	}
}

func analyzeHeaders(resp *httpx.Response) HeaderInfo {
	info := HeaderInfo{
		ContentType: resp.ContentType(),
		Server:      resp.Header("Server"),
		Caching: CachingInfo{
			CacheControl: resp.Header("Cache-Control"),
			Expires:      resp.Header("Expires"),
			ETag:         resp.Header("ETag"),
		},
		Compression: resp.Header("Content-Encoding"),
	}

	if cl := resp.Header("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			info.ContentLength = n
		}
	}
	if info.ContentLength == 0 {
		info.ContentLength = int64(len(resp.Body))
	}

	info.Security.HasCORS = resp.Header("Access-Control-Allow-Origin") != ""
	info.Security.HasSecurityHeaders = make(map[string]bool, len(SecurityHeaderNames))
	for _, name := range SecurityHeaderNames {
		info.Security.HasSecurityHeaders[name] = resp.Header(name) != ""
	}

	return info
}

func analyzeBody(resp *httpx.Response) BodyInfo {
	info := BodyInfo{
		Size:  len(resp.Body),
		Valid: true,
	}

	ct := strings.ToLower(resp.ContentType())
	switch {
	case strings.Contains(ct, "application/json"):
		info.Type = "json"
		if !gjson.ValidBytes(resp.Body) {
			info.Valid = false
			info.Error = "invalid JSON"
			return info
		}
		info.Structure = summarizeJSON(gjson.ParseBytes(resp.Body))
	case strings.Contains(ct, "xml"):
		info.Type = "xml"
	case strings.Contains(ct, "html"):
		info.Type = "html"
	default:
		info.Type = "text"
	}

	return info
}

func summarizeJSON(v gjson.Result) *Structure {
	switch {
	case v.IsArray():
		items := v.Array()
		s := &Structure{Type: "array", Length: len(items)}
		if len(items) > 0 {
			s.ItemTypes = []string{jsonType(items[0])}
		}
		return s
	case v.IsObject():
		s := &Structure{Type: "object"}
		v.ForEach(func(key, _ gjson.Result) bool {
			s.Keys = append(s.Keys, key.String())
			return true
		})
		s.KeyCount = len(s.Keys)
		return s
	default:
		return &Structure{Type: jsonType(v)}
	}
}

func jsonType(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Null:
		return "null"
	default:
		if v.IsArray() {
			return "array"
		}
		if v.IsObject() {
			return "object"
		}
		return "unknown"
	}
}

func analyzePerformance(elapsed time.Duration) PerformanceInfo {
	ms := elapsed.Milliseconds()
	return PerformanceInfo{
		ResponseTime: ms,
		Category:     PerformanceCategory(ms),
	}
}

// PerformanceCategory buckets a latency in milliseconds.
func PerformanceCategory(ms int64) string {
	switch {
	case ms < 200:
		return PerfExcellent
	case ms < 500:
		return PerfGood
	case ms < 1000:
		return PerfAcceptable
	case ms < 2000:
		return PerfSlow
	default:
		return PerfVerySlow
	}
}
