package analyzer

import (
	"testing"
	"time"

	"github.com/XiangYd616/webtest/packages/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCategory(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, CategorySuccess},
		{204, CategorySuccess},
		{301, CategoryRedirect},
		{404, CategoryClientError},
		{500, CategoryServerError},
		{599, CategoryServerError},
		{0, CategoryUnknown},
		{999, CategoryUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusCategory(tt.code), "code %d", tt.code)
	}
}

func TestPerformanceCategory(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, PerfExcellent},
		{199, PerfExcellent},
		{200, PerfGood},
		{499, PerfGood},
		{500, PerfAcceptable},
		{999, PerfAcceptable},
		{1000, PerfSlow},
		{1999, PerfSlow},
		{2000, PerfVerySlow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PerformanceCategory(tt.ms), "%dms", tt.ms)
	}
}

func TestAnalyze_Headers(t *testing.T) {
	resp := &httpx.Response{
		StatusCode:    200,
		StatusMessage: "OK",
		Headers: map[string]string{
			"content-type":                "application/json; charset=utf-8",
			"content-length":              "512",
			"server":                      "nginx",
			"cache-control":               "max-age=3600",
			"etag":                        `"v1"`,
			"content-encoding":            "gzip",
			"access-control-allow-origin": "*",
			"x-frame-options":             "DENY",
			"x-content-type-options":      "nosniff",
		},
		Body:     []byte(`{"ok": true}`),
		Duration: 120 * time.Millisecond,
	}

	a := Analyze(resp, resp.Duration)

	assert.Equal(t, 200, a.Status.Code)
	assert.Equal(t, CategorySuccess, a.Status.Category)

	assert.Equal(t, "application/json; charset=utf-8", a.Headers.ContentType)
	assert.Equal(t, int64(512), a.Headers.ContentLength)
	assert.Equal(t, "nginx", a.Headers.Server)
	assert.Equal(t, "max-age=3600", a.Headers.Caching.CacheControl)
	assert.Equal(t, `"v1"`, a.Headers.Caching.ETag)
	assert.Equal(t, "gzip", a.Headers.Compression)

	assert.True(t, a.Headers.Security.HasCORS)
	assert.True(t, a.Headers.Security.HasSecurityHeaders["x-frame-options"])
	assert.True(t, a.Headers.Security.HasSecurityHeaders["x-content-type-options"])
	assert.False(t, a.Headers.Security.HasSecurityHeaders["strict-transport-security"])
	assert.False(t, a.Headers.Security.HasSecurityHeaders["content-security-policy"])

	assert.Equal(t, int64(120), a.Performance.ResponseTime)
	assert.Equal(t, PerfExcellent, a.Performance.Category)
}

func TestAnalyze_ContentLengthFallsBackToBodySize(t *testing.T) {
	resp := &httpx.Response{
		StatusCode: 200,
		Headers:    map[string]string{"content-type": "text/plain"},
		Body:       []byte("hello"),
	}

	a := Analyze(resp, 0)
	assert.Equal(t, int64(5), a.Headers.ContentLength)
}

func TestAnalyze_Body(t *testing.T) {
	t.Run("json object structure", func(t *testing.T) {
		resp := &httpx.Response{
			StatusCode: 200,
			Headers:    map[string]string{"content-type": "application/json"},
			Body:       []byte(`{"id": 1, "name": "alice", "tags": []}`),
		}

		a := Analyze(resp, 0)
		assert.Equal(t, "json", a.Body.Type)
		assert.True(t, a.Body.Valid)
		require.NotNil(t, a.Body.Structure)
		assert.Equal(t, "object", a.Body.Structure.Type)
		assert.Equal(t, 3, a.Body.Structure.KeyCount)
		assert.ElementsMatch(t, []string{"id", "name", "tags"}, a.Body.Structure.Keys)
	})

	t.Run("json array structure", func(t *testing.T) {
		resp := &httpx.Response{
			StatusCode: 200,
			Headers:    map[string]string{"content-type": "application/json"},
			Body:       []byte(`[{"id": 1}, {"id": 2}]`),
		}

		a := Analyze(resp, 0)
		require.NotNil(t, a.Body.Structure)
		assert.Equal(t, "array", a.Body.Structure.Type)
		assert.Equal(t, 2, a.Body.Structure.Length)
		assert.Equal(t, []string{"object"}, a.Body.Structure.ItemTypes)
	})

	t.Run("invalid json is flagged, not fatal", func(t *testing.T) {
		resp := &httpx.Response{
			StatusCode: 200,
			Headers:    map[string]string{"content-type": "application/json"},
			Body:       []byte(`{"broken":`),
		}

		a := Analyze(resp, 0)
		assert.Equal(t, "json", a.Body.Type)
		assert.False(t, a.Body.Valid)
		assert.Equal(t, "invalid JSON", a.Body.Error)
		assert.Nil(t, a.Body.Structure)
	})

	t.Run("html body", func(t *testing.T) {
		resp := &httpx.Response{
			StatusCode: 200,
			Headers:    map[string]string{"content-type": "text/html"},
			Body:       []byte("<html></html>"),
		}

		a := Analyze(resp, 0)
		assert.Equal(t, "html", a.Body.Type)
		assert.True(t, a.Body.Valid)
	})
}

func TestAnalyze_SyntheticFailure(t *testing.T) {
	resp := httpx.SyntheticFailure(assert.AnError, 30*time.Second)

	a := Analyze(resp, resp.Duration)
	assert.Equal(t, 0, a.Status.Code)
	assert.Equal(t, CategoryUnknown, a.Status.Category)
	assert.Equal(t, int64(0), a.Headers.ContentLength)
	assert.Equal(t, PerfVerySlow, a.Performance.Category)
}
