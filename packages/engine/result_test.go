package engine

import (
	"testing"

	"github.com/XiangYd616/webtest/packages/analyzer"
	"github.com/stretchr/testify/assert"
)

func TestBuildSummary_Empty(t *testing.T) {
	s := buildSummary(nil, nil)

	assert.Equal(t, 0, s.Total)
	assert.Equal(t, "0%", s.SuccessRate)
	assert.Equal(t, int64(0), s.AverageResponseTime)
	assert.Nil(t, s.Latency)
}

func TestBuildSummary_Rounding(t *testing.T) {
	results := []*EndpointResult{
		{Summary: EndpointSummary{Success: true, StatusCode: 200}, ResponseTime: 100},
		{Summary: EndpointSummary{Success: true, StatusCode: 204}, ResponseTime: 200},
		{Summary: EndpointSummary{Success: false, StatusCode: 500}, ResponseTime: 330},
	}

	s := buildSummary(results, nil)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Successful)
	assert.Equal(t, 1, s.Failed)
	// 2/3 rounds to 67, not truncates to 66.
	assert.Equal(t, "67%", s.SuccessRate)
	assert.Equal(t, 67, s.successPercent())
	assert.Equal(t, int64(210), s.AverageResponseTime)
	assert.Equal(t, map[int]int{200: 1, 204: 1, 500: 1}, s.StatusCodes)
}

func TestEndpointRecommendations(t *testing.T) {
	healthy := &analyzer.Analysis{
		Headers: analyzer.HeaderInfo{
			Caching: analyzer.CachingInfo{CacheControl: "max-age=60"},
			Security: analyzer.SecurityInfo{
				HasSecurityHeaders: map[string]bool{
					"x-frame-options":        true,
					"x-content-type-options": true,
				},
			},
		},
		Body:        analyzer.BodyInfo{Size: 100},
		Performance: analyzer.PerformanceInfo{ResponseTime: 50},
	}

	t.Run("healthy endpoint gets the all-clear", func(t *testing.T) {
		recs := endpointRecommendations(healthy)
		assert.Equal(t, []string{"No action needed; the endpoint looks healthy"}, recs)
	})

	t.Run("slow uncached endpoint", func(t *testing.T) {
		a := *healthy
		a.Performance.ResponseTime = 1500
		a.Headers.Caching.CacheControl = ""
		a.Body.Size = 4096

		recs := endpointRecommendations(&a)
		assert.Len(t, recs, 3)
		assert.Contains(t, recs[0], "Response time exceeds 1s")
		assert.Contains(t, recs[1], "Cache-Control")
		assert.Contains(t, recs[2], "compression")
	})

	t.Run("missing security headers are named", func(t *testing.T) {
		a := *healthy
		a.Headers.Security.HasSecurityHeaders = map[string]bool{}

		recs := endpointRecommendations(&a)
		assert.Contains(t, recs[0], "x-frame-options")
		assert.Contains(t, recs[0], "x-content-type-options")
	})
}

func TestBatchRecommendations(t *testing.T) {
	t.Run("all passing", func(t *testing.T) {
		s := buildSummary([]*EndpointResult{
			{Summary: EndpointSummary{Success: true, StatusCode: 200}, ResponseTime: 10},
		}, nil)
		assert.Equal(t, []string{"All endpoints passed; no action needed"}, batchRecommendations(s))
	})

	t.Run("failures and slowness", func(t *testing.T) {
		s := buildSummary([]*EndpointResult{
			{Summary: EndpointSummary{Success: true, StatusCode: 200}, ResponseTime: 2500},
			{Summary: EndpointSummary{Success: false, StatusCode: 503}, ResponseTime: 1500},
		}, nil)

		recs := batchRecommendations(s)
		assert.Len(t, recs, 3)
		assert.Contains(t, recs[0], "1 endpoints failed")
		assert.Contains(t, recs[1], "Average response time is high")
		assert.Contains(t, recs[2], "below 95%")
	})
}
