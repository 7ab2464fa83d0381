package engine

import (
	"fmt"

	"github.com/XiangYd616/webtest/packages/analyzer"
)

// endpointRecommendations derives advisory messages from one response
// analysis. When nothing is worth flagging it returns the single
// all-clear message.
func endpointRecommendations(a *analyzer.Analysis) []string {
	var recs []string

	if a.Performance.ResponseTime > 1000 {
		recs = append(recs, "Response time exceeds 1s; consider optimizing server processing or database queries")
	}

	var missing []string
	for _, name := range []string{"x-frame-options", "x-content-type-options"} {
		if !a.Headers.Security.HasSecurityHeaders[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		recs = append(recs, fmt.Sprintf("Add missing security headers: %v", missing))
	}

	if a.Headers.Caching.CacheControl == "" {
		recs = append(recs, "Set a Cache-Control header to enable client and proxy caching")
	}

	if a.Body.Size > 1024 && a.Headers.Compression == "" {
		recs = append(recs, "Enable response compression for bodies larger than 1KB")
	}

	if len(recs) == 0 {
		recs = append(recs, "No action needed; the endpoint looks healthy")
	}
	return recs
}

// batchRecommendations derives advisory messages from the aggregated batch
// summary.
func batchRecommendations(summary *BatchSummary) []string {
	var recs []string

	if summary.Failed > 0 {
		recs = append(recs, fmt.Sprintf("%d endpoints failed; check server status and endpoint configuration", summary.Failed))
	}
	if summary.AverageResponseTime > 1000 {
		recs = append(recs, "Average response time is high; consider performance optimization")
	}
	if summary.successPercent() < 95 {
		recs = append(recs, "Success rate is below 95%; check the failing endpoints")
	}

	if len(recs) == 0 {
		recs = append(recs, "All endpoints passed; no action needed")
	}
	return recs
}
