package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/XiangYd616/webtest/packages/analyzer"
	"github.com/XiangYd616/webtest/packages/assertions"
	"github.com/XiangYd616/webtest/packages/metrics"
)

// EndpointResult is the full outcome record for one executed TestSpec. It
// is produced once, immutable, and handed to reporting.
type EndpointResult struct {
	Name         string    `json:"name,omitempty"`
	URL          string    `json:"url"`
	Method       string    `json:"method"`
	Timestamp    time.Time `json:"timestamp"`
	ResponseTime int64     `json:"responseTime"` // milliseconds

	// Success is the overall test verdict: HTTP-level success and no
	// failed assertions.
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Extractions map[string]string    `json:"extractions,omitempty"`
	Validations []*assertions.Result `json:"validations,omitempty"`
	Passed      int                  `json:"passedAssertions"`
	Failed      int                  `json:"failedAssertions"`

	Analysis        *analyzer.Analysis `json:"analysis,omitempty"`
	Summary         EndpointSummary    `json:"summary"`
	Recommendations []string           `json:"recommendations,omitempty"`
}

// EndpointSummary condenses the HTTP outcome. Success here is purely
// status-based: 200 <= statusCode < 400. Network failures (statusCode 0)
// are never successful.
type EndpointSummary struct {
	Success       bool   `json:"success"`
	StatusCode    int    `json:"statusCode"`
	ResponseTime  int64  `json:"responseTime"`
	ContentType   string `json:"contentType,omitempty"`
	ContentLength int64  `json:"contentLength"`
	Error         string `json:"error,omitempty"`
}

// BatchSummary aggregates a batch run. SuccessRate is a rounded percentage
// of status-successful endpoints, formatted like "67%".
type BatchSummary struct {
	Total               int                     `json:"total"`
	Successful          int                     `json:"successful"`
	Failed              int                     `json:"failed"`
	SuccessRate         string                  `json:"successRate"`
	AverageResponseTime int64                   `json:"averageResponseTime"`
	StatusCodes         map[int]int             `json:"statusCodes"`
	Latency             *metrics.LatencySummary `json:"latency,omitempty"`
}

// RunReport is the final payload for one engine invocation.
type RunReport struct {
	Engine          string            `json:"engine"`
	Version         string            `json:"version"`
	Success         bool              `json:"success"`
	TestID          string            `json:"testId"`
	Results         []*EndpointResult `json:"results"`
	Summary         *BatchSummary     `json:"summary,omitempty"`
	Recommendations []string          `json:"recommendations,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`

	Status   string   `json:"status"`
	Score    int      `json:"score"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// buildSummary aggregates per-endpoint results into the batch summary.
func buildSummary(results []*EndpointResult, recorder *metrics.Recorder) *BatchSummary {
	summary := &BatchSummary{
		Total:       len(results),
		StatusCodes: make(map[int]int),
	}

	var totalTime int64
	for _, r := range results {
		if r.Summary.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
		totalTime += r.ResponseTime
		summary.StatusCodes[r.Summary.StatusCode]++
	}

	rate := 0
	if summary.Total > 0 {
		rate = int(math.Round(float64(summary.Successful) / float64(summary.Total) * 100))
		summary.AverageResponseTime = totalTime / int64(summary.Total)
	}
	summary.SuccessRate = fmt.Sprintf("%d%%", rate)

	if recorder != nil {
		summary.Latency = recorder.Summary()
	}

	return summary
}

// successPercent parses the rounded rate back out of the summary for the
// report score.
func (s *BatchSummary) successPercent() int {
	if s.Total == 0 {
		return 0
	}
	return int(math.Round(float64(s.Successful) / float64(s.Total) * 100))
}
