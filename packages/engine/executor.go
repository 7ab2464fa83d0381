package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XiangYd616/webtest/packages/analyzer"
	"github.com/XiangYd616/webtest/packages/assertions"
	"github.com/XiangYd616/webtest/packages/capture"
	"github.com/XiangYd616/webtest/packages/core/spec"
	"github.com/XiangYd616/webtest/packages/httpx"
	"github.com/XiangYd616/webtest/packages/template"
	"github.com/XiangYd616/webtest/packages/vars"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultRetryDelay is the default delay between retries
	DefaultRetryDelay = 1000 * time.Millisecond
)

// Executor runs one TestSpec through the full pipeline: template
// resolution, the timed HTTP call, response analysis, assertion
// evaluation, and variable extraction. Run never returns an error;
// request-level failures are encoded into the result.
type Executor struct {
	client *httpx.Client
	log    logrus.FieldLogger
}

func NewExecutor(client *httpx.Client, log logrus.FieldLogger) *Executor {
	if client == nil {
		client = httpx.NewClient()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Executor{client: client, log: log}
}

// Run executes the spec against the given variable context. Extractions are
// written back into the context before Run returns, so sequential callers
// see them in the next step.
func (e *Executor) Run(ctx context.Context, ts *spec.TestSpec, variables *vars.Context) *EndpointResult {
	maxRetries := ts.Retry
	retryDelay := DefaultRetryDelay
	if ts.RetryDelayMs > 0 {
		retryDelay = time.Duration(ts.RetryDelayMs) * time.Millisecond
	}

	var result *EndpointResult
	for attempt := 0; attempt <= maxRetries; attempt++ {
		result = e.execute(ctx, ts, variables)
		if result.Success {
			return result
		}

		// Retry only on the configured status codes when a list is given.
		if len(ts.RetryOn) > 0 && !containsStatus(ts.RetryOn, result.Summary.StatusCode) {
			return result
		}

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return result
			case <-time.After(retryDelay):
			}
		}
	}
	return result
}

func (e *Executor) execute(ctx context.Context, ts *spec.TestSpec, variables *vars.Context) *EndpointResult {
	// Local variable overrides apply to this step only; they are merged
	// over a snapshot and never written back.
	snapshot := variables.Snapshot()
	for k, v := range ts.Variables {
		snapshot[k] = v
	}

	url := template.ResolveString(ts.URL, snapshot)
	method := ts.Method
	if method == "" {
		method = "GET"
	}
	headers := template.ResolveHeaders(ts.Headers, snapshot)

	result := &EndpointResult{
		Name:      ts.Name,
		URL:       url,
		Method:    method,
		Timestamp: time.Now(),
	}

	body, err := renderBody(ts.Body, snapshot)
	if err != nil {
		e.finishWithResponse(result, ts, variables, httpx.SyntheticFailure(err, 0))
		return result
	}

	// An invalid URL after template resolution short-circuits to a failed
	// result without touching the network.
	if err := httpx.ValidateURL(url); err != nil {
		e.log.WithField("url", httpx.RedactURL(url)).Debug("skipping request with invalid url")
		e.finishWithResponse(result, ts, variables, httpx.SyntheticFailure(err, 0))
		return result
	}

	req := &httpx.Request{
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    body,
	}
	if body != "" && headers["Content-Type"] == "" && headers["content-type"] == "" {
		if req.Headers == nil {
			req.Headers = make(map[string]string)
		}
		req.Headers["Content-Type"] = "application/json"
	}

	start := time.Now()
	resp, err := e.client.Do(ctx, req)
	if err != nil {
		// Timeouts and transport errors become synthetic responses; the
		// downstream stages still run so `error` assertions stay evaluable.
		resp = httpx.SyntheticFailure(err, time.Since(start))
	}

	e.finishWithResponse(result, ts, variables, resp)
	return result
}

// finishWithResponse runs the downstream stages that apply to real and
// synthetic responses alike: analysis, assertion evaluation, extraction,
// and recommendations.
func (e *Executor) finishWithResponse(result *EndpointResult, ts *spec.TestSpec, variables *vars.Context, resp *httpx.Response) {
	result.ResponseTime = resp.DurationMs()
	result.Error = resp.Error
	result.Analysis = analyzer.Analyze(resp, resp.Duration)

	view := assertions.NewResponseView(resp)
	result.Validations, result.Passed, result.Failed = assertions.EvaluateAll(ts.Assertions, view)

	extractions := capture.ExtractAll(ts.Assertions, resp)
	if len(extractions) > 0 {
		variables.SetAll(extractions)
		result.Extractions = extractions
	}

	result.Summary = EndpointSummary{
		Success:       resp.IsSuccess(),
		StatusCode:    resp.StatusCode,
		ResponseTime:  resp.DurationMs(),
		ContentType:   resp.ContentType(),
		ContentLength: result.Analysis.Headers.ContentLength,
		Error:         resp.Error,
	}
	result.Success = result.Summary.Success && result.Failed == 0
	result.Recommendations = endpointRecommendations(result.Analysis)
}

// renderBody resolves templates in the declared body and serializes it to
// the wire form: strings go as-is, structured values as JSON.
func renderBody(body any, variables map[string]string) (string, error) {
	if body == nil {
		return "", nil
	}

	resolved := template.Resolve(body, variables)
	if s, ok := resolved.(string); ok {
		return s, nil
	}

	data, err := json.Marshal(resolved)
	if err != nil {
		return "", fmt.Errorf("serializing request body: %w", err)
	}
	return string(data), nil
}

func containsStatus(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
