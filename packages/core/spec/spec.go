// Package spec defines the declarative test-run request consumed by the
// engine, plus loading and configuration-time validation. Validation is the
// only stage allowed to reject a run before any network I/O happens.
package spec

import (
	"errors"
	"fmt"

	"github.com/XiangYd616/webtest/packages/assertions"
)

// Execution modes for a batch.
const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// ErrMissingTarget is returned when a request defines neither a url nor a
// non-empty endpoint list.
var ErrMissingTarget = errors.New("test request must define either a url or a non-empty endpoints list")

// TestSpec declares one HTTP call: target, payload, assertions, and
// extraction rules. It is read-only input; the engine never mutates it.
// URL, header values, and body strings may contain {{variable}} templates.
type TestSpec struct {
	Name    string            `json:"name,omitempty" yaml:"name,omitempty"`
	URL     string            `json:"url" yaml:"url"`
	Method  string            `json:"method,omitempty" yaml:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    any               `json:"body,omitempty" yaml:"body,omitempty"`

	Assertions []*assertions.Spec `json:"assertions,omitempty" yaml:"assertions,omitempty"`

	// Variables are local overrides merged over the shared context for this
	// step only; they never leak into subsequent steps.
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`

	// Retry settings. RetryOn limits retries to specific status codes.
	Retry        int   `json:"retry,omitempty" yaml:"retry,omitempty"`
	RetryDelayMs int   `json:"retryDelayMs,omitempty" yaml:"retryDelayMs,omitempty"`
	RetryOn      []int `json:"retryOn,omitempty" yaml:"retryOn,omitempty"`
}

// TestRunRequest is the inbound configuration for one engine invocation.
// Either the single url/method/... fields or the endpoints list must be
// set; a non-empty endpoints list selects batch mode.
type TestRunRequest struct {
	TestID string `json:"testId,omitempty" yaml:"testId,omitempty"`

	URL        string             `json:"url,omitempty" yaml:"url,omitempty"`
	Method     string             `json:"method,omitempty" yaml:"method,omitempty"`
	Headers    map[string]string  `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       any                `json:"body,omitempty" yaml:"body,omitempty"`
	Assertions []*assertions.Spec `json:"assertions,omitempty" yaml:"assertions,omitempty"`

	Endpoints []*TestSpec `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`

	// Variables seed the VariableContext for the run.
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`

	Mode        string `json:"mode,omitempty" yaml:"mode,omitempty"`
	Concurrency int    `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

// IsBatch reports whether the request runs multiple endpoints.
func (r *TestRunRequest) IsBatch() bool {
	return len(r.Endpoints) > 0
}

// Specs normalizes the request into the endpoint list the orchestrator
// drives: batch requests return their endpoints, single requests are
// wrapped into a one-element list.
func (r *TestRunRequest) Specs() []*TestSpec {
	if r.IsBatch() {
		return r.Endpoints
	}
	return []*TestSpec{{
		URL:        r.URL,
		Method:     r.Method,
		Headers:    r.Headers,
		Body:       r.Body,
		Assertions: r.Assertions,
	}}
}

// Validate rejects malformed requests before execution begins. This is the
// configuration-error path: the only errors the engine surfaces
// synchronously.
func (r *TestRunRequest) Validate() error {
	if r.URL == "" && len(r.Endpoints) == 0 {
		return ErrMissingTarget
	}

	if r.Mode != "" && r.Mode != ModeSequential && r.Mode != ModeParallel {
		return fmt.Errorf("unknown execution mode %q", r.Mode)
	}
	if r.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}

	for i, a := range r.Assertions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	for i, ep := range r.Endpoints {
		if ep.URL == "" {
			return fmt.Errorf("endpoints[%d]: url is required", i)
		}
		for j, a := range ep.Assertions {
			if err := a.Validate(); err != nil {
				return fmt.Errorf("endpoints[%d].assertions[%d]: %w", i, j, err)
			}
		}
	}

	return nil
}
