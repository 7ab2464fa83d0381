package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/XiangYd616/webtest/packages/alerts"
	"github.com/XiangYd616/webtest/packages/core/spec"
	"github.com/XiangYd616/webtest/packages/metrics"
	"github.com/XiangYd616/webtest/packages/progress"
	"github.com/XiangYd616/webtest/packages/vars"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// EngineName identifies this engine in result payloads.
	EngineName = "api"
	// DefaultConcurrency is the chunk size for parallel mode
	DefaultConcurrency = 5
	// DefaultResponseTimeThreshold is the latency above which a
	// RESPONSE_TIME_THRESHOLD alert fires, in milliseconds.
	DefaultResponseTimeThreshold = 1000
)

// Orchestrator drives batches of TestSpecs through the executor and
// aggregates the results. Progress and alert collaborators are injected
// ports; their failures are logged and never affect the run.
type Orchestrator struct {
	executor    *Executor
	progress    progress.Publisher
	alerts      alerts.Checker
	log         logrus.FieldLogger
	limiter     *rate.Limiter
	version     string
	concurrency int
	rtThreshold int64
}

type Option func(*Orchestrator)

func WithProgress(p progress.Publisher) Option {
	return func(o *Orchestrator) {
		o.progress = p
	}
}

func WithAlerts(c alerts.Checker) Option {
	return func(o *Orchestrator) {
		o.alerts = c
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// WithRateLimit caps the rate at which request executions may start,
// across both modes.
func WithRateLimit(perSecond float64) Option {
	return func(o *Orchestrator) {
		if perSecond > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func WithVersion(v string) Option {
	return func(o *Orchestrator) {
		o.version = v
	}
}

func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithResponseTimeThreshold sets the latency alert threshold in
// milliseconds.
func WithResponseTimeThreshold(ms int64) Option {
	return func(o *Orchestrator) {
		if ms > 0 {
			o.rtThreshold = ms
		}
	}
}

func NewOrchestrator(executor *Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		executor:    executor,
		progress:    progress.NopPublisher{},
		alerts:      alerts.NopChecker{},
		log:         logrus.StandardLogger(),
		version:     "dev",
		concurrency: DefaultConcurrency,
		rtThreshold: DefaultResponseTimeThreshold,
	}
	if o.executor == nil {
		o.executor = NewExecutor(nil, nil)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunBatch validates the request, executes every spec, and aggregates the
// outcome. The only error it returns is a configuration error raised before
// any I/O; anything that goes wrong later is encoded into the report.
// Every invocation that passes validation produces a report.
func (o *Orchestrator) RunBatch(ctx context.Context, req *spec.TestRunRequest) (report *RunReport, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	testID := req.TestID
	if testID == "" {
		testID = uuid.NewString()
	}

	// Alert dispatches run async; wait for them before returning so the
	// caller sees a quiet engine. Registered before the recover handler so
	// a failure alert fired during recovery is still awaited.
	var alertWG sync.WaitGroup
	defer alertWG.Wait()

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("unexpected orchestration error: %v", r)
			o.log.WithField("testId", testID).Error(msg)
			o.dispatchAlert(&alertWG, alerts.TestFailure, map[string]any{"error": msg})
			o.publish(progress.Event{Stage: progress.StageFailed, Progress: 100, Message: msg})
			report = &RunReport{
				Engine:    EngineName,
				Version:   o.version,
				Success:   false,
				TestID:    testID,
				Timestamp: time.Now(),
				Status:    "failed",
				Score:     0,
				Error:     msg,
				Warnings:  []string{},
				Errors:    []string{msg},
			}
			err = nil
		}
	}()

	seed := vars.New(req.Variables)
	specs := req.Specs()
	n := len(specs)
	recorder := metrics.NewRecorder()
	results := make([]*EndpointResult, n)

	o.publish(progress.Event{
		Stage:    progress.StageStarted,
		Progress: 10,
		Message:  fmt.Sprintf("starting test run with %d endpoint(s)", n),
		Extra:    map[string]any{"testId": testID},
	})

	mode := req.Mode
	if mode == "" {
		mode = spec.ModeSequential
	}

	if mode == spec.ModeParallel {
		o.runParallel(ctx, specs, seed, results, recorder, &alertWG)
	} else {
		o.runSequential(ctx, specs, seed, results, recorder, &alertWG)
	}

	o.publish(progress.Event{Stage: progress.StageValidating, Progress: 95, Message: "aggregating results"})

	summary := buildSummary(results, recorder)
	report = &RunReport{
		Engine:          EngineName,
		Version:         o.version,
		Success:         summary.Failed == 0,
		TestID:          testID,
		Results:         results,
		Summary:         summary,
		Recommendations: batchRecommendations(summary),
		Timestamp:       time.Now(),
		Status:          "completed",
		Score:           summary.successPercent(),
	}

	o.publish(progress.Event{
		Stage:    progress.StageCompleted,
		Progress: 100,
		Message:  fmt.Sprintf("%d/%d endpoints succeeded", summary.Successful, summary.Total),
		Extra:    map[string]any{"testId": testID},
	})

	return report, nil
}

// runSequential executes specs in declared order against one shared
// context, so extractions from step i are visible to templates in every
// later step.
func (o *Orchestrator) runSequential(ctx context.Context, specs []*spec.TestSpec, shared *vars.Context, results []*EndpointResult, recorder *metrics.Recorder, alertWG *sync.WaitGroup) {
	n := len(specs)
	for i, ts := range specs {
		o.waitLimiter(ctx)
		res := o.executor.Run(ctx, ts, shared)
		results[i] = res
		recorder.Record(time.Duration(res.ResponseTime) * time.Millisecond)
		o.fireEndpointAlerts(alertWG, res)

		o.publish(progress.Event{
			Stage:    progress.StageRunning,
			Progress: stepProgress(i+1, n),
			Message:  fmt.Sprintf("completed endpoint %d/%d", i+1, n),
		})
	}
}

// runParallel executes specs in chunks of the concurrency limit. Every
// branch gets its own clone of the seed context: sibling extractions are
// invisible to each other and are not merged back into later chunks. That
// isolation is deliberate, documented behavior; do not "fix" it by sharing
// the context across branches.
func (o *Orchestrator) runParallel(ctx context.Context, specs []*spec.TestSpec, seed *vars.Context, results []*EndpointResult, recorder *metrics.Recorder, alertWG *sync.WaitGroup) {
	n := len(specs)
	concurrency := o.concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	for start := 0; start < n; start += concurrency {
		end := start + concurrency
		if end > n {
			end = n
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int, ts *spec.TestSpec) {
				defer wg.Done()
				o.waitLimiter(ctx)
				branch := seed.Clone()
				results[idx] = o.executor.Run(ctx, ts, branch)
			}(i, specs[i])
		}
		wg.Wait()

		for i := start; i < end; i++ {
			recorder.Record(time.Duration(results[i].ResponseTime) * time.Millisecond)
			o.fireEndpointAlerts(alertWG, results[i])
		}

		o.publish(progress.Event{
			Stage:    progress.StageRunning,
			Progress: stepProgress(end, n),
			Message:  fmt.Sprintf("completed endpoint %d/%d", end, n),
		})
	}
}

// stepProgress maps completed step counts onto the 30..90 progress band.
func stepProgress(completed, total int) int {
	return int(math.Round(30 + float64(completed)/float64(total)*60))
}

func (o *Orchestrator) waitLimiter(ctx context.Context) {
	if o.limiter != nil {
		_ = o.limiter.Wait(ctx)
	}
}

// publish forwards one progress event; publisher failures are logged and
// swallowed.
func (o *Orchestrator) publish(event progress.Event) {
	if err := o.progress.Publish(event); err != nil {
		o.log.WithError(err).Warn("progress publish failed")
	}
}

// dispatchAlert fires one alert check asynchronously. Failures are logged,
// never propagated.
func (o *Orchestrator) dispatchAlert(wg *sync.WaitGroup, kind alerts.Kind, payload map[string]any) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := o.alerts.Check(kind, payload); err != nil {
			o.log.WithError(err).WithField("alert", string(kind)).Warn("alert check failed")
		}
	}()
}

func (o *Orchestrator) fireEndpointAlerts(wg *sync.WaitGroup, res *EndpointResult) {
	if o.rtThreshold > 0 && res.ResponseTime > o.rtThreshold {
		o.dispatchAlert(wg, alerts.ResponseTimeThreshold, map[string]any{
			"value":     res.ResponseTime,
			"threshold": o.rtThreshold,
		})
	}

	if res.Summary.StatusCode >= 500 {
		msg := res.Summary.Error
		if msg == "" && res.Analysis != nil {
			msg = res.Analysis.Status.Message
		}
		o.dispatchAlert(wg, alerts.APIError, map[string]any{
			"statusCode": res.Summary.StatusCode,
			"message":    msg,
		})
	}

	if res.Failed > 0 {
		o.dispatchAlert(wg, alerts.ValidationFailure, map[string]any{
			"failedAssertions": res.Failed,
			"totalAssertions":  res.Failed + res.Passed,
		})
	}
}
