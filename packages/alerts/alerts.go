// Package alerts defines the outbound alert port. The engine fires alert
// checks at notable events; policy evaluation (thresholds, routing,
// deduplication) lives with the external collaborator behind the Checker
// interface. Check failures are logged and never propagated.
package alerts

import (
	"github.com/sirupsen/logrus"
)

// Kind identifies one alert trigger.
type Kind string

const (
	ResponseTimeThreshold Kind = "RESPONSE_TIME_THRESHOLD"
	APIError              Kind = "API_ERROR"
	ValidationFailure     Kind = "VALIDATION_FAILURE"
	TestFailure           Kind = "TEST_FAILURE"
)

// Checker receives alert triggers, fire-and-forget.
type Checker interface {
	Check(kind Kind, payload map[string]any) error
}

// NopChecker ignores all triggers.
type NopChecker struct{}

func (NopChecker) Check(Kind, map[string]any) error { return nil }

// LogChecker writes triggers to a logger.
type LogChecker struct {
	Log logrus.FieldLogger
}

func (c LogChecker) Check(kind Kind, payload map[string]any) error {
	c.Log.WithField("alert", string(kind)).WithFields(logrus.Fields(payload)).Warn("alert triggered")
	return nil
}
