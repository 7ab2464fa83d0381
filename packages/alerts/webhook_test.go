package alerts

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookChecker_Check(t *testing.T) {
	var received webhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewWebhookChecker(server.URL, WithUsername("ci-bot"))
	err := checker.Check(ResponseTimeThreshold, map[string]any{
		"value":     float64(1800),
		"threshold": float64(1000),
	})
	require.NoError(t, err)

	assert.Equal(t, "ci-bot", received.Username)
	assert.Equal(t, string(ResponseTimeThreshold), received.Alert)
	assert.Equal(t, float64(1800), received.Payload["value"])
	assert.NotEmpty(t, received.Time)
}

func TestWebhookChecker_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "channel_not_found", http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewWebhookChecker(server.URL)
	err := checker.Check(APIError, map[string]any{"statusCode": 500})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestWebhookChecker_Unreachable(t *testing.T) {
	checker := NewWebhookChecker("http://127.0.0.1:1/hook")
	err := checker.Check(TestFailure, nil)
	assert.Error(t, err)
}

func TestLogChecker(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()

	err := LogChecker{Log: logger}.Check(ValidationFailure, map[string]any{"failedAssertions": 2})
	require.NoError(t, err)

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, string(ValidationFailure), entry.Data["alert"])
	assert.Equal(t, 2, entry.Data["failedAssertions"])
}

func TestNopChecker(t *testing.T) {
	assert.NoError(t, NopChecker{}.Check(TestFailure, nil))
}
