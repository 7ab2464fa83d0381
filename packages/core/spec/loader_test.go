package spec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/XiangYd616/webtest/packages/assertions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlSuite = `
testId: smoke-1
mode: sequential
variables:
  baseUrl: https://api.example.com
endpoints:
  - name: login
    url: "{{baseUrl}}/login"
    method: POST
    body:
      username: admin
    assertions:
      - type: status
        expected: 200
      - type: extract
        name: token
        source: json
        path: data.token
  - name: profile
    url: "{{baseUrl}}/me"
    headers:
      Authorization: "Bearer {{token}}"
    assertions:
      - type: status
        expected:
          min: 200
          max: 299
      - type: responseTime
        max: 1500
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	req, err := Load(writeFile(t, "suite.yaml", yamlSuite))
	require.NoError(t, err)

	assert.Equal(t, "smoke-1", req.TestID)
	assert.Equal(t, ModeSequential, req.Mode)
	assert.Equal(t, "https://api.example.com", req.Variables["baseUrl"])
	require.Len(t, req.Endpoints, 2)

	login := req.Endpoints[0]
	assert.Equal(t, "login", login.Name)
	assert.Equal(t, "POST", login.Method)
	require.Len(t, login.Assertions, 2)
	assert.Equal(t, assertions.KindStatus, login.Assertions[0].Kind)
	assert.True(t, login.Assertions[1].IsExtraction())

	// Structured YAML values decode into string-keyed maps all the way down.
	body, ok := login.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "admin", body["username"])

	rangeExpected, ok := req.Endpoints[1].Assertions[0].Expected.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 200, rangeExpected["min"])
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "suite.json", `{
		"url": "https://api.example.com/healthz",
		"assertions": [
			{"type": "status", "expected": 200},
			{"type": "json", "path": "status", "expected": "ok"}
		]
	}`)

	req, err := Load(path)
	require.NoError(t, err)

	assert.False(t, req.IsBatch())
	specs := req.Specs()
	require.Len(t, specs, 1)
	assert.Equal(t, "https://api.example.com/healthz", specs[0].URL)
	assert.Len(t, specs[0].Assertions, 2)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "endpoints: [\n"))
		assert.Error(t, err)
	})

	t.Run("invalid request rejected at load", func(t *testing.T) {
		_, err := Load(writeFile(t, "empty.yaml", "mode: sequential\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingTarget)
	})
}

func TestTestRunRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *TestRunRequest
		wantErr string
	}{
		{"no target", &TestRunRequest{}, ErrMissingTarget.Error()},
		{"unknown mode", &TestRunRequest{URL: "https://x.test", Mode: "burst"}, "unknown execution mode"},
		{"negative concurrency", &TestRunRequest{URL: "https://x.test", Concurrency: -1}, "must not be negative"},
		{
			"invalid assertion",
			&TestRunRequest{URL: "https://x.test", Assertions: []*assertions.Spec{{}}},
			"assertions[0]",
		},
		{
			"endpoint without url",
			&TestRunRequest{Endpoints: []*TestSpec{{Name: "x"}}},
			"endpoints[0]: url is required",
		},
		{
			"invalid endpoint assertion",
			&TestRunRequest{Endpoints: []*TestSpec{{URL: "https://x.test", Assertions: []*assertions.Spec{{Kind: assertions.KindJSON}}}}},
			"endpoints[0].assertions[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid single and batch", func(t *testing.T) {
		assert.NoError(t, (&TestRunRequest{URL: "https://x.test"}).Validate())
		assert.NoError(t, (&TestRunRequest{
			Mode:        ModeParallel,
			Concurrency: 3,
			Endpoints:   []*TestSpec{{URL: "https://x.test"}},
		}).Validate())
	})
}

func TestSpecs_WrapsSingleRequest(t *testing.T) {
	req := &TestRunRequest{
		URL:    "https://x.test/users",
		Method: "POST",
		Body:   map[string]any{"a": 1},
		Assertions: []*assertions.Spec{
			{Kind: assertions.KindStatus, Expected: 201},
		},
	}

	specs := req.Specs()
	require.Len(t, specs, 1)
	assert.Equal(t, req.URL, specs[0].URL)
	assert.Equal(t, req.Method, specs[0].Method)
	assert.Equal(t, req.Body, specs[0].Body)
	assert.Equal(t, req.Assertions, specs[0].Assertions)
}
