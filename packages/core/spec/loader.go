package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/XiangYd616/webtest/packages/assertions"
	"gopkg.in/yaml.v3"
)

// Load reads a TestRunRequest from a YAML or JSON file, chosen by
// extension. The loaded request is validated before being returned.
func Load(path string) (*TestRunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading test file: %w", err)
	}

	var req *TestRunRequest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		req, err = ParseJSON(data)
	default:
		req, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// ParseYAML decodes a YAML test-run request.
func ParseYAML(data []byte) (*TestRunRequest, error) {
	var req TestRunRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	normalize(&req)
	return &req, nil
}

// ParseJSON decodes a JSON test-run request.
func ParseJSON(data []byte) (*TestRunRequest, error) {
	var req TestRunRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	normalize(&req)
	return &req, nil
}

// normalize rewrites decoder-specific shapes into the canonical ones the
// evaluator expects: yaml.v3 produces map[string]any for untyped maps
// already, but nested map[any]any values can appear inside assertion
// expectations loaded from older YAML; convert them.
func normalize(req *TestRunRequest) {
	for _, a := range req.Assertions {
		normalizeAssertion(a)
	}
	for _, ep := range req.Endpoints {
		ep.Body = normalizeValue(ep.Body)
		for _, a := range ep.Assertions {
			normalizeAssertion(a)
		}
	}
	req.Body = normalizeValue(req.Body)
}

func normalizeAssertion(a *assertions.Spec) {
	a.Expected = normalizeValue(a.Expected)
	a.Max = normalizeValue(a.Max)
	for _, child := range a.Assertions {
		normalizeAssertion(child)
	}
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
