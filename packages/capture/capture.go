// Package capture applies extraction rules to a response and produces new
// variable bindings for the chaining context. Missing or unmatched sources
// are skipped silently; extraction never fails a test step.
package capture

import (
	"fmt"
	"regexp"

	"github.com/XiangYd616/webtest/packages/assertions"
	"github.com/XiangYd616/webtest/packages/httpx"
	"github.com/tidwall/gjson"
)

// Extractor pulls values out of one response.
type Extractor struct {
	response *httpx.Response
	bodyJSON gjson.Result
	hasJSON  bool
}

func NewExtractor(resp *httpx.Response) *Extractor {
	e := &Extractor{response: resp}
	if len(resp.Body) > 0 && gjson.ValidBytes(resp.Body) {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
		e.hasJSON = true
	}
	return e
}

// Extract resolves one rule. The second return value reports whether a
// value was found; values are always coerced to string.
func (e *Extractor) Extract(rule *assertions.Spec) (string, bool) {
	switch rule.Source {
	case assertions.SourceHeader:
		return e.extractFromHeader(rule.Path)
	case assertions.SourceJSON:
		return e.extractFromJSON(rule.Path)
	case assertions.SourceRegex:
		return e.extractFromRegex(rule.Pattern)
	default:
		return "", false
	}
}

func (e *Extractor) extractFromHeader(name string) (string, bool) {
	value := e.response.Header(name)
	if value == "" {
		return "", false
	}
	return value, true
}

func (e *Extractor) extractFromJSON(path string) (string, bool) {
	if !e.hasJSON {
		return "", false
	}
	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return "", false
	}
	if result.Type == gjson.String {
		return result.String(), true
	}
	return fmt.Sprintf("%v", result.Value()), true
}

func (e *Extractor) extractFromRegex(pattern string) (string, bool) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", false
	}
	match := re.FindStringSubmatch(e.response.BodyString())
	if len(match) < 2 {
		return "", false
	}
	return match[1], true
}

// ExtractAll applies every extract-kind rule in the list and returns the new
// bindings. Non-extraction specs are ignored.
func ExtractAll(rules []*assertions.Spec, resp *httpx.Response) map[string]string {
	extractor := NewExtractor(resp)
	results := make(map[string]string)

	for _, rule := range rules {
		if !rule.IsExtraction() {
			continue
		}
		if value, ok := extractor.Extract(rule); ok {
			results[rule.Name] = value
		}
	}

	return results
}
