package assertions

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// Evaluate checks one assertion against a response view. It never panics and
// never returns nil: a malformed assertion or an evaluation error becomes a
// failed Result carrying the error message, so one bad assertion cannot
// abort its siblings or the batch.
func Evaluate(spec *Spec, view *ResponseView) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			result = &Result{
				Passed:  false,
				Type:    spec.Kind,
				Path:    spec.Path,
				Message: fmt.Sprintf("assertion evaluation error: %v", r),
			}
		}
	}()

	switch spec.Kind {
	case KindStatus:
		return evalStatus(spec, view)
	case KindHeader:
		return evalHeader(spec, view)
	case KindJSON:
		return evalJSON(spec, view)
	case KindJSONSchema:
		return evalJSONSchema(spec, view)
	case KindBodyContains:
		return evalBodyContains(spec, view)
	case KindBodyRegex:
		return evalBodyRegex(spec, view)
	case KindResponseTime:
		return evalResponseTime(spec, view)
	case KindError:
		return evalError(spec, view)
	case KindAllOf, KindAnyOf:
		return evalComposite(spec, view)
	case KindExtract:
		// Chaining rules are the extractor's job; they carry no pass/fail
		// weight here.
		return &Result{Passed: true, Type: KindExtract, Message: "extraction rule, handled by the extractor"}
	default:
		return &Result{
			Passed:  false,
			Type:    spec.Kind,
			Message: fmt.Sprintf("unsupported assertion type: %q", spec.Kind),
		}
	}
}

// EvaluateAll evaluates every non-extraction assertion and tallies the
// outcome. Extraction rules are filtered out.
func EvaluateAll(specs []*Spec, view *ResponseView) (results []*Result, passed, failed int) {
	for _, spec := range specs {
		if spec.IsExtraction() {
			continue
		}
		r := Evaluate(spec, view)
		results = append(results, r)
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}
	return results, passed, failed
}

func evalStatus(spec *Spec, view *ResponseView) *Result {
	result := &Result{Type: KindStatus, Expected: spec.Expected, Actual: view.StatusCode}
	code := float64(view.StatusCode)

	switch expected := spec.Expected.(type) {
	case []any:
		for _, e := range expected {
			if n, ok := toFloat64(e); ok && n == code {
				result.Passed = true
				result.Message = fmt.Sprintf("status code %d is in the expected set", view.StatusCode)
				return result
			}
		}
		result.Message = fmt.Sprintf("status code %d is not in the expected set %v", view.StatusCode, expected)
	case map[string]any:
		min, minOK := toFloat64(expected["min"])
		max, maxOK := toFloat64(expected["max"])
		if !minOK || !maxOK {
			result.Message = fmt.Sprintf("status range must define numeric min and max, got %v", expected)
			return result
		}
		if code >= min && code <= max {
			result.Passed = true
			result.Message = fmt.Sprintf("status code %d is within [%v, %v]", view.StatusCode, expected["min"], expected["max"])
		} else {
			result.Message = fmt.Sprintf("status code %d is outside [%v, %v]", view.StatusCode, expected["min"], expected["max"])
		}
	default:
		n, ok := toFloat64(spec.Expected)
		if !ok {
			result.Message = fmt.Sprintf("status expectation must be a number, list, or range, got %T", spec.Expected)
			return result
		}
		if n == code {
			result.Passed = true
			result.Message = fmt.Sprintf("status code is %d", view.StatusCode)
		} else {
			result.Message = fmt.Sprintf("expected status %v, got %d", spec.Expected, view.StatusCode)
		}
	}
	return result
}

func evalHeader(spec *Spec, view *ResponseView) *Result {
	actual, present := view.HeaderValue(spec.Name)
	result := &Result{Type: KindHeader, Path: spec.Name, Expected: spec.Expected, Actual: actual}

	if spec.Expected == nil {
		result.Passed = present
		if present {
			result.Message = fmt.Sprintf("header %q is present", spec.Name)
		} else {
			result.Message = fmt.Sprintf("header %q is missing", spec.Name)
		}
		return result
	}

	switch expected := spec.Expected.(type) {
	case string:
		if pattern, ok := regexLiteral(expected); ok {
			re, err := regexp.Compile(pattern)
			if err != nil {
				result.Message = fmt.Sprintf("invalid header pattern %q: %v", pattern, err)
				return result
			}
			result.Passed = re.MatchString(actual)
			if result.Passed {
				result.Message = fmt.Sprintf("header %q matches /%s/", spec.Name, pattern)
			} else {
				result.Message = fmt.Sprintf("header %q value %q does not match /%s/", spec.Name, actual, pattern)
			}
			return result
		}
		result.Passed = strings.Contains(actual, expected)
		if result.Passed {
			result.Message = fmt.Sprintf("header %q contains %q", spec.Name, expected)
		} else {
			result.Message = fmt.Sprintf("header %q value %q does not contain %q", spec.Name, actual, expected)
		}
	default:
		expectedStr := fmt.Sprintf("%v", spec.Expected)
		result.Passed = actual == expectedStr
		if result.Passed {
			result.Message = fmt.Sprintf("header %q equals %q", spec.Name, expectedStr)
		} else {
			result.Message = fmt.Sprintf("expected header %q to equal %q, got %q", spec.Name, expectedStr, actual)
		}
	}
	return result
}

// bracketIndex rewrites array bracket notation into gjson dot notation,
// e.g. "items[0].tags[1]" -> "items.0.tags.1".
var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

func convertBracketNotation(path string) string {
	out := bracketIndex.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(out, ".")
}

func evalJSON(spec *Spec, view *ResponseView) *Result {
	result := &Result{Type: KindJSON, Path: spec.Path, Expected: spec.Expected}

	var value gjson.Result
	if view.HasJSON {
		value = view.JSON.Get(convertBracketNotation(spec.Path))
	}
	if value.Exists() {
		result.Actual = value.Value()
	}

	op := spec.Operator
	if op == "" {
		op = OpEquals
	}

	switch op {
	case OpExists:
		result.Passed = value.Exists()
		if result.Passed {
			result.Message = fmt.Sprintf("path %q exists", spec.Path)
		} else {
			result.Message = fmt.Sprintf("path %q does not exist", spec.Path)
		}
	case OpContains:
		result.Passed, result.Message = jsonContains(spec.Path, value, spec.Expected)
	case OpRegex:
		pattern := fmt.Sprintf("%v", spec.Expected)
		if p, ok := regexLiteral(pattern); ok {
			pattern = p
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			result.Message = fmt.Sprintf("invalid pattern %q: %v", pattern, err)
			return result
		}
		result.Passed = re.MatchString(value.String())
		if result.Passed {
			result.Message = fmt.Sprintf("value at %q matches /%s/", spec.Path, pattern)
		} else {
			result.Message = fmt.Sprintf("value %q at %q does not match /%s/", value.String(), spec.Path, pattern)
		}
	case OpGt, OpGte, OpLt, OpLte:
		result.Passed, result.Message = jsonCompareNumeric(spec.Path, value, op, spec.Expected)
	case OpOneOf:
		options, ok := spec.Expected.([]any)
		if !ok {
			options = []any{spec.Expected}
		}
		for _, opt := range options {
			if strictEquals(value.Value(), opt) {
				result.Passed = true
				break
			}
		}
		if result.Passed {
			result.Message = fmt.Sprintf("value at %q is one of %v", spec.Path, options)
		} else {
			result.Message = fmt.Sprintf("value %v at %q is not one of %v", value.Value(), spec.Path, options)
		}
	case OpEquals:
		result.Passed = strictEquals(value.Value(), spec.Expected)
		if result.Passed {
			result.Message = fmt.Sprintf("value at %q equals %v", spec.Path, spec.Expected)
		} else {
			result.Message = fmt.Sprintf("expected %v at %q, got %v", spec.Expected, spec.Path, value.Value())
		}
	default:
		result.Message = fmt.Sprintf("unsupported json operator: %q", op)
	}
	return result
}

func jsonContains(path string, value gjson.Result, expected any) (bool, string) {
	if value.IsArray() {
		for _, item := range value.Array() {
			if strictEquals(item.Value(), expected) {
				return true, fmt.Sprintf("array at %q contains %v", path, expected)
			}
		}
		return false, fmt.Sprintf("array at %q does not contain %v", path, expected)
	}
	needle := fmt.Sprintf("%v", expected)
	if strings.Contains(value.String(), needle) {
		return true, fmt.Sprintf("value at %q contains %q", path, needle)
	}
	return false, fmt.Sprintf("value %q at %q does not contain %q", value.String(), path, needle)
}

func jsonCompareNumeric(path string, value gjson.Result, op string, expected any) (bool, string) {
	actual, aOK := toFloat64(value.Value())
	bound, eOK := toFloat64(expected)
	if !aOK || !eOK {
		return false, fmt.Sprintf("cannot compare non-numeric values at %q: %v %s %v", path, value.Value(), op, expected)
	}

	var passed bool
	switch op {
	case OpGt:
		passed = actual > bound
	case OpGte:
		passed = actual >= bound
	case OpLt:
		passed = actual < bound
	case OpLte:
		passed = actual <= bound
	}
	if passed {
		return true, fmt.Sprintf("value %v at %q satisfies %s %v", actual, path, op, bound)
	}
	return false, fmt.Sprintf("expected value at %q to be %s %v, got %v", path, op, bound, actual)
}

func evalJSONSchema(spec *Spec, view *ResponseView) *Result {
	result := &Result{Type: KindJSONSchema, Expected: spec.Schema}

	if !view.HasJSON {
		result.Message = "response body is not valid JSON"
		return result
	}

	// The rule tree (type/required/properties) is itself a JSON Schema
	// document, so it is validated as one. All violations are collected,
	// not just the first.
	schemaBytes, err := json.Marshal(spec.Schema)
	if err != nil {
		result.Message = fmt.Sprintf("invalid schema rule tree: %v", err)
		return result
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	documentLoader := gojsonschema.NewStringLoader(view.Body)

	validation, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		result.Message = fmt.Sprintf("schema validation error: %v", err)
		return result
	}

	if validation.Valid() {
		result.Passed = true
		result.Message = "body matches the schema"
		return result
	}

	var violations []string
	for _, desc := range validation.Errors() {
		violations = append(violations, desc.String())
	}
	result.Message = fmt.Sprintf("schema validation failed: %s", strings.Join(violations, "; "))
	return result
}

func evalBodyContains(spec *Spec, view *ResponseView) *Result {
	substring := fmt.Sprintf("%v", spec.Expected)
	result := &Result{Type: KindBodyContains, Expected: substring}
	result.Passed = strings.Contains(view.Body, substring)
	if result.Passed {
		result.Message = fmt.Sprintf("body contains %q", substring)
	} else {
		result.Message = fmt.Sprintf("body does not contain %q", substring)
	}
	return result
}

func evalBodyRegex(spec *Spec, view *ResponseView) *Result {
	pattern := spec.Pattern
	if pattern == "" {
		pattern = fmt.Sprintf("%v", spec.Expected)
	}
	if p, ok := regexLiteral(pattern); ok {
		pattern = p
	}

	result := &Result{Type: KindBodyRegex, Expected: pattern}
	re, err := regexp.Compile(pattern)
	if err != nil {
		result.Message = fmt.Sprintf("invalid pattern %q: %v", pattern, err)
		return result
	}
	result.Passed = re.MatchString(view.Body)
	if result.Passed {
		result.Message = fmt.Sprintf("body matches /%s/", pattern)
	} else {
		result.Message = fmt.Sprintf("body does not match /%s/", pattern)
	}
	return result
}

func evalResponseTime(spec *Spec, view *ResponseView) *Result {
	result := &Result{Type: KindResponseTime, Expected: spec.Max, Actual: view.ResponseTime}
	rt := float64(view.ResponseTime)

	switch bound := spec.Max.(type) {
	case map[string]any:
		min, minOK := toFloat64(bound["min"])
		max, maxOK := toFloat64(bound["max"])
		if !minOK || !maxOK {
			result.Message = fmt.Sprintf("responseTime range must define numeric min and max, got %v", bound)
			return result
		}
		result.Passed = rt >= min && rt <= max
		if result.Passed {
			result.Message = fmt.Sprintf("response time %dms is within [%v, %v]", view.ResponseTime, bound["min"], bound["max"])
		} else {
			result.Message = fmt.Sprintf("response time %dms is outside [%v, %v]", view.ResponseTime, bound["min"], bound["max"])
		}
	default:
		max, ok := toFloat64(spec.Max)
		if !ok {
			result.Message = fmt.Sprintf("responseTime bound must be a number or range, got %T", spec.Max)
			return result
		}
		result.Passed = rt <= max
		if result.Passed {
			result.Message = fmt.Sprintf("response time %dms is within %vms", view.ResponseTime, max)
		} else {
			result.Message = fmt.Sprintf("response time %dms exceeds %vms", view.ResponseTime, max)
		}
	}
	return result
}

func evalError(spec *Spec, view *ResponseView) *Result {
	expected := fmt.Sprintf("%v", spec.Expected)
	result := &Result{Type: KindError, Expected: expected, Actual: view.Error}

	if pattern, ok := regexLiteral(expected); ok {
		re, err := regexp.Compile(pattern)
		if err != nil {
			result.Message = fmt.Sprintf("invalid error pattern %q: %v", pattern, err)
			return result
		}
		result.Passed = re.MatchString(view.Error)
	} else {
		result.Passed = strings.Contains(view.Error, expected)
	}

	if result.Passed {
		result.Message = fmt.Sprintf("error message matches %q", expected)
	} else {
		result.Message = fmt.Sprintf("error message %q does not match %q", view.Error, expected)
	}
	return result
}

// evalComposite evaluates every child with no short-circuit so diagnostics
// stay complete: allOf passes iff every child passes, anyOf passes iff at
// least one does.
func evalComposite(spec *Spec, view *ResponseView) *Result {
	result := &Result{Type: spec.Kind}

	passedCount := 0
	for _, child := range spec.Assertions {
		childResult := Evaluate(child, view)
		result.Details = append(result.Details, childResult)
		if childResult.Passed {
			passedCount++
		}
	}

	total := len(spec.Assertions)
	if spec.Kind == KindAllOf {
		result.Passed = passedCount == total
	} else {
		result.Passed = passedCount > 0
	}

	if result.Passed {
		result.Message = fmt.Sprintf("%s: %d/%d nested assertions passed", spec.Kind, passedCount, total)
	} else {
		result.Message = fmt.Sprintf("%s failed: %d/%d nested assertions passed", spec.Kind, passedCount, total)
	}
	return result
}

// regexLiteral reports whether a string is a /delimited/ regex and returns
// the inner pattern.
func regexLiteral(s string) (string, bool) {
	if len(s) > 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// strictEquals mirrors strict equality over JSON values: numbers compare
// numerically across Go numeric types, everything else must match in both
// type and value. A string never equals a number.
func strictEquals(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if aNum, aOK := numericValue(actual); aOK {
		eNum, eOK := numericValue(expected)
		return eOK && aNum == eNum
	}
	if _, eOK := numericValue(expected); eOK {
		return false
	}
	return reflect.DeepEqual(actual, expected)
}

// numericValue converts Go numeric types to float64. Unlike toFloat64 it
// does not accept numeric strings.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// toFloat64 coerces numbers and numeric strings, for the operators that
// specify numeric coercion.
func toFloat64(v any) (float64, bool) {
	if n, ok := numericValue(v); ok {
		return n, true
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
