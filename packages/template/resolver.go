// Package template substitutes {{variable}} placeholders in request
// definitions. Templating is deliberately flat key substitution: no
// functions, no nesting, no expressions.
package template

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}\s][^{}]*?)\s*\}\}`)

// ResolveString replaces every {{name}} occurrence with the bound value.
// Whitespace around the name is ignored. Unbound names resolve to the empty
// string; that is documented behavior, not an error.
func ResolveString(s string, variables map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		return variables[name]
	})
}

// Resolve recursively resolves templates in a value. Strings are
// substituted, slices and maps are walked, everything else passes through
// unchanged. Resolve never fails.
func Resolve(value any, variables map[string]string) any {
	switch v := value.(type) {
	case string:
		return ResolveString(v, variables)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Resolve(item, variables)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = Resolve(item, variables)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, item := range v {
			out[k] = ResolveString(item, variables)
		}
		return out
	default:
		return value
	}
}

// ResolveHeaders resolves templates in a header map.
func ResolveHeaders(headers map[string]string, variables map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[ResolveString(k, variables)] = ResolveString(v, variables)
	}
	return out
}
