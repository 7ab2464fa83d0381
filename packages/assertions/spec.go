// Package assertions defines the typed assertion language evaluated against
// HTTP responses. The set of kinds is closed: dispatch is an exhaustive
// switch, and an unknown kind produces a typed failure instead of a silent
// fallthrough.
package assertions

import "fmt"

// Kind identifies one assertion behavior.
type Kind string

const (
	KindStatus       Kind = "status"
	KindHeader       Kind = "header"
	KindJSON         Kind = "json"
	KindJSONSchema   Kind = "jsonSchema"
	KindBodyContains Kind = "bodyContains"
	KindBodyRegex    Kind = "bodyRegex"
	KindResponseTime Kind = "responseTime"
	KindError        Kind = "error"
	KindAllOf        Kind = "allOf"
	KindAnyOf        Kind = "anyOf"
	// KindExtract is a data-chaining rule, not a check. The evaluator
	// filters it out; the capture package consumes it.
	KindExtract Kind = "extract"
)

// JSON comparison operators for the json kind.
const (
	OpEquals   = "equals"
	OpExists   = "exists"
	OpContains = "contains"
	OpRegex    = "regex"
	OpGt       = "gt"
	OpGte      = "gte"
	OpLt       = "lt"
	OpLte      = "lte"
	OpOneOf    = "oneOf"
)

// Extraction sources for the extract kind.
const (
	SourceHeader = "header"
	SourceJSON   = "json"
	SourceRegex  = "regex"
)

// Spec is one assertion declaration. Which fields apply depends on Kind:
//
//	status        Expected: number | []number | {min,max}
//	header        Name, optional Expected (string, /regex/, or exact value)
//	json          Path, Operator (default equals), Expected
//	jsonSchema    Schema: rule tree (type/required/properties)
//	bodyContains  Expected: substring
//	bodyRegex     Pattern
//	responseTime  Max: number | {min,max}
//	error         Expected: substring or /regex/
//	allOf, anyOf  Assertions: nested specs
//	extract       Name (variable), Source, Path or Pattern
type Spec struct {
	Kind       Kind           `json:"type" yaml:"type"`
	Name       string         `json:"name,omitempty" yaml:"name,omitempty"`
	Path       string         `json:"path,omitempty" yaml:"path,omitempty"`
	Pattern    string         `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Operator   string         `json:"operator,omitempty" yaml:"operator,omitempty"`
	Expected   any            `json:"expected,omitempty" yaml:"expected,omitempty"`
	Max        any            `json:"max,omitempty" yaml:"max,omitempty"`
	Schema     map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
	Source     string         `json:"source,omitempty" yaml:"source,omitempty"`
	Assertions []*Spec        `json:"assertions,omitempty" yaml:"assertions,omitempty"`
}

// IsExtraction reports whether the spec is a data-chaining rule rather than
// a check.
func (s *Spec) IsExtraction() bool {
	return s.Kind == KindExtract
}

// Validate rejects malformed assertion declarations before any network call
// is made. Unknown kinds are still accepted here and reported as failures at
// evaluation time, so one bad assertion never aborts a batch.
func (s *Spec) Validate() error {
	switch s.Kind {
	case "":
		return fmt.Errorf("assertion is missing a type")
	case KindHeader:
		if s.Name == "" {
			return fmt.Errorf("header assertion requires a name")
		}
	case KindJSON:
		if s.Path == "" {
			return fmt.Errorf("json assertion requires a path")
		}
	case KindJSONSchema:
		if len(s.Schema) == 0 {
			return fmt.Errorf("jsonSchema assertion requires a schema rule tree")
		}
	case KindBodyRegex:
		if s.Pattern == "" && s.Expected == nil {
			return fmt.Errorf("bodyRegex assertion requires a pattern")
		}
	case KindAllOf, KindAnyOf:
		if len(s.Assertions) == 0 {
			return fmt.Errorf("%s assertion requires nested assertions", s.Kind)
		}
		for i, child := range s.Assertions {
			if err := child.Validate(); err != nil {
				return fmt.Errorf("%s[%d]: %w", s.Kind, i, err)
			}
		}
	case KindExtract:
		if s.Name == "" {
			return fmt.Errorf("extract rule requires a variable name")
		}
		switch s.Source {
		case SourceHeader, SourceJSON:
			if s.Path == "" {
				return fmt.Errorf("extract rule with %s source requires a path", s.Source)
			}
		case SourceRegex:
			if s.Pattern == "" {
				return fmt.Errorf("extract rule with regex source requires a pattern")
			}
		default:
			return fmt.Errorf("extract rule has unknown source %q", s.Source)
		}
	}
	return nil
}

// Result is the outcome of evaluating one assertion. Composite kinds carry
// their children's results in Details.
type Result struct {
	Passed   bool      `json:"passed"`
	Type     Kind      `json:"type"`
	Message  string    `json:"message"`
	Expected any       `json:"expected,omitempty"`
	Actual   any       `json:"actual,omitempty"`
	Path     string    `json:"path,omitempty"`
	Details  []*Result `json:"details,omitempty"`
}
