package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/XiangYd616/webtest/packages/engine"
)

// JSONFormatter writes the run report as indented JSON. The report is
// already the canonical payload, so the formatter serializes it directly.
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatReport(report *engine.RunReport) {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(report)
}

func (f *JSONFormatter) FormatError(err error) {
	payload := map[string]any{"success": false, "error": err.Error()}
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(payload)
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}
