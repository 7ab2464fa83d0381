package output

import "github.com/XiangYd616/webtest/packages/engine"

// Formatter renders run reports for one output format.
type Formatter interface {
	FormatHeader(version string)
	FormatReport(report *engine.RunReport)
	FormatError(err error)
}

// ForName returns the formatter registered under name, defaulting to the
// console formatter for unknown names.
func ForName(name string, consoleOpts []ConsoleOption, jsonOpts []JSONOption) Formatter {
	switch name {
	case "json":
		return NewJSONFormatter(jsonOpts...)
	default:
		return NewConsoleFormatter(consoleOpts...)
	}
}
