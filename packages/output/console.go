package output

import (
	"fmt"
	"io"
	"os"

	"github.com/XiangYd616/webtest/packages/engine"
	"github.com/fatih/color"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatReport(report *engine.RunReport) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s %s\n\n", bold("Test run:"), report.TestID)

	for _, r := range report.Results {
		symbol := green("✓")
		if !r.Success {
			symbol = red("✗")
		}

		label := r.Name
		if label == "" {
			label = fmt.Sprintf("%s %s", r.Method, r.URL)
		}
		fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, label, cyan(fmt.Sprintf("(%dms)", r.ResponseTime)))

		if r.Error != "" {
			fmt.Fprintf(f.writer, "    %s %s\n", red("→"), r.Error)
		}

		if !r.Success {
			for _, v := range r.Validations {
				if v.Passed {
					continue
				}
				fmt.Fprintf(f.writer, "    %s [%s] %s\n", red("→"), v.Type, v.Message)
				if v.Expected != nil {
					fmt.Fprintf(f.writer, "      Expected: %v\n", v.Expected)
				}
				if v.Actual != nil {
					fmt.Fprintf(f.writer, "      Actual:   %v\n", v.Actual)
				}
			}
		}

		if f.verbose && len(r.Extractions) > 0 {
			fmt.Fprintf(f.writer, "    Extractions:\n")
			for name, value := range r.Extractions {
				fmt.Fprintf(f.writer, "      %s = %s\n", name, value)
			}
		}

		if f.verbose {
			for _, rec := range r.Recommendations {
				fmt.Fprintf(f.writer, "    %s %s\n", yellow("!"), rec)
			}
		}
	}

	fmt.Fprintf(f.writer, "\n")
	if report.Summary != nil {
		s := report.Summary
		fmt.Fprintf(f.writer, "Endpoints: ")
		if s.Successful > 0 {
			fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", s.Successful)))
		}
		if s.Failed > 0 {
			fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", s.Failed)))
		}
		fmt.Fprintf(f.writer, "%d total (%s)\n", s.Total, s.SuccessRate)
		fmt.Fprintf(f.writer, "Average:   %dms\n", s.AverageResponseTime)
		if s.Latency != nil {
			fmt.Fprintf(f.writer, "Latency:   p50=%dms p95=%dms p99=%dms max=%dms\n",
				s.Latency.P50, s.Latency.P95, s.Latency.P99, s.Latency.Max)
		}
	}

	if report.Error != "" {
		fmt.Fprintf(f.writer, "%s %s\n", red("Error:"), report.Error)
	}

	for _, rec := range report.Recommendations {
		fmt.Fprintf(f.writer, "%s %s\n", yellow("!"), rec)
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("webtest"), version)
}
