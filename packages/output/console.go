package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/courierhq/courier/packages/runner"
	"github.com/courierhq/courier/packages/script"
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

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Running: "+result.Collection))

	for _, rec := range result.Records {
		symbol := green("✓")
		if !rec.Passed() {
			symbol = red("✗")
		}

		name := rec.Request.Name
		if rec.Resolved != nil {
			name = fmt.Sprintf("%s %s %s", name, rec.Resolved.Method, rec.Resolved.URL)
		}
		fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, name, cyan(fmt.Sprintf("(%dms)", rec.Duration.Milliseconds())))

		if rec.Status != runner.StatusSucceeded {
			fmt.Fprintf(f.writer, "    %s %s: %s\n", red("→"), rec.FailedStage, rec.Reason)
		}

		if f.verbose && rec.Response != nil {
			fmt.Fprintf(f.writer, "    Status: %d\n", rec.Response.StatusCode)
		}

		if rec.Tests != nil {
			for _, entry := range rec.Tests.Entries {
				if entry.Passed {
					if f.verbose {
						fmt.Fprintf(f.writer, "    %s %s\n", green("✓"), entry.Name)
					}
					continue
				}
				fmt.Fprintf(f.writer, "    %s %s\n", red("✗"), entry.Name)
				if entry.Message != "" {
					fmt.Fprintf(f.writer, "      %s\n", entry.Message)
				}
			}
		}

		if f.verbose {
			f.printScriptLogs("pre", rec.PreScript, yellow)
			f.printScriptLogs("post", rec.PostScript, yellow)
		}
	}

	fmt.Fprintf(f.writer, "\nRequests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	fmt.Fprintf(f.writer, "%d total\n", len(result.Records))
	if result.Cancelled {
		fmt.Fprintf(f.writer, "%s\n", yellow("Run cancelled"))
	}
	fmt.Fprintf(f.writer, "Time:     %dms\n", result.Duration.Milliseconds())

	if f.verbose && result.Metrics != nil {
		s := result.Metrics.Summary()
		if s.Requests > 0 {
			fmt.Fprintf(f.writer, "Latency:  mean %dms, p95 %dms, p99 %dms, max %dms\n",
				s.Mean.Milliseconds(), s.P95.Milliseconds(), s.P99.Milliseconds(), s.Max.Milliseconds())
		}
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) printScriptLogs(label string, res *script.Result, paint func(...any) string) {
	if res == nil {
		return
	}
	for _, line := range res.Logs {
		fmt.Fprintf(f.writer, "    %s %s\n", paint(label+":"), line)
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("courier"), version)
}
