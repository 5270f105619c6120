package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/courierhq/courier/packages/runner"
)

// JSONOutput is the machine-readable shape of one collection run.
type JSONOutput struct {
	Collection string       `json:"collection"`
	Summary    JSONSummary  `json:"summary"`
	Requests   []JSONRecord `json:"requests"`
	Metrics    *JSONMetrics `json:"metrics,omitempty"`
	Duration   float64      `json:"duration"`
	Time       string       `json:"time"`
}

type JSONSummary struct {
	Total     int  `json:"total"`
	Passed    int  `json:"passed"`
	Failed    int  `json:"failed"`
	Cancelled bool `json:"cancelled,omitempty"`
}

type JSONRecord struct {
	Name        string          `json:"name"`
	Status      string          `json:"status"`
	FailedStage string          `json:"failedStage,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Duration    float64         `json:"duration"`
	Request     *JSONRequest    `json:"request,omitempty"`
	Response    *JSONResponse   `json:"response,omitempty"`
	Tests       []JSONAssertion `json:"tests,omitempty"`
	Variables   map[string]any  `json:"variables,omitempty"`
}

type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Duration   float64           `json:"duration"`
}

type JSONAssertion struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

type JSONMetrics struct {
	MeanMs float64 `json:"meanMs"`
	P50Ms  float64 `json:"p50Ms"`
	P95Ms  float64 `json:"p95Ms"`
	P99Ms  float64 `json:"p99Ms"`
	MaxMs  float64 `json:"maxMs"`
}

// JSONFormatter renders a run as one indented JSON document.
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

func (f *JSONFormatter) FormatResult(result *runner.RunResult) error {
	out := JSONOutput{
		Collection: result.Collection,
		Summary: JSONSummary{
			Total:     len(result.Records),
			Passed:    result.Passed,
			Failed:    result.Failed,
			Cancelled: result.Cancelled,
		},
		Requests: make([]JSONRecord, 0, len(result.Records)),
		Duration: float64(result.Duration.Milliseconds()),
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	for _, rec := range result.Records {
		out.Requests = append(out.Requests, convertRecord(rec))
	}

	if result.Metrics != nil {
		if s := result.Metrics.Summary(); s.Requests > 0 {
			out.Metrics = &JSONMetrics{
				MeanMs: ms(s.Mean),
				P50Ms:  ms(s.P50),
				P95Ms:  ms(s.P95),
				P99Ms:  ms(s.P99),
				MaxMs:  ms(s.Max),
			}
		}
	}

	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func convertRecord(rec *runner.ExecutionRecord) JSONRecord {
	jr := JSONRecord{
		Name:        rec.Request.Name,
		Status:      string(rec.Status),
		FailedStage: string(rec.FailedStage),
		Reason:      rec.Reason,
		Duration:    float64(rec.Duration.Milliseconds()),
	}

	if rec.Resolved != nil {
		jr.Request = &JSONRequest{
			Method:  string(rec.Resolved.Method),
			URL:     rec.Resolved.URL,
			Headers: rec.Resolved.Headers,
		}
	}
	if rec.Response != nil {
		jr.Response = &JSONResponse{
			StatusCode: rec.Response.StatusCode,
			Status:     rec.Response.Status,
			Headers:    rec.Response.Headers,
			Duration:   float64(rec.Response.Duration.Milliseconds()),
		}
	}
	if rec.Tests != nil {
		for _, entry := range rec.Tests.Entries {
			jr.Tests = append(jr.Tests, JSONAssertion{
				Name:    entry.Name,
				Passed:  entry.Passed,
				Message: entry.Message,
			})
		}
	}
	if rec.PostScript != nil && len(rec.PostScript.Mutations) > 0 {
		jr.Variables = make(map[string]any, len(rec.PostScript.Mutations))
		for _, m := range rec.PostScript.Mutations {
			if m.Unset {
				jr.Variables[m.Name] = nil
			} else {
				jr.Variables[m.Name] = m.Value
			}
		}
	}
	return jr
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
