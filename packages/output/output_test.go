package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	assertpkg "github.com/courierhq/courier/packages/assert"
	"github.com/courierhq/courier/packages/httpx"
	"github.com/courierhq/courier/packages/metrics"
	"github.com/courierhq/courier/packages/model"
	"github.com/courierhq/courier/packages/runner"
	"github.com/courierhq/courier/packages/script"
)

func sampleResult() *runner.RunResult {
	okReq := model.NewHttpRequest("", "list users", model.MethodGet, "https://api.example.com/users")
	ok := &runner.ExecutionRecord{
		Request: okReq,
		Resolved: &model.ResolvedRequest{
			Method: model.MethodGet,
			URL:    "https://api.example.com/users",
		},
		Response: &httpx.Response{StatusCode: 200, Status: "200 OK", Duration: 12 * time.Millisecond},
		PreScript: &script.Result{OK: true},
		PostScript: &script.Result{
			OK:        true,
			Mutations: []script.Mutation{{Name: "userId", Value: "123"}},
		},
		Tests: &assertpkg.Report{Entries: []assertpkg.Entry{
			{Name: "ok", Passed: true},
		}},
		Status:   runner.StatusSucceeded,
		Duration: 15 * time.Millisecond,
	}

	badReq := model.NewHttpRequest("", "broken", model.MethodGet, "https://api.example.com/{{missing}}")
	bad := &runner.ExecutionRecord{
		Request:     badReq,
		Status:      runner.StatusResolutionFailed,
		FailedStage: runner.StageResolving,
		Reason:      `unresolved identifier "missing" in url`,
	}

	m := metrics.NewRunMetrics()
	m.Record(12*time.Millisecond, false)

	return &runner.RunResult{
		Collection: "users",
		Records:    []*runner.ExecutionRecord{ok, bad},
		Passed:     1,
		Failed:     1,
		Duration:   20 * time.Millisecond,
		Metrics:    m,
	}
}

func TestConsoleFormatterSummarizesRun(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatResult(sampleResult())

	out := buf.String()
	assert.Contains(t, out, "Running: users")
	assert.Contains(t, out, "✓ list users GET https://api.example.com/users")
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, `resolving: unresolved identifier "missing" in url`)
	assert.Contains(t, out, "1 passed")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "2 total")
}

func TestConsoleFormatterVerboseShowsStatusAndLatency(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	f.FormatResult(sampleResult())

	out := buf.String()
	assert.Contains(t, out, "Status: 200")
	assert.Contains(t, out, "Latency:")
}

func TestJSONFormatterOutput(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	require.NoError(t, f.FormatResult(sampleResult()))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "users", out.Collection)
	assert.Equal(t, 2, out.Summary.Total)
	assert.Equal(t, 1, out.Summary.Passed)
	assert.Equal(t, 1, out.Summary.Failed)
	require.Len(t, out.Requests, 2)

	assert.Equal(t, "succeeded", out.Requests[0].Status)
	require.NotNil(t, out.Requests[0].Response)
	assert.Equal(t, 200, out.Requests[0].Response.StatusCode)
	assert.Equal(t, "123", out.Requests[0].Variables["userId"])

	assert.Equal(t, "resolution-failed", out.Requests[1].Status)
	assert.Equal(t, "resolving", out.Requests[1].FailedStage)
	assert.Nil(t, out.Requests[1].Response)

	require.NotNil(t, out.Metrics)
	assert.Greater(t, out.Metrics.MaxMs, 0.0)
}
