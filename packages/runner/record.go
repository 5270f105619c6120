package runner

import (
	"time"

	"github.com/courierhq/courier/packages/assert"
	"github.com/courierhq/courier/packages/httpx"
	"github.com/courierhq/courier/packages/metrics"
	"github.com/courierhq/courier/packages/model"
	"github.com/courierhq/courier/packages/script"
)

// Stage names one step of the request pipeline.
type Stage string

const (
	StageResolving  Stage = "resolving"
	StagePreScript  Stage = "pre-script"
	StageSending    Stage = "sending"
	StagePostScript Stage = "post-script"
	StageTesting    Stage = "testing"
)

// Status is the total outcome of one request execution. Failed test
// assertions do not fail the status; they live in the test report.
type Status string

const (
	StatusSucceeded        Status = "succeeded"
	StatusResolutionFailed Status = "resolution-failed"
	StatusScriptFailed     Status = "script-failed"
	StatusTransportFailed  Status = "transport-failed"
)

// ExecutionRecord is the full structured outcome of one request's pipeline
// run. Reaching a record means the pipeline completed; per-stage fields say
// how far it got and what each stage produced.
type ExecutionRecord struct {
	Request     *model.HttpRequest
	Resolved    *model.ResolvedRequest
	Response    *httpx.Response
	PreScript   *script.Result
	PostScript  *script.Result
	Tests       *assert.Report
	Status      Status
	FailedStage Stage
	Reason      string
	Duration    time.Duration
}

func (r *ExecutionRecord) fail(stage Stage, status Status, reason string) {
	// first failure wins; later stages still run per pipeline policy
	if r.Status == StatusSucceeded {
		r.Status = status
		r.FailedStage = stage
		r.Reason = reason
	}
}

// Passed reports whether every stage succeeded and every assertion passed.
func (r *ExecutionRecord) Passed() bool {
	if r.Status != StatusSucceeded {
		return false
	}
	if r.Tests != nil && !r.Tests.Passed() {
		return false
	}
	return true
}

// RunResult is the outcome of one collection run.
type RunResult struct {
	Collection string
	Records    []*ExecutionRecord
	Passed     int
	Failed     int
	Cancelled  bool
	Duration   time.Duration
	Metrics    *metrics.RunMetrics
}
