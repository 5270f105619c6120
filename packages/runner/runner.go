package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/courierhq/courier/packages/assert"
	"github.com/courierhq/courier/packages/envstore"
	"github.com/courierhq/courier/packages/httpx"
	"github.com/courierhq/courier/packages/metrics"
	"github.com/courierhq/courier/packages/model"
	"github.com/courierhq/courier/packages/script"
	"github.com/courierhq/courier/packages/template"
)

// Transport sends one fully resolved request. One call per request; retry
// policy, if any, lives behind this boundary.
type Transport interface {
	Send(ctx context.Context, req *model.ResolvedRequest) (*httpx.Response, error)
}

// EnvStore is the variable-store surface the orchestrator needs. Mutations
// written during one request must be visible when the next request resolves.
type EnvStore interface {
	ActiveEnvironment() *model.Environment
	GetVariable(envID, name string) (string, bool)
	SetVariable(envID, name, value string) error
	UnsetVariable(envID, name string) error
}

type Config struct {
	ScriptTimeout       time.Duration
	MaxScriptStatements int
	// Rate throttles a collection run in requests per second; 0 disables.
	Rate float64
	// Bail stops a collection run at the first failed record.
	Bail bool
}

type Runner struct {
	transport Transport
	store     EnvStore
	config    *Config
	limiter   *rate.Limiter
}

func New(transport Transport, store EnvStore, cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	r := &Runner{
		transport: transport,
		store:     store,
		config:    cfg,
	}
	if cfg.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	return r
}

// NewDetached builds a runner over an isolated copy of one environment,
// for callers that must not leak mutations into a shared store.
func NewDetached(transport Transport, env *model.Environment, cfg *Config) *Runner {
	return New(transport, envstore.Detached(env), cfg)
}

// ExecuteRequest drives one request through the pipeline:
// resolve, pre-script, send, post-script, tests. Every stage outcome lands
// in the record; nothing escapes as an error.
func (r *Runner) ExecuteRequest(ctx context.Context, req *model.HttpRequest) *ExecutionRecord {
	rec := &ExecutionRecord{Request: req, Status: StatusSucceeded}
	start := time.Now()
	defer func() {
		rec.Duration = time.Since(start)
	}()

	env := r.store.ActiveEnvironment()

	resolved, err := template.Resolve(req, env)
	if err != nil {
		rec.fail(StageResolving, StatusResolutionFailed, err.Error())
		return rec
	}
	rec.Resolved = resolved

	envAccess := r.bind(env)
	opts := &script.Options{
		Timeout:       r.config.ScriptTimeout,
		MaxStatements: r.config.MaxScriptStatements,
	}

	preCtx := &script.Context{Request: resolved, Env: envAccess}
	rec.PreScript = script.Run(req.PreScript, preCtx, opts)
	// a pre-script fault is recorded but never blocks the send

	resp, err := r.transport.Send(ctx, resolved)
	if err != nil {
		rec.fail(StageSending, StatusTransportFailed, err.Error())
		// no response: post-script and tests have nothing to inspect
		return rec
	}
	rec.Response = resp

	postCtx := &script.Context{Request: resolved, Response: resp, Env: envAccess}
	rec.PostScript = script.Run(req.PostScript, postCtx, opts)

	// tests run whenever a response exists, regardless of script faults
	rec.Tests = assert.RunTests(req.Tests, postCtx)

	if !rec.PreScript.OK {
		rec.fail(StagePreScript, StatusScriptFailed, rec.PreScript.Err)
	} else if !rec.PostScript.OK {
		rec.fail(StagePostScript, StatusScriptFailed, rec.PostScript.Err)
	}
	return rec
}

// RunCollection executes a collection's requests strictly in order, each
// request seeing the environment writes of the ones before it. Cancellation
// is honored between requests; a request in flight finishes first.
func (r *Runner) RunCollection(ctx context.Context, c *model.Collection) *RunResult {
	result := &RunResult{
		Collection: c.Name,
		Metrics:    metrics.NewRunMetrics(),
	}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
	}()

	for _, req := range c.Requests {
		if ctx.Err() != nil {
			result.Cancelled = true
			return result
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				result.Cancelled = true
				return result
			}
		}

		rec := r.ExecuteRequest(ctx, req)
		result.Records = append(result.Records, rec)
		if rec.Response != nil {
			result.Metrics.Record(rec.Response.Duration, !rec.Passed())
		}

		if rec.Passed() {
			result.Passed++
		} else {
			result.Failed++
			if r.config.Bail {
				return result
			}
		}
	}
	return result
}

// bind scopes script environment access to the active environment. With no
// active environment, scripts get a scratch map: reads and writes behave,
// nothing persists.
func (r *Runner) bind(env *model.Environment) script.EnvAccess {
	if env == nil {
		return script.MapEnv{}
	}
	return &envBinding{store: r.store, envID: env.ID}
}

type envBinding struct {
	store EnvStore
	envID string
}

func (b *envBinding) Get(name string) (string, bool) {
	return b.store.GetVariable(b.envID, name)
}

func (b *envBinding) Set(name, value string) {
	_ = b.store.SetVariable(b.envID, name, value)
}

func (b *envBinding) Unset(name string) {
	_ = b.store.UnsetVariable(b.envID, name)
}
