package script

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/courierhq/courier/packages/httpx"
	"github.com/courierhq/courier/packages/model"
)

// EnvAccess is the environment-mutation capability handed to scripts.
// It is scoped to the active environment; scripts see nothing else.
type EnvAccess interface {
	Get(name string) (string, bool)
	Set(name, value string)
	Unset(name string)
}

// MapEnv is a map-backed EnvAccess, used in tests and for detached runs.
type MapEnv map[string]string

func (m MapEnv) Get(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

func (m MapEnv) Set(name, value string) {
	m[name] = value
}

func (m MapEnv) Unset(name string) {
	delete(m, name)
}

// Context is the complete capability surface of a script run: the resolved
// request (read), the response (read, nil for pre-send scripts), and the
// active environment (read/write). Nothing else is reachable.
type Context struct {
	Request  *model.ResolvedRequest
	Response *httpx.Response
	Env      EnvAccess
}

// Selector evaluates a single-word selector against the context.
func (c *Context) Selector(sel string) (any, error) {
	switch {
	case sel == "status":
		if c.Response == nil {
			return nil, fmt.Errorf("status: no response available")
		}
		return c.Response.StatusCode, nil
	case sel == "duration":
		if c.Response == nil {
			return nil, fmt.Errorf("duration: no response available")
		}
		return c.Response.DurationMs(), nil
	case sel == "body":
		if c.Response == nil {
			return nil, fmt.Errorf("body: no response available")
		}
		if c.Response.IsJSON() {
			return gjson.ParseBytes(c.Response.Body).Value(), nil
		}
		return c.Response.BodyString(), nil
	case strings.HasPrefix(sel, "body."):
		return c.bodyPath(strings.TrimPrefix(sel, "body."))
	case strings.HasPrefix(sel, "env."):
		name := strings.TrimPrefix(sel, "env.")
		v, ok := c.Env.Get(name)
		if !ok {
			return nil, fmt.Errorf("environment variable not set: %s", name)
		}
		return v, nil
	case sel == "request.method":
		return string(c.Request.Method), nil
	case sel == "request.url":
		return c.Request.URL, nil
	case sel == "request.body":
		return c.Request.Body, nil
	case strings.HasPrefix(sel, "request.body."):
		path := strings.TrimPrefix(sel, "request.body.")
		result := gjson.Get(c.Request.Body, path)
		if !result.Exists() {
			return nil, fmt.Errorf("request body path not found: %s", path)
		}
		return result.Value(), nil
	default:
		return nil, fmt.Errorf("unknown selector: %s", sel)
	}
}

// HeaderValue resolves the two-word selectors "header <Name>" and
// "request.header <Name>".
func (c *Context) HeaderValue(scope, name string) (any, error) {
	switch scope {
	case "header":
		if c.Response == nil {
			return nil, fmt.Errorf("header %s: no response available", name)
		}
		return c.Response.Header(name), nil
	case "request.header":
		return c.Request.Header(name), nil
	default:
		return nil, fmt.Errorf("unknown header scope: %s", scope)
	}
}

func (c *Context) bodyPath(path string) (any, error) {
	if c.Response == nil {
		return nil, fmt.Errorf("body.%s: no response available", path)
	}
	result := gjson.GetBytes(c.Response.Body, path)
	if !result.Exists() {
		return nil, fmt.Errorf("body path not found: %s", path)
	}
	return result.Value(), nil
}
