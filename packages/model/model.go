package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Method is an HTTP verb from the fixed set Courier supports.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodHead, MethodOptions:
		return true
	}
	return false
}

// BodyType tags how a request body is sent. It has no effect on templating.
type BodyType string

const (
	BodyNone BodyType = "none"
	BodyJSON BodyType = "json"
	BodyRaw  BodyType = "raw"
	BodyForm BodyType = "form"
)

func (b BodyType) Valid() bool {
	switch b {
	case BodyNone, BodyJSON, BodyRaw, BodyForm:
		return true
	}
	return false
}

// ContentType returns the default Content-Type header for the body type,
// or "" when none applies.
func (b BodyType) ContentType() string {
	switch b {
	case BodyJSON:
		return "application/json"
	case BodyForm:
		return "application/x-www-form-urlencoded"
	}
	return ""
}

// Environment is a named set of string variables. At most one environment
// is active per store; the store enforces that, not this type.
type Environment struct {
	ID        string
	Name      string
	Variables map[string]string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewEnvironment(name string) *Environment {
	now := time.Now()
	return &Environment{
		ID:        uuid.NewString(),
		Name:      name,
		Variables: make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy. Runs that must not leak mutations into a shared
// environment operate on a clone.
func (e *Environment) Clone() *Environment {
	if e == nil {
		return nil
	}
	vars := make(map[string]string, len(e.Variables))
	for k, v := range e.Variables {
		vars[k] = v
	}
	clone := *e
	clone.Variables = vars
	return &clone
}

// HttpRequest is one parameterized request in a collection. URL, header
// values, and Body are templates: they may contain {{identifier}}
// placeholders. PathVariables is the highest-precedence resolution scope.
type HttpRequest struct {
	ID            string
	CollectionID  string
	Name          string
	Method        Method
	URL           string
	Headers       map[string]string
	Body          string
	BodyType      BodyType
	PreScript     string
	PostScript    string
	Tests         string
	PathVariables map[string]string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewHttpRequest(collectionID, name string, method Method, url string) *HttpRequest {
	now := time.Now()
	return &HttpRequest{
		ID:           uuid.NewString(),
		CollectionID: collectionID,
		Name:         name,
		Method:       method,
		URL:          url,
		Headers:      make(map[string]string),
		BodyType:     BodyNone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (r *HttpRequest) Validate() error {
	if !r.Method.Valid() {
		return fmt.Errorf("request %q: invalid method %q", r.Name, r.Method)
	}
	if r.BodyType != "" && !r.BodyType.Valid() {
		return fmt.Errorf("request %q: invalid body type %q", r.Name, r.BodyType)
	}
	if r.URL == "" {
		return fmt.Errorf("request %q: empty URL", r.Name)
	}
	return nil
}

// Collection is a named, ordered group of requests. Order is significant:
// it is the default run order.
type Collection struct {
	ID          string
	Name        string
	Description string
	Requests    []*HttpRequest
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewCollection(name, description string) *Collection {
	now := time.Now()
	return &Collection{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (c *Collection) Size() int {
	return len(c.Requests)
}

// ResolvedRequest is a request with every placeholder expanded. It is
// ephemeral: built for one execution and never persisted.
type ResolvedRequest struct {
	Method   Method
	URL      string
	Headers  map[string]string
	Body     string
	BodyType BodyType
}

// Header does a case-insensitive header lookup.
func (r *ResolvedRequest) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
