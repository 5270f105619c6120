package template

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/courierhq/courier/packages/model"
)

// placeholderPattern matches {{identifier}} where identifier follows the
// fixed grammar [A-Za-z_][A-Za-z0-9_]*. Double braces wrapping anything
// else are not placeholders and pass through untouched.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// ResolutionError reports a placeholder that no scope could resolve.
// It names the identifier and its location so callers can distinguish
// "variable missing" from "variable is empty string".
type ResolutionError struct {
	Field      string
	Identifier string
	Offset     int
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unresolved placeholder {{%s}} in %s at offset %d", e.Identifier, e.Field, e.Offset)
}

// Resolve expands every placeholder in the request's URL, headers, and body.
// Scope precedence is strict: request PathVariables first, then the active
// environment's variables. Substitution is a single pass; substituted values
// are never re-templated. env may be nil (no active environment).
func Resolve(req *model.HttpRequest, env *model.Environment) (*model.ResolvedRequest, error) {
	lookup := func(name string) (string, bool) {
		if v, ok := req.PathVariables[name]; ok {
			return v, true
		}
		if env != nil {
			if v, ok := env.Variables[name]; ok {
				return v, true
			}
		}
		return "", false
	}

	url, err := expand("url", req.URL, lookup)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(req.Headers))
	for _, key := range sortedKeys(req.Headers) {
		value, err := expand("header "+key, req.Headers[key], lookup)
		if err != nil {
			return nil, err
		}
		headers[key] = value
	}

	body, err := expand("body", req.Body, lookup)
	if err != nil {
		return nil, err
	}

	return &model.ResolvedRequest{
		Method:   req.Method,
		URL:      url,
		Headers:  headers,
		Body:     body,
		BodyType: req.BodyType,
	}, nil
}

// expand substitutes placeholders in one field, failing on the first
// occurrence that resolves in no scope.
func expand(field, input string, lookup func(string) (string, bool)) (string, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(input, -1)
	if len(matches) == 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		name := input[m[2]:m[3]]
		value, ok := lookup(name)
		if !ok {
			return "", &ResolutionError{Field: field, Identifier: name, Offset: start}
		}
		b.WriteString(input[last:start])
		b.WriteString(value)
		last = end
	}
	b.WriteString(input[last:])
	return b.String(), nil
}

// sortedKeys keeps header resolution order deterministic so the first
// reported error does not depend on map iteration order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
