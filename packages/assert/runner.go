package assert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/courierhq/courier/packages/script"
)

// Entry is the outcome of one named assertion.
type Entry struct {
	Name    string
	Passed  bool
	Message string
}

// Report is the ordered outcome of one test-script run. An empty test
// script produces an empty report, not an error.
type Report struct {
	Entries []Entry
}

// Passed reports whether every entry passed. An empty report passes.
func (r *Report) Passed() bool {
	for _, e := range r.Entries {
		if !e.Passed {
			return false
		}
	}
	return true
}

func (r *Report) Failed() int {
	n := 0
	for _, e := range r.Entries {
		if !e.Passed {
			n++
		}
	}
	return n
}

// RunTests evaluates a test script line by line. Each assertion is isolated:
// a malformed line or a fault inside one assertion yields a failed entry and
// evaluation continues with the next line.
func RunTests(source string, ctx *script.Context) *Report {
	report := &Report{}
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		report.Entries = append(report.Entries, runAssertion(line, ctx))
	}
	return report
}

func runAssertion(line string, ctx *script.Context) (entry Entry) {
	defer func() {
		if r := recover(); r != nil {
			entry.Passed = false
			entry.Message = fmt.Sprintf("assertion panic: %v", r)
		}
	}()

	a, err := parseAssertion(line)
	if err != nil {
		return Entry{Name: line, Passed: false, Message: err.Error()}
	}
	entry.Name = a.Name

	actual, err := a.subjectValue(ctx)
	if err != nil {
		// exists/!exists assert on presence, so a missing subject is an
		// answer there, not a fault
		switch a.Operator {
		case "exists":
			entry.Message = "expected to exist"
			return entry
		case "!exists":
			entry.Passed = true
			return entry
		}
		entry.Message = err.Error()
		return entry
	}

	entry.Passed, entry.Message = compare(actual, a.Operator, a.Expected)
	return entry
}

// assertion is one parsed "test" line.
type assertion struct {
	Name       string
	Subject    string
	HeaderName string // set when Subject is "header"
	Operator   string
	Expected   any
}

func parseAssertion(line string) (*assertion, error) {
	lx := script.NewLineLexer(line)

	keyword, err := lx.Next()
	if err != nil {
		return nil, err
	}
	if keyword.Type != script.TokenWord || keyword.Value != "test" {
		return nil, fmt.Errorf(`expected 'test "<name>" <subject> <operator> [value]'`)
	}

	name, err := lx.Next()
	if err != nil {
		return nil, err
	}
	if name.Type != script.TokenString {
		return nil, fmt.Errorf("expected a quoted assertion name")
	}
	a := &assertion{Name: name.Value}

	subject, err := lx.Next()
	if err != nil {
		return nil, err
	}
	if subject.Type != script.TokenWord {
		return nil, fmt.Errorf("expected an assertion subject, got %q", subject.Value)
	}
	a.Subject = subject.Value

	if a.Subject == "header" {
		headerName, err := lx.Next()
		if err != nil {
			return nil, err
		}
		if headerName.Type != script.TokenWord && headerName.Type != script.TokenString {
			return nil, fmt.Errorf("header: expected a header name")
		}
		a.HeaderName = headerName.Value
	}

	opTok, err := lx.Next()
	if err != nil {
		return nil, err
	}
	op, err := parseOperator(opTok)
	if err != nil {
		return nil, err
	}
	a.Operator = op

	if op == "schema" {
		// the remainder of the raw line is an inline JSON schema
		raw := lx.Rest()
		if raw == "" {
			return nil, fmt.Errorf("schema: expected an inline JSON schema")
		}
		a.Expected = raw
		return a, nil
	}

	if op == "exists" || op == "!exists" {
		if err := expectEOF(lx, op+" takes no expected value"); err != nil {
			return nil, err
		}
		return a, nil
	}

	valueTok, err := lx.Next()
	if err != nil {
		return nil, err
	}
	if valueTok.Type == script.TokenEOF {
		return nil, fmt.Errorf("operator %s expects a value", op)
	}
	expected, err := parseExpected(valueTok)
	if err != nil {
		return nil, err
	}
	if err := expectEOF(lx, "trailing tokens after expected value"); err != nil {
		return nil, err
	}
	a.Expected = expected
	return a, nil
}

func expectEOF(lx *script.LineLexer, msg string) error {
	tok, err := lx.Next()
	if err != nil {
		return err
	}
	if tok.Type != script.TokenEOF {
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func parseOperator(tok script.Token) (string, error) {
	switch tok.Type {
	case script.TokenOperator:
		switch tok.Value {
		case "==", "!=", ">", ">=", "<", "<=", "!exists", "!contains":
			return tok.Value, nil
		}
	case script.TokenWord:
		switch tok.Value {
		case "contains", "matches", "exists", "type", "schema":
			return tok.Value, nil
		}
	}
	return "", fmt.Errorf("unknown operator %q", tok.Value)
}

func parseExpected(tok script.Token) (any, error) {
	switch tok.Type {
	case script.TokenString:
		return tok.Value, nil
	case script.TokenNumber:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", tok.Value)
		}
		return f, nil
	case script.TokenWord:
		switch tok.Value {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
		// bare word, e.g. a type name
		return tok.Value, nil
	}
	return nil, fmt.Errorf("unexpected expected value %q", tok.Value)
}

func (a *assertion) subjectValue(ctx *script.Context) (any, error) {
	if a.Subject == "header" {
		v, err := ctx.HeaderValue("header", a.HeaderName)
		if err != nil {
			return nil, err
		}
		if v == "" {
			return nil, fmt.Errorf("header not present: %s", a.HeaderName)
		}
		return v, nil
	}
	return ctx.Selector(a.Subject)
}
