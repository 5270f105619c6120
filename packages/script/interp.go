package script

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the wall-clock ceiling for one script run
	DefaultTimeout = 5 * time.Second
	// DefaultMaxStatements is the instruction ceiling for one script run
	DefaultMaxStatements = 1000
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Mutation records one applied environment write.
type Mutation struct {
	Name  string
	Value string
	Unset bool
}

// Result is the outcome of one script run. Script faults never escape as
// errors; they land here. Mutations lists only writes from statements that
// completed, so a failed or timed-out run never leaves a torn write.
type Result struct {
	OK        bool
	Err       string
	TimedOut  bool
	Mutations []Mutation
	Logs      []string
}

// Options bound a script run. Zero values fall back to the defaults.
type Options struct {
	Timeout       time.Duration
	MaxStatements int
}

// Run executes a script against the context. An empty source is a no-op
// success. Runtime faults, unknown statements, and ceiling violations are
// captured in the Result.
func Run(source string, ctx *Context, opts *Options) (result *Result) {
	result = &Result{OK: true}

	timeout := DefaultTimeout
	maxStatements := DefaultMaxStatements
	if opts != nil {
		if opts.Timeout != 0 {
			timeout = opts.Timeout
		}
		if opts.MaxStatements > 0 {
			maxStatements = opts.MaxStatements
		}
	}

	defer func() {
		if r := recover(); r != nil {
			result.OK = false
			result.Err = fmt.Sprintf("script panic: %v", r)
		}
	}()

	deadline := time.Now().Add(timeout)
	executed := 0

	for i, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if time.Now().After(deadline) {
			result.OK = false
			result.TimedOut = true
			result.Err = fmt.Sprintf("script exceeded %s time limit", timeout)
			return result
		}
		executed++
		if executed > maxStatements {
			result.OK = false
			result.TimedOut = true
			result.Err = fmt.Sprintf("script exceeded %d statement limit", maxStatements)
			return result
		}

		if err := runStatement(line, ctx, result); err != nil {
			result.OK = false
			result.Err = fmt.Sprintf("line %d: %v", i+1, err)
			return result
		}
	}

	return result
}

func runStatement(line string, ctx *Context, result *Result) error {
	tokens, err := LexLine(line)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	if tokens[0].Type != TokenWord {
		return fmt.Errorf("expected statement keyword, got %q", tokens[0].Value)
	}

	switch tokens[0].Value {
	case "set":
		return runSet(tokens[1:], ctx, result)
	case "unset":
		return runUnset(tokens[1:], ctx, result)
	case "log":
		return runLog(tokens[1:], ctx, result)
	default:
		return fmt.Errorf("unknown statement %q", tokens[0].Value)
	}
}

func runSet(tokens []Token, ctx *Context, result *Result) error {
	if len(tokens) < 2 || tokens[0].Type != TokenWord {
		return fmt.Errorf("set: expected 'set <name> <value>'")
	}
	name := tokens[0].Value
	if !identPattern.MatchString(name) {
		return fmt.Errorf("set: invalid variable name %q", name)
	}

	value, rest, err := EvalValue(ctx, tokens[1:])
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	if rest != 0 {
		return fmt.Errorf("set %s: trailing tokens after value", name)
	}

	// The write happens only once the value expression fully evaluated,
	// keeping each statement atomic.
	str := formatValue(value)
	ctx.Env.Set(name, str)
	result.Mutations = append(result.Mutations, Mutation{Name: name, Value: str})
	return nil
}

func runUnset(tokens []Token, ctx *Context, result *Result) error {
	if len(tokens) != 1 || tokens[0].Type != TokenWord {
		return fmt.Errorf("unset: expected 'unset <name>'")
	}
	name := tokens[0].Value
	if !identPattern.MatchString(name) {
		return fmt.Errorf("unset: invalid variable name %q", name)
	}
	ctx.Env.Unset(name)
	result.Mutations = append(result.Mutations, Mutation{Name: name, Unset: true})
	return nil
}

func runLog(tokens []Token, ctx *Context, result *Result) error {
	if len(tokens) == 0 {
		return fmt.Errorf("log: expected a value")
	}
	value, rest, err := EvalValue(ctx, tokens)
	if err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if rest != 0 {
		return fmt.Errorf("log: trailing tokens after value")
	}
	result.Logs = append(result.Logs, formatValue(value))
	return nil
}

// EvalValue evaluates a value expression: a literal, a builtin call, or a
// selector over the context. It returns the number of unconsumed trailing
// tokens so statements can reject garbage after the expression.
func EvalValue(ctx *Context, tokens []Token) (any, int, error) {
	if len(tokens) == 0 {
		return nil, 0, fmt.Errorf("expected a value")
	}

	switch tokens[0].Type {
	case TokenString:
		return tokens[0].Value, len(tokens) - 1, nil
	case TokenNumber:
		return tokens[0].Value, len(tokens) - 1, nil
	case TokenWord:
		// builtin call: word ( args )
		if len(tokens) > 1 && tokens[1].Type == TokenLeftParen {
			return evalCall(tokens)
		}
		// two-word header selectors
		if tokens[0].Value == "header" || tokens[0].Value == "request.header" {
			if len(tokens) < 2 || (tokens[1].Type != TokenWord && tokens[1].Type != TokenString) {
				return nil, 0, fmt.Errorf("%s: expected a header name", tokens[0].Value)
			}
			v, err := ctx.HeaderValue(tokens[0].Value, tokens[1].Value)
			return v, len(tokens) - 2, err
		}
		v, err := ctx.Selector(tokens[0].Value)
		return v, len(tokens) - 1, err
	default:
		return nil, 0, fmt.Errorf("unexpected token %q", tokens[0].Value)
	}
}

func evalCall(tokens []Token) (any, int, error) {
	name := tokens[0].Value
	var args []string
	i := 2
	for ; i < len(tokens); i++ {
		switch tokens[i].Type {
		case TokenRightParen:
			value, err := callBuiltin(name, args)
			return value, len(tokens) - i - 1, err
		case TokenComma:
			continue
		case TokenString, TokenNumber, TokenWord:
			args = append(args, tokens[i].Value)
		default:
			return nil, 0, fmt.Errorf("%s: unexpected token %q in arguments", name, tokens[i].Value)
		}
	}
	return nil, 0, fmt.Errorf("%s: missing closing parenthesis", name)
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
