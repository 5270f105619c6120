package script

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierhq/courier/packages/httpx"
	"github.com/courierhq/courier/packages/model"
)

func testContext(resp *httpx.Response) (*Context, MapEnv) {
	env := MapEnv{}
	ctx := &Context{
		Request: &model.ResolvedRequest{
			Method:  model.MethodPost,
			URL:     "https://api.example.com/login",
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    `{"user":"ada"}`,
		},
		Response: resp,
		Env:      env,
	}
	return ctx, env
}

func jsonResponse(status int, body string) *httpx.Response {
	return &httpx.Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(body),
		Duration:   25 * time.Millisecond,
	}
}

func TestRunEmptySourceIsNoOp(t *testing.T) {
	ctx, env := testContext(nil)
	result := Run("", ctx, nil)

	assert.True(t, result.OK)
	assert.Empty(t, result.Mutations)
	assert.Empty(t, env)
}

func TestRunSetLiteral(t *testing.T) {
	ctx, env := testContext(nil)
	result := Run(`set userId "123"`, ctx, nil)

	require.True(t, result.OK, result.Err)
	assert.Equal(t, "123", env["userId"])
	require.Len(t, result.Mutations, 1)
	assert.Equal(t, Mutation{Name: "userId", Value: "123"}, result.Mutations[0])
}

func TestRunSetFromResponseBody(t *testing.T) {
	resp := jsonResponse(200, `{"auth":{"token":"t-99"},"id":7}`)
	ctx, env := testContext(resp)

	result := Run("set token body.auth.token\nset lastId body.id", ctx, nil)

	require.True(t, result.OK, result.Err)
	assert.Equal(t, "t-99", env["token"])
	assert.Equal(t, "7", env["lastId"])
	assert.Len(t, result.Mutations, 2)
}

func TestRunSetFromHeaderAndStatus(t *testing.T) {
	resp := jsonResponse(201, `{}`)
	resp.Headers["X-Request-Id"] = "abc"
	ctx, env := testContext(resp)

	result := Run("set rid header X-Request-Id\nset code status", ctx, nil)

	require.True(t, result.OK, result.Err)
	assert.Equal(t, "abc", env["rid"])
	assert.Equal(t, "201", env["code"])
}

func TestRunSetFromRequest(t *testing.T) {
	ctx, env := testContext(nil)

	result := Run("set m request.method\nset who request.body.user", ctx, nil)

	require.True(t, result.OK, result.Err)
	assert.Equal(t, "POST", env["m"])
	assert.Equal(t, "ada", env["who"])
}

func TestRunBuiltins(t *testing.T) {
	ctx, env := testContext(nil)

	result := Run("set id uuid()\nset n randomString(8)\nset ts timestamp()", ctx, nil)

	require.True(t, result.OK, result.Err)
	assert.Len(t, env["id"], 36)
	assert.Len(t, env["n"], 8)
	assert.NotEmpty(t, env["ts"])
}

func TestRunUnset(t *testing.T) {
	ctx, env := testContext(nil)
	env["stale"] = "x"

	result := Run("unset stale", ctx, nil)

	require.True(t, result.OK, result.Err)
	_, ok := env["stale"]
	assert.False(t, ok)
	assert.Equal(t, []Mutation{{Name: "stale", Unset: true}}, result.Mutations)
}

func TestRunLog(t *testing.T) {
	resp := jsonResponse(200, `{"msg":"hi"}`)
	ctx, _ := testContext(resp)

	result := Run(`log body.msg`, ctx, nil)

	require.True(t, result.OK, result.Err)
	assert.Equal(t, []string{"hi"}, result.Logs)
}

func TestRunCommentsAndBlankLines(t *testing.T) {
	ctx, env := testContext(nil)

	src := "# setup\n\nset a \"1\"\n  # done\n"
	result := Run(src, ctx, nil)

	require.True(t, result.OK, result.Err)
	assert.Equal(t, "1", env["a"])
}

func TestRunUnknownStatementFails(t *testing.T) {
	ctx, _ := testContext(nil)

	result := Run(`delete everything`, ctx, nil)

	assert.False(t, result.OK)
	assert.Contains(t, result.Err, "unknown statement")
	assert.False(t, result.TimedOut)
}

func TestRunMissingBodyPathFails(t *testing.T) {
	resp := jsonResponse(200, `{"id":1}`)
	ctx, env := testContext(resp)

	result := Run("set a body.id\nset b body.nope", ctx, nil)

	assert.False(t, result.OK)
	assert.Contains(t, result.Err, "body path not found")
	// The statement that completed keeps its write; the failed one left none.
	assert.Equal(t, "1", env["a"])
	_, ok := env["b"]
	assert.False(t, ok)
	assert.Len(t, result.Mutations, 1)
}

func TestRunNoResponsePreSend(t *testing.T) {
	ctx, _ := testContext(nil)

	result := Run(`set code status`, ctx, nil)

	assert.False(t, result.OK)
	assert.Contains(t, result.Err, "no response available")
}

func TestRunStatementCeiling(t *testing.T) {
	ctx, _ := testContext(nil)

	src := ""
	for i := 0; i < 10; i++ {
		src += "set x \"v\"\n"
	}
	result := Run(src, ctx, &Options{MaxStatements: 3})

	assert.False(t, result.OK)
	assert.True(t, result.TimedOut)
	assert.Contains(t, result.Err, "statement limit")
	// Writes up to the ceiling were applied atomically and are reported.
	assert.Len(t, result.Mutations, 3)
}

func TestRunTimeoutDeadline(t *testing.T) {
	ctx, _ := testContext(nil)

	result := Run("set a \"1\"\nset b \"2\"", ctx, &Options{Timeout: -time.Second})

	assert.False(t, result.OK)
	assert.True(t, result.TimedOut)
	assert.Contains(t, result.Err, "time limit")
}

func TestRunErrorNamesLine(t *testing.T) {
	ctx, _ := testContext(nil)

	result := Run("set ok \"1\"\nbogus", ctx, nil)

	assert.False(t, result.OK)
	assert.Contains(t, result.Err, "line 2")
}

func TestLexLineStrings(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Token
		wantErr bool
	}{
		{
			name:  "set with literal",
			input: `set a "hello world"`,
			want: []Token{
				{Type: TokenWord, Value: "set", Column: 0},
				{Type: TokenWord, Value: "a", Column: 4},
				{Type: TokenString, Value: "hello world", Column: 6},
			},
		},
		{
			name:  "call with args",
			input: `randomString(8)`,
			want: []Token{
				{Type: TokenWord, Value: "randomString", Column: 0},
				{Type: TokenLeftParen, Value: "(", Column: 12},
				{Type: TokenNumber, Value: "8", Column: 13},
				{Type: TokenRightParen, Value: ")", Column: 14},
			},
		},
		{
			name:  "operators",
			input: `status >= 200`,
			want: []Token{
				{Type: TokenWord, Value: "status", Column: 0},
				{Type: TokenOperator, Value: ">=", Column: 7},
				{Type: TokenNumber, Value: "200", Column: 10},
			},
		},
		{
			name:    "unterminated string",
			input:   `set a "oops`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := LexLine(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tokens)
		})
	}
}
