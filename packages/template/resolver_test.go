package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierhq/courier/packages/model"
)

func newRequest(url string) *model.HttpRequest {
	return &model.HttpRequest{
		Name:    "req",
		Method:  model.MethodGet,
		URL:     url,
		Headers: map[string]string{},
	}
}

func newEnv(vars map[string]string) *model.Environment {
	env := model.NewEnvironment("test")
	for k, v := range vars {
		env.Variables[k] = v
	}
	return env
}

func TestResolveIdentityWithoutPlaceholders(t *testing.T) {
	req := newRequest("https://api.example.com/users")
	req.Headers["Accept"] = "application/json"
	req.Body = `{"literal": true}`

	resolved, err := Resolve(req, newEnv(nil))
	require.NoError(t, err)
	assert.Equal(t, req.URL, resolved.URL)
	assert.Equal(t, "application/json", resolved.Headers["Accept"])
	assert.Equal(t, req.Body, resolved.Body)
}

func TestResolveEnvironmentVariable(t *testing.T) {
	req := newRequest("{{baseUrl}}/users")
	req.Headers["Authorization"] = "Bearer {{token}}"

	env := newEnv(map[string]string{
		"baseUrl": "https://api.example.com",
		"token":   "dev-token-123",
	})

	resolved, err := Resolve(req, env)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/users", resolved.URL)
	assert.Equal(t, "Bearer dev-token-123", resolved.Headers["Authorization"])
}

func TestResolvePathVariablePrecedence(t *testing.T) {
	req := newRequest("https://api.example.com/users/{{id}}")
	req.PathVariables = map[string]string{"id": "42"}

	env := newEnv(map[string]string{"id": "from-env"})

	resolved, err := Resolve(req, env)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/users/42", resolved.URL)
}

func TestResolveMissingIdentifier(t *testing.T) {
	req := newRequest("{{baseUrl}}/users")

	_, err := Resolve(req, nil)
	require.Error(t, err)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "url", resErr.Field)
	assert.Equal(t, "baseUrl", resErr.Identifier)
	assert.Equal(t, 0, resErr.Offset)
}

func TestResolveEmptyValueIsNotMissing(t *testing.T) {
	req := newRequest("https://api.example.com{{suffix}}")
	env := newEnv(map[string]string{"suffix": ""})

	resolved, err := Resolve(req, env)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", resolved.URL)
}

func TestResolveSinglePassNoRecursion(t *testing.T) {
	req := newRequest("{{a}}")
	env := newEnv(map[string]string{
		"a": "{{b}}",
		"b": "never",
	})

	resolved, err := Resolve(req, env)
	require.NoError(t, err)
	// The substituted value is inserted verbatim, not re-templated.
	assert.Equal(t, "{{b}}", resolved.URL)
}

func TestResolveLiteralBracesOutsideGrammar(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"digit start", "{{1abc}}"},
		{"spaces", "{{ name }}"},
		{"hyphen", "{{a-b}}"},
		{"empty", "{{}}"},
		{"json object", `{"a":{"b":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest("https://api.example.com")
			req.Body = tt.input

			resolved, err := Resolve(req, newEnv(nil))
			require.NoError(t, err)
			assert.Equal(t, tt.input, resolved.Body)
		})
	}
}

func TestResolveBodyFieldError(t *testing.T) {
	req := newRequest("https://api.example.com")
	req.Body = `{"user": "{{userId}}"}`

	_, err := Resolve(req, newEnv(nil))
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "body", resErr.Field)
	assert.Equal(t, "userId", resErr.Identifier)
}

func TestResolveHeaderFieldError(t *testing.T) {
	req := newRequest("https://api.example.com")
	req.Headers["Authorization"] = "Bearer {{token}}"

	_, err := Resolve(req, newEnv(nil))
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "header Authorization", resErr.Field)
	assert.Equal(t, "token", resErr.Identifier)
	assert.Equal(t, 7, resErr.Offset)
}

func TestResolveIsIdempotent(t *testing.T) {
	req := newRequest("{{baseUrl}}/items/{{id}}")
	req.PathVariables = map[string]string{"id": "9"}
	env := newEnv(map[string]string{"baseUrl": "https://x.test"})

	first, err := Resolve(req, env)
	require.NoError(t, err)
	second, err := Resolve(req, env)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveMultiplePlaceholdersInOneField(t *testing.T) {
	req := newRequest("{{scheme}}://{{host}}/v1/{{resource}}")
	env := newEnv(map[string]string{
		"scheme":   "https",
		"host":     "api.example.com",
		"resource": "orders",
	})

	resolved, err := Resolve(req, env)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1/orders", resolved.URL)
}
