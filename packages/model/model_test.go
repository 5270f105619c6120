package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethodValid(t *testing.T) {
	assert.True(t, MethodGet.Valid())
	assert.True(t, MethodOptions.Valid())
	assert.False(t, Method("FETCH").Valid())
	assert.False(t, Method("get").Valid())
}

func TestBodyTypeContentType(t *testing.T) {
	assert.Equal(t, "application/json", BodyJSON.ContentType())
	assert.Equal(t, "application/x-www-form-urlencoded", BodyForm.ContentType())
	assert.Equal(t, "", BodyRaw.ContentType())
	assert.Equal(t, "", BodyNone.ContentType())
}

func TestHttpRequestValidate(t *testing.T) {
	req := NewHttpRequest("", "ok", MethodGet, "https://example.com")
	assert.NoError(t, req.Validate())

	req.Method = "WRONG"
	assert.Error(t, req.Validate())

	req.Method = MethodGet
	req.URL = ""
	assert.Error(t, req.Validate())

	req.URL = "https://example.com"
	req.BodyType = "xml"
	assert.Error(t, req.Validate())
}

func TestEnvironmentCloneIsIndependent(t *testing.T) {
	env := NewEnvironment("dev")
	env.Variables["a"] = "1"

	clone := env.Clone()
	clone.Variables["a"] = "2"
	clone.Variables["b"] = "3"

	assert.Equal(t, "1", env.Variables["a"])
	assert.NotContains(t, env.Variables, "b")
}

func TestResolvedRequestHeaderLookup(t *testing.T) {
	r := &ResolvedRequest{Headers: map[string]string{"Content-Type": "application/json"}}
	assert.Equal(t, "application/json", r.Header("content-type"))
	assert.Equal(t, "", r.Header("Accept"))
}
