package httpx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierhq/courier/packages/model"
)

func TestSendCarriesMethodHeadersAndBody(t *testing.T) {
	var got struct {
		method      string
		contentType string
		auth        string
		body        string
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.contentType = r.Header.Get("Content-Type")
		got.auth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		got.body = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	defer server.Close()

	resp, err := NewClient().Send(context.Background(), &model.ResolvedRequest{
		Method:   model.MethodPost,
		URL:      server.URL + "/users",
		Headers:  map[string]string{"Authorization": "Bearer tok"},
		Body:     `{"name":"ada"}`,
		BodyType: model.BodyJSON,
	})
	require.NoError(t, err)

	assert.Equal(t, "POST", got.method)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, `{"name":"ada"}`, got.body)

	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, `{"id":"42"}`, resp.BodyString())
	assert.True(t, resp.IsJSON())
	assert.True(t, resp.IsSuccess())
	assert.Greater(t, resp.Duration, time.Duration(0))
}

func TestSendExplicitContentTypeWins(t *testing.T) {
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	_, err := NewClient().Send(context.Background(), &model.ResolvedRequest{
		Method:   model.MethodPost,
		URL:      server.URL,
		Headers:  map[string]string{"Content-Type": "application/vnd.api+json"},
		Body:     `{}`,
		BodyType: model.BodyJSON,
	})
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.api+json", contentType)
}

func TestSendDefaultHeaders(t *testing.T) {
	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	client := NewClient(WithDefaultHeader("User-Agent", "courier/1.0"))
	_, err := client.Send(context.Background(), &model.ResolvedRequest{
		Method: model.MethodGet,
		URL:    server.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, "courier/1.0", agent)
}

func TestSendNoFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithFollowRedirects(false))
	resp, err := client.Send(context.Background(), &model.ResolvedRequest{
		Method: model.MethodGet,
		URL:    server.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/elsewhere", resp.Header("Location"))
}

func TestSendContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient().Send(ctx, &model.ResolvedRequest{
		Method: model.MethodGet,
		URL:    server.URL,
	})
	assert.Error(t, err)
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://api.example.com/users"))
	assert.NoError(t, ValidateURL("http://localhost:3000"))
	assert.Error(t, ValidateURL("ftp://example.com"))
	assert.Error(t, ValidateURL("https://"))
	assert.Error(t, ValidateURL("://bad"))
}

func TestResponseHeaderIsCaseInsensitive(t *testing.T) {
	resp := &Response{Headers: map[string]string{"Content-Type": "text/plain"}}
	assert.Equal(t, "text/plain", resp.Header("content-type"))
	assert.Equal(t, "", resp.Header("X-Missing"))
}
