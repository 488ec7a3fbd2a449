package api_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-http/api"
)

func mustRequest(t *testing.T, target string, opts ...api.RequestOption) *api.Request {
	t.Helper()
	u, err := url.Parse(target)
	require.NoError(t, err)
	req, err := api.NewRequest(u, opts...)
	require.NoError(t, err)
	return req
}

func TestNewRequestRequiresURI(t *testing.T) {
	req, err := api.NewRequest(nil)
	assert.Nil(t, req)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestQueryAccessorsDecode(t *testing.T) {
	req := mustRequest(t, "/hello?na%6De=Ana+Mar%C3%ADa&x=1&x=2&flag")

	v, ok := req.QueryParam("name")
	assert.True(t, ok)
	assert.Equal(t, "Ana María", v)

	v, ok = req.QueryParam("x")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = req.QueryParam("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]string{"name": "Ana María", "x": "2", "flag": ""}, req.QueryParams())
	assert.Equal(t, "/hello", req.Path())
}

func TestHeadersAreCaseInsensitiveCopies(t *testing.T) {
	req := mustRequest(t, "/", api.WithHeaders(map[string]string{"Content-Type": "text/plain"}), api.WithHeader("X-Token", "t"))

	assert.Equal(t, "text/plain", req.Header("content-type"))
	assert.True(t, req.HasHeader("x-token"))
	assert.False(t, req.HasHeader("accept"))

	h := req.Headers()
	h["x-token"] = "changed"
	assert.Equal(t, "t", req.Header("X-Token"))
}

func TestBodyIsCopied(t *testing.T) {
	raw := []byte("payload")
	req := mustRequest(t, "/", api.WithRequestBody(raw), api.WithHeader("Content-Length", "7"))
	raw[0] = 'X'

	b := req.Body()
	b[1] = 'Y'
	assert.Equal(t, "payload", req.BodyString())
	assert.Equal(t, 7, req.ContentLength())
	assert.True(t, req.HasBody())

	assert.Zero(t, mustRequest(t, "/", api.WithHeader("Content-Length", "seven")).ContentLength())
	assert.False(t, mustRequest(t, "/", api.WithRequestBody([]byte(" \n"))).HasBody())
}

func TestFormData(t *testing.T) {
	req := mustRequest(t, "/api/users",
		api.WithHeader("Content-Type", "application/x-www-form-urlencoded"),
		api.WithRequestBody([]byte("name=Grace+Hopper&role=admiral")))
	assert.True(t, req.IsForm())
	assert.Equal(t, map[string]string{"name": "Grace Hopper", "role": "admiral"}, req.FormData())

	plain := mustRequest(t, "/api/users",
		api.WithHeader("Content-Type", "text/plain"),
		api.WithRequestBody([]byte("name=Grace")))
	assert.Empty(t, plain.FormData())
}

func TestJSONValue(t *testing.T) {
	req := mustRequest(t, "/app/hello",
		api.WithHeader("Content-Type", "application/json; charset=utf-8"),
		api.WithRequestBody([]byte(`{"name": "Ada", "age": 36}`)))
	assert.True(t, req.IsJSON())

	v, ok := req.JSONValue("name")
	assert.True(t, ok)
	assert.Equal(t, "Ada", v)

	_, ok = req.JSONValue("age")
	assert.False(t, ok)

	broken := mustRequest(t, "/app/hello",
		api.WithHeader("Content-Type", "application/json"),
		api.WithRequestBody([]byte(`{"name":`)))
	_, ok = broken.JSONValue("name")
	assert.False(t, ok)

	notJSON := mustRequest(t, "/app/hello", api.WithRequestBody([]byte(`{"name": "Ada"}`)))
	_, ok = notJSON.JSONValue("name")
	assert.False(t, ok)
}
