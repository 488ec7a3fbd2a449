package server

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-http/api"
)

func TestParseRequestLine(t *testing.T) {
	m, u, err := parseRequestLine("get /add?a=3&b=4 HTTP/1.1")
	require.NoError(t, err)
	assert.Equal(t, "GET", m)
	assert.Equal(t, "/add", u.Path)
	assert.Equal(t, "a=3&b=4", u.RawQuery)

	_, u, err = parseRequestLine("GET /only")
	require.NoError(t, err)
	assert.Equal(t, "/only", u.Path)

	for _, line := range []string{"", "   ", "GET", "GET  /x", "GET %zz HTTP/1.1"} {
		_, _, err := parseRequestLine(line)
		require.Error(t, err, line)
		assert.Equal(t, api.ErrCodeProtocol, api.CodeOf(err), line)
	}
}

func TestReadHeaders(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Type: text/plain\r\nbogus line\r\nX-A:  1:2 \r\n\r\nBODY"))
	h, err := readHeaders(r)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"content-type": "text/plain", "x-a": "1:2"}, h)

	rest, _ := r.ReadString(0)
	assert.Equal(t, "BODY", rest)

	h, err = readHeaders(bufio.NewReader(strings.NewReader("Host: x\r\n")))
	require.NoError(t, err)
	assert.Equal(t, "x", h["host"])
}

func TestReadLineTooLong(t *testing.T) {
	r := bufio.NewReaderSize(strings.NewReader(strings.Repeat("a", maxLineBytes+10)+"\r\n"), 16)
	_, err := readLine(r)
	assert.ErrorIs(t, err, errLineTooLong)
}

func TestContentLength(t *testing.T) {
	n, err := contentLength(map[string]string{}, 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = contentLength(map[string]string{"content-length": "7"}, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)

	for _, v := range []string{"abc", "-1", "1.5"} {
		_, err = contentLength(map[string]string{"content-length": v}, 10)
		assert.Equal(t, api.ErrCodePayload, api.CodeOf(err), v)
	}
	_, err = contentLength(map[string]string{"content-length": "11"}, 10)
	assert.ErrorContains(t, err, "Request body too large")
}

func TestReadBodyIsByteExact(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("ñandú-extra"))
	b, err := readBody(r, int64(len("ñandú")))
	require.NoError(t, err)
	assert.Equal(t, "ñandú", string(b))

	_, err = readBody(bufio.NewReader(strings.NewReader("ab")), 5)
	assert.Error(t, err)
}
