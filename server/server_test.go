package server_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-http/api"
	"github.com/momentics/hioload-http/internal/transport"
	"github.com/momentics/hioload-http/server"
)

func testAssets() fstest.MapFS {
	return fstest.MapFS{
		"index.html":  {Data: []byte("<h1>home</h1>")},
		"styles.css":  {Data: []byte("body{}")},
		"secret.txt":  {Data: []byte("top secret")},
		"public/a.js": {Data: []byte("var a;")},
	}
}

func testConfig() *server.Config {
	cfg := server.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.PoolSize = 4
	cfg.AcceptPollInterval = 20 * time.Millisecond
	cfg.ReadTimeout = 2 * time.Second
	cfg.WriteTimeout = 2 * time.Second
	cfg.ShutdownTimeout = 2 * time.Second
	cfg.StatsInterval = 0
	return cfg
}

// startServer serves srv on a loopback port and shuts it down with the test.
func startServer(t *testing.T, srv *server.Server) string {
	t.Helper()
	ln, err := transport.Listen(context.Background(), "127.0.0.1:0", 20*time.Millisecond)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(context.Background(), ln) }()
	require.Eventually(t, srv.Running, time.Second, time.Millisecond)

	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		select {
		case <-errCh:
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return")
		}
	})
	return ln.Addr().String()
}

func newServer(t *testing.T, cfg *server.Config, opts ...server.ServerOption) *server.Server {
	t.Helper()
	opts = append([]server.ServerOption{server.WithStaticFS(testAssets())}, opts...)
	srv, err := server.New(cfg, opts...)
	require.NoError(t, err)
	srv.HandleGet("/greeting", func(req *api.Request, tmpl *api.Response) *api.Response {
		return tmpl.Derive(api.WithContentType("text/plain"), api.WithBody("Hola Mundo!"))
	})
	srv.HandlePost("/echo", func(req *api.Request, tmpl *api.Response) *api.Response {
		return tmpl.Derive(api.WithContentType("text/plain"), api.WithBodyBytes(req.Body()))
	})
	srv.HandleGet("/panic", func(req *api.Request, tmpl *api.Response) *api.Response {
		panic("boom")
	})
	srv.HandleGet("/nil", func(req *api.Request, tmpl *api.Response) *api.Response {
		return nil
	})
	srv.HandleGet("/headers", func(req *api.Request, tmpl *api.Response) *api.Response {
		return tmpl.Derive(api.WithContentType("text/plain"), api.WithBody(req.Header("X-Token")))
	})
	return srv
}

func roundTrip(t *testing.T, addr, raw string) string {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.SetDeadline(time.Now().Add(5*time.Second)))
	_, err = io.WriteString(c, raw)
	require.NoError(t, err)
	out, err := io.ReadAll(c)
	require.NoError(t, err)
	return string(out)
}

func TestGetRouteExactBytes(t *testing.T) {
	addr := startServer(t, newServer(t, testConfig()))
	got := roundTrip(t, addr, "GET /greeting HTTP/1.1\r\nHost: x\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 11\r\n\r\nHola Mundo!", got)
}

func TestGetHeadersAreVisibleToHandlers(t *testing.T) {
	addr := startServer(t, newServer(t, testConfig()))
	got := roundTrip(t, addr, "GET /headers HTTP/1.1\r\nX-Token:  abc \r\n\r\n")
	assert.True(t, strings.HasSuffix(got, "\r\n\r\nabc"), got)
}

func TestGetStaticAndMisses(t *testing.T) {
	addr := startServer(t, newServer(t, testConfig()))

	got := roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n")
	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 200 OK\r\nContent-Type: text/html; charset=utf-8\r\nContent-Length: 13\r\n"), got)
	assert.True(t, strings.HasSuffix(got, "<h1>home</h1>"))

	got = roundTrip(t, addr, "GET /missing.css HTTP/1.1\r\n\r\n")
	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 404 Not Found\r\n"), got)
	assert.Contains(t, got, `{"error": "File not found"}`)
}

func TestTraversalForbidden(t *testing.T) {
	cfg := testConfig()
	cfg.StaticRoot = "/public"
	addr := startServer(t, newServer(t, cfg))

	for _, target := range []string{"/../secret.txt", "/%2e%2e/secret.txt", "/a/..%2f..%2fsecret.txt", "/~root"} {
		got := roundTrip(t, addr, "GET "+target+" HTTP/1.1\r\n\r\n")
		assert.True(t, strings.HasPrefix(got, "HTTP/1.1 403 Forbidden\r\n"), "%s: %s", target, got)
		assert.Contains(t, got, `{"error": "Forbidden - Invalid path"}`)
	}
	got := roundTrip(t, addr, "GET /a.js HTTP/1.1\r\n\r\n")
	assert.True(t, strings.HasSuffix(got, "var a;"), got)
}

func TestHeadStripsBody(t *testing.T) {
	addr := startServer(t, newServer(t, testConfig()))
	got := roundTrip(t, addr, "HEAD /greeting HTTP/1.1\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 11\r\n\r\n", got)
}

func TestMethodNotAllowed(t *testing.T) {
	addr := startServer(t, newServer(t, testConfig()))
	got := roundTrip(t, addr, "delete /greeting HTTP/1.1\r\n\r\n")
	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 405 Method Not Allowed\r\n"), got)
	assert.Contains(t, got, "Allow: GET, POST, HEAD, OPTIONS\r\n")
	assert.Contains(t, got, "Connection: close\r\n")
	assert.True(t, strings.HasSuffix(got, `{"error": "Method Not Allowed", "method": "DELETE"}`), got)
}

func TestOptions(t *testing.T) {
	addr := startServer(t, newServer(t, testConfig()))
	got := roundTrip(t, addr, "OPTIONS /anything HTTP/1.1\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 200 OK\r\n"+
		"Content-Type: application/json\r\n"+
		"Allow: GET, POST, HEAD, OPTIONS\r\n"+
		"Access-Control-Allow-Origin: *\r\n"+
		"Access-Control-Allow-Methods: GET, POST, HEAD, OPTIONS\r\n"+
		"Access-Control-Allow-Headers: Content-Type\r\n"+
		"Connection: close\r\n\r\n", got)
}

func TestPost(t *testing.T) {
	addr := startServer(t, newServer(t, testConfig()))

	body := "héllo wörld"
	got := roundTrip(t, addr, fmt.Sprintf("POST /echo HTTP/1.1\r\nContent-Length: %d\r\n\r\n%s", len(body), body))
	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 200 OK\r\n"), got)
	assert.True(t, strings.HasSuffix(got, "\r\n\r\n"+body), got)

	got = roundTrip(t, addr, "POST /echo HTTP/1.1\r\nContent-Length: abc\r\n\r\n")
	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 400 Bad Request\r\n"), got)
	assert.True(t, strings.HasSuffix(got, `{"error": "Invalid Content-Length header"}`), got)

	got = roundTrip(t, addr, "POST /nowhere HTTP/1.1\r\nContent-Length: 0\r\n\r\n")
	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 404 Not Found\r\n"), got)
	assert.True(t, strings.HasSuffix(got, `{"error": "Endpoint POST not found"}`), got)
}

func TestPostBodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 4
	addr := startServer(t, newServer(t, cfg))
	got := roundTrip(t, addr, "POST /echo HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 400 Bad Request\r\n"), got)
	assert.True(t, strings.HasSuffix(got, `{"error": "Request body too large"}`), got)
}

func TestMalformedRequests(t *testing.T) {
	addr := startServer(t, newServer(t, testConfig()))
	for _, raw := range []string{"GARBAGE\r\n\r\n", "\r\n\r\n", "GET  HTTP/1.1\r\n\r\n", "GET http://[::1 HTTP/1.1\r\n\r\n"} {
		got := roundTrip(t, addr, raw)
		assert.True(t, strings.HasPrefix(got, "HTTP/1.1 400 Bad Request\r\n"), "%q: %s", raw, got)
		assert.True(t, strings.HasSuffix(got, `{"error": "Bad Request", "message": "Invalid HTTP request format"}`))
	}
}

func TestHandlerFailuresAre500(t *testing.T) {
	addr := startServer(t, newServer(t, testConfig()))
	for _, p := range []string{"/panic", "/nil"} {
		got := roundTrip(t, addr, "GET "+p+" HTTP/1.1\r\n\r\n")
		assert.True(t, strings.HasPrefix(got, "HTTP/1.1 500 Internal Server Error\r\n"), got)
		assert.True(t, strings.HasSuffix(got, `{"error": "Internal Server Error"}`))
	}
}

func TestSilentCloseWithoutRequest(t *testing.T) {
	addr := startServer(t, newServer(t, testConfig()))
	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, c.(*net.TCPConn).CloseWrite())
	require.NoError(t, c.SetDeadline(time.Now().Add(5*time.Second)))
	out, err := io.ReadAll(c)
	require.NoError(t, err)
	assert.Empty(t, out)
	_ = c.Close()
}

func TestReadTimeoutAnswers500(t *testing.T) {
	cfg := testConfig()
	cfg.ReadTimeout = 50 * time.Millisecond
	addr := startServer(t, newServer(t, cfg))
	got := roundTrip(t, addr, "POST /echo HTTP/1.1\r\nContent-Length: 5\r\n")
	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 500 Internal Server Error\r\n"), got)
}

func TestLoneRequestLineIsServedAfterIdleGap(t *testing.T) {
	cfg := testConfig()
	cfg.HeaderIdleTimeout = 100 * time.Millisecond
	addr := startServer(t, newServer(t, cfg))

	start := time.Now()
	got := roundTrip(t, addr, "GET /greeting HTTP/1.0\r\n")
	assert.Less(t, time.Since(start), cfg.ReadTimeout)
	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 200 OK\r\n"), got)
	assert.True(t, strings.HasSuffix(got, "Hola Mundo!"), got)
}

func TestHeadersSentLateAreStillRead(t *testing.T) {
	cfg := testConfig()
	cfg.HeaderIdleTimeout = 500 * time.Millisecond
	addr := startServer(t, newServer(t, cfg))

	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.SetDeadline(time.Now().Add(5*time.Second)))
	_, err = io.WriteString(c, "GET /headers HTTP/1.1\r\n")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, err = io.WriteString(c, "X-Token: late\r\n\r\n")
	require.NoError(t, err)
	out, err := io.ReadAll(c)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(out), "\r\n\r\nlate"), string(out))
}

func TestEarlyErrorDrainsUnreadBody(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 1 << 10
	addr := startServer(t, newServer(t, cfg))

	raw := "POST /echo HTTP/1.1\r\nContent-Length: 2000000\r\n\r\n" + strings.Repeat("x", 1<<20)
	got := roundTrip(t, addr, raw)
	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 400 Bad Request\r\n"), got)
	assert.True(t, strings.HasSuffix(got, `{"error": "Request body too large"}`), got)
}

func TestConcurrentClients(t *testing.T) {
	addr := startServer(t, newServer(t, testConfig()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf("client-%d", i)
			got := roundTrip(t, addr, fmt.Sprintf("POST /echo HTTP/1.1\r\nContent-Length: %d\r\n\r\n%s", len(body), body))
			assert.True(t, strings.HasSuffix(got, "\r\n\r\n"+body), got)
		}(i)
	}
	wg.Wait()
}

func TestBacklogOverflowAnswers503(t *testing.T) {
	cfg := testConfig()
	cfg.PoolSize = 1
	cfg.MaxBacklog = 1
	srv := newServer(t, cfg)
	release := make(chan struct{})
	srv.HandleGet("/block", func(req *api.Request, tmpl *api.Response) *api.Response {
		<-release
		return tmpl.Derive(api.WithBody("done"))
	})
	addr := startServer(t, srv)

	results := make(chan string, 2)
	send := func() {
		results <- roundTrip(t, addr, "GET /block HTTP/1.1\r\n\r\n")
	}
	go send()
	require.Eventually(t, func() bool { return srv.Stats()["active"] == 1 }, 2*time.Second, time.Millisecond)
	go send()
	require.Eventually(t, func() bool { return srv.Stats()["queued"] == 1 }, 2*time.Second, time.Millisecond)

	got := roundTrip(t, addr, "GET /greeting HTTP/1.1\r\n\r\n")
	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 503 Service Unavailable\r\n"), got)
	assert.Contains(t, got, "Connection: close\r\n")

	close(release)
	for i := 0; i < 2; i++ {
		assert.True(t, strings.HasSuffix(<-results, "done"))
	}
	assert.EqualValues(t, 1, srv.Stats()["rejected_tasks"])
}

func TestShutdownIsIdempotent(t *testing.T) {
	srv := newServer(t, testConfig())
	addr := startServer(t, srv)
	_ = roundTrip(t, addr, "GET /greeting HTTP/1.1\r\n\r\n")

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()))
	assert.False(t, srv.Running())

	_, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
	assert.Error(t, err)
	assert.NoError(t, srv.SetStaticRoot("/x"))
}

func TestShutdownForceClosesStuckConnections(t *testing.T) {
	cfg := testConfig()
	cfg.ShutdownTimeout = 50 * time.Millisecond
	cfg.ReadTimeout = 10 * time.Second
	srv := newServer(t, cfg)
	addr := startServer(t, srv)

	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c.Close()
	_, err = io.WriteString(c, "GET /greeting HTTP/1.1\r\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.Stats()["active"] == 1 }, 2*time.Second, time.Millisecond)

	err = srv.Shutdown(context.Background())
	assert.ErrorIs(t, err, server.ErrShutdownTimeout)
	require.Eventually(t, func() bool { return srv.Stats()["active"] == 0 }, 2*time.Second, time.Millisecond)
}

func TestServeContextCancel(t *testing.T) {
	srv := newServer(t, testConfig())
	ln, err := transport.Listen(context.Background(), "127.0.0.1:0", 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()
	require.Eventually(t, srv.Running, time.Second, time.Millisecond)

	require.ErrorIs(t, srv.Serve(ctx, ln), server.ErrAlreadyRunning)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestSetStaticRootAndControl(t *testing.T) {
	srv := newServer(t, testConfig())
	require.NoError(t, srv.SetStaticRoot("public/"))
	addr := startServer(t, srv)

	got := roundTrip(t, addr, "GET /a.js HTTP/1.1\r\n\r\n")
	assert.True(t, strings.HasSuffix(got, "var a;"), got)
	assert.ErrorIs(t, srv.SetStaticRoot("/"), server.ErrAlreadyRunning)

	_ = roundTrip(t, addr, "GET /greeting HTTP/1.1\r\n\r\n")
	stats := srv.GetControl().Stats()
	assert.EqualValues(t, 1, stats["handler.GET /greeting"])
	assert.Contains(t, stats, "debug.pool")
	assert.Equal(t, "/public", srv.GetControl().GetConfig()["static_root"])
}
