// File: server/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-connection request/response state machine. One request is served per
// connection; the socket is closed after the response is written.

package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-http/api"
)

// lingerTimeout bounds the drain of unread request bytes before close.
const lingerTimeout = 500 * time.Millisecond

type conn struct {
	srv      *Server
	nc       net.Conn
	br       *bufio.Reader
	id       uint64
	log      zerolog.Logger
	start    time.Time
	deadline time.Time
	consumed bool

	method  string
	target  *url.URL
	headers map[string]string
	body    []byte
	resp    *api.Response
	err     error
}

type stateFunc func(*conn) stateFunc

func newConn(s *Server, nc net.Conn) *conn {
	id := s.nextID.Add(1)
	return &conn{
		srv:   s,
		nc:    nc,
		br:    s.readers.Get(nc),
		id:    id,
		log:   s.log.With().Uint64("conn", id).Str("remote", nc.RemoteAddr().String()).Logger(),
		start: time.Now(),
	}
}

// serve runs the state machine to completion on the calling worker.
func (c *conn) serve() {
	defer c.close()
	if d := c.srv.cfg.ReadTimeout; d > 0 {
		c.deadline = time.Now().Add(d)
		_ = c.nc.SetReadDeadline(c.deadline)
	}
	for state := readRequestLine; state != nil; {
		state = state(c)
	}
}

func (c *conn) close() {
	c.srv.untrack(c)
	if !c.consumed || (c.br != nil && c.br.Buffered() > 0) {
		c.linger()
	}
	c.release()
	if err := c.nc.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.log.Debug().Err(err).Msg("close failed")
	}
	c.log.Debug().Dur("elapsed", time.Since(c.start)).Msg("connection closed")
}

// reject writes resp on a connection that never reached a worker. The request
// is left unread, so close drains it.
func (c *conn) reject(resp *api.Response) {
	c.resp = resp
	_ = writeResponse(c)
	c.close()
}

// linger half-closes the socket and discards input until the peer closes or
// lingerTimeout passes. Unread input at close turns the FIN into a reset.
func (c *conn) linger() {
	tc, ok := c.nc.(*net.TCPConn)
	if !ok {
		return
	}
	if err := tc.CloseWrite(); err != nil {
		return
	}
	_ = tc.SetReadDeadline(time.Now().Add(lingerTimeout))
	if n, _ := io.Copy(io.Discard, tc); n > 0 {
		c.log.Debug().Int64("discarded", n).Msg("drained unread request bytes")
	}
}

// release hands the buffered reader back to the server pool.
func (c *conn) release() {
	if c.br != nil {
		c.srv.readers.Put(c.br)
		c.br = nil
	}
}

// state funcs

func readRequestLine(c *conn) stateFunc {
	line, err := readLine(c.br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.log.Debug().Msg("peer closed before sending a request")
			return nil
		}
		return c.readFailed(err)
	}
	method, target, err := parseRequestLine(line)
	if err != nil {
		c.log.Warn().Err(err).Msg("bad request line")
		return badRequest
	}
	c.method, c.target = method, target
	c.log.Debug().Str("method", method).Str("target", line).Msg("request line")
	return readHeaderSection
}

func readHeaderSection(c *conn) stateFunc {
	if !c.headersPending() {
		c.log.Debug().Msg("no header section, dispatching request line alone")
		c.headers = map[string]string{}
		return dispatch
	}
	h, err := readHeaders(c.br)
	if err != nil {
		return c.readFailed(err)
	}
	c.headers = h
	_, hasBody := h["content-length"]
	c.consumed = !hasBody
	return dispatch
}

// headersPending waits up to HeaderIdleTimeout for the header section of a
// bodyless request whose request line arrived alone. It reports false when
// nothing followed within that gap.
func (c *conn) headersPending() bool {
	idle := c.srv.cfg.HeaderIdleTimeout
	if idle <= 0 || c.method == api.MethodPost || c.br.Buffered() > 0 {
		return true
	}
	until := time.Now().Add(idle)
	if !c.deadline.IsZero() && c.deadline.Before(until) {
		return true
	}
	_ = c.nc.SetReadDeadline(until)
	_, err := c.br.Peek(1)
	_ = c.nc.SetReadDeadline(c.deadline)
	var ne net.Error
	return !(err != nil && errors.As(err, &ne) && ne.Timeout())
}

func dispatch(c *conn) stateFunc {
	c.srv.control.AddMetric("requests.total", 1)
	switch c.method {
	case api.MethodGet, api.MethodHead:
		return serveGet
	case api.MethodPost:
		return readRequestBody
	case api.MethodOptions:
		c.resp = optionsResponse()
		return writeResponse
	default:
		c.log.Warn().Str("method", c.method).Msg("method not allowed")
		c.resp = methodNotAllowed(c.method)
		return writeResponse
	}
}

func readRequestBody(c *conn) stateFunc {
	n, err := contentLength(c.headers, c.srv.cfg.MaxBodyBytes)
	if err != nil {
		c.log.Warn().Err(err).Msg("rejecting body")
		c.resp = payloadError(err)
		return writeResponse
	}
	body, err := readBody(c.br, n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			c.log.Warn().Int64("content_length", n).Msg("body shorter than content-length")
			return badRequest
		}
		return c.readFailed(err)
	}
	c.body = body
	c.consumed = true
	return servePost
}

func serveGet(c *conn) stateFunc {
	if route, ok := c.srv.routes.Lookup(api.MethodGet, c.target.Path); ok {
		c.resp = c.invoke(route)
		return writeResponse
	}
	c.resp = c.srv.resolver().Resolve(c.target.EscapedPath())
	return writeResponse
}

func servePost(c *conn) stateFunc {
	route, ok := c.srv.routes.Lookup(api.MethodPost, c.target.Path)
	if !ok {
		c.resp = api.NewResponse(
			api.WithStatus(404),
			api.WithBody(`{"error": "Endpoint POST not found"}`),
		)
		return writeResponse
	}
	c.resp = c.invoke(route)
	return writeResponse
}

func badRequest(c *conn) stateFunc {
	c.resp = coreResponse(400, `{"error": "Bad Request", "message": "Invalid HTTP request format"}`)
	return writeResponse
}

func writeResponse(c *conn) stateFunc {
	if d := c.srv.cfg.WriteTimeout; d > 0 {
		_ = c.nc.SetWriteDeadline(time.Now().Add(d))
	}
	raw := c.resp.Bytes()
	if c.method == api.MethodHead {
		raw = api.StripBody(raw)
	}
	if _, err := c.nc.Write(raw); err != nil {
		c.log.Error().Err(err).Msg("write failed")
		return nil
	}
	c.srv.control.AddMetric("responses."+strconv.Itoa(c.resp.Status()), 1)
	c.log.Debug().
		Str("method", c.method).
		Int("status", c.resp.Status()).
		Dur("elapsed", time.Since(c.start)).
		Msg("response sent")
	return nil
}

// readFailed handles timeouts and I/O errors during reads: log, attempt a
// 500 while the socket may still be writable, then close.
func (c *conn) readFailed(err error) stateFunc {
	code := api.ErrCodeIO
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		code = api.ErrCodeTimeout
	}
	if errors.Is(err, errLineTooLong) {
		c.log.Warn().Err(err).Msg("request line or header too long")
		return badRequest
	}
	c.err = api.WrapError(code, "read request", err)
	c.log.Warn().Err(c.err).Str("code", code.String()).Msg("read failed")
	c.resp = internalError()
	return writeResponse
}

// invoke runs a route with a fresh template response, turning panics and nil
// results into 500.
func (c *conn) invoke(route api.Route) (resp *api.Response) {
	req, err := api.NewRequest(c.target, api.WithHeaders(c.headers), api.WithRequestBody(c.body))
	if err != nil {
		c.log.Error().Err(err).Msg("build request")
		return internalError()
	}
	defer func() {
		if r := recover(); r != nil {
			c.err = api.NewError(api.ErrCodeHandler, "handler panic").WithContext("panic", r)
			c.log.Error().Err(c.err).Str("path", route.Path()).Msg("handler failed")
			resp = internalError()
		}
	}()
	resp = route.Serve(req, api.NewResponse())
	if resp == nil {
		c.log.Error().Str("path", route.Path()).Msg("handler returned no response")
		return internalError()
	}
	return resp
}

// coreResponse builds a response originating in the connection handler itself.
func coreResponse(status int, body string) *api.Response {
	return api.NewResponse(
		api.WithStatus(status),
		api.WithBody(body),
		api.WithResponseHeader("Connection", "close"),
	)
}

func internalError() *api.Response {
	return coreResponse(500, `{"error": "Internal Server Error"}`)
}

func payloadError(err error) *api.Response {
	msg := "Invalid Content-Length header"
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}
	return coreResponse(api.StatusFor(err), `{"error": `+quote(msg)+`}`)
}

func methodNotAllowed(method string) *api.Response {
	return api.NewResponse(
		api.WithStatus(405),
		api.WithBody(`{"error": "Method Not Allowed", "method": `+quote(method)+`}`),
		api.WithResponseHeader("Allow", api.AllowedMethods),
		api.WithResponseHeader("Connection", "close"),
	)
}

func optionsResponse() *api.Response {
	return api.NewResponse(
		api.WithStatus(200),
		api.WithResponseHeader("Allow", api.AllowedMethods),
		api.WithResponseHeader("Access-Control-Allow-Origin", "*"),
		api.WithResponseHeader("Access-Control-Allow-Methods", api.AllowedMethods),
		api.WithResponseHeader("Access-Control-Allow-Headers", "Content-Type"),
		api.WithResponseHeader("Connection", "close"),
	)
}

func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
