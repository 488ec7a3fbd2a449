// File: api/handler.go
// Package api defines Handler and Route contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Method names the server dispatches on.
const (
	MethodGet     = "GET"
	MethodPost    = "POST"
	MethodHead    = "HEAD"
	MethodOptions = "OPTIONS"
)

// AllowedMethods is the value of the Allow header.
const AllowedMethods = "GET, POST, HEAD, OPTIONS"

// HandlerFunc serves req. tmpl is a fresh default response the handler may
// Derive from; the returned response is written as built.
type HandlerFunc func(req *Request, tmpl *Response) *Response

// Route binds a handler to an exact (method, path) pair.
type Route interface {
	Method() string
	Path() string
	Serve(req *Request, tmpl *Response) *Response
}

// RouteProvider exposes a fixed set of routes, scanned once at startup.
type RouteProvider interface {
	Routes() []Route
}

type route struct {
	method string
	path   string
	h      HandlerFunc
}

// NewRoute builds a Route from its parts.
func NewRoute(method, path string, h HandlerFunc) Route {
	return &route{method: method, path: path, h: h}
}

func (r *route) Method() string { return r.method }
func (r *route) Path() string   { return r.path }
func (r *route) Serve(req *Request, tmpl *Response) *Response {
	return r.h(req, tmpl)
}

// Routes adapts a plain slice to RouteProvider.
type Routes []Route

// Routes implements RouteProvider.
func (rs Routes) Routes() []Route { return rs }
