// File: api/response.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Immutable response value and its HTTP/1.1 wire serialization.

package api

import (
	"bytes"
	"strconv"

	json "github.com/goccy/go-json"
)

// Defaults applied by NewResponse.
const (
	DefaultStatus      = 200
	DefaultContentType = "application/json"
)

// HeaderField is a single name/value pair of an extra response header.
type HeaderField struct {
	Name  string
	Value string
}

// Response is an HTTP response. Once built it is immutable; Bytes is a pure
// function of its fields.
type Response struct {
	status        int
	contentType   string
	body          []byte
	includeLength bool
	headers       []HeaderField
}

// ResponseOption customizes response assembly.
type ResponseOption func(*Response)

// WithStatus sets the status code.
func WithStatus(code int) ResponseOption {
	return func(r *Response) { r.status = code }
}

// WithContentType sets the Content-Type value.
func WithContentType(ct string) ResponseOption {
	return func(r *Response) { r.contentType = ct }
}

// WithBody sets a string body and enables Content-Length.
func WithBody(body string) ResponseOption {
	return func(r *Response) {
		r.body = []byte(body)
		r.includeLength = true
	}
}

// WithBodyBytes sets the body bytes and enables Content-Length. The slice is copied.
func WithBodyBytes(body []byte) ResponseOption {
	return func(r *Response) {
		r.body = append([]byte(nil), body...)
		r.includeLength = true
	}
}

// WithJSON marshals v as the body. A marshal failure leaves the body unchanged.
func WithJSON(v any) ResponseOption {
	return func(r *Response) {
		b, err := json.Marshal(v)
		if err != nil {
			return
		}
		r.body = b
		r.includeLength = true
	}
}

// WithResponseHeader adds an extra header. Setting an existing name replaces its
// value and keeps its original position.
func WithResponseHeader(name, value string) ResponseOption {
	return func(r *Response) {
		for i := range r.headers {
			if r.headers[i].Name == name {
				r.headers[i].Value = value
				return
			}
		}
		r.headers = append(r.headers, HeaderField{Name: name, Value: value})
	}
}

// NewResponse builds a response: 200, application/json, empty body, no
// Content-Length unless a body option is applied.
func NewResponse(opts ...ResponseOption) *Response {
	r := &Response{
		status:      DefaultStatus,
		contentType: DefaultContentType,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Derive builds a new response starting from r's fields.
func (r *Response) Derive(opts ...ResponseOption) *Response {
	d := &Response{
		status:        r.status,
		contentType:   r.contentType,
		body:          r.body,
		includeLength: r.includeLength,
		headers:       append([]HeaderField(nil), r.headers...),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Status returns the status code.
func (r *Response) Status() int { return r.status }

// ContentType returns the Content-Type value.
func (r *Response) ContentType() string { return r.contentType }

// Body returns a copy of the body.
func (r *Response) Body() []byte { return append([]byte(nil), r.body...) }

// IncludesLength reports whether Content-Length is emitted for a non-empty body.
func (r *Response) IncludesLength() bool { return r.includeLength }

// Header returns the value of an extra header.
func (r *Response) Header(name string) (string, bool) {
	for _, h := range r.headers {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}

// Headers returns the extra headers in insertion order.
func (r *Response) Headers() []HeaderField {
	return append([]HeaderField(nil), r.headers...)
}

// HeaderBytes serializes the status line and header section, blank line included.
func (r *Response) HeaderBytes() []byte {
	var b bytes.Buffer
	r.writeHead(&b)
	return b.Bytes()
}

// Bytes serializes the full response.
func (r *Response) Bytes() []byte {
	var b bytes.Buffer
	b.Grow(128 + len(r.body))
	r.writeHead(&b)
	b.Write(r.body)
	return b.Bytes()
}

func (r *Response) writeHead(b *bytes.Buffer) {
	b.WriteString("HTTP/1.1 ")
	b.WriteString(strconv.Itoa(r.status))
	b.WriteByte(' ')
	b.WriteString(StatusText(r.status))
	b.WriteString("\r\n")
	b.WriteString("Content-Type: ")
	b.WriteString(r.contentType)
	b.WriteString("\r\n")
	if r.includeLength && len(r.body) > 0 {
		b.WriteString("Content-Length: ")
		b.WriteString(strconv.Itoa(len(r.body)))
		b.WriteString("\r\n")
	}
	for _, h := range r.headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
}

// StatusText returns the reason phrase for the codes this server emits, or "Unknown".
func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 500:
		return "Internal Server Error"
	case 503:
		return "Service Unavailable"
	default:
		return "Unknown"
	}
}

// StripBody cuts a serialized response after the first blank line that ends the
// header section. Input without such a boundary is returned unchanged.
func StripBody(raw []byte) []byte {
	idx := bytes.Index(raw, []byte("\r\n\r\n"))
	if idx < 0 {
		return raw
	}
	return raw[:idx+4]
}
