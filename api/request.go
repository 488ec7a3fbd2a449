// File: api/request.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Immutable parsed request handed to route handlers.

package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Request is a parsed HTTP request. It is never mutated after NewRequest returns;
// every accessor returning a map or slice returns a copy.
type Request struct {
	uri     url.URL
	headers map[string]string
	body    []byte
}

// RequestOption customizes request assembly.
type RequestOption func(*Request)

// WithHeaders copies hdr into the request, folding names to lowercase.
func WithHeaders(hdr map[string]string) RequestOption {
	return func(r *Request) {
		for k, v := range hdr {
			r.headers[strings.ToLower(k)] = v
		}
	}
}

// WithHeader sets a single header, folding the name to lowercase.
func WithHeader(name, value string) RequestOption {
	return func(r *Request) {
		r.headers[strings.ToLower(name)] = value
	}
}

// WithRequestBody sets the body. The slice is copied.
func WithRequestBody(body []byte) RequestOption {
	return func(r *Request) {
		r.body = append([]byte(nil), body...)
	}
}

// NewRequest assembles a Request for uri.
func NewRequest(uri *url.URL, opts ...RequestOption) (*Request, error) {
	if uri == nil {
		return nil, fmt.Errorf("request uri is required: %w", ErrInvalidArgument)
	}
	r := &Request{
		uri:     *uri,
		headers: make(map[string]string),
	}
	if uri.User != nil {
		u := *uri.User
		r.uri.User = &u
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// URI returns a copy of the request target.
func (r *Request) URI() *url.URL {
	u := r.uri
	return &u
}

// Path returns the decoded request path without query.
func (r *Request) Path() string {
	return r.uri.Path
}

// RawQuery returns the undecoded query string.
func (r *Request) RawQuery() string {
	return r.uri.RawQuery
}

// QueryParam returns the decoded value of the first parameter whose decoded
// name is key.
func (r *Request) QueryParam(key string) (string, bool) {
	for _, kv := range strings.Split(r.uri.RawQuery, "&") {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		if dk, err := url.QueryUnescape(k); err == nil {
			k = dk
		}
		if k != key {
			continue
		}
		if dec, err := url.QueryUnescape(v); err == nil {
			return dec, true
		}
		return v, true
	}
	return "", false
}

// QueryParams decodes the query string. Later duplicates win.
func (r *Request) QueryParams() map[string]string {
	return decodePairs(r.uri.RawQuery)
}

// Header returns the value for name, matched case-insensitively.
func (r *Request) Header(name string) string {
	return r.headers[strings.ToLower(name)]
}

// HasHeader reports whether name was sent.
func (r *Request) HasHeader(name string) bool {
	_, ok := r.headers[strings.ToLower(name)]
	return ok
}

// Headers returns a copy of the lowercase-keyed header map.
func (r *Request) Headers() map[string]string {
	out := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		out[k] = v
	}
	return out
}

// ContentType returns the content-type header.
func (r *Request) ContentType() string {
	return r.Header("content-type")
}

// ContentLength returns the declared content-length, 0 when absent or malformed.
func (r *Request) ContentLength() int {
	n, err := strconv.Atoi(r.Header("content-length"))
	if err != nil {
		return 0
	}
	return n
}

// Body returns a copy of the body bytes.
func (r *Request) Body() []byte {
	return append([]byte(nil), r.body...)
}

// BodyString returns the body as a string.
func (r *Request) BodyString() string {
	return string(r.body)
}

// HasBody reports whether the body has non-whitespace content.
func (r *Request) HasBody() bool {
	return strings.TrimSpace(string(r.body)) != ""
}

// IsJSON reports an application/json content type.
func (r *Request) IsJSON() bool {
	return strings.Contains(strings.ToLower(r.ContentType()), "application/json")
}

// IsForm reports an application/x-www-form-urlencoded content type.
func (r *Request) IsForm() bool {
	return strings.Contains(strings.ToLower(r.ContentType()), "application/x-www-form-urlencoded")
}

// FormData decodes an urlencoded body. Empty for other content types.
func (r *Request) FormData() map[string]string {
	if !r.HasBody() || !r.IsForm() {
		return map[string]string{}
	}
	return decodePairs(string(r.body))
}

// JSONValue returns the string field key of a JSON object body.
func (r *Request) JSONValue(key string) (string, bool) {
	if !r.HasBody() || !r.IsJSON() {
		return "", false
	}
	var obj map[string]any
	if err := json.Unmarshal(r.body, &obj); err != nil {
		return "", false
	}
	s, ok := obj[key].(string)
	return s, ok
}

func (r *Request) String() string {
	var sb strings.Builder
	sb.WriteString("Request{path=")
	sb.WriteString(strconv.Quote(r.uri.Path))
	if r.uri.RawQuery != "" {
		sb.WriteString(", query=")
		sb.WriteString(strconv.Quote(r.uri.RawQuery))
	}
	if len(r.body) > 0 {
		fmt.Fprintf(&sb, ", bodyLength=%d", len(r.body))
	}
	fmt.Fprintf(&sb, ", headers=%d}", len(r.headers))
	return sb.String()
}

// decodePairs splits k=v&k=v, unescaping each side when possible.
func decodePairs(s string) map[string]string {
	out := make(map[string]string)
	for _, kv := range strings.Split(s, "&") {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		dk, errK := url.QueryUnescape(k)
		dv, errV := url.QueryUnescape(v)
		if errK != nil || errV != nil {
			out[k] = v
			continue
		}
		out[dk] = dv
	}
	return out
}
