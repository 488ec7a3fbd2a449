// File: internal/static/resolver.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package static maps request paths onto bundled assets under a configured root.
//
// A request path is percent-decoded, defaulted to /index.html, joined to the
// root and canonicalized; the result must stay inside the root. Paths carrying
// traversal markers are refused before canonicalization.

package static

import (
	"errors"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"github.com/momentics/hioload-http/api"
)

// IndexPath is served for "" and "/".
const IndexPath = "/index.html"

// Bodies of the resolver's error responses.
const (
	bodyForbidden  = `{"error": "Forbidden - Invalid path"}`
	bodyNotFound   = `{"error": "File not found"}`
	bodyBadPath    = `{"error": "Bad Request", "message": "Invalid path encoding"}`
	bodyReadFailed = `{"error": "Server Error: asset read failed"}`
)

// Resolver serves files from an fs.FS below a fixed root.
type Resolver struct {
	fsys fs.FS
	root string
}

// NewResolver binds fsys to root. See NormalizeRoot for the root format.
func NewResolver(fsys fs.FS, root string) *Resolver {
	return &Resolver{fsys: fsys, root: NormalizeRoot(root)}
}

// NormalizeRoot adds a leading slash and strips trailing ones. "" and "/"
// both select the FS root and normalize to "".
func NormalizeRoot(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}
	if !strings.HasPrefix(dir, "/") {
		dir = "/" + dir
	}
	return strings.TrimRight(dir, "/")
}

// Root returns the normalized root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve answers a GET for the escaped request path.
func (r *Resolver) Resolve(escapedPath string) *api.Response {
	name, err := r.Locate(escapedPath)
	if err != nil {
		return errorResponse(err)
	}
	info, err := fs.Stat(r.fsys, name)
	if err != nil || info.IsDir() {
		return errorResponse(api.NewError(api.ErrCodeNotFound, bodyNotFound).WithContext("asset", name))
	}
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return api.NewResponse(api.WithStatus(500), api.WithBody(bodyReadFailed))
	}
	return api.NewResponse(
		api.WithContentType(ContentType(name)),
		api.WithBodyBytes(data),
	)
}

// Locate turns the escaped request path into an fs.FS name, enforcing the
// traversal guard. Errors are *api.Error with ErrCodeProtocol or ErrCodeForbidden.
func (r *Resolver) Locate(escapedPath string) (string, error) {
	decoded, err := url.PathUnescape(escapedPath)
	if err != nil {
		return "", api.WrapError(api.ErrCodeProtocol, bodyBadPath, err)
	}
	if decoded == "" || decoded == "/" {
		decoded = IndexPath
	}
	if !strings.HasPrefix(decoded, "/") {
		decoded = "/" + decoded
	}
	combined := r.root + decoded
	if suspicious(combined) {
		return "", api.NewError(api.ErrCodeForbidden, bodyForbidden).WithContext("path", decoded)
	}

	base := r.root
	if base == "" {
		base = "/"
	}
	canonical := path.Clean(combined)
	if !within(canonical, base) {
		return "", api.NewError(api.ErrCodeForbidden, bodyForbidden).WithContext("path", decoded)
	}
	name := strings.TrimPrefix(canonical, "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return "", api.NewError(api.ErrCodeForbidden, bodyForbidden).WithContext("path", decoded)
	}
	return name, nil
}

// suspicious flags traversal markers and bytes that have no business in an asset path.
func suspicious(p string) bool {
	return strings.Contains(p, "..") ||
		strings.Contains(p, "~") ||
		strings.ContainsRune(p, 0) ||
		strings.Contains(p, `\`)
}

// within reports whether canonical is base or a descendant of it.
func within(canonical, base string) bool {
	if base == "/" {
		return strings.HasPrefix(canonical, "/")
	}
	return canonical == base || strings.HasPrefix(canonical, base+"/")
}

func errorResponse(err error) *api.Response {
	var apiErr *api.Error
	msg := bodyNotFound
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}
	return api.NewResponse(api.WithStatus(api.StatusFor(err)), api.WithBody(msg))
}
