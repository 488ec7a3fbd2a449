// File: internal/app/doc.go
// Package app
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sample application served by hioload-http: greeting and math controllers,
// user registration, a small JSON API and the bundled static front-end.
// Controllers expose their routes through api.RouteProvider.

package app
