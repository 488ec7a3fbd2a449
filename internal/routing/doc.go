// File: internal/routing/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package routing holds the concurrent route table mapping an exact
// (method, path) pair to its handler. There is no pattern matching, no
// trailing-slash folding and no removal; re-registering a key replaces it.
package routing
