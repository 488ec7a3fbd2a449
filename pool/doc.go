// File: pool/doc.go
// Package pool
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reusable per-connection buffers. Every accepted connection borrows a
// buffered reader for the lifetime of its single request.

package pool
