// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TCP listener for hioload-http. Accept calls are bounded by a poll interval so
// the acceptor loop can observe shutdown between connections. Socket options are
// applied at bind time, separated by build tags (linux/other).

package transport
