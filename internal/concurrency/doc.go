// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives for hioload-http: the bounded worker pool that runs
// one connection per task, and a small periodic scheduler.
package concurrency
