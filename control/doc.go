// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics, configuration snapshot, and debug introspection layer of
// hioload-http.
//
// Provides concurrent-safe state handling primitives including:
//   - Snapshot config reads and merged updates
//   - Counters and gauges for pool occupancy and request outcomes
//   - Debug probes evaluated on demand (pool, routes, platform limits)
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
