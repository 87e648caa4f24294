// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Sync cycle outcomes and durations per stream
//   - Items persisted and malformed items dropped per stream
//   - Current cursor position per stream
//   - Provider cache hits and misses, provider fetch outcomes
package metrics
