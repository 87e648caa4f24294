// Package timeline reconstructs dense time series from sparse samples.
//
// The building blocks are:
//   - Builder: ordered, gap-free daily timelines (UTC midnight keys)
//   - ForwardFill: step-function carry-forward of sparse values onto a timeline
//   - FilterWithFallback: cutoff filtering that degrades to the last known sample
//   - LastValueBefore: most recent sample strictly before a key
//
// Everything here is computed per request; nothing is persisted.
package timeline
