// Package model defines shared data types used across the DAO risk platform.
//
// Conventions:
//   - Timestamps: int64 seconds since Unix epoch (as served by the governance hub)
//   - Cursors: decimal creation-timestamp strings; empty means "no cursor"
//   - IDs: opaque hub identifiers (proposal hashes, vote ids)
package model
