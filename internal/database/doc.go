// Package database provides the PostgreSQL connection pool and schema for
// synced governance data.
//
// Tables:
//   - sync_cursors: one cursor per stream (proposals, votes) per space
//   - proposals: upserted by id, tagged with the cursor in effect when fetched
//   - votes: upserted by id
package database
