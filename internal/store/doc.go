// Package store persists synced stream items together with their stream
// cursor.
//
// Every save is one transaction: items are upserted by id (safe to repeat
// when a page is re-fetched) and the stream cursor is written in the same
// commit, so a cursor is never advanced past items that were not stored.
package store
