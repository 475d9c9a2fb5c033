// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the reminder engine, keeping scan logic independent of the database.
package store
