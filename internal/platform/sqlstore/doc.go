// Package sqlstore provides SQL implementations of the persistence
// interfaces defined in the internal/store package. The same stores run on
// PostgreSQL (through the pgx stdlib driver) and on SQLite (through the
// pure Go modernc driver); queries are written with '?' placeholders and
// rebound for the active driver by sqlx.
//
// Schema migrations for both dialects are embedded and applied with goose.
package sqlstore
