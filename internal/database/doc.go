// Package database builds the PostgreSQL connection pool backing the
// server-side tick store.
package database
