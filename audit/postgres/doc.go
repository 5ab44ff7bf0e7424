// Package postgres provides the Postgres-backed durable audit store.
//
// The write path is a single multi-row INSERT per flush batch; the read
// path serves the admin query surface with subject, type, severity, and
// time-range filters plus limit/offset pagination.
package postgres
