// Package store persists file locations, storage usage gauges,
// replication jobs, and submission workflow state.
//
// The Postgres implementations use the pgx stdlib driver with embedded
// goose migrations; FileLocation records live as JSONB in cloud_files.
// InMemory implements the same contracts for tests and single-node
// development.
package store
