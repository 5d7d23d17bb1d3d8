// Package interfaces defines the shared types and component contracts of
// the journal storage backend.
//
// The package contains no logic beyond validation and pure derivations
// (checksums, file type classification). Every other package depends on
// it; it depends on nothing but the standard library and uuid.
//
// # Core types
//
// FileLocation describes one uploaded artifact and every place a copy of
// it lives. Its invariant: the primary URL must be populated before the
// record is valid, while backup URLs may lag behind indefinitely
// (eventual, not atomic, replication).
//
// ProviderConnector is the capability interface implemented once per
// storage provider:
//
//	Upload(ctx, filename, data) → url
//	Fetch(ctx, url) → data
//	Probe(ctx) → bool
//
// Persistence contracts (LocationRegistry, UsageTracker,
// ReplicationQueue, SubmissionStore) are defined here and implemented in
// the store package, with in-memory variants for tests.
package interfaces
