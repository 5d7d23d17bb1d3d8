/*
Package httpserver implements the HTTP API of the journal storage service.

It exposes file upload with multi-provider redundancy, per-entity file
listings, replication progress, provider health probes, storage usage
reporting, and submission workflow transitions.

# API Endpoints

  - POST /api/storage/files - Upload a file with redundancy
  - GET /api/storage/files/{entity_type}/{entity_id} - List an entity's files
  - GET /api/storage/files/{file_id}/replication - Replication progress
  - GET /api/storage/health - Probe all configured providers
  - GET /api/storage/usage - Per-provider usage figures
  - PUT /api/storage/usage - Upsert one provider's usage figures
  - POST /api/submissions/{submission_id}/status - Workflow transition
  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

The server runs an API listener and an optional metrics listener on a
second address, supports pprof behind a flag, and shuts down gracefully
with a configurable drain period.
*/
package httpserver
