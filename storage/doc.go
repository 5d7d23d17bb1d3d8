// Package storage provides the journal's multi-cloud provider catalog
// and one connector per storage backend.
//
// Each connector implements interfaces.ProviderConnector:
//
//	Upload(ctx, filename, data) → url
//	Fetch(ctx, url) → data
//	Probe(ctx) → bool
//
// # Catalog
//
// DefaultCatalog lists the free-tier providers the journal replicates
// across (GitHub, Google Drive, Dropbox, OneDrive, MEGA) with their base
// URLs, API endpoints, and nominal free-tier limits. The catalog is
// static configuration: defined at process start, never mutated.
//
// # Connectors
//
//   - GitHubConnector commits files into a public content repository via
//     the contents API and serves them from the raw URL. It also exposes
//     the canonical content repository URL layout for articles, issues,
//     and reviews.
//   - GoogleDriveConnector uses the Drive v3 multipart upload endpoint.
//   - DropboxConnector uses the content-host upload API in overwrite
//     mode.
//   - OneDriveConnector uses the Microsoft Graph drive item API.
//   - MegaConnector is probe-only: MEGA has no plain HTTP upload path,
//     so it is excluded from backup target selection.
//   - FileConnector stores to the local file system (dev and tests).
//   - S3Connector and IPFSConnector back self-hosted mirror and archival
//     deployments; they are built explicitly and registered with
//     WithConnector rather than appearing in the public catalog.
//
// # Factory
//
// ConnectorFactory builds connectors from the catalog plus a token
// source and hands out the sets used for uploads (UploadTargets) and
// health probes (Connectors). Every dependency is injected; there is no
// package-level client state.
package storage
