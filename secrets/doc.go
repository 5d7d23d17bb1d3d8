// Package secrets resolves storage provider API credentials. Production
// deployments read them from Vault; development falls back to
// environment variables.
package secrets
