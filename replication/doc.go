// Package replication implements redundant file storage: a synchronous
// primary upload followed by durable, retried backup copies to additional
// providers. The Coordinator owns the upload path and job scheduling; the
// Worker drains the job queue in the background.
package replication
