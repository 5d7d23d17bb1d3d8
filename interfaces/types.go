package interfaces

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProviderType identifies a storage backend kind.
type ProviderType string

const (
	ProviderGitHub      ProviderType = "github"
	ProviderGoogleDrive ProviderType = "google_drive"
	ProviderDropbox     ProviderType = "dropbox"
	ProviderOneDrive    ProviderType = "onedrive"
	ProviderMega        ProviderType = "mega"
	ProviderFirebase    ProviderType = "firebase"

	// Self-hosted mirror and archival backends, not part of the public
	// free-tier catalog but available through the connector factory.
	ProviderS3   ProviderType = "s3"
	ProviderIPFS ProviderType = "ipfs"
	ProviderFile ProviderType = "file"
)

// ParseProviderType validates a provider type string.
func ParseProviderType(s string) (ProviderType, error) {
	switch pt := ProviderType(strings.ToLower(s)); pt {
	case ProviderGitHub, ProviderGoogleDrive, ProviderDropbox, ProviderOneDrive,
		ProviderMega, ProviderFirebase, ProviderS3, ProviderIPFS, ProviderFile:
		return pt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
}

// String returns the wire representation of the provider type.
func (pt ProviderType) String() string {
	return string(pt)
}

// FileType classifies an uploaded artifact by its filename extension.
type FileType string

const (
	FileTypePDF      FileType = "pdf"
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeArchive  FileType = "archive"
	FileTypeDocument FileType = "document"
)

// FileTypeOf derives the file type from a filename extension.
// Unknown extensions classify as FileTypeDocument.
func FileTypeOf(filename string) FileType {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "pdf":
		return FileTypePDF
	case "jpg", "jpeg", "png", "gif", "webp":
		return FileTypeImage
	case "mp4", "avi", "mov", "webm":
		return FileTypeVideo
	case "zip", "rar", "7z":
		return FileTypeArchive
	default:
		return FileTypeDocument
	}
}

// ComputeChecksum returns the lowercase hex SHA-256 digest of data.
func ComputeChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewFileID generates an opaque unique identifier for an uploaded file.
func NewFileID() string {
	return "file_" + uuid.NewString()
}

// ReplicationStatus describes how far backup replication has progressed
// for a FileLocation.
type ReplicationStatus string

const (
	// ReplicationPending means no backup attempt has completed yet.
	ReplicationPending ReplicationStatus = "pending"
	// ReplicationPartial means some, but not all, backup targets hold a copy.
	ReplicationPartial ReplicationStatus = "partial"
	// ReplicationComplete means every scheduled backup target holds a copy.
	ReplicationComplete ReplicationStatus = "complete"
	// ReplicationFailed means every scheduled backup target failed terminally.
	ReplicationFailed ReplicationStatus = "failed"
)

// FileLocation describes one uploaded artifact and where its copies live.
//
// The primary URL is authoritative; BackupURLs lag behind it as backup
// replication lands (eventual, not atomic). A record with zero backups
// is valid but under-replicated.
type FileLocation struct {
	ID                string            `json:"id"`
	Filename          string            `json:"filename"`
	FileType          FileType          `json:"fileType"`
	Size              int64             `json:"size"`
	Provider          ProviderType      `json:"provider"`
	URL               string            `json:"url"`
	BackupURLs        []string          `json:"backupUrls"`
	Checksum          string            `json:"checksum"`
	UploadDate        time.Time         `json:"uploadDate"`
	LastVerified      time.Time         `json:"lastVerified"`
	ReplicationStatus ReplicationStatus `json:"replicationStatus"`
}

// Validate checks the record invariants. A FileLocation is never valid
// without a populated primary URL.
func (fl *FileLocation) Validate() error {
	if fl.ID == "" {
		return errors.New("file location missing id")
	}
	if fl.URL == "" {
		return errors.New("file location missing primary url")
	}
	if fl.Checksum == "" {
		return errors.New("file location missing checksum")
	}
	return nil
}

// UnderReplicated reports whether no backup copy beyond the primary exists.
func (fl *FileLocation) UnderReplicated() bool {
	for _, u := range fl.BackupURLs {
		if u != fl.URL {
			return false
		}
	}
	return true
}

// EntityType names the domain object a stored file belongs to.
type EntityType string

const (
	EntityArticle       EntityType = "article"
	EntityIssue         EntityType = "issue"
	EntityReview        EntityType = "review"
	EntityAuthorProfile EntityType = "author_profile"
	EntitySupplementary EntityType = "supplementary"
)

// CloudFile associates a FileLocation with exactly one owning entity.
type CloudFile struct {
	ID           string       `json:"id"`
	EntityType   EntityType   `json:"entity_type"`
	EntityID     string       `json:"entity_id"`
	FileLocation FileLocation `json:"file_location"`
	IsPrimary    bool         `json:"is_primary"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// HealthStatus is the coarse per-provider state shown on the dashboard.
type HealthStatus string

const (
	HealthHealthy HealthStatus = "healthy"
	HealthWarning HealthStatus = "warning"
	HealthError   HealthStatus = "error"
)

// StorageUsage is the per-provider capacity gauge. One row per provider
// type, upserted by the usage tracker.
type StorageUsage struct {
	ProviderType ProviderType `json:"provider_type"`
	UsedSpaceMB  float64      `json:"used_space_mb"`
	TotalSpaceMB float64      `json:"total_space_mb"`
	LastUpdated  time.Time    `json:"last_updated"`
	HealthStatus HealthStatus `json:"health_status"`
}

// JobState is the lifecycle state of a single replication job.
type JobState string

const (
	JobPending JobState = "pending"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// ReplicationJob is one durable backup task: copy the file identified by
// FileID from its primary location to TargetProvider.
type ReplicationJob struct {
	ID             string       `json:"id"`
	FileID         string       `json:"file_id"`
	Filename       string       `json:"filename"`
	Checksum       string       `json:"checksum"`
	SourceProvider ProviderType `json:"source_provider"`
	SourceURL      string       `json:"source_url"`
	TargetProvider ProviderType `json:"target_provider"`
	State          JobState     `json:"state"`
	Attempts       int          `json:"attempts"`
	LastError      string       `json:"last_error,omitempty"`
	NextAttempt    time.Time    `json:"next_attempt"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
