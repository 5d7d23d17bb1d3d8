package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// GoogleDriveConnector uploads files through the Drive v3 multipart
// endpoint and builds direct-download URLs from the catalog base URL.
type GoogleDriveConnector struct {
	baseURL    string
	apiBase    string
	uploadBase string
	token      string
	client     *http.Client
	log        *slog.Logger
}

// NewGoogleDriveConnector creates a Drive connector from the catalog spec.
func NewGoogleDriveConnector(spec ProviderSpec, token string, client *http.Client, log *slog.Logger) *GoogleDriveConnector {
	apiBase := strings.TrimSuffix(spec.APIEndpoint, "/")
	return &GoogleDriveConnector{
		baseURL: spec.BaseURL,
		apiBase: apiBase,
		// Drive media uploads live under /upload on the same host.
		uploadBase: strings.Replace(apiBase, "/drive/v3", "/upload/drive/v3", 1),
		token:      token,
		client:     client,
		log:        log,
	}
}

// Upload performs a multipart-related upload (metadata part + media part)
// and returns the direct-download URL for the created file.
func (c *GoogleDriveConnector) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return "", fmt.Errorf("failed to create metadata part: %w", err)
	}
	if err := json.NewEncoder(metaPart).Encode(map[string]string{"name": filename}); err != nil {
		return "", fmt.Errorf("failed to encode file metadata: %w", err)
	}

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", "application/octet-stream")
	mediaPart, err := writer.CreatePart(mediaHeader)
	if err != nil {
		return "", fmt.Errorf("failed to create media part: %w", err)
	}
	if _, err := mediaPart.Write(data); err != nil {
		return "", fmt.Errorf("failed to write media part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	url := c.uploadBase + "/files?uploadType=multipart"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Drive upload returned status %d: %s", resp.StatusCode, string(body))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode Drive response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("Drive upload response missing file id")
	}

	c.log.Debug("Stored content on Google Drive",
		slog.String("file_id", created.ID),
		slog.Int("size", len(data)))

	return c.baseURL + created.ID, nil
}

// Fetch retrieves a payload from its direct-download URL.
func (c *GoogleDriveConnector) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from Drive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, interfaces.ErrContentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Drive fetch returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Probe issues a HEAD request against the download base address.
func (c *GoogleDriveConnector) Probe(ctx context.Context) bool {
	return headProbe(ctx, c.client, c.baseURL, c.log, "google_drive")
}

// Type returns the provider type tag.
func (c *GoogleDriveConnector) Type() interfaces.ProviderType {
	return interfaces.ProviderGoogleDrive
}

// Name returns an identifier for logging.
func (c *GoogleDriveConnector) Name() string {
	return "google-drive"
}

// LocationURI returns the URI identifying this connector's target.
func (c *GoogleDriveConnector) LocationURI() string {
	return c.apiBase
}
