package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// DropboxConnector uploads through the Dropbox content API and serves
// files from the public content host.
type DropboxConnector struct {
	baseURL     string
	apiBase     string
	contentBase string
	token       string
	client      *http.Client
	log         *slog.Logger
}

// NewDropboxConnector creates a Dropbox connector from the catalog spec.
func NewDropboxConnector(spec ProviderSpec, token string, client *http.Client, log *slog.Logger) *DropboxConnector {
	apiBase := strings.TrimSuffix(spec.APIEndpoint, "/")
	return &DropboxConnector{
		baseURL: spec.BaseURL,
		apiBase: apiBase,
		// Payload uploads go to the content host, not the RPC host.
		contentBase: strings.Replace(apiBase, "api.dropboxapi.com", "content.dropboxapi.com", 1),
		token:       token,
		client:      client,
		log:         log,
	}
}

// Upload stores the payload at /files/<filename> in overwrite mode, which
// keeps retries idempotent, and returns the public content URL.
func (c *DropboxConnector) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	apiArg, err := json.Marshal(map[string]any{
		"path": "/files/" + filename,
		"mode": "overwrite",
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode API arg: %w", err)
	}

	url := c.contentBase + "/files/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Dropbox-API-Arg", string(apiArg))
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
		return "", fmt.Errorf("Dropbox upload returned status %d: %s", resp.StatusCode, string(body))
	}
	io.Copy(io.Discard, resp.Body)

	c.log.Debug("Stored content on Dropbox",
		slog.String("filename", filename),
		slog.Int("size", len(data)))

	return c.baseURL + filename, nil
}

// Fetch retrieves a payload from its public content URL.
func (c *DropboxConnector) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from Dropbox: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, interfaces.ErrContentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Dropbox fetch returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Probe issues a HEAD request against the public content host.
func (c *DropboxConnector) Probe(ctx context.Context) bool {
	return headProbe(ctx, c.client, c.baseURL, c.log, "dropbox")
}

// Type returns the provider type tag.
func (c *DropboxConnector) Type() interfaces.ProviderType {
	return interfaces.ProviderDropbox
}

// Name returns an identifier for logging.
func (c *DropboxConnector) Name() string {
	return "dropbox"
}

// LocationURI returns the URI identifying this connector's target.
func (c *DropboxConnector) LocationURI() string {
	return c.apiBase
}
