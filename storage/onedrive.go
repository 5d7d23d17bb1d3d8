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

// OneDriveConnector uploads through the Microsoft Graph drive API.
type OneDriveConnector struct {
	baseURL string
	apiBase string
	token   string
	client  *http.Client
	log     *slog.Logger
}

// NewOneDriveConnector creates a OneDrive connector from the catalog spec.
func NewOneDriveConnector(spec ProviderSpec, token string, client *http.Client, log *slog.Logger) *OneDriveConnector {
	return &OneDriveConnector{
		baseURL: spec.BaseURL,
		apiBase: strings.TrimSuffix(spec.APIEndpoint, "/"),
		token:   token,
		client:  client,
		log:     log,
	}
}

// Upload PUTs the payload at journal/<filename> under the drive root.
// Graph item uploads replace existing content, so retries are idempotent.
func (c *OneDriveConnector) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	url := fmt.Sprintf("%s/me/drive/root:/journal/%s:/content", c.apiBase, filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OneDrive upload returned status %d: %s", resp.StatusCode, string(body))
	}

	var item struct {
		ID     string `json:"id"`
		WebURL string `json:"webUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return "", fmt.Errorf("failed to decode OneDrive response: %w", err)
	}

	c.log.Debug("Stored content on OneDrive",
		slog.String("item_id", item.ID),
		slog.Int("size", len(data)))

	if item.WebURL != "" {
		return item.WebURL, nil
	}
	return c.baseURL + item.ID, nil
}

// Fetch retrieves a payload from its URL.
func (c *OneDriveConnector) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from OneDrive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, interfaces.ErrContentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OneDrive fetch returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Probe issues a HEAD request against the download base address.
func (c *OneDriveConnector) Probe(ctx context.Context) bool {
	return headProbe(ctx, c.client, c.baseURL, c.log, "onedrive")
}

// Type returns the provider type tag.
func (c *OneDriveConnector) Type() interfaces.ProviderType {
	return interfaces.ProviderOneDrive
}

// Name returns an identifier for logging.
func (c *OneDriveConnector) Name() string {
	return "onedrive"
}

// LocationURI returns the URI identifying this connector's target.
func (c *OneDriveConnector) LocationURI() string {
	return c.apiBase
}
