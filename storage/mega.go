package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// MegaConnector covers MEGA in the catalog for health probing and link
// retrieval. MEGA's client-side-encryption protocol has no plain HTTP
// upload path, so Upload is unsupported and the factory excludes this
// connector from backup target selection.
type MegaConnector struct {
	baseURL string
	apiBase string
	client  *http.Client
	log     *slog.Logger
}

// NewMegaConnector creates a MEGA connector from the catalog spec.
func NewMegaConnector(spec ProviderSpec, client *http.Client, log *slog.Logger) *MegaConnector {
	return &MegaConnector{
		baseURL: spec.BaseURL,
		apiBase: spec.APIEndpoint,
		client:  client,
		log:     log,
	}
}

// Upload is unsupported for MEGA.
func (c *MegaConnector) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	return "", fmt.Errorf("mega: %w", interfaces.ErrUploadUnsupported)
}

// Fetch retrieves a payload from a public MEGA link.
func (c *MegaConnector) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from MEGA: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, interfaces.ErrContentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("MEGA fetch returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Probe issues a HEAD request against the file host.
func (c *MegaConnector) Probe(ctx context.Context) bool {
	return headProbe(ctx, c.client, c.baseURL, c.log, "mega")
}

// Type returns the provider type tag.
func (c *MegaConnector) Type() interfaces.ProviderType {
	return interfaces.ProviderMega
}

// Name returns an identifier for logging.
func (c *MegaConnector) Name() string {
	return "mega"
}

// LocationURI returns the URI identifying this connector's target.
func (c *MegaConnector) LocationURI() string {
	return c.baseURL
}
