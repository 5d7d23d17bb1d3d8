package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// IPFSConnector archives journal artifacts on an IPFS node. Journals use
// it for permanent archival alongside the free-tier catalog providers.
type IPFSConnector struct {
	shell       *shell.Shell
	host        string
	port        string
	gatewayBase string
	log         *slog.Logger
	locationURI string
}

// NewIPFSConnector creates an IPFS connector talking to the node API at
// host:port. Returned URLs point at gatewayBase (e.g. a public gateway).
func NewIPFSConnector(host, port, gatewayBase string, log *slog.Logger) (*IPFSConnector, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)
	if gatewayBase == "" {
		gatewayBase = "https://ipfs.io/ipfs/"
	}
	if !strings.HasSuffix(gatewayBase, "/") {
		gatewayBase += "/"
	}

	return &IPFSConnector{
		shell:       shell.NewShell(apiURL),
		host:        host,
		port:        port,
		gatewayBase: gatewayBase,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s", apiURL),
	}, nil
}

// Upload adds the payload to IPFS and returns its gateway URL. Content
// addressing makes retries naturally idempotent.
func (c *IPFSConnector) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if !c.shell.IsUp() {
		return "", interfaces.ErrProviderUnavailable
	}

	cid, err := c.shell.Add(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to add data to IPFS: %w", err)
	}

	c.log.Debug("Stored content in IPFS",
		slog.String("cid", cid),
		slog.String("filename", filename),
		slog.Int("size", len(data)))

	return c.gatewayBase + cid, nil
}

// Fetch retrieves a payload by the CID in its gateway URL.
func (c *IPFSConnector) Fetch(ctx context.Context, url string) ([]byte, error) {
	if !c.shell.IsUp() {
		return nil, interfaces.ErrProviderUnavailable
	}

	parts := strings.Split(strings.TrimSuffix(url, "/"), "/")
	cid := parts[len(parts)-1]

	reader, err := c.shell.Cat("/ipfs/" + cid)
	if err != nil {
		if strings.Contains(err.Error(), "no link named") {
			return nil, interfaces.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to fetch data from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from IPFS: %w", err)
	}
	return data, nil
}

// Probe checks if the IPFS node is accessible.
func (c *IPFSConnector) Probe(ctx context.Context) bool {
	return c.shell.IsUp()
}

// Type returns the provider type tag.
func (c *IPFSConnector) Type() interfaces.ProviderType {
	return interfaces.ProviderIPFS
}

// Name returns an identifier for logging.
func (c *IPFSConnector) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", c.host, c.port)
}

// LocationURI returns the URI identifying this connector's target.
func (c *IPFSConnector) LocationURI() string {
	return c.locationURI
}
