package interfaces

import "context"

// ProviderConnector is the capability interface for one storage provider.
// Implementations must be safe for concurrent use; Upload must be safe to
// retry with the same payload.
type ProviderConnector interface {
	// Upload stores the payload under filename and returns a retrievable URL.
	Upload(ctx context.Context, filename string, data []byte) (string, error)

	// Fetch retrieves the payload behind a URL previously returned by Upload.
	Fetch(ctx context.Context, url string) ([]byte, error)

	// Probe checks whether the provider is reachable. Any transport or
	// protocol error yields false; no retries are performed.
	Probe(ctx context.Context) bool

	// Type returns the provider type tag.
	Type() ProviderType

	// Name returns an identifier for logging.
	Name() string

	// LocationURI returns the URI identifying this connector's target.
	LocationURI() string
}

// ConnectorFactory creates and enumerates provider connectors.
type ConnectorFactory interface {
	// ConnectorFor returns the connector for a provider type, or
	// ErrUnknownProvider if none is configured.
	ConnectorFor(pt ProviderType) (ProviderConnector, error)

	// Connectors returns every configured connector, catalog order.
	Connectors() []ProviderConnector

	// UploadTargets returns the configured connectors that accept uploads,
	// used to select backup replication targets.
	UploadTargets() []ProviderConnector
}
