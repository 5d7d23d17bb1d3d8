package storage

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/svlns-gdc/journal-backend/interfaces"
	"github.com/svlns-gdc/journal-backend/secrets"
)

// ConnectorFactory creates provider connectors from the catalog and
// manages the set used for uploads, backups, and health probes.
type ConnectorFactory struct {
	catalog    []ProviderSpec
	tokens     secrets.TokenSource
	client     *http.Client
	log        *slog.Logger
	connectors map[interfaces.ProviderType]interfaces.ProviderConnector
	order      []interfaces.ProviderType
	uploadable map[interfaces.ProviderType]bool
}

// FactoryOption customizes connector construction.
type FactoryOption func(*ConnectorFactory)

// WithHTTPClient overrides the shared HTTP client used by connectors.
func WithHTTPClient(client *http.Client) FactoryOption {
	return func(f *ConnectorFactory) { f.client = client }
}

// WithConnector registers a pre-built connector, used for the extended
// backends (file, s3, ipfs) and for fakes in tests.
func WithConnector(c interfaces.ProviderConnector, acceptsUploads bool) FactoryOption {
	return func(f *ConnectorFactory) {
		f.register(c, acceptsUploads)
	}
}

// NewConnectorFactory builds connectors for every catalog entry. Tokens
// are resolved once at construction; providers whose token source fails
// stay registered for health probing but are excluded from upload
// target selection.
func NewConnectorFactory(catalog []ProviderSpec, tokens secrets.TokenSource, log *slog.Logger, opts ...FactoryOption) *ConnectorFactory {
	if log == nil {
		log = slog.Default()
	}
	if tokens == nil {
		tokens = secrets.StaticTokenSource{}
	}

	f := &ConnectorFactory{
		catalog:    catalog,
		tokens:     tokens,
		client:     &http.Client{Timeout: 30 * time.Second},
		log:        log,
		connectors: make(map[interfaces.ProviderType]interfaces.ProviderConnector),
		uploadable: make(map[interfaces.ProviderType]bool),
	}

	for _, opt := range opts {
		opt(f)
	}

	for _, spec := range catalog {
		token, tokenErr := tokens.Token(spec.Type)
		if tokenErr != nil {
			f.log.Warn("Failed to resolve provider token, registering provider probe-only",
				slog.String("provider", string(spec.Type)), "err", tokenErr)
			token = ""
		}
		uploadable := tokenErr == nil

		switch spec.Type {
		case interfaces.ProviderGitHub:
			f.register(NewGitHubConnector(spec, token, f.client, log), uploadable)
		case interfaces.ProviderGoogleDrive:
			f.register(NewGoogleDriveConnector(spec, token, f.client, log), uploadable)
		case interfaces.ProviderDropbox:
			f.register(NewDropboxConnector(spec, token, f.client, log), uploadable)
		case interfaces.ProviderOneDrive:
			f.register(NewOneDriveConnector(spec, token, f.client, log), uploadable)
		case interfaces.ProviderMega:
			f.register(NewMegaConnector(spec, f.client, log), false)
		default:
			f.log.Warn("No connector implementation for catalog entry",
				slog.String("provider", string(spec.Type)))
		}
	}

	return f
}

func (f *ConnectorFactory) register(c interfaces.ProviderConnector, acceptsUploads bool) {
	if _, exists := f.connectors[c.Type()]; !exists {
		f.order = append(f.order, c.Type())
	}
	f.connectors[c.Type()] = c
	f.uploadable[c.Type()] = acceptsUploads
}

// ConnectorFor returns the connector for a provider type.
func (f *ConnectorFactory) ConnectorFor(pt interfaces.ProviderType) (interfaces.ProviderConnector, error) {
	c, ok := f.connectors[pt]
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrUnknownProvider, pt)
	}
	return c, nil
}

// Connectors returns every configured connector in registration order.
func (f *ConnectorFactory) Connectors() []interfaces.ProviderConnector {
	result := make([]interfaces.ProviderConnector, 0, len(f.order))
	for _, pt := range f.order {
		result = append(result, f.connectors[pt])
	}
	return result
}

// UploadTargets returns the connectors that accept uploads, in
// registration order. Backup replication targets are drawn from here.
func (f *ConnectorFactory) UploadTargets() []interfaces.ProviderConnector {
	result := make([]interfaces.ProviderConnector, 0, len(f.order))
	for _, pt := range f.order {
		if f.uploadable[pt] {
			result = append(result, f.connectors[pt])
		}
	}
	return result
}
