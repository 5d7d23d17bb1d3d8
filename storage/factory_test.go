package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svlns-gdc/journal-backend/interfaces"
	"github.com/svlns-gdc/journal-backend/secrets"
)

func TestConnectorFactoryBuildsCatalog(t *testing.T) {
	f := NewConnectorFactory(DefaultCatalog(), secrets.StaticTokenSource{}, testLogger())

	connectors := f.Connectors()
	require.Len(t, connectors, 5)

	// Registration follows catalog order.
	expected := []interfaces.ProviderType{
		interfaces.ProviderGitHub,
		interfaces.ProviderGoogleDrive,
		interfaces.ProviderDropbox,
		interfaces.ProviderOneDrive,
		interfaces.ProviderMega,
	}
	for i, c := range connectors {
		assert.Equal(t, expected[i], c.Type())
	}
}

func TestConnectorFactoryUploadTargetsExcludeMega(t *testing.T) {
	f := NewConnectorFactory(DefaultCatalog(), secrets.StaticTokenSource{}, testLogger())

	for _, c := range f.UploadTargets() {
		assert.NotEqual(t, interfaces.ProviderMega, c.Type())
	}
	assert.Len(t, f.UploadTargets(), 4)
}

func TestConnectorFactoryUnknownProvider(t *testing.T) {
	f := NewConnectorFactory(DefaultCatalog(), secrets.StaticTokenSource{}, testLogger())

	_, err := f.ConnectorFor(interfaces.ProviderS3)
	assert.ErrorIs(t, err, interfaces.ErrUnknownProvider)
}

type failingTokenSource struct {
	broken map[interfaces.ProviderType]bool
}

func (s failingTokenSource) Token(pt interfaces.ProviderType) (string, error) {
	if s.broken[pt] {
		return "", assert.AnError
	}
	return "tok", nil
}

func TestConnectorFactoryTokenFailureKeepsProviderProbeOnly(t *testing.T) {
	tokens := failingTokenSource{broken: map[interfaces.ProviderType]bool{
		interfaces.ProviderDropbox: true,
	}}
	f := NewConnectorFactory(DefaultCatalog(), tokens, testLogger())

	// The provider without credentials still shows up for health checks.
	require.Len(t, f.Connectors(), 5)
	got, err := f.ConnectorFor(interfaces.ProviderDropbox)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ProviderDropbox, got.Type())

	// But it never receives uploads.
	for _, c := range f.UploadTargets() {
		assert.NotEqual(t, interfaces.ProviderDropbox, c.Type())
	}
	assert.Len(t, f.UploadTargets(), 3)
}

func TestConnectorFactoryWithConnector(t *testing.T) {
	fileConnector, err := NewFileConnector(t.TempDir(), testLogger())
	require.NoError(t, err)

	f := NewConnectorFactory(DefaultCatalog(), secrets.StaticTokenSource{}, testLogger(),
		WithConnector(fileConnector, true))

	got, err := f.ConnectorFor(interfaces.ProviderFile)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ProviderFile, got.Type())

	// Pre-registered connectors come before catalog entries.
	assert.Equal(t, interfaces.ProviderFile, f.Connectors()[0].Type())
	assert.Len(t, f.UploadTargets(), 5)
}

func TestMegaConnectorUploadUnsupported(t *testing.T) {
	spec, ok := SpecFor(DefaultCatalog(), interfaces.ProviderMega)
	require.True(t, ok)

	c := NewMegaConnector(spec, nil, testLogger())
	_, err := c.Upload(context.Background(), "paper.pdf", []byte("x"))
	assert.ErrorIs(t, err, interfaces.ErrUploadUnsupported)
}
