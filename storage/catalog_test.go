package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	require.Len(t, catalog, 5)

	// Catalog order drives backup target selection.
	expectedOrder := []interfaces.ProviderType{
		interfaces.ProviderGitHub,
		interfaces.ProviderGoogleDrive,
		interfaces.ProviderDropbox,
		interfaces.ProviderOneDrive,
		interfaces.ProviderMega,
	}
	for i, spec := range catalog {
		assert.Equal(t, expectedOrder[i], spec.Type)
		assert.NotEmpty(t, spec.Name)
		assert.NotEmpty(t, spec.BaseURL)
		assert.NotEmpty(t, spec.FreeLimit)
		assert.NotEmpty(t, spec.APIEndpoint)
	}
}

func TestSpecFor(t *testing.T) {
	catalog := DefaultCatalog()

	spec, ok := SpecFor(catalog, interfaces.ProviderDropbox)
	require.True(t, ok)
	assert.Equal(t, "Dropbox", spec.Name)
	assert.Equal(t, "https://api.dropboxapi.com/2", spec.APIEndpoint)

	_, ok = SpecFor(catalog, interfaces.ProviderS3)
	assert.False(t, ok)
}
