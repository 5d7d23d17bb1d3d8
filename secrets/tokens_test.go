package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

func TestStaticTokenSource(t *testing.T) {
	src := StaticTokenSource{interfaces.ProviderGitHub: "tok"}

	token, err := src.Token(interfaces.ProviderGitHub)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	// Unknown providers resolve to an empty token, not an error.
	token, err = src.Token(interfaces.ProviderDropbox)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestEnvTokenSource(t *testing.T) {
	t.Setenv("JOURNAL_GOOGLE_DRIVE_TOKEN", "drive-tok")

	token, err := EnvTokenSource{}.Token(interfaces.ProviderGoogleDrive)
	require.NoError(t, err)
	assert.Equal(t, "drive-tok", token)

	token, err = EnvTokenSource{}.Token(interfaces.ProviderOneDrive)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestChainPrefersFirstNonEmpty(t *testing.T) {
	chain := Chain{
		StaticTokenSource{interfaces.ProviderGitHub: "first"},
		StaticTokenSource{
			interfaces.ProviderGitHub:  "second",
			interfaces.ProviderDropbox: "fallback",
		},
	}

	token, err := chain.Token(interfaces.ProviderGitHub)
	require.NoError(t, err)
	assert.Equal(t, "first", token)

	token, err = chain.Token(interfaces.ProviderDropbox)
	require.NoError(t, err)
	assert.Equal(t, "fallback", token)

	token, err = chain.Token(interfaces.ProviderMega)
	require.NoError(t, err)
	assert.Empty(t, token)
}
