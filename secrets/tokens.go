package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// TokenSource resolves the API credential for a storage provider.
// Providers without a credential return an empty token and no error;
// connectors decide whether an empty token is acceptable.
type TokenSource interface {
	Token(pt interfaces.ProviderType) (string, error)
}

// StaticTokenSource serves tokens from a fixed map.
type StaticTokenSource map[interfaces.ProviderType]string

// Token implements TokenSource.
func (s StaticTokenSource) Token(pt interfaces.ProviderType) (string, error) {
	return s[pt], nil
}

// EnvTokenSource reads tokens from JOURNAL_<PROVIDER>_TOKEN environment
// variables, e.g. JOURNAL_GOOGLE_DRIVE_TOKEN.
type EnvTokenSource struct{}

// Token implements TokenSource.
func (EnvTokenSource) Token(pt interfaces.ProviderType) (string, error) {
	key := "JOURNAL_" + strings.ToUpper(string(pt)) + "_TOKEN"
	return os.Getenv(key), nil
}

// Chain queries sources in order and returns the first non-empty token.
type Chain []TokenSource

// Token implements TokenSource.
func (c Chain) Token(pt interfaces.ProviderType) (string, error) {
	for _, src := range c {
		token, err := src.Token(pt)
		if err != nil {
			return "", fmt.Errorf("token source failed for %s: %w", pt, err)
		}
		if token != "" {
			return token, nil
		}
	}
	return "", nil
}
