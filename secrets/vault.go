package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/svlns-gdc/journal-backend/interfaces"
)

// VaultTokenSource resolves provider API tokens from a HashiCorp Vault
// KV v2 secret. Each provider type is a field of the same secret, so a
// single read serves the whole catalog.
type VaultTokenSource struct {
	client    *api.Client
	mountPath string
	dataPath  string
	log       *slog.Logger
}

// NewVaultTokenSource creates a token source reading from Vault at
// {mountPath}/data/{dataPath}. The vault token is taken from the
// standard VAULT_TOKEN environment variable handled by the client.
func NewVaultTokenSource(address, mountPath, dataPath string, log *slog.Logger) (*VaultTokenSource, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.HttpClient = &http.Client{Timeout: 30 * time.Second}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	return &VaultTokenSource{
		client:    client,
		mountPath: strings.TrimSuffix(mountPath, "/"),
		dataPath:  strings.Trim(dataPath, "/"),
		log:       log,
	}, nil
}

// Token implements TokenSource. A provider with no field in the secret
// resolves to an empty token.
func (v *VaultTokenSource) Token(pt interfaces.ProviderType) (string, error) {
	secret, err := v.client.KVv2(v.mountPath).Get(context.Background(), v.dataPath)
	if err != nil {
		return "", fmt.Errorf("failed to read provider tokens from Vault: %w", err)
	}

	raw, ok := secret.Data[string(pt)]
	if !ok {
		v.log.Debug("No Vault token for provider", slog.String("provider", string(pt)))
		return "", nil
	}

	token, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault token for %s is not a string", pt)
	}
	return token, nil
}
