package secrets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
)

const keyVaultAPIVersion = "7.4"

// KeyVaultManager is a SecretsManager backed by Azure Key Vault's secrets
// REST surface, built directly on azcore.Client/runtime.Pipeline rather
// than a typed azsecrets client (not present in the retrieved dependency
// surface), the same layering azcore is designed to support for
// hand-written service clients. Authenticates with
// azidentity.DefaultAzureCredential so managed identity, workload
// identity, and local `az login` sessions all work unchanged.
type KeyVaultManager struct {
	vaultURL string
	client   *azcore.Client
}

// NewKeyVaultManager builds a KeyVaultManager against vaultURL (e.g.
// "https://my-vault.vault.azure.net").
func NewKeyVaultManager(vaultURL string) (*KeyVaultManager, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, enginerr.Wrap(enginerr.SecretManager, "creating azure credential", err)
	}

	scope := "https://vault.azure.net/.default"
	client, err := azcore.NewClient("oxy-engine.secrets", "v1.0.0", azcore.ClientOptions{
		PerRetryPolicies: []policy.Policy{
			runtime.NewBearerTokenPolicy(cred, []string{scope}, nil),
		},
	})
	if err != nil {
		return nil, enginerr.Wrap(enginerr.SecretManager, "creating key vault client", err)
	}

	return &KeyVaultManager{vaultURL: vaultURL, client: client}, nil
}

type keyVaultSecretBundle struct {
	Value string `json:"value"`
}

func (k *KeyVaultManager) secretURL(name string) string {
	return fmt.Sprintf("%s/secrets/%s?api-version=%s", k.vaultURL, url.PathEscape(name), keyVaultAPIVersion)
}

func (k *KeyVaultManager) ResolveSecret(ctx context.Context, name string) (string, bool, error) {
	req, err := runtime.NewRequest(ctx, http.MethodGet, k.secretURL(name))
	if err != nil {
		return "", false, enginerr.Wrap(enginerr.SecretManager, "building key vault request", err)
	}

	resp, err := k.client.Pipeline().Do(req)
	if err != nil {
		return "", false, enginerr.Wrap(enginerr.SecretManager, "calling key vault", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return "", false, enginerr.New(enginerr.SecretManager, "key vault returned an error").
			WithDetail("status", resp.StatusCode).WithDetail("body", string(body))
	}

	var bundle keyVaultSecretBundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return "", false, enginerr.Wrap(enginerr.SerializerError, "decoding key vault response", err)
	}
	return bundle.Value, true, nil
}

func (k *KeyVaultManager) CreateSecret(ctx context.Context, name, value string) error {
	payload, err := json.Marshal(keyVaultSecretBundle{Value: value})
	if err != nil {
		return enginerr.Wrap(enginerr.SerializerError, "encoding key vault payload", err)
	}

	req, err := runtime.NewRequest(ctx, http.MethodPut, k.secretURL(name))
	if err != nil {
		return enginerr.Wrap(enginerr.SecretManager, "building key vault request", err)
	}
	if err := req.SetBody(runtime.NopCloser(bytes.NewReader(payload)), "application/json"); err != nil {
		return enginerr.Wrap(enginerr.SecretManager, "attaching key vault request body", err)
	}

	resp, err := k.client.Pipeline().Do(req)
	if err != nil {
		return enginerr.Wrap(enginerr.SecretManager, "calling key vault", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return enginerr.New(enginerr.SecretManager, "key vault rejected the secret write").
			WithDetail("status", resp.StatusCode).WithDetail("body", string(body))
	}
	return nil
}

// RemoveSecret soft-deletes the secret; Key Vault has no hard-delete
// endpoint without a subsequent purge, which requires a separate
// permission the engine does not assume it has been granted.
func (k *KeyVaultManager) RemoveSecret(ctx context.Context, name string) error {
	req, err := runtime.NewRequest(ctx, http.MethodDelete, k.secretURL(name))
	if err != nil {
		return enginerr.Wrap(enginerr.SecretManager, "building key vault request", err)
	}

	resp, err := k.client.Pipeline().Do(req)
	if err != nil {
		return enginerr.Wrap(enginerr.SecretManager, "calling key vault", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return enginerr.New(enginerr.SecretManager, "key vault rejected the delete").
			WithDetail("status", resp.StatusCode).WithDetail("body", string(body))
	}
	return nil
}

// ResolveConfigValue mirrors MemoryManager's direct > secret-variable >
// default priority order.
func (k *KeyVaultManager) ResolveConfigValue(ctx context.Context, direct *string, varName *string, fieldName string, def *string) (string, error) {
	if direct != nil {
		return *direct, nil
	}
	if varName != nil {
		value, ok, err := k.ResolveSecret(ctx, *varName)
		if err != nil {
			return "", err
		}
		if ok {
			return value, nil
		}
	}
	if def != nil {
		return *def, nil
	}
	return "", enginerr.New(enginerr.SecretNotFound, "no value resolved for config field").WithDetail("field", fieldName)
}
