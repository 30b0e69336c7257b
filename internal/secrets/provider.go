// Package secrets resolves the model-gateway credential from AWS Secrets
// Manager. The value is handed to consumers as an explicit dependency and
// cached with an expiry rather than being written into process-wide state.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsAPI is the subset of the Secrets Manager client we call.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Provider fetches one named secret and caches it for a fixed TTL. The
// secret may be a bare string or a JSON object, in which case the first
// value in document order is the credential.
type Provider struct {
	api        SecretsAPI
	secretName string
	ttl        time.Duration
	now        func() time.Time

	mu      sync.Mutex
	value   string
	expires time.Time
}

func NewProvider(api SecretsAPI, secretName string, ttl time.Duration) (*Provider, error) {
	if api == nil {
		return nil, fmt.Errorf("secrets api is required")
	}
	if strings.TrimSpace(secretName) == "" {
		return nil, fmt.Errorf("secret name is required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Provider{api: api, secretName: secretName, ttl: ttl, now: time.Now}, nil
}

// Credential returns the cached credential, refetching once the TTL lapses.
func (p *Provider) Credential(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.value != "" && p.now().Before(p.expires) {
		return p.value, nil
	}

	out, err := p.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretName),
	})
	if err != nil {
		return "", fmt.Errorf("get secret %q: %w", p.secretName, err)
	}

	raw := aws.ToString(out.SecretString)
	credential := strings.TrimSpace(extractCredential(raw))
	if credential == "" {
		return "", fmt.Errorf("secret %q is empty", p.secretName)
	}

	p.value = credential
	p.expires = p.now().Add(p.ttl)
	return credential, nil
}

// extractCredential returns the first string value of a JSON object in
// document order, or the raw payload when it is not a JSON object.
func extractCredential(raw string) string {
	decoder := json.NewDecoder(strings.NewReader(raw))
	tok, err := decoder.Token()
	if err != nil {
		return raw
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return raw
	}
	if _, err := decoder.Token(); err != nil { // first key
		return raw
	}
	valueTok, err := decoder.Token()
	if err != nil {
		return raw
	}
	if value, ok := valueTok.(string); ok {
		return value
	}
	return raw
}
