package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type fakeSecrets struct {
	value string
	err   error
	calls int
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if aws.ToString(params.SecretId) != "LLM_API" {
		return nil, errors.New("unknown secret")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.value)}, nil
}

func TestCredentialExtractsFirstJSONValue(t *testing.T) {
	api := &fakeSecrets{value: `{"api_key": "sk-123", "backup": "sk-456"}`}
	provider, err := NewProvider(api, "LLM_API", time.Minute)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	got, err := provider.Credential(context.Background())
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if got != "sk-123" {
		t.Fatalf("Credential() = %q", got)
	}
}

func TestCredentialPassesThroughPlainString(t *testing.T) {
	api := &fakeSecrets{value: "  sk-plain  "}
	provider, err := NewProvider(api, "LLM_API", time.Minute)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	got, err := provider.Credential(context.Background())
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if got != "sk-plain" {
		t.Fatalf("Credential() = %q", got)
	}
}

func TestCredentialFallsBackOnNonStringJSON(t *testing.T) {
	api := &fakeSecrets{value: `["sk-123"]`}
	provider, err := NewProvider(api, "LLM_API", time.Minute)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	got, err := provider.Credential(context.Background())
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if got != `["sk-123"]` {
		t.Fatalf("Credential() = %q", got)
	}
}

func TestCredentialCachesUntilTTL(t *testing.T) {
	api := &fakeSecrets{value: "sk-1"}
	provider, err := NewProvider(api, "LLM_API", time.Minute)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	current := time.Unix(1000, 0)
	provider.now = func() time.Time { return current }

	if _, err := provider.Credential(context.Background()); err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if _, err := provider.Credential(context.Background()); err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if api.calls != 1 {
		t.Fatalf("calls = %d, want cached single fetch", api.calls)
	}

	current = current.Add(2 * time.Minute)
	if _, err := provider.Credential(context.Background()); err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if api.calls != 2 {
		t.Fatalf("calls = %d, want refetch after TTL", api.calls)
	}
}

func TestCredentialPropagatesStoreFailure(t *testing.T) {
	api := &fakeSecrets{err: errors.New("access denied")}
	provider, err := NewProvider(api, "LLM_API", time.Minute)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if _, err := provider.Credential(context.Background()); err == nil {
		t.Fatal("Credential() should propagate store failure")
	}
}

func TestCredentialRejectsEmptySecret(t *testing.T) {
	api := &fakeSecrets{value: "   "}
	provider, err := NewProvider(api, "LLM_API", time.Minute)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if _, err := provider.Credential(context.Background()); err == nil {
		t.Fatal("Credential() should reject empty secret")
	}
}
