package vault

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"guardian-futures-engine/config"
)

func newVaultServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/v1/kv/data/engine" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Vault-Token") != "test-token" {
			t.Errorf("missing vault token header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSecretsReadsAndCaches(t *testing.T) {
	srv, calls := newVaultServer(t, http.StatusOK, `{
		"data": {"data": {"database_password": "pg-pass", "jwt_secret": "s3cret", "ignored": 7}}
	}`)

	c, err := NewClient(config.VaultConfig{
		Enabled: true, Address: srv.URL, Token: "test-token", MountPath: "kv", SecretPath: "engine",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	secrets, err := c.Secrets(context.Background())
	if err != nil {
		t.Fatalf("Secrets: %v", err)
	}
	if secrets[KeyDatabasePassword] != "pg-pass" || secrets[KeyJWTSecret] != "s3cret" {
		t.Errorf("unexpected secrets %v", secrets)
	}
	if _, ok := secrets["ignored"]; ok {
		t.Error("non-string values should be dropped")
	}

	if _, err := c.Secrets(context.Background()); err != nil {
		t.Fatalf("second Secrets: %v", err)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("calls = %d, want 1 (cached)", *calls)
	}
}

func TestSecretsNotFound(t *testing.T) {
	srv, _ := newVaultServer(t, http.StatusNotFound, `{"errors":[]}`)
	c, _ := NewClient(config.VaultConfig{
		Enabled: true, Address: srv.URL, Token: "test-token", MountPath: "kv", SecretPath: "engine",
	})

	_, err := c.Secrets(context.Background())
	if !errors.Is(err, ErrSecretNotFound) {
		t.Fatalf("expected ErrSecretNotFound, got %v", err)
	}
}

func TestDisabledClient(t *testing.T) {
	c, err := NewClient(config.VaultConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.IsEnabled() {
		t.Error("client should be disabled")
	}
	secrets, err := c.Secrets(context.Background())
	if err != nil || len(secrets) != 0 {
		t.Errorf("Secrets = %v, %v", secrets, err)
	}
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}

func TestApplySecrets(t *testing.T) {
	cfg := &config.Config{}
	cfg.DatabaseConfig.Password = "from-env"

	n := ApplySecrets(cfg, map[string]string{
		KeyDatabasePassword: "from-vault",
		KeyRedisPassword:    "",
		KeyJWTSecret:        "jwt",
	})
	if n != 2 {
		t.Errorf("applied = %d, want 2", n)
	}
	if cfg.DatabaseConfig.Password != "from-vault" || cfg.AuthConfig.JWTSecret != "jwt" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.RedisConfig.Password != "" {
		t.Error("empty secret should not overwrite")
	}
}

func TestSecretPathDefaults(t *testing.T) {
	c := &Client{}
	if got := c.secretPath(); got != "secret/data/guardian" {
		t.Errorf("secretPath = %q", got)
	}
}
