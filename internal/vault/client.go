package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"

	"guardian-futures-engine/config"
	"guardian-futures-engine/internal/logging"
)

// ErrSecretNotFound is returned when the engine secret path is empty
var ErrSecretNotFound = errors.New("vault: secret not found")

// Keys read from the engine secret
const (
	KeyDatabasePassword = "database_password"
	KeyRedisPassword    = "redis_password"
	KeyJWTSecret        = "jwt_secret"
	KeyAPIKeyHash       = "api_key_hash"
)

// Client wraps the HashiCorp Vault client
type Client struct {
	client *api.Client
	config config.VaultConfig
	mu     sync.RWMutex
	cache  map[string]string
}

// NewClient creates a new Vault client
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{config: cfg}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{
			CACert: cfg.CACert,
		}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{
		client: client,
		config: cfg,
	}, nil
}

// IsEnabled returns whether Vault is enabled
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Secrets reads the engine's KV v2 secret. Results are cached after the first read.
func (c *Client) Secrets(ctx context.Context) (map[string]string, error) {
	if !c.config.Enabled {
		return map[string]string{}, nil
	}

	c.mu.RLock()
	if c.cache != nil {
		out := copyStrings(c.cache)
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	secret, err := c.client.Logical().ReadWithContext(ctx, c.secretPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, ErrSecretNotFound
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format")
	}

	values := make(map[string]string, len(data))
	for k := range data {
		if s := getString(data, k); s != "" {
			values[k] = s
		}
	}

	c.mu.Lock()
	c.cache = values
	c.mu.Unlock()

	return copyStrings(values), nil
}

// Health checks the Vault connection
func (c *Client) Health(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}

	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}

// Overlay reads the engine secret and writes any non-empty values into cfg
func (c *Client) Overlay(ctx context.Context, cfg *config.Config) error {
	secrets, err := c.Secrets(ctx)
	if err != nil {
		return err
	}
	applied := ApplySecrets(cfg, secrets)
	if applied > 0 {
		logging.WithComponent("vault").Info("applied secrets from vault", "count", applied)
	}
	return nil
}

// ApplySecrets copies known secret keys into cfg and returns how many were set
func ApplySecrets(cfg *config.Config, secrets map[string]string) int {
	applied := 0
	set := func(key string, dst *string) {
		if v, ok := secrets[key]; ok && v != "" {
			*dst = v
			applied++
		}
	}
	set(KeyDatabasePassword, &cfg.DatabaseConfig.Password)
	set(KeyRedisPassword, &cfg.RedisConfig.Password)
	set(KeyJWTSecret, &cfg.AuthConfig.JWTSecret)
	set(KeyAPIKeyHash, &cfg.AuthConfig.APIKeyHash)
	return applied
}

// secretPath returns the KV v2 data path for the engine secret
func (c *Client) secretPath() string {
	mount := c.config.MountPath
	if mount == "" {
		mount = "secret"
	}
	path := c.config.SecretPath
	if path == "" {
		path = "guardian"
	}
	return fmt.Sprintf("%s/data/%s", mount, path)
}

// Helper functions
func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
