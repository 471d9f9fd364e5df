package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BinanceConfig  BinanceConfig  `json:"binance"`
	EngineConfig   EngineConfig   `json:"engine"`
	UniverseConfig UniverseConfig `json:"universe"`
	LoggingConfig  LoggingConfig  `json:"logging"`
	ServerConfig   ServerConfig   `json:"server"`
	AuthConfig     AuthConfig     `json:"auth"`
	VaultConfig    VaultConfig    `json:"vault"`
	RedisConfig    RedisConfig    `json:"redis"`
	DatabaseConfig DatabaseConfig `json:"database"`
}

type LoggingConfig struct {
	Level       string `json:"level"`        // DEBUG, INFO, WARN, ERROR
	Output      string `json:"output"`       // stdout, stderr, or file path
	JSONFormat  bool   `json:"json_format"`  // Output as JSON
	IncludeFile bool   `json:"include_file"` // Include file and line number
}

// BinanceConfig holds the public futures market data endpoint settings
type BinanceConfig struct {
	FuturesBaseURL string        `json:"futures_base_url"`
	MockMode       bool          `json:"mock_mode"` // Use simulated candles when Binance API is unavailable
	RequestTimeout time.Duration `json:"request_timeout"`
	MaxRetries     int           `json:"max_retries"`
	MaxWeight      int           `json:"max_weight"` // Request weight budget per minute; 0 keeps the client default
}

// EngineConfig holds signal pipeline tuning
type EngineConfig struct {
	HTFInterval        string             `json:"htf_interval"`
	LTFInterval        string             `json:"ltf_interval"`
	CandleLimit        int                `json:"candle_limit"`
	SwingLook          int                `json:"swing_look"`
	ATRLength          int                `json:"atr_length"`
	MinATRPct          float64            `json:"min_atr_pct"`
	PullbackWindow     int                `json:"pullback_window"`
	TriggerBuffer      float64            `json:"trigger_buffer_fraction"`
	StopBuffer         float64            `json:"stop_buffer_fraction"`
	RiskFraction       float64            `json:"risk_fraction"`
	DefaultEquity      float64            `json:"default_equity"`
	FetchTimeout       time.Duration      `json:"fetch_timeout"`
	QuantitySteps      map[string]float64 `json:"quantity_steps"`
	LoadStepsFromStore bool               `json:"load_steps_from_store"`
}

// UniverseConfig controls where the symbol allowlist comes from
type UniverseConfig struct {
	Source   string        `json:"source"` // static, database, exchange
	Size     int           `json:"size"`
	CacheTTL time.Duration `json:"cache_ttl"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int    `json:"port"`
	Host            string `json:"host"`
	AllowedOrigins  string `json:"allowed_origins"` // CORS allowed origins
	TLSEnabled      bool   `json:"tls_enabled"`
	TLSCertFile     string `json:"tls_cert_file"`
	TLSKeyFile      string `json:"tls_key_file"`
	ReadTimeout     int    `json:"read_timeout"`     // Seconds
	WriteTimeout    int    `json:"write_timeout"`    // Seconds
	ShutdownTimeout int    `json:"shutdown_timeout"` // Seconds
	RateLimit       int    `json:"rate_limit"`       // Requests per minute per client
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	Enabled             bool          `json:"enabled"`
	JWTSecret           string        `json:"jwt_secret"`
	AccessTokenDuration time.Duration `json:"access_token_duration"`
	APIKeyHash          string        `json:"api_key_hash"` // bcrypt hash of the shared X-API-Key
}

// VaultConfig holds HashiCorp Vault configuration
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`  // KV secrets engine mount path
	SecretPath string `json:"secret_path"` // Path of the engine's secrets
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

// RedisConfig holds Redis configuration for the universe cache
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// DatabaseConfig holds PostgreSQL configuration for universe and steps
type DatabaseConfig struct {
	Enabled         bool          `json:"enabled"`
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	Database        string        `json:"database"`
	SSLMode         string        `json:"ssl_mode"`
	MaxConns        int           `json:"max_conns"`
	MinConns        int           `json:"min_conns"`
	MaxConnLifetime time.Duration `json:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `json:"max_conn_idle_time"`
}

// DSN returns the pgx connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// Load reads config.json (optional), then .env (optional), then applies
// environment overrides.
func Load() (*Config, error) {
	return LoadFrom("config.json")
}

// LoadFrom is Load with an explicit config file path
func LoadFrom(filename string) (*Config, error) {
	cfg, err := loadFromFile(filename)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		// If no config file, start with empty config
		cfg = &Config{}
	}

	// Missing .env is normal in containers
	_ = godotenv.Load()

	// Apply environment variable overrides (these take precedence)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Values from the file act as the defaults for their variables.
func applyEnvOverrides(cfg *Config) {
	// Binance config
	cfg.BinanceConfig.FuturesBaseURL = getEnvOrDefault("BINANCE_FUTURES_BASE_URL", or(cfg.BinanceConfig.FuturesBaseURL, "https://fapi.binance.com"))
	cfg.BinanceConfig.MockMode = getEnvBoolOrDefault("MOCK_MODE", cfg.BinanceConfig.MockMode)
	cfg.BinanceConfig.RequestTimeout = getEnvDurationOrDefault("BINANCE_REQUEST_TIMEOUT", orDur(cfg.BinanceConfig.RequestTimeout, 10*time.Second))
	cfg.BinanceConfig.MaxRetries = getEnvIntOrDefault("BINANCE_MAX_RETRIES", orInt(cfg.BinanceConfig.MaxRetries, 3))
	cfg.BinanceConfig.MaxWeight = getEnvIntOrDefault("BINANCE_MAX_WEIGHT", cfg.BinanceConfig.MaxWeight)

	// Engine config
	e := &cfg.EngineConfig
	e.HTFInterval = getEnvOrDefault("ENGINE_HTF_INTERVAL", or(e.HTFInterval, "15m"))
	e.LTFInterval = getEnvOrDefault("ENGINE_LTF_INTERVAL", or(e.LTFInterval, "5m"))
	e.CandleLimit = getEnvIntOrDefault("ENGINE_CANDLE_LIMIT", orInt(e.CandleLimit, 240))
	e.SwingLook = getEnvIntOrDefault("ENGINE_SWING_LOOK", orInt(e.SwingLook, 2))
	e.ATRLength = getEnvIntOrDefault("ENGINE_ATR_LENGTH", orInt(e.ATRLength, 14))
	e.MinATRPct = getEnvFloatOrDefault("ENGINE_MIN_ATR_PCT", orFloat(e.MinATRPct, 0.0009))
	e.PullbackWindow = getEnvIntOrDefault("ENGINE_PULLBACK_WINDOW", orInt(e.PullbackWindow, 24))
	e.TriggerBuffer = getEnvFloatOrDefault("ENGINE_TRIGGER_BUFFER", orFloat(e.TriggerBuffer, 0.05))
	e.StopBuffer = getEnvFloatOrDefault("ENGINE_STOP_BUFFER", orFloat(e.StopBuffer, 0.10))
	e.RiskFraction = getEnvFloatOrDefault("ENGINE_RISK_FRACTION", orFloat(e.RiskFraction, 0.015))
	e.DefaultEquity = getEnvFloatOrDefault("ENGINE_DEFAULT_EQUITY", orFloat(e.DefaultEquity, 200))
	e.FetchTimeout = getEnvDurationOrDefault("ENGINE_FETCH_TIMEOUT", orDur(e.FetchTimeout, 8*time.Second))
	e.LoadStepsFromStore = getEnvBoolOrDefault("ENGINE_LOAD_STEPS_FROM_STORE", e.LoadStepsFromStore)
	if steps := os.Getenv("ENGINE_QUANTITY_STEPS"); steps != "" {
		if parsed, err := parseSteps(steps); err == nil {
			e.QuantitySteps = parsed
		}
	}

	// Universe config
	cfg.UniverseConfig.Source = getEnvOrDefault("UNIVERSE_SOURCE", or(cfg.UniverseConfig.Source, "static"))
	cfg.UniverseConfig.Size = getEnvIntOrDefault("UNIVERSE_SIZE", orInt(cfg.UniverseConfig.Size, 50))
	cfg.UniverseConfig.CacheTTL = getEnvDurationOrDefault("UNIVERSE_CACHE_TTL", orDur(cfg.UniverseConfig.CacheTTL, 5*time.Minute))

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", or(cfg.LoggingConfig.Level, "INFO"))
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", or(cfg.LoggingConfig.Output, "stdout"))
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON", "true") == "true"
	cfg.LoggingConfig.IncludeFile = getEnvBoolOrDefault("LOG_INCLUDE_FILE", cfg.LoggingConfig.IncludeFile)

	// Server config
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", orInt(cfg.ServerConfig.Port, 8080))
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", or(cfg.ServerConfig.Host, "0.0.0.0"))
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", or(cfg.ServerConfig.AllowedOrigins, "*"))
	cfg.ServerConfig.TLSEnabled = getEnvBoolOrDefault("SERVER_TLS_ENABLED", cfg.ServerConfig.TLSEnabled)
	cfg.ServerConfig.TLSCertFile = getEnvOrDefault("SERVER_TLS_CERT", cfg.ServerConfig.TLSCertFile)
	cfg.ServerConfig.TLSKeyFile = getEnvOrDefault("SERVER_TLS_KEY", cfg.ServerConfig.TLSKeyFile)
	cfg.ServerConfig.ReadTimeout = getEnvIntOrDefault("SERVER_READ_TIMEOUT", orInt(cfg.ServerConfig.ReadTimeout, 30))
	cfg.ServerConfig.WriteTimeout = getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", orInt(cfg.ServerConfig.WriteTimeout, 30))
	cfg.ServerConfig.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", orInt(cfg.ServerConfig.ShutdownTimeout, 10))
	cfg.ServerConfig.RateLimit = getEnvIntOrDefault("SERVER_RATE_LIMIT", orInt(cfg.ServerConfig.RateLimit, 120))

	// Auth config
	cfg.AuthConfig.Enabled = getEnvBoolOrDefault("AUTH_ENABLED", cfg.AuthConfig.Enabled)
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.AccessTokenDuration = getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_DURATION", orDur(cfg.AuthConfig.AccessTokenDuration, 24*time.Hour))
	cfg.AuthConfig.APIKeyHash = getEnvOrDefault("AUTH_API_KEY_HASH", cfg.AuthConfig.APIKeyHash)

	// Vault config
	cfg.VaultConfig.Enabled = getEnvBoolOrDefault("VAULT_ENABLED", cfg.VaultConfig.Enabled)
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", or(cfg.VaultConfig.Address, "http://localhost:8200"))
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", or(cfg.VaultConfig.MountPath, "secret"))
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", or(cfg.VaultConfig.SecretPath, "guardian/engine"))
	cfg.VaultConfig.TLSEnabled = getEnvBoolOrDefault("VAULT_TLS_ENABLED", cfg.VaultConfig.TLSEnabled)
	cfg.VaultConfig.CACert = getEnvOrDefault("VAULT_CACERT", cfg.VaultConfig.CACert)

	// Redis config
	cfg.RedisConfig.Enabled = getEnvBoolOrDefault("REDIS_ENABLED", cfg.RedisConfig.Enabled)
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", or(cfg.RedisConfig.Address, "localhost:6379"))
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", orInt(cfg.RedisConfig.PoolSize, 10))

	// Database config
	d := &cfg.DatabaseConfig
	d.Enabled = getEnvBoolOrDefault("DB_ENABLED", d.Enabled)
	d.Host = getEnvOrDefault("DB_HOST", or(d.Host, "localhost"))
	d.Port = getEnvIntOrDefault("DB_PORT", orInt(d.Port, 5432))
	d.User = getEnvOrDefault("DB_USER", or(d.User, "guardian"))
	d.Password = getEnvOrDefault("DB_PASSWORD", d.Password)
	d.Database = getEnvOrDefault("DB_NAME", or(d.Database, "guardian"))
	d.SSLMode = getEnvOrDefault("DB_SSLMODE", or(d.SSLMode, "disable"))
	d.MaxConns = getEnvIntOrDefault("DB_MAX_CONNS", orInt(d.MaxConns, 10))
	d.MinConns = getEnvIntOrDefault("DB_MIN_CONNS", orInt(d.MinConns, 1))
	d.MaxConnLifetime = getEnvDurationOrDefault("DB_MAX_CONN_LIFETIME", orDur(d.MaxConnLifetime, time.Hour))
	d.MaxConnIdleTime = getEnvDurationOrDefault("DB_MAX_CONN_IDLE_TIME", orDur(d.MaxConnIdleTime, 30*time.Minute))
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

// parseSteps reads "BTCUSDT=0.001,ETHUSDT=0.01"
func parseSteps(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid step %q", pair)
		}
		step, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid step %q: %w", pair, err)
		}
		out[strings.ToUpper(strings.TrimSpace(kv[0]))] = step
	}
	return out, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orDur(v, def time.Duration) time.Duration {
	if v == 0 {
		return def
	}
	return v
}

// GenerateSampleConfig creates a sample configuration file. Secrets picked
// up from the environment are left blank.
func GenerateSampleConfig(filename string) error {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	cfg.AuthConfig.JWTSecret = ""
	cfg.AuthConfig.APIKeyHash = ""
	cfg.VaultConfig.Token = ""
	cfg.RedisConfig.Password = ""
	cfg.DatabaseConfig.Password = ""
	cfg.EngineConfig.QuantitySteps = map[string]float64{
		"BTCUSDT": 0.001,
		"ETHUSDT": 0.01,
		"SOLUSDT": 0.1,
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
