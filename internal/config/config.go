// File: internal/config/config.go
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Agent() AgentConfig
	Inference() InferenceConfig
	Cache() CacheConfig
	Autofix() AutofixConfig
	Batch() BatchConfig
	Diagnostics() DiagnosticsConfig
	MCP() MCPConfig

	// MCP Setters (CLI flag overrides)
	SetMCPTransport(string)
	SetMCPAddr(string)

	// Cache Setters
	SetCacheBackend(string)
	SetCachePath(string)
}

// Config holds the entire application configuration. Sections are exported so
// viper can populate them; callers go through the Interface getters.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	AgentCfg       AgentConfig       `mapstructure:"agent" yaml:"agent"`
	InferenceCfg   InferenceConfig   `mapstructure:"inference" yaml:"inference"`
	CacheCfg       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	AutofixCfg     AutofixConfig     `mapstructure:"autofix" yaml:"autofix"`
	BatchCfg       BatchConfig       `mapstructure:"batch" yaml:"batch"`
	DiagnosticsCfg DiagnosticsConfig `mapstructure:"diagnostics" yaml:"diagnostics"`
	MCPCfg         MCPConfig         `mapstructure:"mcp" yaml:"mcp"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) Agent() AgentConfig             { return c.AgentCfg }
func (c *Config) Inference() InferenceConfig     { return c.InferenceCfg }
func (c *Config) Cache() CacheConfig             { return c.CacheCfg }
func (c *Config) Autofix() AutofixConfig         { return c.AutofixCfg }
func (c *Config) Batch() BatchConfig             { return c.BatchCfg }
func (c *Config) Diagnostics() DiagnosticsConfig { return c.DiagnosticsCfg }
func (c *Config) MCP() MCPConfig                 { return c.MCPCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetMCPTransport(t string) { c.MCPCfg.Transport = t }
func (c *Config) SetMCPAddr(a string)      { c.MCPCfg.Addr = a }
func (c *Config) SetCacheBackend(b string) { c.CacheCfg.Backend = b }
func (c *Config) SetCachePath(p string)    { c.CacheCfg.Path = p }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AgentConfig holds settings for the LLM clients behind the inference service.
type AgentConfig struct {
	LLM LLMRouterConfig `mapstructure:"llm" yaml:"llm"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini    LLMProvider = "gemini"
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderOllama    LLMProvider = "ollama"
)

// LLMRouterConfig configures the model routing logic.
type LLMRouterConfig struct {
	DefaultFastModel     string                    `mapstructure:"default_fast_model" yaml:"default_fast_model"`
	DefaultPowerfulModel string                    `mapstructure:"default_powerful_model" yaml:"default_powerful_model"`
	Models               map[string]LLMModelConfig `mapstructure:"models" yaml:"models"`
}

// LLMModelConfig defines the configuration for a single LLM.
type LLMModelConfig struct {
	Provider      LLMProvider       `mapstructure:"provider" yaml:"provider"`
	Model         string            `mapstructure:"model" yaml:"model"`
	APIKey        string            `mapstructure:"api_key" yaml:"-"`
	Endpoint      string            `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout    time.Duration     `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature   float32           `mapstructure:"temperature" yaml:"temperature"`
	TopP          float32           `mapstructure:"top_p" yaml:"top_p"`
	TopK          int               `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens     int               `mapstructure:"max_tokens" yaml:"max_tokens"`
	SafetyFilters map[string]string `mapstructure:"safety_filters" yaml:"safety_filters"`
}

// InferenceConfig bounds the outbound calls made for fix generation and validation.
type InferenceConfig struct {
	GenerateTimeout time.Duration `mapstructure:"generate_timeout" yaml:"generate_timeout"`
	ValidateTimeout time.Duration `mapstructure:"validate_timeout" yaml:"validate_timeout"`
	// RateLimit is requests per second across all inference calls; 0 disables the limiter.
	RateLimit     float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst         int     `mapstructure:"burst" yaml:"burst"`
	MaxCandidates int     `mapstructure:"max_candidates" yaml:"max_candidates"`
}

// Cache backends.
const (
	CacheBackendSQLite   = "sqlite"
	CacheBackendPostgres = "postgres"
)

// CacheConfig selects and sizes the validated-result cache.
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	Backend       string        `mapstructure:"backend" yaml:"backend"`
	Path          string        `mapstructure:"path" yaml:"path"`
	PostgresURL   string        `mapstructure:"postgres_url" yaml:"-"`
	MaxSize       int           `mapstructure:"max_size" yaml:"max_size"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
}

// AutofixConfig tunes the fix orchestrator.
type AutofixConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	// FallbackConfidence is the confidence given to template fixes.
	FallbackConfidence float64 `mapstructure:"fallback_confidence" yaml:"fallback_confidence"`
}

// BatchConfig tunes the batch coordinator.
type BatchConfig struct {
	Size         int    `mapstructure:"size" yaml:"size"`
	PrioritizeBy string `mapstructure:"prioritize_by" yaml:"prioritize_by"`
}

// DiagnosticsConfig tunes the static diagnostic engine.
type DiagnosticsConfig struct {
	MaxLineLength int      `mapstructure:"max_line_length" yaml:"max_line_length"`
	DefaultChecks []string `mapstructure:"default_checks" yaml:"default_checks"`
}

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// MCPConfig configures the tool server.
type MCPConfig struct {
	Transport string `mapstructure:"transport" yaml:"transport"`
	Host      string `mapstructure:"host" yaml:"host"`
	Port      int    `mapstructure:"port" yaml:"port"`
	// Addr overrides Host and Port when set.
	Addr      string `mapstructure:"addr" yaml:"addr"`
	AuthToken string `mapstructure:"auth_token" yaml:"-"`
	JWTSecret string `mapstructure:"jwt_secret" yaml:"-"`
	JWTIssuer string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
}

// ListenAddr returns the address the HTTP transport binds to.
func (m MCPConfig) ListenAddr() string {
	if m.Addr != "" {
		return m.Addr
	}
	return net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
}

// AuthEnabled reports whether a bearer token or JWT secret is configured.
func (m MCPConfig) AuthEnabled() bool {
	return m.AuthToken != "" || m.JWTSecret != ""
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "remedy")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Agent --
	// Model map keys are aliases. Viper splits keys on ".", so versioned
	// model names belong in the entry's "model" field, never in the key.
	v.SetDefault("agent.llm.default_fast_model", "fast")
	v.SetDefault("agent.llm.default_powerful_model", "powerful")
	v.SetDefault("agent.llm.models.fast.provider", string(ProviderGemini))
	v.SetDefault("agent.llm.models.fast.model", "gemini-2.5-flash")
	v.SetDefault("agent.llm.models.fast.api_timeout", "60s")
	v.SetDefault("agent.llm.models.powerful.provider", string(ProviderGemini))
	v.SetDefault("agent.llm.models.powerful.model", "gemini-2.5-pro")
	v.SetDefault("agent.llm.models.powerful.api_timeout", "120s")

	// -- Inference --
	v.SetDefault("inference.generate_timeout", "60s")
	v.SetDefault("inference.validate_timeout", "30s")
	v.SetDefault("inference.rate_limit", 0.0)
	v.SetDefault("inference.burst", 1)
	v.SetDefault("inference.max_candidates", 3)

	// -- Cache --
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", CacheBackendSQLite)
	v.SetDefault("cache.path", "~/.remedy/cache.db")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.sweep_interval", "1m")

	// -- Autofix --
	v.SetDefault("autofix.cache_ttl", "10m")
	v.SetDefault("autofix.fallback_confidence", 0.3)

	// -- Batch --
	v.SetDefault("batch.size", 5)
	v.SetDefault("batch.prioritize_by", "severity")

	// -- Diagnostics --
	v.SetDefault("diagnostics.max_line_length", 120)
	v.SetDefault("diagnostics.default_checks", []string{"all"})

	// -- MCP --
	v.SetDefault("mcp.transport", TransportStdio)
	v.SetDefault("mcp.host", "0.0.0.0")
	v.SetDefault("mcp.port", 8080)
	v.SetDefault("mcp.jwt_issuer", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	_ = v.BindEnv("mcp.auth_token", "REMEDY_MCP_TOKEN")
	_ = v.BindEnv("mcp.jwt_secret", "REMEDY_MCP_JWT_SECRET")
	_ = v.BindEnv("mcp.port", "REMEDY_MCP_PORT", "PORT")
	_ = v.BindEnv("cache.postgres_url", "REMEDY_CACHE_POSTGRES_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Model entries live in a map, so their keys cannot be bound ahead of time.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		for name, m := range cfg.AgentCfg.LLM.Models {
			if m.APIKey == "" && (m.Provider == ProviderGemini || m.Provider == "") {
				m.APIKey = key
				cfg.AgentCfg.LLM.Models[name] = m
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.AgentCfg.LLM.Validate(); err != nil {
		return fmt.Errorf("agent configuration invalid: %w", err)
	}
	if err := c.InferenceCfg.Validate(); err != nil {
		return fmt.Errorf("inference configuration invalid: %w", err)
	}
	if err := c.CacheCfg.Validate(); err != nil {
		return fmt.Errorf("cache configuration invalid: %w", err)
	}
	if err := c.AutofixCfg.Validate(); err != nil {
		return fmt.Errorf("autofix configuration invalid: %w", err)
	}
	if c.BatchCfg.Size <= 0 {
		return fmt.Errorf("batch.size must be a positive integer")
	}
	if c.DiagnosticsCfg.MaxLineLength <= 0 {
		return fmt.Errorf("diagnostics.max_line_length must be a positive integer")
	}
	if err := c.MCPCfg.Validate(); err != nil {
		return fmt.Errorf("mcp configuration invalid: %w", err)
	}
	return nil
}

// Validate rejects default model aliases that viper cannot address as map keys.
func (r *LLMRouterConfig) Validate() error {
	for field, name := range map[string]string{
		"default_fast_model":     r.DefaultFastModel,
		"default_powerful_model": r.DefaultPowerfulModel,
	} {
		if strings.Contains(name, ".") {
			return fmt.Errorf("llm.%s '%s' must be a models map alias without '.'; put the versioned name in the entry's model field", field, name)
		}
	}
	return nil
}

// Validate checks the inference limits.
func (i *InferenceConfig) Validate() error {
	if i.GenerateTimeout <= 0 || i.ValidateTimeout <= 0 {
		return fmt.Errorf("generate_timeout and validate_timeout must be positive durations")
	}
	if i.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if i.RateLimit > 0 && i.Burst <= 0 {
		return fmt.Errorf("burst must be positive when rate_limit is set")
	}
	if i.MaxCandidates <= 0 {
		return fmt.Errorf("max_candidates must be a positive integer")
	}
	return nil
}

// Validate checks the cache backend selection.
func (cc *CacheConfig) Validate() error {
	if !cc.Enabled {
		return nil
	}
	if cc.MaxSize <= 0 {
		return fmt.Errorf("max_size must be a positive integer")
	}
	switch strings.ToLower(cc.Backend) {
	case CacheBackendSQLite:
		if cc.Path == "" {
			return fmt.Errorf("path is required for the sqlite backend")
		}
	case CacheBackendPostgres:
		if cc.PostgresURL == "" {
			return fmt.Errorf("postgres_url is required for the postgres backend. Ensure REMEDY_CACHE_POSTGRES_URL is set")
		}
	default:
		return fmt.Errorf("unknown backend '%s'. Supported: [%s, %s]", cc.Backend, CacheBackendSQLite, CacheBackendPostgres)
	}
	return nil
}

// Validate checks the Autofix configuration.
func (a *AutofixConfig) Validate() error {
	if a.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be a positive duration")
	}
	if a.FallbackConfidence < 0.0 || a.FallbackConfidence > 1.0 {
		return fmt.Errorf("fallback_confidence must be between 0.0 and 1.0")
	}
	return nil
}

// Validate checks the MCP transport settings.
func (m *MCPConfig) Validate() error {
	switch m.Transport {
	case TransportStdio:
		return nil
	case TransportHTTP:
		if m.Addr == "" && (m.Port <= 0 || m.Port > 65535) {
			return fmt.Errorf("port must be between 1 and 65535")
		}
		return nil
	default:
		return fmt.Errorf("unknown transport '%s'. Supported: [%s, %s]", m.Transport, TransportStdio, TransportHTTP)
	}
}
