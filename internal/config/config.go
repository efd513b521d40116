package config

import (
	"time"

	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/params"
	"github.com/turtacn/vincent/pkg/utils"
)

// Config holds the application's configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Signer    SignerConfig    `mapstructure:"signer"`
	MCP       MCPConfig       `mapstructure:"mcp"`
	Consent   ConsentConfig   `mapstructure:"consent"`
}

type ServerConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port" validate:"min=1,max=65535"`
	GRPCPort           int           `mapstructure:"grpc_port" validate:"min=0,max=65535"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	PprofEnabled       bool          `mapstructure:"pprof_enabled"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

// AuthConfig configures Vincent JWT verification.
type AuthConfig struct {
	// ExpectedAudience is the aud value tokens must carry to be accepted here
	ExpectedAudience string        `mapstructure:"expected_audience" validate:"required"`
	ClockSkew        time.Duration `mapstructure:"clock_skew" validate:"gte=0"`
	CacheEnabled     bool          `mapstructure:"cache_enabled"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	KeyCacheSize     int           `mapstructure:"key_cache_size" validate:"gte=0"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests" validate:"min=1"`
	Window   time.Duration `mapstructure:"window" validate:"min=1s"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error fatal"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	// Endpoint is an OTLP/HTTP collector host:port; empty keeps spans in-process
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

// SignerConfig selects the delegated signer used by token-issuing commands.
type SignerConfig struct {
	// PrivateKey is a hex secp256k1 key for development
	PrivateKey string      `mapstructure:"private_key"`
	Vault      VaultConfig `mapstructure:"vault"`
}

type VaultConfig struct {
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	MountPath string `mapstructure:"mount_path"`
	KeyPath   string `mapstructure:"key_path"`
	Field     string `mapstructure:"field"`
}

// Enabled reports whether a Vault signer is configured.
func (v VaultConfig) Enabled() bool { return v.Address != "" && v.KeyPath != "" }

type MCPConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	ToolsFile string `mapstructure:"tools_file"`
	Name      string `mapstructure:"name"`
	Version   string `mapstructure:"version"`
}

type ConsentConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

// ToolConfig declares one ability exposed as a callable tool.
type ToolConfig struct {
	Name        string              `mapstructure:"name" json:"name" validate:"required"`
	Description string              `mapstructure:"description" json:"description"`
	Parameters  []params.Definition `mapstructure:"parameters" json:"parameters" validate:"dive"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	if c.Signer.PrivateKey != "" && c.Signer.Vault.Enabled() {
		return errors.ErrInvalidRequest("configure either signer.private_key or signer.vault, not both")
	}
	return nil
}
