package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/turtacn/vincent/pkg/constants"
	"github.com/turtacn/vincent/pkg/logger"
)

// Loader reads configuration from a YAML file, VINCENT_* environment variables and defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader. An empty configFile searches /etc/vincent/ and the working
// directory for config.yaml.
func NewLoader(configFile string) *Loader {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/vincent/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("VINCENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", constants.DefaultHTTPPort)
	v.SetDefault("server.grpc_port", constants.DefaultGRPCPort)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.pprof_enabled", false)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("auth.expected_audience", "")
	v.SetDefault("auth.clock_skew", "0s")
	v.SetDefault("auth.cache_enabled", true)
	v.SetDefault("auth.cache_ttl", constants.DefaultVerificationCacheTTL.String())
	v.SetDefault("auth.key_cache_size", 1024)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests", constants.DefaultRateLimitRequests)
	v.SetDefault("rate_limit.window", constants.DefaultRateLimitWindow.String())

	v.SetDefault("log.level", string(constants.LogLevelInfo))

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", constants.ServiceName)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("signer.private_key", "")
	v.SetDefault("signer.vault.address", "")
	v.SetDefault("signer.vault.token", "")
	v.SetDefault("signer.vault.mount_path", "secret")
	v.SetDefault("signer.vault.key_path", "")
	v.SetDefault("signer.vault.field", "private_key")

	v.SetDefault("mcp.enabled", false)
	v.SetDefault("mcp.path", "/mcp")
	v.SetDefault("mcp.tools_file", "")
	v.SetDefault("mcp.name", constants.ServiceName)
	v.SetDefault("mcp.version", "1.0.0")

	v.SetDefault("consent.base_url", "")
}

// Load reads and validates the configuration. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFileUsed returns the file the configuration was read from, if any.
func (l *Loader) ConfigFileUsed() string { return l.v.ConfigFileUsed() }

// Watch reloads the configuration whenever the file changes and hands valid results to
// onChange. Invalid edits are logged and ignored.
func (l *Loader) Watch(log logger.Logger, onChange func(*Config)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		ctx := context.Background()
		cfg, err := l.Load()
		if err != nil {
			log.Error(ctx, "Ignoring invalid configuration change", err, logger.String("file", e.Name))
			return
		}
		log.Info(ctx, "Configuration reloaded", logger.String("file", e.Name), logger.String("op", e.Op.String()))
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// LoadConfig is a shorthand for NewLoader(configFile).Load().
func LoadConfig(configFile string) (*Config, error) {
	return NewLoader(configFile).Load()
}

// LoadTools reads tool declarations ("tools" key) from a YAML or JSON file. Parameter types
// may use either type vocabulary.
func LoadTools(file string) ([]ToolConfig, error) {
	v := viper.New()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read tools file: %w", err)
	}

	var tools []ToolConfig
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.UnmarshalKey("tools", &tools, hook); err != nil {
		return nil, fmt.Errorf("failed to decode tools: %w", err)
	}
	for i := range tools {
		if err := validateTool(tools[i]); err != nil {
			return nil, fmt.Errorf("tool %d: %w", i+1, err)
		}
	}
	return tools, nil
}

func validateTool(t ToolConfig) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("name is required")
	}
	seen := make(map[string]bool, len(t.Parameters))
	for _, p := range t.Parameters {
		if p.Name == "" {
			return fmt.Errorf("tool %q has a parameter without a name", t.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("tool %q declares parameter %q twice", t.Name, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
