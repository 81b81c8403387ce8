package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	Anthropic     AnthropicConfig    `mapstructure:"anthropic"`
	Monitoring    MonitoringConfig   `mapstructure:"monitoring"`
	Advisor       AdvisorConfig      `mapstructure:"advisor"`
	Safety        SafetyConfig       `mapstructure:"safety"`
	Policy        PolicyConfig       `mapstructure:"policy"`
	Boost         BoostConfig        `mapstructure:"boost"`
	Cleanup       CleanupConfig      `mapstructure:"cleanup"`
	GPU           GPUConfig          `mapstructure:"gpu"`
	API           APIConfig          `mapstructure:"api"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type MonitoringConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	WindowSize   int           `mapstructure:"window_size"`
	TopLimit     int           `mapstructure:"top_limit"`
	WarmupPolls  int           `mapstructure:"warmup_polls"`
}

type AdvisorConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	CacheSize           int           `mapstructure:"cache_size"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
}

type SafetyConfig struct {
	CriticalFile     string        `mapstructure:"critical_file"`
	TerminateTimeout time.Duration `mapstructure:"terminate_timeout"`
	RequireElevation bool          `mapstructure:"require_elevation"`
	ForceMode        string        `mapstructure:"force_mode"`
}

type PolicyConfig struct {
	Backend       string `mapstructure:"backend"`
	WhitelistFile string `mapstructure:"whitelist_file"`
	BlacklistFile string `mapstructure:"blacklist_file"`
	CacheFile     string `mapstructure:"cache_file"`
	SQLitePath    string `mapstructure:"sqlite_path"`
}

type BoostConfig struct {
	TopN         int     `mapstructure:"top_n"`
	CPUThreshold float64 `mapstructure:"cpu_threshold"`
}

type CleanupConfig struct {
	Targets []string `mapstructure:"targets"`
}

type GPUConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type APIConfig struct {
	Listen string `mapstructure:"listen"`
}

type NotificationConfig struct {
	LogFile      string `mapstructure:"log_file"`
	AuditFile    string `mapstructure:"audit_file"`
	Verbose      bool   `mapstructure:"verbose"`
	ColorEnabled bool   `mapstructure:"color_enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")

	v.SetDefault("monitoring.poll_interval", "2s")
	v.SetDefault("monitoring.window_size", 3)
	v.SetDefault("monitoring.top_limit", 10)
	v.SetDefault("monitoring.warmup_polls", 2)

	v.SetDefault("advisor.enabled", false)
	v.SetDefault("advisor.confidence_threshold", 0.7)
	v.SetDefault("advisor.cache_size", 500)
	v.SetDefault("advisor.cache_ttl", "30m")

	v.SetDefault("safety.critical_file", "process_whitelist.json")
	v.SetDefault("safety.terminate_timeout", "3s")
	v.SetDefault("safety.require_elevation", true)
	v.SetDefault("safety.force_mode", "ask")

	v.SetDefault("policy.backend", "json")
	v.SetDefault("policy.whitelist_file", "whitelist.json")
	v.SetDefault("policy.blacklist_file", "blacklist.json")
	v.SetDefault("policy.cache_file", "cache.json")
	v.SetDefault("policy.sqlite_path", "booster.db")

	v.SetDefault("boost.top_n", 10)
	v.SetDefault("boost.cpu_threshold", 10.0)

	v.SetDefault("cleanup.targets", []string{
		"GamingServices.exe", "YourPhone.exe", "OneDrive.exe", "SearchUI.exe",
	})

	v.SetDefault("gpu.enabled", true)
	v.SetDefault("api.listen", "127.0.0.1:8089")

	v.SetDefault("notifications.log_file", "booster.log")
	v.SetDefault("notifications.audit_file", "booster-audit.log")
	v.SetDefault("notifications.verbose", false)
	v.SetDefault("notifications.color_enabled", true)
}

// Load reads configuration from file, environment, and defaults into the
// global viper instance, which cobra flags may already be bound to.
func Load(configPath string) (*Config, error) {
	return LoadWith(viper.GetViper(), configPath)
}

// LoadWith is Load against a specific viper instance.
func LoadWith(v *viper.Viper, configPath string) (*Config, error) {
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("BOOSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow API key from env
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search in current dir, home dir, /etc
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".booster"))
		}
		v.AddConfigPath("/etc/booster")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Monitoring.PollInterval <= 0 {
		return fmt.Errorf("monitoring.poll_interval must be positive, got %s", c.Monitoring.PollInterval)
	}
	if c.Monitoring.WindowSize < 1 {
		return fmt.Errorf("monitoring.window_size must be at least 1, got %d", c.Monitoring.WindowSize)
	}
	if c.Safety.TerminateTimeout <= 0 {
		return fmt.Errorf("safety.terminate_timeout must be positive, got %s", c.Safety.TerminateTimeout)
	}
	switch c.Policy.Backend {
	case "json", "sqlite", "memory":
	default:
		return fmt.Errorf("policy.backend must be json, sqlite or memory, got %q", c.Policy.Backend)
	}
	return nil
}

// Global holds the current loaded configuration.
var Global *Config
