package config

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Config is the root application configuration structure.
type Config struct {
	Version      string             `mapstructure:"version" yaml:"version"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
	Storage      StorageConfig      `mapstructure:"storage" yaml:"storage"`
	Policy       PolicyConfig       `mapstructure:"policy" yaml:"policy"`
	MCP          MCPConfig          `mapstructure:"mcp" yaml:"mcp"`
	SecureStore  SecureStoreConfig  `mapstructure:"secure_store" yaml:"secure_store"`
	EditorAdapter EditorAdapterConfig `mapstructure:"editor_adapter" yaml:"editor_adapter"`
}

// LogConfig controls bootstrap logging (pkg/logger, zerolog-backed).
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// StorageConfig holds the driver and path of the generic storage DB.
type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// PolicyConfig configures the policy store and engine defaults.
type PolicyConfig struct {
	// DBPath is the SQLite file backing the policy store. Empty uses
	// DefaultDataPath().
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
	// DefaultMode is the agent mode used when a session doesn't specify one.
	DefaultMode string `mapstructure:"default_mode" yaml:"default_mode"`
	// DefaultTrust is the trust level used when a session doesn't specify one.
	DefaultTrust string `mapstructure:"default_trust" yaml:"default_trust"`
	// DefaultsPath names an optional TOML approval-defaults file in the
	// resolve.DefaultsConfig format. No code in this module reads it;
	// approval behavior comes from the seeded approval_rules table.
	DefaultsPath string `mapstructure:"defaults_path" yaml:"defaults_path"`
}

// MCPConfig configures MCP server definitions and their TOML policy sync.
type MCPConfig struct {
	// ConfigPath is the TOML file synced by internal/policyconfig. Empty
	// uses DefaultMCPConfigPath().
	ConfigPath string                     `mapstructure:"config_path" yaml:"config_path"`
	Servers    map[string]MCPServerConfig `mapstructure:"servers" yaml:"servers,omitempty"`
}

// MCPServerConfig describes one stdio MCP server to supervise.
type MCPServerConfig struct {
	Command string            `mapstructure:"command" yaml:"command"`
	Args    []string          `mapstructure:"args" yaml:"args,omitempty"`
	Env     map[string]string `mapstructure:"env" yaml:"env,omitempty"`
	WorkDir string            `mapstructure:"work_dir" yaml:"work_dir,omitempty"`
}

// SecureStoreConfig configures passphrase resolution for internal/securestore.
type SecureStoreConfig struct {
	PassphraseEnv string `mapstructure:"passphrase_env" yaml:"passphrase_env"`
}

// EditorAdapterConfig configures the editor adapter HTTP client.
type EditorAdapterConfig struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	AuthToken      string `mapstructure:"auth_token" yaml:"auth_token,omitempty"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

var (
	globalConfig *Config
	configPath   string
	mu           sync.RWMutex
)

// Load loads configuration from path, falling back to defaults and
// environment overrides (TARK_* env vars take precedence over the file).
func Load(path string) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	SetDefaults()

	viper.SetEnvPrefix("TARK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		expandedPath, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		configPath = expandedPath

		viper.SetConfigFile(expandedPath)
		if err := viper.ReadInConfig(); err != nil {
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) && !os.IsNotExist(err) {
				if _, ok := err.(viper.ConfigParseError); ok {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// GetConfig returns the currently loaded configuration, or nil if Load
// hasn't run yet.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

// Get returns an arbitrary configuration value.
func Get(key string) any {
	return viper.Get(key)
}

// GetString returns a string configuration value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int configuration value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool configuration value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// Set overrides a configuration value in memory (does not persist to disk).
func Set(key string, value any) error {
	mu.Lock()
	defer mu.Unlock()
	viper.Set(key, value)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return err
	}
	globalConfig = &cfg
	return nil
}

// Save writes the current configuration back to its loaded path.
func Save() error {
	mu.RLock()
	cfg := globalConfig
	path := configPath
	mu.RUnlock()
	if cfg == nil {
		return errors.New("config: nothing loaded")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes cfg as YAML to path.
func SaveTo(cfg *Config, path string) error {
	if path == "" {
		return errors.New("config: empty path")
	}
	data, err := yamlMarshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Reset clears the global configuration state. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	configPath = ""
	viper.Reset()
}

// SetTestConfig installs cfg as the global configuration. Used by tests.
func SetTestConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = cfg
}
