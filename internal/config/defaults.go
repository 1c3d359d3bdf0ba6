package config

import "github.com/spf13/viper"

// SetDefaults installs default values for every configuration key.
func SetDefaults() {
	// Logging
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.file", "")

	// Legacy generic storage
	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("storage.path", "")

	// Policy engine
	viper.SetDefault("policy.db_path", "")
	viper.SetDefault("policy.default_mode", "ask")
	viper.SetDefault("policy.default_trust", "balanced")
	viper.SetDefault("policy.defaults_path", "")

	// MCP
	viper.SetDefault("mcp.config_path", "")
	viper.SetDefault("mcp.servers", map[string]any{})

	// Secure store
	viper.SetDefault("secure_store.passphrase_env", "TARK_PLUGIN_PASSPHRASE")

	// Editor adapter
	viper.SetDefault("editor_adapter.base_url", "")
	viper.SetDefault("editor_adapter.timeout_seconds", 5)
}
