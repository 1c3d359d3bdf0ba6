// Package config provides configuration path utilities.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigDir returns the default configuration directory (~/.tark).
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".tark"), nil
}

// DefaultConfigPath returns the default configuration file path (~/.tark/config.yaml).
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultDataPath returns the default policy database path (~/.tark/policy.db).
func DefaultDataPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "policy.db"), nil
}

// DefaultMCPConfigPath returns the default MCP TOML sync file path (~/.tark/mcp.toml).
func DefaultMCPConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mcp.toml"), nil
}

// WorkspaceMCPConfigPath returns the workspace-scoped MCP TOML sync file
// path (<workspace>/.tark/policy/mcp.toml), which overrides the user file
// for any (server, tool) key they share.
func WorkspaceMCPConfigPath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, ".tark", "policy", "mcp.toml")
}

// ExpandPath expands ~ prefix in path to user home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}

	if path == "~" {
		return os.UserHomeDir()
	}

	return path, nil
}
