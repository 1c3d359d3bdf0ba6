// Package policyconfig parses the MCP tool-policy TOML config files and
// syncs them into the policy store, per spec.md §4.1 and §6. Two files are
// consulted — a user-level file and a workspace-level file — with the
// workspace copy winning for any (server, tool) key the two share.
package policyconfig

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// MatchAction is the outcome a saved MCP pattern applies, per spec.md §6's
// `action ∈ {allow, deny}`.
type MatchAction string

const (
	ActionAllow MatchAction = "allow"
	ActionDeny  MatchAction = "deny"
)

func (a MatchAction) Valid() bool {
	switch a {
	case ActionAllow, ActionDeny:
		return true
	}
	return false
}

// ToolEntry is one `[[tools]]` row: the policy for one (server, tool) pair.
type ToolEntry struct {
	Server           string `toml:"server"`
	Tool             string `toml:"tool"`
	Risk             string `toml:"risk"`
	NeedsApproval    bool   `toml:"needs_approval"`
	AllowSavePattern bool   `toml:"allow_save_pattern"`
	Description      string `toml:"description"`
}

// PatternEntry is one `[[patterns]]` row: a saved allow/deny pattern keyed
// on (server, tool).
type PatternEntry struct {
	Server      string `toml:"server"`
	Tool        string `toml:"tool"`
	Pattern     string `toml:"pattern"`
	MatchType   string `toml:"match_type"`
	Action      string `toml:"action"`
	Description string `toml:"description"`
}

// Config is the TOML shape of an mcp.toml policy file.
type Config struct {
	Version  uint32         `toml:"version"`
	Tools    []ToolEntry    `toml:"tools"`
	Patterns []PatternEntry `toml:"patterns"`
}

// Parse decodes an mcp.toml file's contents.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("policyconfig: parse TOML: %w", err)
	}
	return &cfg, nil
}

// toolKey identifies a (server, tool) pair for merge purposes.
type toolKey struct{ server, tool string }

// Merge combines a user-level and workspace-level config, with workspace
// entries overriding user entries that share a (server, tool) key. Either
// argument may be nil (file absent).
func Merge(user, workspace *Config) *Config {
	merged := &Config{}

	toolIdx := make(map[toolKey]int)
	addTools := func(entries []ToolEntry) {
		for _, e := range entries {
			k := toolKey{e.Server, e.Tool}
			if i, ok := toolIdx[k]; ok {
				merged.Tools[i] = e
				continue
			}
			toolIdx[k] = len(merged.Tools)
			merged.Tools = append(merged.Tools, e)
		}
	}

	// Patterns aren't keyed uniquely the same way — a (server, tool) pair
	// may carry several patterns — but workspace patterns for a key that
	// the workspace file also lists under `tools` should still simply
	// append; spec.md only requires "workspace overrides user" for equal
	// (server, tool) *tool policy* rows, not pattern lists.
	if user != nil {
		addTools(user.Tools)
		merged.Patterns = append(merged.Patterns, user.Patterns...)
		if merged.Version == 0 {
			merged.Version = user.Version
		}
	}
	if workspace != nil {
		addTools(workspace.Tools)
		merged.Patterns = append(merged.Patterns, workspace.Patterns...)
		if workspace.Version != 0 {
			merged.Version = workspace.Version
		}
	}

	return merged
}

// Load reads and parses the TOML file at path. A missing file is not an
// error — it returns (nil, nil), since both the user and workspace config
// files are optional per spec.md §6.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("policyconfig: read %s: %w", path, err)
	}
	return Parse(data)
}
