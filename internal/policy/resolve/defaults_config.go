package resolve

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/tarkdev/tarkcore/internal/policy/types"
)

// DefaultsConfig is the TOML shape for overriding the built-in approval
// defaults table:
//
//	[approval_defaults]
//	"safe.balanced.in_workdir" = "auto_approve"
//	"dangerous.manual.out_workdir" = "prompt_no_save"
type DefaultsConfig struct {
	ApprovalDefaults map[string]string `toml:"approval_defaults"`
}

// ParseDefaultsConfig parses a DefaultsConfig from TOML bytes.
func ParseDefaultsConfig(data []byte) (*DefaultsConfig, error) {
	var cfg DefaultsConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("resolve: parse defaults TOML: %w", err)
	}
	return &cfg, nil
}

// Rules expands the TOML key/value map into (RuleKey, Behavior) pairs,
// validating each key and behavior along the way.
func (c *DefaultsConfig) Rules() (map[RuleKey]Behavior, error) {
	out := make(map[RuleKey]Behavior, len(c.ApprovalDefaults))
	for key, value := range c.ApprovalDefaults {
		ruleKey, err := parseRuleKey(key)
		if err != nil {
			return nil, err
		}
		behavior, err := ParseBehavior(value)
		if err != nil {
			return nil, fmt.Errorf("resolve: key %q: %w", key, err)
		}
		out[ruleKey] = behavior
	}
	return out, nil
}

// parseRuleKey parses "<risk>.<trust>.<in_workdir|out_workdir>".
func parseRuleKey(key string) (RuleKey, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 {
		return RuleKey{}, fmt.Errorf("resolve: key %q must have 3 dot-separated parts", key)
	}

	risk := types.RiskLevel(parts[0])
	if !risk.Valid() {
		return RuleKey{}, fmt.Errorf("resolve: key %q: invalid risk level %q", key, parts[0])
	}
	trust := types.TrustID(parts[1])
	if !trust.Valid() {
		return RuleKey{}, fmt.Errorf("resolve: key %q: invalid trust id %q", key, parts[1])
	}

	var inWorkdir bool
	switch parts[2] {
	case "in_workdir":
		inWorkdir = true
	case "out_workdir":
		inWorkdir = false
	default:
		return RuleKey{}, fmt.Errorf("resolve: key %q: location must be in_workdir or out_workdir, got %q", key, parts[2])
	}

	return RuleKey{Risk: risk, Trust: trust, InWorkdir: inWorkdir}, nil
}
