// Package classify turns a tool invocation into a CommandClassification:
// the operation it performs, whether it touches the working directory, and
// its risk level. Static-strategy tools read their classification straight
// from the tool_classifications table; dynamic-strategy tools (shell,
// safe_shell) are inspected per-invocation.
package classify

import (
	"fmt"
	"strings"

	"github.com/tarkdev/tarkcore/internal/policy/types"
)

// Store is the subset of policystore.Store the classifier needs.
type Store interface {
	ToolClassification(toolID string) (types.CommandClassification, types.ClassificationStrategy, error)
	CompoundSeparators() ([]string, error)
}

// Classifier resolves a CommandClassification for a tool invocation.
type Classifier struct {
	store Store
}

// New creates a Classifier backed by store.
func New(store Store) *Classifier {
	return &Classifier{store: store}
}

// Classify returns the classification for toolID, given its command text
// (used only for dynamic-strategy tools) and the session's working
// directory.
func (c *Classifier) Classify(toolID, command, workDir string) (types.CommandClassification, error) {
	base, strategy, err := c.store.ToolClassification(toolID)
	if err != nil {
		return types.CommandClassification{}, fmt.Errorf("classify %s: %w", toolID, err)
	}

	sanitizer := NewPathSanitizer(workDir)

	if strategy == types.ClassificationStatic {
		base.InWorkdir = c.pathsInWorkdir(command, sanitizer)
		return base, nil
	}

	return c.classifyDynamic(toolID, command, base, sanitizer)
}

// classifyDynamic handles shell/safe_shell: split on compound-command
// separators, look each segment's leading token up in the
// compound-command rule table, and reduce to the maximum risk across
// segments. Per spec.md §4.3, ties in the resulting operation are broken
// delete > write > read > execute.
func (c *Classifier) classifyDynamic(toolID, command string, base types.CommandClassification, sanitizer *PathSanitizer) (types.CommandClassification, error) {
	separators, err := c.store.CompoundSeparators()
	if err != nil {
		return types.CommandClassification{}, err
	}

	segments := splitCompound(command, separators)
	risk := types.RiskSafe
	operation := base.Operation
	inWorkdir := true

	for _, segment := range segments {
		segOp, segRisk := classifySegment(toolID, segment)
		if segRisk.Max(risk) == segRisk && (segRisk != risk || operationRank(segOp) > operationRank(operation)) {
			operation = segOp
		}
		risk = risk.Max(segRisk)

		paths := ExtractPaths(segment)
		for _, path := range paths {
			if !sanitizer.IsInWorkdir(path) {
				inWorkdir = false
			}
		}
	}

	base.RiskLevel = risk
	base.Operation = operation
	base.InWorkdir = inWorkdir
	return base, nil
}

func (c *Classifier) pathsInWorkdir(command string, sanitizer *PathSanitizer) bool {
	paths := ExtractPaths(command)
	if len(paths) == 0 {
		return true
	}
	for _, path := range paths {
		if !sanitizer.IsInWorkdir(path) {
			return false
		}
	}
	return true
}

// operationRank breaks ties between constituent commands of equal risk:
// delete > write > read > execute, per spec.md §4.3.
func operationRank(op types.Operation) int {
	switch op {
	case types.OperationDelete:
		return 3
	case types.OperationWrite:
		return 2
	case types.OperationRead:
		return 1
	case types.OperationExecute:
		return 0
	}
	return -1
}

// tokenRule maps a shell command's leading token (optionally paired with a
// second token for multi-word commands like "git push") to the
// (operation, risk) the compound_command_rules table would resolve it to.
type tokenRule struct {
	operation types.Operation
	risk      types.RiskLevel
}

// singleTokenRules covers first-token lookups that don't depend on a
// second word.
var singleTokenRules = map[string]tokenRule{
	"rm":    {types.OperationDelete, types.RiskDangerous},
	"rmdir": {types.OperationDelete, types.RiskDangerous},
	"shred": {types.OperationDelete, types.RiskDangerous},
	"dd":    {types.OperationDelete, types.RiskDangerous},
	"mkfs":  {types.OperationDelete, types.RiskDangerous},
	"sudo":  {types.OperationExecute, types.RiskDangerous},
	"curl":  {types.OperationExecute, types.RiskDangerous},
	"wget":  {types.OperationExecute, types.RiskDangerous},
	"mv":    {types.OperationWrite, types.RiskModerate},
	"cp":    {types.OperationWrite, types.RiskModerate},
	"mkdir": {types.OperationWrite, types.RiskModerate},
	"touch": {types.OperationWrite, types.RiskModerate},
	"chmod": {types.OperationWrite, types.RiskModerate},
	"chown": {types.OperationWrite, types.RiskModerate},
	"tee":   {types.OperationWrite, types.RiskModerate},
	"ls":    {types.OperationRead, types.RiskSafe},
	"cat":   {types.OperationRead, types.RiskSafe},
	"grep":  {types.OperationRead, types.RiskSafe},
	"find":  {types.OperationRead, types.RiskSafe},
	"echo":  {types.OperationRead, types.RiskSafe},
	"pwd":   {types.OperationRead, types.RiskSafe},
}

// twoTokenRules covers commands whose risk depends on a subcommand word,
// e.g. "git push" (moderate) vs. "git status" (falls through to safe).
var twoTokenRules = map[[2]string]tokenRule{
	{"git", "push"}:    {types.OperationWrite, types.RiskModerate},
	{"git", "commit"}:  {types.OperationWrite, types.RiskModerate},
	{"npm", "publish"}: {types.OperationWrite, types.RiskModerate},
	{"docker", "push"}: {types.OperationWrite, types.RiskModerate},
	{"chmod", "-r"}:    {types.OperationWrite, types.RiskDangerous},
	{"chown", "-r"}:    {types.OperationWrite, types.RiskDangerous},
}

// classifySegment resolves one compound-command segment's (operation, risk)
// from its leading token(s). safe_shell caps the result at Moderate — its
// own tool-level classification already excludes the commands that would
// otherwise escalate to Dangerous; anything this table would mark Dangerous
// is instead capped, and denial is left to validate.Validator at the
// pattern-save layer.
func classifySegment(toolID, segment string) (types.Operation, types.RiskLevel) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(segment)))
	if len(fields) == 0 {
		return types.OperationRead, types.RiskSafe
	}

	if len(fields) >= 2 {
		if rule, ok := twoTokenRules[[2]string{fields[0], fields[1]}]; ok {
			return capForSafeShell(toolID, rule)
		}
	}

	if rule, ok := singleTokenRules[fields[0]]; ok {
		return capForSafeShell(toolID, rule)
	}

	return types.OperationRead, types.RiskSafe
}

func capForSafeShell(toolID string, rule tokenRule) (types.Operation, types.RiskLevel) {
	if toolID == "safe_shell" && rule.risk == types.RiskDangerous {
		return rule.operation, types.RiskModerate
	}
	return rule.operation, rule.risk
}

// splitCompound splits command on every configured separator, longest first
// so "&&" isn't shadowed by a lone "&".
func splitCompound(command string, separators []string) []string {
	sorted := append([]string(nil), separators...)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if len(sorted[j]) > len(sorted[i]) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	segments := []string{command}
	for _, sep := range sorted {
		var next []string
		for _, seg := range segments {
			next = append(next, strings.Split(seg, sep)...)
		}
		segments = next
	}

	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
