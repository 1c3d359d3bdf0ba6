package classify

import (
	"os"
	"path/filepath"
	"strings"
)

// pathSuffixes are the file-extension suffixes that make a bare token (one
// with no "/") look like a path candidate. Generalized from the original's
// ".txt"/".rs" pair to the languages this repo actually touches.
var pathSuffixes = []string{".go", ".md", ".json", ".yaml", ".yml", ".toml", ".txt", ".rs"}

// PathSanitizer resolves and tests candidate paths extracted from a shell
// command against a working directory. Ported from
// original_source/src/policy/security.rs::PathSanitizer.
type PathSanitizer struct {
	WorkDir string
}

// NewPathSanitizer creates a PathSanitizer rooted at workDir.
func NewPathSanitizer(workDir string) *PathSanitizer {
	return &PathSanitizer{WorkDir: workDir}
}

// Canonicalize resolves path to an absolute, cleaned form. Absolute inputs
// are used as-is; relative inputs are joined to WorkDir. Paths that don't
// exist on disk are resolved manually component-by-component (matching the
// original's fallback) rather than via filepath.Clean, since Clean doesn't
// distinguish a missing path from a symlink loop the way OS canonicalization
// would for an existing one.
func (p *PathSanitizer) Canonicalize(path string) (string, error) {
	path = expandHome(path)

	var abs string
	if filepath.IsAbs(path) {
		abs = path
	} else {
		abs = filepath.Join(p.WorkDir, path)
	}

	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}

	return resolveComponents(abs), nil
}

// resolveComponents manually collapses "." and ".." segments without
// touching the filesystem, for paths that don't exist yet.
func resolveComponents(path string) string {
	isAbs := filepath.IsAbs(path)
	parts := strings.Split(filepath.ToSlash(path), "/")

	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 && stack[len(stack)-1] != ".." {
				stack = stack[:len(stack)-1]
			} else if !isAbs {
				stack = append(stack, part)
			}
		default:
			stack = append(stack, part)
		}
	}

	joined := strings.Join(stack, string(filepath.Separator))
	if isAbs {
		return string(filepath.Separator) + joined
	}
	return joined
}

// IsInWorkdir reports whether path, once canonicalized, lives under WorkDir.
func (p *PathSanitizer) IsInWorkdir(path string) bool {
	target, err := p.Canonicalize(path)
	if err != nil {
		return false
	}
	root, err := p.Canonicalize(p.WorkDir)
	if err != nil {
		root = p.WorkDir
	}

	if target == root {
		return true
	}
	return strings.HasPrefix(target, root+string(filepath.Separator))
}

// ExtractPaths tokenizes command on whitespace and returns every token that
// looks like a path candidate: contains "/", or ends in a recognized
// extension. Flags ("-x") are skipped; long flags ("--long") are not, to
// match the original's behavior. Surrounding quotes are stripped.
func ExtractPaths(command string) []string {
	var out []string
	for _, tok := range strings.Fields(command) {
		tok = unquote(tok)
		if strings.HasPrefix(tok, "-") && !strings.HasPrefix(tok, "--") {
			continue
		}
		if strings.Contains(tok, "/") || hasPathSuffix(tok) {
			out = append(out, tok)
		}
	}
	return out
}

func hasPathSuffix(tok string) bool {
	for _, suffix := range pathSuffixes {
		if strings.HasSuffix(tok, suffix) {
			return true
		}
	}
	return false
}

func unquote(tok string) string {
	if len(tok) >= 2 {
		if (tok[0] == '"' && tok[len(tok)-1] == '"') || (tok[0] == '\'' && tok[len(tok)-1] == '\'') {
			return tok[1 : len(tok)-1]
		}
	}
	return tok
}

// expandHome expands a leading "~" to the user's home directory.
func expandHome(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
