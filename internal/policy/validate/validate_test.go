package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tarkdev/tarkcore/internal/policy/types"
)

var forbidden = []string{"rm -rf /", "rm -rf /*", ":(){ :|:& };:", "dd if=/dev/zero of=/dev/", "mkfs.", "format ", "> /dev/sd"}

func TestValidate_RejectsEmpty(t *testing.T) {
	v := New(forbidden)
	err := v.Validate("shell", "", types.MatchExact)
	assert.Error(t, err)
}

func TestValidate_RejectsTooLong(t *testing.T) {
	v := New(forbidden)
	err := v.Validate("shell", strings.Repeat("a", MaxPatternLength+1), types.MatchExact)
	assert.Error(t, err)
}

func TestValidate_RejectsInvalidMatchType(t *testing.T) {
	v := New(forbidden)
	err := v.Validate("shell", "git status", types.MatchType("bogus"))
	assert.Error(t, err)
}

func TestValidate_RejectsForbiddenShellPattern(t *testing.T) {
	v := New(forbidden)
	err := v.Validate("shell", "sudo rm -rf / --no-preserve-root", types.MatchExact)
	assert.Error(t, err)
}

func TestValidate_ForbiddenOnlyAppliesToShell(t *testing.T) {
	v := New(forbidden)
	err := v.Validate("read_file", "rm -rf /", types.MatchExact)
	assert.NoError(t, err)
}

func TestValidate_AcceptsBenignPattern(t *testing.T) {
	v := New(forbidden)
	err := v.Validate("shell", "git status", types.MatchExact)
	assert.NoError(t, err)
}
