package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarkdev/tarkcore/internal/policy/types"
)

type fakeStore struct {
	classifications map[string]types.CommandClassification
	strategies      map[string]types.ClassificationStrategy
	separators      []string
}

func (f *fakeStore) ToolClassification(toolID string) (types.CommandClassification, types.ClassificationStrategy, error) {
	c, ok := f.classifications[toolID]
	if !ok {
		return types.CommandClassification{}, "", assertNotFound{}
	}
	return c, f.strategies[toolID], nil
}

func (f *fakeStore) CompoundSeparators() ([]string, error) {
	return f.separators, nil
}

type assertNotFound struct{}

func (assertNotFound) Error() string { return "not found" }

func newFakeStore() *fakeStore {
	return &fakeStore{
		classifications: map[string]types.CommandClassification{
			"read_file": {ClassificationID: "read_file", Operation: types.OperationRead, RiskLevel: types.RiskSafe},
			"shell":     {ClassificationID: "shell", Operation: types.OperationExecute, RiskLevel: types.RiskModerate},
		},
		strategies: map[string]types.ClassificationStrategy{
			"read_file": types.ClassificationStatic,
			"shell":     types.ClassificationDynamic,
		},
		separators: []string{";", "&&", "||", "|"},
	}
}

func TestClassify_StaticToolInWorkdir(t *testing.T) {
	c := New(newFakeStore())
	result, err := c.Classify("read_file", "read_file ./notes.md", "/workspace")
	require.NoError(t, err)
	assert.True(t, result.InWorkdir)
	assert.Equal(t, types.RiskSafe, result.RiskLevel)
}

func TestClassify_StaticToolOutsideWorkdir(t *testing.T) {
	c := New(newFakeStore())
	result, err := c.Classify("read_file", "read_file /etc/passwd", "/workspace")
	require.NoError(t, err)
	assert.False(t, result.InWorkdir)
}

func TestClassify_DynamicShellEscalatesOnDangerousPrefix(t *testing.T) {
	c := New(newFakeStore())
	result, err := c.Classify("shell", "sudo rm -rf /tmp/cache", "/workspace")
	require.NoError(t, err)
	assert.Equal(t, types.RiskDangerous, result.RiskLevel)
}

func TestClassify_CompoundCommandTakesMaxRisk(t *testing.T) {
	c := New(newFakeStore())
	result, err := c.Classify("shell", "echo hi && sudo rm -rf /tmp/x", "/workspace")
	require.NoError(t, err)
	assert.Equal(t, types.RiskDangerous, result.RiskLevel)
}

// E9: a bare "rm" with no sudo/-rf prefix still resolves to a delete
// operation at dangerous risk, and wins the tie-break over the leading
// segment's read operation.
func TestClassify_E9_BareRmEscalatesToDangerousDelete(t *testing.T) {
	c := New(newFakeStore())
	result, err := c.Classify("shell", "ls && rm file.txt", "/workspace")
	require.NoError(t, err)
	assert.Equal(t, types.RiskDangerous, result.RiskLevel)
	assert.Equal(t, types.OperationDelete, result.Operation)
}

func TestClassify_TwoTokenRuleAppliesToSubcommand(t *testing.T) {
	c := New(newFakeStore())
	result, err := c.Classify("shell", "git push origin main", "/workspace")
	require.NoError(t, err)
	assert.Equal(t, types.RiskModerate, result.RiskLevel)
	assert.Equal(t, types.OperationWrite, result.Operation)
}

// E1: a read-only shell command must classify at the command's own risk,
// not the shell tool's seeded base risk (dangerous in the real schema).
func TestClassify_E1_SafeCommandIsNotEscalatedByToolBaseRisk(t *testing.T) {
	store := newFakeStore()
	store.classifications["shell"] = types.CommandClassification{
		ClassificationID: "shell", Operation: types.OperationExecute, RiskLevel: types.RiskDangerous,
	}
	c := New(store)

	result, err := c.Classify("shell", "cat ./file.txt", "/workspace")
	require.NoError(t, err)
	assert.Equal(t, types.RiskSafe, result.RiskLevel)
	assert.Equal(t, types.OperationRead, result.Operation)
}

func TestExtractPaths_SkipsShortFlags(t *testing.T) {
	paths := ExtractPaths("grep -r --include=*.go pattern ./src")
	assert.Contains(t, paths, "./src")
	assert.NotContains(t, paths, "-r")
}

func TestExtractPaths_StripsQuotes(t *testing.T) {
	paths := ExtractPaths(`cat "./config.yaml"`)
	assert.Contains(t, paths, "./config.yaml")
}

func TestPathSanitizer_IsInWorkdir(t *testing.T) {
	s := NewPathSanitizer("/workspace")
	assert.True(t, s.IsInWorkdir("./sub/file.go"))
	assert.False(t, s.IsInWorkdir("/etc/passwd"))
}
