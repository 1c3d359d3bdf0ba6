package mcpsup

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvVars_Substitutes(t *testing.T) {
	t.Setenv("MCP_TEST_TOKEN", "secret123")
	got := expandEnvVars("Authorization: Bearer ${MCP_TEST_TOKEN}")
	assert.Equal(t, "Authorization: Bearer secret123", got)
}

func TestExpandEnvVars_MissingVarLeftLiteral(t *testing.T) {
	_, set := os.LookupEnv("MCP_TEST_DEFINITELY_UNSET")
	assert.False(t, set)

	got := expandEnvVars("${MCP_TEST_DEFINITELY_UNSET}")
	assert.Equal(t, "${MCP_TEST_DEFINITELY_UNSET}", got)
}

func TestExpandEnvVars_MultipleAndMixed(t *testing.T) {
	t.Setenv("MCP_TEST_HOST", "api.example.com")
	got := expandEnvVars("https://${MCP_TEST_HOST}/${MCP_TEST_MISSING}/v1")
	assert.Equal(t, "https://api.example.com/${MCP_TEST_MISSING}/v1", got)
}

func TestCollapseContent_Text(t *testing.T) {
	got := collapseContent([]contentBlock{{Type: "text", Text: "hello"}})
	assert.Equal(t, "hello", got)
}

func TestCollapseContent_MultipleBlocksJoinedByNewline(t *testing.T) {
	got := collapseContent([]contentBlock{
		{Type: "text", Text: "first"},
		{Type: "image"},
		{Type: "resource", URI: "file:///x.txt"},
	})
	assert.Equal(t, "first\n[image content omitted]\n[resource: file:///x.txt]", got)
}

func TestServerCapabilities_UnmarshalJSON(t *testing.T) {
	var caps ServerCapabilities
	err := caps.UnmarshalJSON([]byte(`{"tools":{"listChanged":true},"resources":{},"prompts":null}`))
	assert.NoError(t, err)
	assert.True(t, caps.ToolsListChanged)
	assert.True(t, caps.Resources)
	assert.False(t, caps.Prompts)
}
