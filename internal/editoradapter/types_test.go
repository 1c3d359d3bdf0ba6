package editoradapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEditorContextV1_DefaultsAPIVersion(t *testing.T) {
	ctx := NewEditorContextV1("tark.nvim", "0.11.4", EditorEndpoint{BaseURL: "http://127.0.0.1:8787"}, EditorCapabilities{Definition: true})
	assert.Equal(t, APIVersionV1, ctx.APIVersion)
	assert.NoError(t, ctx.ValidateAPIVersion())
}

func TestValidateAPIVersion_RejectsUnsupported(t *testing.T) {
	ctx := EditorContextV1{
		AdapterID:      "tark.nvim",
		AdapterVersion: "0.11.4",
		APIVersion:     "v2",
		Endpoint:       EditorEndpoint{BaseURL: "http://127.0.0.1:8787"},
	}
	err := ctx.ValidateAPIVersion()
	assert.ErrorIs(t, err, ErrUnsupportedAPIVersion)
}
