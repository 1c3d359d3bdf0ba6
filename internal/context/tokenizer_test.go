package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApproximateTokenizer_CountTokens(t *testing.T) {
	tok := NewApproximateTokenizer(8000)

	assert.Equal(t, 0, tok.CountTokens(""))
	assert.Equal(t, 1, tok.CountTokens("test"))
	assert.Equal(t, 4, tok.CountTokens("Hello, world!")) // (13+3)/4 = 4
}

func TestApproximateTokenizer_CountMessageTokens(t *testing.T) {
	tok := NewApproximateTokenizer(8000)
	assert.Equal(t, 23, tok.CountMessageTokens("user", "Hello"))
}

func TestApproximateTokenizer_Presets(t *testing.T) {
	assert.Equal(t, 8000, NewApproximateTokenizer8K().MaxContextTokens())
	assert.Equal(t, 32000, NewApproximateTokenizer32K().MaxContextTokens())
	assert.Equal(t, 128000, NewApproximateTokenizer128K().MaxContextTokens())
}
