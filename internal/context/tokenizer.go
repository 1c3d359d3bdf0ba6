package context

// Tokenizer counts tokens for text and messages against a model's context
// window. ApproximateTokenizer is the only implementation shipped here;
// provider-specific tokenizers (tiktoken, Claude, Gemini) are expected to
// satisfy the same interface from outside this package.
type Tokenizer interface {
	CountTokens(text string) int
	CountMessageTokens(role, content string) int
	MaxContextTokens() int
}

// messageStructureOverhead approximates the JSON envelope around a
// message's role and content fields.
const messageStructureOverhead = 20

// ApproximateTokenizer estimates token counts from character length, at
// roughly 4 characters per token — an approximation that holds reasonably
// well across OpenAI, Claude, and Gemini models without needing a
// provider-specific vocabulary.
type ApproximateTokenizer struct {
	maxContext int
}

// NewApproximateTokenizer returns a tokenizer bounded to maxContext tokens.
func NewApproximateTokenizer(maxContext int) *ApproximateTokenizer {
	return &ApproximateTokenizer{maxContext: maxContext}
}

// NewApproximateTokenizer8K returns a tokenizer with an 8k context window.
func NewApproximateTokenizer8K() *ApproximateTokenizer { return NewApproximateTokenizer(8000) }

// NewApproximateTokenizer32K returns a tokenizer with a 32k context window.
func NewApproximateTokenizer32K() *ApproximateTokenizer { return NewApproximateTokenizer(32000) }

// NewApproximateTokenizer128K returns a tokenizer with a 128k context window.
func NewApproximateTokenizer128K() *ApproximateTokenizer { return NewApproximateTokenizer(128000) }

// CountTokens estimates tokens via ceiling division of character count by 4.
func (a *ApproximateTokenizer) CountTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// CountMessageTokens adds a fixed structural overhead on top of the role
// and content token estimates.
func (a *ApproximateTokenizer) CountMessageTokens(role, content string) int {
	return messageStructureOverhead + a.CountTokens(role) + a.CountTokens(content)
}

// MaxContextTokens returns the tokenizer's configured context window size.
func (a *ApproximateTokenizer) MaxContextTokens() int {
	return a.maxContext
}
