package context

// Breakdown reports how the context window's tokens are currently
// allocated across sources, mirroring the tracker's single unified view of
// context usage.
type Breakdown struct {
	SystemPrompt        int `json:"system_prompt"`
	ConversationHistory int `json:"conversation_history"`
	ToolSchemas         int `json:"tool_schemas"`
	Attachments         int `json:"attachments"`
	Total               int `json:"total"`
	MaxTokens           int `json:"max_tokens"`
}

func newBreakdown(systemPrompt, conversation, toolSchemas, attachments, maxTokens int) Breakdown {
	b := Breakdown{
		SystemPrompt:        systemPrompt,
		ConversationHistory: conversation,
		ToolSchemas:         toolSchemas,
		Attachments:         attachments,
		MaxTokens:           maxTokens,
	}
	b.recalculateTotal()
	return b
}

func (b *Breakdown) recalculateTotal() {
	b.Total = b.SystemPrompt + b.ConversationHistory + b.ToolSchemas + b.Attachments
}

// UsagePercent returns usage as a percentage in [0, 100+]; it is not capped
// at 100 since Total can exceed MaxTokens.
func (b Breakdown) UsagePercent() float64 {
	if b.MaxTokens == 0 {
		return 0
	}
	return float64(b.Total) / float64(b.MaxTokens) * 100
}

// Available returns the remaining token budget, floored at zero.
func (b Breakdown) Available() int {
	if b.Total >= b.MaxTokens {
		return 0
	}
	return b.MaxTokens - b.Total
}

// ShouldCompact reports whether usage has reached the fixed 80% trigger
// threshold.
func (b Breakdown) ShouldCompact() bool {
	return b.UsagePercent() >= 80.0
}

// IsCritical reports whether usage has reached the 95% critical threshold.
func (b Breakdown) IsCritical() bool {
	return b.UsagePercent() >= 95.0
}

// IsExceeded reports whether Total has gone over MaxTokens.
func (b Breakdown) IsExceeded() bool {
	return b.Total > b.MaxTokens
}

// CompactionThresholdTokens returns the 80%-of-max token count used as the
// fixed compaction trigger.
func (b Breakdown) CompactionThresholdTokens() int {
	return int(float64(b.MaxTokens) * 0.80)
}
