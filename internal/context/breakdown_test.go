package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBreakdown_SumsTotal(t *testing.T) {
	b := newBreakdown(500, 3000, 200, 100, 8000)
	assert.Equal(t, 3800, b.Total)
	assert.Equal(t, 8000, b.MaxTokens)
}

func TestBreakdown_UsagePercent(t *testing.T) {
	b := newBreakdown(500, 3500, 0, 0, 8000)
	assert.InDelta(t, 50.0, b.UsagePercent(), 0.1)
}

// E7: should_compact crosses at exactly the 80% boundary.
func TestBreakdown_ShouldCompact_E7(t *testing.T) {
	under := newBreakdown(500, 5500, 0, 0, 8000) // 75%
	assert.False(t, under.ShouldCompact())

	at := newBreakdown(500, 5900, 0, 0, 8000) // 80%
	assert.True(t, at.ShouldCompact())

	over := newBreakdown(500, 6500, 0, 0, 8000) // 87.5%
	assert.True(t, over.ShouldCompact())
}

func TestBreakdown_Default_ZeroMaxTokensIsSafe(t *testing.T) {
	var b Breakdown
	assert.Equal(t, 0, b.Total)
	assert.False(t, b.ShouldCompact())
	assert.Equal(t, 0.0, b.UsagePercent())
}

func TestBreakdown_IsCritical(t *testing.T) {
	b := newBreakdown(0, 7600, 0, 0, 8000) // 95%
	assert.True(t, b.IsCritical())
}

func TestBreakdown_Available(t *testing.T) {
	b := newBreakdown(500, 3000, 200, 300, 8000)
	assert.Equal(t, 4000, b.Available())
}
