package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(NewApproximateTokenizer(8000))
}

func TestManager_Creation(t *testing.T) {
	m := newTestManager()
	assert.Equal(t, 8000, m.MaxTokens())
	assert.Equal(t, 0, m.CurrentTokens())
}

func TestManager_ShouldCompact(t *testing.T) {
	m := newTestManager()

	m.SetCurrentTokens(6000) // 75%
	assert.False(t, m.ShouldCompact())

	m.SetCurrentTokens(6800) // 85%
	assert.True(t, m.ShouldCompact())

	m.SetCurrentTokens(7200) // 90%
	assert.True(t, m.ShouldCompact())
}

func TestManager_UsagePercent(t *testing.T) {
	m := newTestManager()
	m.SetCurrentTokens(4000)
	assert.InDelta(t, 50.0, m.UsagePercent(), 0.1)
}

func TestManager_AvailableForResponse(t *testing.T) {
	m := newTestManager()
	m.SetCurrentTokens(5000)
	m.SetResponseReserve(1000)
	m.ReserveToolTokens(500)

	// 8000 - 5000 - 1000 - 500 = 1500
	assert.Equal(t, 1500, m.AvailableForResponse())
}

func TestManager_SlidingWindowStrategy(t *testing.T) {
	m := newTestManager()
	m.SetStrategy(CompactionStrategy{Kind: SlidingWindow, KeepLast: 10})

	assert.Equal(t, 10, m.calculateKeepCount(20))
	assert.Equal(t, 5, m.calculateKeepCount(5)) // don't over-keep
}

// E8: compacting removes exactly the messages the strategy doesn't keep,
// and frees their estimated token cost.
func TestManager_Compact_E8(t *testing.T) {
	m := newTestManager()
	m.SetCurrentTokens(6000)
	m.SetStrategy(CompactionStrategy{Kind: SlidingWindow, KeepLast: 5})

	result, err := m.Compact(10, 600)
	require.NoError(t, err)

	assert.Equal(t, 5, result.MessagesRemoved)
	assert.Equal(t, 3000, result.TokensFreed) // 5 * 600
	assert.Equal(t, 3000, result.NewTokenCount)
	assert.Equal(t, 3000, m.CurrentTokens())
}

func TestManager_Compact_NoMessages(t *testing.T) {
	m := newTestManager()
	_, err := m.Compact(0, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompactionFailed)
}

func TestManager_Compact_PreservesMinimum(t *testing.T) {
	m := newTestManager()
	m.SetStrategy(CompactionStrategy{Kind: SlidingWindow, KeepLast: 100})

	_, err := m.Compact(5, 100)
	require.Error(t, err) // can't remove if we want to keep more than we have
	assert.ErrorIs(t, err, ErrCompactionFailed)
}

func TestManager_KeepUntilThresholdStrategy(t *testing.T) {
	m := newTestManager()
	m.SetCurrentTokens(6000)
	m.SetStrategy(CompactionStrategy{Kind: KeepUntilThreshold, TargetPercent: 0.5})

	// target = 4000 tokens, avg = 6000/10 = 600 tokens/message -> keep 6
	assert.Equal(t, 6, m.calculateKeepCount(10))
}

func TestManager_HybridImportanceStrategy(t *testing.T) {
	m := newTestManager()
	m.SetStrategy(CompactionStrategy{Kind: HybridImportance, KeepRecent: 3})

	assert.Equal(t, 3, m.calculateKeepCount(10))
	assert.Equal(t, 2, m.calculateKeepCount(2))
}

func TestDefaultCompactionStrategy(t *testing.T) {
	s := DefaultCompactionStrategy()
	assert.Equal(t, SlidingWindow, s.Kind)
	assert.Equal(t, 20, s.KeepLast)
}

func TestManager_EnsureFits_NoopWhenUnderBudget(t *testing.T) {
	m := newTestManager()
	m.SetCurrentTokens(100)

	result, err := m.EnsureFits(50, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, CompactResult{}, result)
	assert.Equal(t, 100, m.CurrentTokens())
}

func TestManager_EnsureFits_CompactsAndFits(t *testing.T) {
	m := newTestManager()
	m.SetCurrentTokens(7999)
	m.SetStrategy(CompactionStrategy{Kind: SlidingWindow, KeepLast: 1})

	result, err := m.EnsureFits(100, 10, 700)
	require.NoError(t, err)
	assert.Equal(t, 9, result.MessagesRemoved)
	assert.Less(t, result.NewTokenCount+100, m.MaxTokens())
}

func TestManager_EnsureFits_StillExceedsAfterCompaction(t *testing.T) {
	m := newTestManager()
	m.SetCurrentTokens(7999)
	m.SetStrategy(CompactionStrategy{Kind: SlidingWindow, KeepLast: 9})

	_, err := m.EnsureFits(500, 10, 1)
	require.Error(t, err)
	var windowErr *WindowExceededError
	require.ErrorAs(t, err, &windowErr)
	assert.ErrorIs(t, err, ErrWindowExceeded)
	assert.Equal(t, 8000, windowErr.Max)
}

func TestManager_EnsureFits_CompactionFailsEntirely(t *testing.T) {
	m := newTestManager()
	m.SetCurrentTokens(7999)
	m.SetStrategy(CompactionStrategy{Kind: SlidingWindow, KeepLast: 100})

	_, err := m.EnsureFits(500, 10, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWindowExceeded)
}
