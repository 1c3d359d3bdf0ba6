package editoradapter

import "sync"

// scopeStack holds the nested stack of active editor contexts. Tools
// executing within a scope see the innermost pushed context via
// CurrentContext; tools outside any scope see none.
var scopeStack struct {
	mu    sync.Mutex
	stack []*EditorContextV1
}

// Guard restores the previous ambient editor context when its scope ends.
// Callers are expected to `defer guard.Close()` immediately after
// ScopedEditorContext returns it, the same RAII-guard shape the original
// uses its Drop impl for.
type Guard struct {
	closed bool
}

// ScopedEditorContext installs ctx as the current ambient editor context
// for the duration of the returned Guard's lifetime, restoring whatever
// was current before on Close.
func ScopedEditorContext(ctx EditorContextV1) *Guard {
	scopeStack.mu.Lock()
	scopeStack.stack = append(scopeStack.stack, &ctx)
	scopeStack.mu.Unlock()
	return &Guard{}
}

// Close pops this guard's context off the stack, restoring the previous
// ambient value. Close is idempotent.
func (g *Guard) Close() {
	if g.closed {
		return
	}
	g.closed = true

	scopeStack.mu.Lock()
	defer scopeStack.mu.Unlock()
	if len(scopeStack.stack) > 0 {
		scopeStack.stack = scopeStack.stack[:len(scopeStack.stack)-1]
	}
}

// CurrentContext returns the innermost active ambient editor context, and
// false if no scope is currently active.
func CurrentContext() (EditorContextV1, bool) {
	scopeStack.mu.Lock()
	defer scopeStack.mu.Unlock()
	if len(scopeStack.stack) == 0 {
		return EditorContextV1{}, false
	}
	return *scopeStack.stack[len(scopeStack.stack)-1], true
}
