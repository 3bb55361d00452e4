package tensor

import "sync"

// Releaser is a value holding pooled memory.
type Releaser interface {
	Release() int32
}

// Layers tracks pooled values in nested scopes. Pop releases everything
// added since the matching Push, newest first.
//
//	layers.Push()
//	defer layers.Pop()
//	v, _ := tensor.NewVector(pool, 1, 2, 3)
//	layers.Add(v)
type Layers struct {
	mu    sync.Mutex
	stack [][]Releaser
}

// Push opens a new scope.
func (l *Layers) Push() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stack = append(l.stack, nil)
}

// Add registers r with the innermost scope. Without an open scope, r is
// left to the caller.
func (l *Layers) Add(r Releaser) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.stack) == 0 {
		return false
	}
	top := len(l.stack) - 1
	l.stack[top] = append(l.stack[top], r)
	return true
}

// Pop closes the innermost scope and releases its values.
func (l *Layers) Pop() {
	l.mu.Lock()
	if len(l.stack) == 0 {
		l.mu.Unlock()
		return
	}
	top := l.stack[len(l.stack)-1]
	l.stack = l.stack[:len(l.stack)-1]
	l.mu.Unlock()

	for i := len(top) - 1; i >= 0; i-- {
		top[i].Release()
	}
}

// Depth returns the number of open scopes.
func (l *Layers) Depth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.stack)
}
