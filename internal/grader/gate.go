package grader

import "sync"

// Gate keeps reseeding exclusive of grading. Sandboxes share it; the seed
// loader takes it exclusively so no sandbox sees a half-built database.
type Gate struct {
	mu sync.RWMutex
}

// NewGate returns an open gate.
func NewGate() *Gate {
	return &Gate{}
}

// Shared blocks while the gate is held exclusively and returns the release
// function.
func (g *Gate) Shared() func() {
	g.mu.RLock()
	return g.mu.RUnlock
}

// Exclusive waits for every shared holder to leave.
func (g *Gate) Exclusive() func() {
	g.mu.Lock()
	return g.mu.Unlock
}
