package guard

import (
	"context"
	"sync"
)

// Navigator is the view router driven by Navigate.
type Navigator interface {
	CurrentPath() string
	Replace(path string)
}

// MemoryNavigator is an in-process router that records its history.
type MemoryNavigator struct {
	mu      sync.Mutex
	current string
	history []string
}

// NewMemoryNavigator starts at path.
func NewMemoryNavigator(path string) *MemoryNavigator {
	if path == "" {
		path = "/"
	}
	return &MemoryNavigator{current: path, history: []string{path}}
}

func (n *MemoryNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *MemoryNavigator) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = path
	n.history = append(n.history, path)
}

// History returns every path visited, oldest first.
func (n *MemoryNavigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.history))
	copy(out, n.history)
	return out
}

// Navigate runs the guard for destination and moves nav to the resulting
// URL.
func (g *Guard) Navigate(ctx context.Context, nav Navigator, destination string) Decision {
	d := g.Decide(ctx, destination)
	nav.Replace(d.URL())
	return d
}
