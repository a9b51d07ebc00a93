// FILE: internal/graph/listener.go
package graph

// Listener observes successful graph mutations. Illegal or no-op calls
// produce no events.
type Listener interface {
	MoveAdded(from, san, to string)
	// MoveDeleted receives the positions the orphan cascade removed
	MoveDeleted(from, san string, removed []string)
}

// Hooks adapts plain functions to Listener; nil fields are skipped
type Hooks struct {
	OnAdd    func(from, san, to string)
	OnDelete func(from, san string, removed []string)
}

func (h Hooks) MoveAdded(from, san, to string) {
	if h.OnAdd != nil {
		h.OnAdd(from, san, to)
	}
}

func (h Hooks) MoveDeleted(from, san string, removed []string) {
	if h.OnDelete != nil {
		h.OnDelete(from, san, removed)
	}
}

// Subscribe registers l for all later mutations
func (g *Graph) Subscribe(l Listener) {
	g.listeners = append(g.listeners, l)
}
