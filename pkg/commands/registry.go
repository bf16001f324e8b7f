package commands

import (
	"slices"

	"github.com/sipeed/redisbot/pkg/logger"
)

// Registry holds definitions in registration order. It is built once at
// startup and is not safe for registration concurrent with dispatch.
type Registry struct {
	defs []Definition
}

func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{}
	for _, d := range defs {
		r.Add(d)
	}
	return r
}

// Add appends d. Name collisions are not checked; the earlier definition wins
// exact matches.
func (r *Registry) Add(d Definition) {
	logger.DebugCF("commands", "Registering handler", map[string]any{
		"name":   d.Name,
		"hidden": d.Hidden,
		"rooms":  d.Rooms,
	})
	r.defs = append(r.defs, d)
}

// React registers a hidden handler triggered by cond instead of its name.
func (r *Registry) React(name string, cond Condition, h Handler, rooms ...string) {
	r.Add(Definition{
		Name:      name,
		Condition: cond,
		Rooms:     rooms,
		Hidden:    true,
		Handler:   h,
	})
}

// All returns every definition in registration order.
func (r *Registry) All() []Definition {
	return slices.Clone(r.defs)
}

// Public returns the definitions listed in help, in registration order.
func (r *Registry) Public() []Definition {
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		if !d.Hidden {
			out = append(out, d)
		}
	}
	return out
}

func (r *Registry) Len() int { return len(r.defs) }
