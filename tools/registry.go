package tools

import "sort"

// Registry is the closed, static tool table built once at startup. Tools are
// never discovered dynamically; the dispatch set is exactly what main wires.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds the registry from an explicit tool set.
func NewRegistry(ts ...Tool) *Registry {
	m := make(map[string]Tool, len(ts))
	for _, t := range ts {
		m[t.Name()] = t
	}
	return &Registry{tools: m}
}

// Get resolves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names lists registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
