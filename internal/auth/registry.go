package auth

import (
	"maps"
	"slices"
)

// Registry maps provider names to handlers. It is filled once by
// NewRegistry and never mutated, so it is safe for concurrent use.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		if h == nil {
			continue
		}
		r.handlers[h.Name()] = h
	}

	return r
}

func (r *Registry) Resolve(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

func (r *Registry) Default() (Handler, bool) {
	return r.Resolve(DefaultHandlerName)
}

// ResolveOrDefault resolves name, or the default handler when name is empty.
func (r *Registry) ResolveOrDefault(name string) (Handler, bool) {
	if name == "" {
		return r.Default()
	}

	return r.Resolve(name)
}

func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.handlers))
}
