package registry

import "github.com/vk/pipegridgo/internal/constraint"

// Builtins registers the constraint kinds every pipeline can use.
type Builtins struct{}

func (Builtins) Register(r *Registry) {
	for _, c := range constraint.Builtins() {
		r.MustRegisterConstraint(c)
	}
}

// NewWithModules creates a registry populated by mods.
func NewWithModules(mods ...Module) *Registry {
	r := New()
	for _, m := range mods {
		m.Register(r)
	}
	return r
}
