package pipeline

import "github.com/tundzai001/land-slide-web/registry"

// Lookup resolves a broker topic to its live binding.
type Lookup interface {
	Lookup(topic string) (*registry.Binding, bool)
}
