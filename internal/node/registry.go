package node

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Descriptor is the static, constructor-free description of a node type.
// Every registered type must be able to produce one without being
// instantiated first (§9 design note: the engine should never need to
// construct a node just to learn its schema).
type Descriptor struct {
	TypeName     string
	Category     string
	InputPorts   []Port
	OutputPorts  []Port
	NullTolerant bool
}

// DescribeFunc returns a type's static port schema.
type DescribeFunc func() Descriptor

// ConstructorFunc builds a fresh node instance plus its Processor.
type ConstructorFunc func(id string) (*Node, Processor)

type registration struct {
	describe    DescribeFunc
	constructor ConstructorFunc
}

// Registry is the process-wide catalog of node type constructors. It is
// effectively immutable after startup: all built-in types are registered
// during init wiring in cmd/server, and reads thereafter only take the read
// lock, mirroring internal/workflow/registry.go's Provider registry.
type Registry struct {
	mu     sync.RWMutex
	types  map[string]registration
	logger *zap.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		types:  make(map[string]registration),
		logger: logger,
	}
}

// Register adds a node type under typeName. Unlike the compute provider
// registry this call is idempotent: a later registration replaces an
// earlier one, logged at WARN rather than rejected, since node types may
// legitimately be re-registered during test setup or hot-reload-free
// redeploys of the same binary.
func (r *Registry) Register(describe DescribeFunc, constructor ConstructorFunc) error {
	desc := describe()
	if desc.TypeName == "" {
		return ErrEmptyTypeName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[desc.TypeName]; exists {
		r.logger.Warn("node type re-registered, replacing previous registration",
			zap.String("type_name", desc.TypeName),
		)
	}

	r.types[desc.TypeName] = registration{describe: describe, constructor: constructor}
	return nil
}

// Create builds a new node instance of the given type.
func (r *Registry) Create(typeName, id string) (*Node, Processor, error) {
	r.mu.RLock()
	reg, ok := r.types[typeName]
	r.mu.RUnlock()

	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, typeName)
	}

	n, proc := reg.constructor(id)
	return n, proc, nil
}

// Describe returns the static descriptor for a single registered type.
func (r *Registry) Describe(typeName string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.types[typeName]
	if !ok {
		return Descriptor{}, false
	}
	return reg.describe(), true
}

// Enumerate lists the descriptors of every registered type, sorted by type
// name, for the /v1/workflow/nodes endpoint.
func (r *Registry) Enumerate() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.types[name].describe())
	}
	return out
}

// Has reports whether typeName is registered.
func (r *Registry) Has(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[typeName]
	return ok
}

// IsNullTolerant reports whether typeName is declared null-tolerant, i.e.
// exempt from skip propagation (§4.3.4). Unknown types are treated as not
// null-tolerant.
func (r *Registry) IsNullTolerant(typeName string) bool {
	d, ok := r.Describe(typeName)
	return ok && d.NullTolerant
}
