package node

// Port describes a single named, typed input or output slot on a node type.
type Port struct {
	Name         string `json:"name"`
	Type         string `json:"port_type"`
	Required     bool   `json:"required"`
	Default      any    `json:"default_value,omitempty"`
	Options      []any  `json:"options,omitempty"`
	Tooltip      string `json:"tooltip,omitempty"`
	HasDefault   bool   `json:"-"`
}

// WithDefault returns a copy of p carrying the given default value.
func WithDefault(p Port, def any) Port {
	p.Default = def
	p.HasDefault = true
	return p
}

// TypesCompatible reports whether a value produced on a port of type
// producerType may legally flow into a port of type consumerType.
//
// "any" accepts anything. "object" may feed any of the specific scalar or
// collection types (array, string, number, boolean) in the producer->consumer
// direction only -- the reverse is intentionally rejected: a specific,
// strongly-typed producer should not silently widen into a generically typed
// object consumer without an explicit "any" port. Otherwise both sides must
// match by exact string equality.
func TypesCompatible(producerType, consumerType string) bool {
	if producerType == "any" || consumerType == "any" {
		return true
	}
	if producerType == "object" {
		switch consumerType {
		case "array", "string", "number", "boolean", "object":
			return true
		default:
			return false
		}
	}
	return producerType == consumerType
}
