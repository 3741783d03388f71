package node

// Value wraps a node output value together with the null tag (§3.1 of the
// design spec). A bare Go nil interface value is ambiguous: it could mean
// "the node returned a legitimate zero value" or "this branch is dead and
// every downstream node must be skipped". Value makes the distinction
// explicit so the engine never has to guess.
type Value struct {
	present bool
	val     any
}

// Some wraps a present value, even if v itself is nil, zero, or empty.
func Some(v any) Value {
	return Value{present: true, val: v}
}

// Null returns the distinguished absent-value tag.
func Null() Value {
	return Value{present: false}
}

// IsNull reports whether this is the absent-value tag.
func (v Value) IsNull() bool {
	return !v.present
}

// Get returns the wrapped value, or nil if the tag is null.
func (v Value) Get() any {
	return v.val
}

// Map is a node's output or input value set, keyed by port name.
type Map map[string]Value

// AllNull builds a Map with every named port set to the null tag.
func AllNull(ports []string) Map {
	m := make(Map, len(ports))
	for _, p := range ports {
		m[p] = Null()
	}
	return m
}
