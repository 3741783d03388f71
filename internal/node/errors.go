package node

import "errors"

// Sentinel errors for the node registry, mirroring the wrapped-sentinel
// idiom used throughout the workflow package this registry is modeled on.
var (
	// ErrUnknownNodeType is returned by Create when no type is registered
	// under the requested name.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrEmptyTypeName is returned by Register when typeName is empty.
	ErrEmptyTypeName = errors.New("node type name cannot be empty")
)
