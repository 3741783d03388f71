package graph

import "errors"

var (
	// ErrGraphConstruction wraps any failure encountered while building a
	// graph from its definition: unknown node type, dangling connection
	// endpoint, or incompatible port types.
	ErrGraphConstruction = errors.New("graph construction failed")

	// ErrGraphCycle is raised when the topological walk finds a node still
	// on the active DFS stack.
	ErrGraphCycle = errors.New("graph contains a cycle")

	// ErrMissingUpstream indicates the executor tried to wire a connection
	// whose source node has no recorded result yet -- an engine bug, not a
	// user error, since the execution order is supposed to guarantee this
	// never happens.
	ErrMissingUpstream = errors.New("missing upstream result")

	// ErrMissingRequiredInput indicates a node's required input port has
	// neither a wired value nor a default.
	ErrMissingRequiredInput = errors.New("missing required input")
)
