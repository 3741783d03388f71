// Package graph builds and executes workflow graphs: directed acyclic
// graphs of typed nodes wired together by typed connections (§4.3 of the
// design spec).
package graph

import (
	"sort"

	"github.com/flowforge/orchestrator/internal/node"
)

// WorkflowGraph is a constructed, validated graph ready for execution. It
// exclusively owns the node instances and connections for a single
// execution -- a graph is never reused across runs.
type WorkflowGraph struct {
	Nodes       map[string]*node.Node
	Processors  map[string]node.Processor
	Connections []Connection

	// NullTolerant records, per node ID, whether that node's type declared
	// itself exempt from skip propagation at registration time (§4.3.4).
	NullTolerant map[string]bool

	// incoming indexes connections by destination node for input wiring.
	incoming map[string][]Connection
}

// Incoming returns the connections whose destination is nodeID, in a
// stable order (sorted by from_node then from_port then to_port).
func (g *WorkflowGraph) Incoming(nodeID string) []Connection {
	return g.incoming[nodeID]
}

// buildIndex populates the incoming-connection index and sorts it
// deterministically.
func (g *WorkflowGraph) buildIndex() {
	g.incoming = make(map[string][]Connection, len(g.Nodes))
	for _, c := range g.Connections {
		g.incoming[c.ToNode] = append(g.incoming[c.ToNode], c)
	}
	for _, conns := range g.incoming {
		sort.Slice(conns, func(i, j int) bool {
			if conns[i].FromNode != conns[j].FromNode {
				return conns[i].FromNode < conns[j].FromNode
			}
			if conns[i].FromPort != conns[j].FromPort {
				return conns[i].FromPort < conns[j].FromPort
			}
			return conns[i].ToPort < conns[j].ToPort
		})
	}
}

// sortedNodeIDs returns every node ID in lexical order, the tie-break rule
// §4.3.2 requires since Go map iteration order is randomized.
func (g *WorkflowGraph) sortedNodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
