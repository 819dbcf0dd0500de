// Package inspect turns the declared states of an app into a serializable
// graph for tooling: the HTTP and MCP graph endpoints and diagram output.
package inspect

import (
	"sort"

	"github.com/aretw0/parley/pkg/domain"
)

// Edge kinds.
const (
	KindRoute   = "route"
	KindLiteral = "literal"
	KindDynamic = "dynamic"
)

// Edge is one way out of a state.
type Edge struct {
	// Intent is the intent (or "entry" for the default handler) that takes it.
	Intent string `json:"intent"`
	// To is empty for dynamic edges, whose target is only known at run time.
	To   string      `json:"to,omitempty"`
	Flow domain.Flow `json:"flow,omitempty"`
	Kind string      `json:"kind"`
}

// Node is one state.
type Node struct {
	Name     string `json:"name"`
	Terminal bool   `json:"terminal,omitempty"`
	Edges    []Edge `json:"edges,omitempty"`
}

// Describe converts states, keeping their order. Edges are sorted by intent.
func Describe(states []domain.State) []Node {
	nodes := make([]Node, 0, len(states))
	for _, s := range states {
		n := Node{Name: s.Name, Terminal: s.IsTerminal}

		for _, intent := range sortedKeys(s.To) {
			n.Edges = append(n.Edges, Edge{Intent: intent, To: s.To[intent], Kind: KindRoute})
		}
		for _, intent := range sortedKeys(s.Enter) {
			switch h := s.Enter[intent].(type) {
			case domain.Literal:
				n.Edges = append(n.Edges, literalEdge(s.Name, intent, h))
			case domain.HandlerFunc:
				n.Edges = append(n.Edges, Edge{Intent: intent, Kind: KindDynamic})
			}
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func literalEdge(state, intent string, l domain.Literal) Edge {
	e := Edge{Intent: intent, To: l.To, Flow: l.Flow, Kind: KindLiteral}
	switch {
	case l.Flow == domain.FlowTerminate || l.To == domain.StateDie:
		e.To = domain.StateDie
		e.Flow = domain.FlowTerminate
	case e.To == "":
		e.To = state
	}
	if e.Flow == "" {
		e.Flow = domain.FlowYield
	}
	return e
}

// Targets lists every state an edge of nodes points to, without duplicates.
func Targets(nodes []Node) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range nodes {
		for _, e := range n.Edges {
			if e.To != "" && !seen[e.To] {
				seen[e.To] = true
				out = append(out, e.To)
			}
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
