package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/inspect"
)

// Overlay marks the state a session currently rests in.
type Overlay struct {
	CurrentNode string
}

// GenerateMermaid produces a Mermaid flowchart from the described graph.
//
//   - entry: ((circle))
//   - die: (((double circle)))
//   - other states: [rectangle]
//
// Yield and route edges are plain arrows, continue edges are thick and
// dynamic edges (handler funcs) are emitted as comments since their target is
// only known at run time.
func GenerateMermaid(nodes []inspect.Node, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	declared := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		declared[node.Name] = true
		id := sanitizeMermaidID(node.Name)

		opener, closer := "[", "]"
		switch {
		case node.Name == domain.StateEntry:
			opener, closer = "((", "))"
		case node.Terminal || node.Name == domain.StateDie:
			opener, closer = "(((", ")))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escapeLabel(node.Name), closer)

		for _, e := range node.Edges {
			label := escapeLabel(e.Intent)
			switch {
			case e.Kind == inspect.KindDynamic:
				fmt.Fprintf(&sb, "    %%%% %s -- \"%s\" --> (dynamic)\n", id, label)
			case e.Flow == domain.FlowContinue:
				fmt.Fprintf(&sb, "    %s == \"%s\" ==> %s\n", id, label, sanitizeMermaidID(e.To))
			default:
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", id, label, sanitizeMermaidID(e.To))
			}
		}
	}

	for _, target := range inspect.Targets(nodes) {
		if target == domain.StateDie && !declared[target] {
			fmt.Fprintf(&sb, "    %s(((\"%s\")))\n", target, target)
		}
	}

	if overlay != nil && overlay.CurrentNode != "" {
		sb.WriteString("\n    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
	}

	return sb.String()
}

// sanitizeMermaidID keeps letters, digits and underscores.
func sanitizeMermaidID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, id)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}
