package graph_test

import (
	"testing"

	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/inspect"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func helloNodes() []inspect.Node {
	return []inspect.Node{
		{Name: domain.StateEntry, Edges: []inspect.Edge{
			{Intent: "LaunchIntent", To: "LaunchIntent", Kind: inspect.KindRoute},
		}},
		{Name: "LaunchIntent", Edges: []inspect.Edge{
			{Intent: domain.StateEntry, To: "likesVoxa?", Flow: domain.FlowYield, Kind: inspect.KindLiteral},
		}},
		{Name: "likesVoxa?", Edges: []inspect.Edge{
			{Intent: "HelpIntent", To: "likesVoxa?", Flow: domain.FlowContinue, Kind: inspect.KindLiteral},
			{Intent: "NoIntent", To: domain.StateDie, Flow: domain.FlowTerminate, Kind: inspect.KindLiteral},
			{Intent: "SayIntent", Kind: inspect.KindDynamic},
		}},
	}
}

func TestGenerateMermaid_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name    string
		overlay *graph.Overlay
	}{
		{name: "hello"},
		{name: "hello_current", overlay: &graph.Overlay{CurrentNode: "likesVoxa?"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, []byte(graph.GenerateMermaid(helloNodes(), tt.overlay)))
		})
	}
}

func TestGenerateMermaid_Escaping(t *testing.T) {
	got := graph.GenerateMermaid([]inspect.Node{
		{Name: `say "hi"`, Edges: []inspect.Edge{{Intent: "a-b.c", To: "x/y", Kind: inspect.KindLiteral}}},
	}, nil)

	assert.Contains(t, got, `say__hi_["say #quot;hi#quot;"]`)
	assert.Contains(t, got, `-- "a-b.c" --> x_y`)
	assert.NotContains(t, got, "die", "no sink is drawn when nothing terminates")
}
