package inspect_test

import (
	"context"
	"testing"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/inspect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	app, err := parley.New()
	require.NoError(t, err)
	require.NoError(t, app.OnIntent(domain.IntentLaunch, domain.Literal{To: "question"}))
	require.NoError(t, app.OnState("question", domain.Literal{Flow: domain.FlowTerminate}, "YesIntent"))
	require.NoError(t, app.OnState("question", domain.Literal{}, "HelpIntent"))
	require.NoError(t, app.OnState("question", domain.HandlerFunc(func(ctx context.Context, ev *domain.Event) (*domain.Transition, error) {
		return nil, nil
	}), "NoIntent"))

	nodes := inspect.Describe(app.Inspect())
	require.Len(t, nodes, 3)

	assert.Equal(t, inspect.Node{Name: domain.StateEntry, Edges: []inspect.Edge{
		{Intent: domain.IntentLaunch, To: domain.IntentLaunch, Kind: inspect.KindRoute},
	}}, nodes[0])

	assert.Equal(t, []inspect.Edge{
		{Intent: domain.StateEntry, To: "question", Flow: domain.FlowYield, Kind: inspect.KindLiteral},
	}, nodes[1].Edges)

	assert.Equal(t, []inspect.Edge{
		{Intent: "HelpIntent", To: "question", Flow: domain.FlowYield, Kind: inspect.KindLiteral},
		{Intent: "NoIntent", Kind: inspect.KindDynamic},
		{Intent: "YesIntent", To: domain.StateDie, Flow: domain.FlowTerminate, Kind: inspect.KindLiteral},
	}, nodes[2].Edges)

	assert.Equal(t, []string{domain.IntentLaunch, "question", domain.StateDie}, inspect.Targets(nodes))
}
