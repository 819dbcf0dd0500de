package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"views.yaml", []string{"views.yaml"}},
		{" a.yaml, ,b.json ", []string{"a.yaml", "b.json"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitList(tt.in), tt.in)
	}
}

func TestCommands(t *testing.T) {
	graph := "../../examples/hello-world/graph.yaml"
	views := "../../examples/hello-world/views.yaml"

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"validate", []string{"validate", "--graph", graph, "--views", views}, false},
		{"validate positional", []string{"validate", graph}, false},
		{"validate missing", []string{"validate", "--graph", "nope.yaml"}, true},
		{"graph mermaid", []string{"graph", "--graph", graph, "--current", "likesVoxa?"}, false},
		{"graph bad format", []string{"graph", "--graph", graph, "--format", "dot"}, true},
		{"token needs app", []string{"token", "--jwt-secret", "s3cret"}, true},
		{"token needs secret", []string{"token", "--app-id", "app-1", "--jwt-secret", ""}, true},
		{"mcp bad transport", []string{"mcp", "--graph", graph, "--transport", "carrier-pigeon"}, true},
		// Flag values persist across Execute calls, so this one runs last.
		{"bad log level", []string{"validate", "--graph", graph, "--log-level", "loud"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootCmd.SetArgs(tt.args)
			err := rootCmd.Execute()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
