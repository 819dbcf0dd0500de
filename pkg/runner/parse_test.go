package runner

import (
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Line
		wantErr bool
	}{
		{name: "empty", input: "   ", want: Line{}},
		{name: "quit word", input: "quit", want: Line{Command: CmdQuit}},
		{name: "exit command", input: "/EXIT", want: Line{Command: CmdQuit}},
		{name: "bare slash", input: "/", want: Line{Command: CmdHelp}},
		{name: "state", input: "/state now", want: Line{Command: CmdState}},
		{name: "intent", input: "YesIntent", want: Line{Intent: &domain.Intent{Name: "YesIntent"}}},
		{
			name:  "params",
			input: `OrderIntent item=pizza note="no onions"`,
			want: Line{Intent: &domain.Intent{Name: "OrderIntent", Params: map[string]any{
				"item": "pizza",
				"note": "no onions",
			}}},
		},
		{
			name:  "json",
			input: `{"name":"OrderIntent","params":{"n":2}}`,
			want:  Line{Intent: &domain.Intent{Name: "OrderIntent", Params: map[string]any{"n": float64(2)}}},
		},
		{name: "bad json", input: `{"name":`, wantErr: true},
		{name: "missing equals", input: "OrderIntent pizza", wantErr: true},
		{name: "unterminated quote", input: `OrderIntent note="x`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
