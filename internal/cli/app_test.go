package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildApp(t *testing.T) {
	app, def, err := cli.BuildApp(cli.AppOptions{
		GraphPath: "testdata/graph.yaml",
		ViewPaths: []string{"testdata/views.yaml"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", def.Name)
	require.NoError(t, app.Validate())

	r := app.Execute(context.Background(), testutils.IntentEvent("s1", "LaunchIntent"), nil)
	assert.Equal(t, []string{"Welcome! Do you like Voxa?"}, r.Statements())
	assert.False(t, r.IsTerminated())

	r = app.Execute(context.Background(), testutils.NextTurn(r, "s1", "YesIntent"), nil)
	assert.Equal(t, []string{"Great! Voxa is awesome."}, r.Statements())
	assert.True(t, r.IsTerminated())
}

func TestBuildApp_DefaultLocale(t *testing.T) {
	app, _, err := cli.BuildApp(cli.AppOptions{
		GraphPath:     "testdata/graph.yaml",
		ViewPaths:     []string{"testdata/views.yaml"},
		DefaultLocale: "pt-BR",
	})
	require.NoError(t, err)

	ev := testutils.IntentEvent("s1", "LaunchIntent")
	ev.Request.Locale = "fr-FR"
	r := app.Execute(context.Background(), ev, nil)
	assert.Equal(t, []string{"Bem-vindo! Você gosta do Voxa?"}, r.Statements())
}

func TestBuildApp_Errors(t *testing.T) {
	dir := testutils.TempDir(t)
	badViews := filepath.Join(dir, "views.yaml")
	require.NoError(t, os.WriteFile(badViews, []byte("en-US: [unclosed"), 0o600))

	tests := []struct {
		name string
		opts cli.AppOptions
	}{
		{"no graph", cli.AppOptions{}},
		{"missing graph", cli.AppOptions{GraphPath: filepath.Join(dir, "nope.yaml")}},
		{"broken views", cli.AppOptions{GraphPath: "testdata/graph.yaml", ViewPaths: []string{badViews}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := cli.BuildApp(tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestEnv(t *testing.T) {
	t.Setenv(cli.EnvGraph, "")
	assert.Equal(t, "fallback", cli.Env(cli.EnvGraph, "fallback"))

	t.Setenv(cli.EnvGraph, "graph.yaml")
	assert.Equal(t, "graph.yaml", cli.Env(cli.EnvGraph, "fallback"))
}
