/*
Package dsl builds conversation graphs in Go instead of YAML.

The builder produces the same loader.Definition a graph file does, so a graph
written here and one loaded from disk behave identically:

	b := dsl.New("hello-world")
	b.Model("visits", "int").Default("visits", 0)

	b.Intent("LaunchIntent").Go("likesVoxa?").Say("Launch.AskIfLikesVoxa")

	q := b.State("likesVoxa?")
	q.On("YesIntent").Terminal().Say("doesLikeVoxa")
	q.On("NoIntent").Terminal().Say("doesNotLikeVoxa")

	app, err := b.Build(parley.WithRenderer(renderer))
*/
package dsl
