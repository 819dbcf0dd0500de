package runner

import (
	"context"

	"github.com/aretw0/parley/pkg/reply"
)

// IOHandler defines how the runner talks to the user. Text and JSON-lines
// modes implement it.
type IOHandler interface {
	// Output presents the reply of one turn.
	Output(ctx context.Context, v reply.View) error

	// Input reads one line. It returns ctx.Err() when ctx ends first and
	// io.EOF when the source is exhausted.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (help, session state, errors)
	// distinct from conversation content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms reply content before it is printed, e.g.
// markdown to ANSI.
type ContentRenderer func(string) (string, error)
