package domain

import "context"

// Reply accumulates the output of one turn.
// It is owned by the turn that created it and must not be reused.
type Reply interface {
	// AddStatement appends spoken content.
	AddStatement(statement string)
	// AddText appends written content for chat surfaces.
	AddText(text string)
	// AddDirective records a platform directive under key.
	AddDirective(key string, value any)
	// Clear drops statements, texts and directives.
	Clear()

	// Terminate marks the session as ended.
	Terminate()
	IsTerminated() bool

	SetSessionAttributes(attrs map[string]any)
	SessionAttributes() map[string]any

	// SetError records the error that produced this reply.
	SetError(err error)
	Error() error

	Statements() []string
	Texts() []string
	Directives() map[string]any
}

// Renderer turns a symbolic view key into user-facing content.
type Renderer interface {
	RenderPath(ctx context.Context, key string, ev *Event) (string, error)
}

// Model is the developer-defined conversation state carried across turns.
// Serialize must produce a JSON-safe map.
type Model interface {
	Serialize(ctx context.Context) (map[string]any, error)
}
