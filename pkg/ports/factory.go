package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// ModelFactory builds the conversation model for a turn, usually from the
// data persisted by the previous one (ev.ModelData()).
type ModelFactory interface {
	FromEvent(ctx context.Context, ev *domain.Event) (domain.Model, error)
}

// ModelFactoryFunc adapts a function to ModelFactory.
type ModelFactoryFunc func(ctx context.Context, ev *domain.Event) (domain.Model, error)

// FromEvent calls f.
func (f ModelFactoryFunc) FromEvent(ctx context.Context, ev *domain.Event) (domain.Model, error) {
	return f(ctx, ev)
}

// ReplyFactory creates the empty reply a turn writes into.
type ReplyFactory func(ev *domain.Event) domain.Reply

// TurnExecutor runs one turn. Transports depend on it instead of the App.
type TurnExecutor interface {
	Execute(ctx context.Context, ev *domain.Event, newReply ReplyFactory) domain.Reply
	Inspect() []domain.State
}
