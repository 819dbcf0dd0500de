package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
)

// Audit logs each state entered, each resolved transition and each failed turn.
func Audit(app Hookable, logger *slog.Logger) {
	app.OnBeforeStateChanged(func(ctx context.Context, ev *domain.Event, r domain.Reply, s *domain.State) error {
		logger.InfoContext(ctx, "state entered",
			"session_id", ev.Session.ID,
			"state", s.Name,
			"intent", ev.IntentName())
		return nil
	})
	app.OnAfterStateChanged(func(ctx context.Context, ev *domain.Event, r domain.Reply, t *domain.Transition) (*domain.Transition, error) {
		logger.InfoContext(ctx, "transition",
			"session_id", ev.Session.ID,
			"to", t.To,
			"flow", string(t.Flow))
		return nil, nil
	})
	app.OnError(func(ctx context.Context, ev *domain.Event, err error, r domain.Reply) (domain.Reply, error) {
		logger.WarnContext(ctx, "turn failed",
			"session_id", ev.Session.ID,
			"kind", ErrorKind(err),
			"err", err)
		return nil, nil
	})
}
