package observability

import (
	"bytes"
	"log/slog"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/testutils"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) *parley.App {
	t.Helper()
	app, err := parley.New()
	require.NoError(t, err)
	require.NoError(t, app.OnIntent("LaunchIntent", domain.Literal{To: "question", Directives: map[string]any{"sayp": "Yes?"}}))
	require.NoError(t, app.OnState("question", domain.Literal{Flow: domain.FlowTerminate}, "YesIntent"))
	return app
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	app := newApp(t)
	m.Instrument(app)
	exec := m.Wrap(app)
	ctx := context.Background()

	first := exec.Execute(ctx, testutils.IntentEvent("s-1", "LaunchIntent"), nil)
	require.NoError(t, first.Error())
	_ = exec.Execute(ctx, testutils.NextTurn(first, "s-1", "HelpIntent"), nil)
	_ = exec.Execute(ctx, testutils.NextTurn(first, "s-1", "YesIntent"), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues(domain.RequestIntent, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues(domain.RequestIntent, OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues(domain.RequestIntent, OutcomeEnded)))

	count, err := testutil.GatherAndCount(reg, "parley_state_visits_total", "parley_unhandled_intents_total", "parley_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 5, count, "entry, LaunchIntent, question visits plus one unhandled and one error series")

	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&domain.UnknownRequestTypeError{RequestType: "x"}, "unknown_request_type"},
		{fmt.Errorf("wrapped: %w", &domain.UnhandledIntentError{State: "s", Intent: "i"}), "unhandled_intent"},
		{&domain.InvalidApplicationIDError{}, "invalid_application_id"},
		{&domain.SessionEndedError{}, "session_ended"},
		{&domain.PanicError{Value: "boom"}, "panic"},
		{fmt.Errorf("%w: 3", domain.ErrTransitionLoop), "transition_loop"},
		{context.DeadlineExceeded, "canceled"},
		{errors.New("db down"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestAudit(t *testing.T) {
	var buf bytes.Buffer
	app := newApp(t)
	Audit(app, logging.NewWriter(&buf, slog.LevelInfo, logging.FormatJSON))

	r := app.Execute(context.Background(), testutils.IntentEvent("s-1", "LaunchIntent"), nil)
	require.NoError(t, r.Error())

	out := buf.String()
	assert.Contains(t, out, `"msg":"state entered"`)
	assert.Contains(t, out, `"state":"LaunchIntent"`)
	assert.Contains(t, out, `"to":"question"`)
	assert.Contains(t, out, `"session_id":"s-1"`)
}
