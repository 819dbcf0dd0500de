package parley_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/testutils"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/hooks"
	"github.com/aretw0/parley/pkg/model"
	"github.com/aretw0/parley/pkg/render"
	"github.com/aretw0/parley/pkg/reply"
	"github.com/aretw0/parley/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helloViews() render.Views {
	return render.Views{
		"en-US": {
			"Launch": map[string]any{
				"AskIfLikesVoxa": "Welcome! Do you like Voxa?",
			},
			"doesLikeVoxa": "Great! Voxa is awesome.",
			"doesNotLikeVoxa": "Ok, try it again later.",
		},
	}
}

// newHelloWorld builds the two-state "do you like Voxa?" conversation.
func newHelloWorld(t *testing.T, opts ...parley.Option) *parley.App {
	t.Helper()

	r, err := render.New(helloViews(), render.WithPicker(render.First))
	require.NoError(t, err)

	app, err := parley.New(append([]parley.Option{parley.WithRenderer(r)}, opts...)...)
	require.NoError(t, err)

	require.NoError(t, app.OnIntent(domain.IntentLaunch, domain.Literal{
		To:   "likesVoxa?",
		Flow: domain.FlowYield,
		Say:  []string{"Launch.AskIfLikesVoxa"},
	}))
	require.NoError(t, app.OnState("likesVoxa?", domain.Literal{
		Flow: domain.FlowTerminate,
		Say:  []string{"doesLikeVoxa"},
	}, "YesIntent"))
	require.NoError(t, app.OnState("likesVoxa?", domain.Literal{
		Flow: domain.FlowTerminate,
		Say:  []string{"doesNotLikeVoxa"},
	}, "NoIntent"))
	return app
}

func persistedState(t *testing.T, r domain.Reply) string {
	t.Helper()
	ev := &domain.Event{Session: domain.Session{Attributes: r.SessionAttributes()}}
	return ev.PersistedState()
}

func TestApp_HelloWorld(t *testing.T) {
	app := newHelloWorld(t)
	ctx := context.Background()

	ended := 0
	app.OnSessionEnded(func(ctx context.Context, ev *domain.Event, r domain.Reply) (domain.Reply, error) {
		ended++
		return nil, nil
	})

	first := app.Execute(ctx, testutils.IntentEvent("s-1", domain.IntentLaunch), reply.Factory)
	require.NoError(t, first.Error())
	assert.Equal(t, []string{"Welcome! Do you like Voxa?"}, first.Statements())
	assert.False(t, first.IsTerminated())
	assert.Equal(t, "likesVoxa?", persistedState(t, first))
	assert.Equal(t, 0, ended)

	second := app.Execute(ctx, testutils.NextTurn(first, "s-1", "YesIntent"), reply.Factory)
	require.NoError(t, second.Error())
	assert.Equal(t, []string{"Great! Voxa is awesome."}, second.Statements())
	assert.True(t, second.IsTerminated())
	assert.Equal(t, domain.StateDie, persistedState(t, second))
	assert.Equal(t, 1, ended)
}

func TestApp_ResumeFromDieStartsOver(t *testing.T) {
	app := newHelloWorld(t)
	ctx := context.Background()

	ev := testutils.IntentEvent("s-1", domain.IntentLaunch)
	ev.Session.New = false
	ev.Session.Attributes = map[string]any{
		domain.KeyModel: map[string]any{domain.KeyState: domain.StateDie},
	}

	r := app.Execute(ctx, ev, nil)
	require.NoError(t, r.Error())
	assert.Equal(t, "likesVoxa?", persistedState(t, r))
}

func TestApp_LaunchRequestNormalized(t *testing.T) {
	app := newHelloWorld(t)

	ev := &domain.Event{
		Request: domain.Request{Type: domain.RequestLaunch},
		Session: domain.Session{ID: "s-1", New: true},
	}

	raw := app.Execute(context.Background(), ev, nil)
	var unknown *domain.UnknownRequestTypeError
	require.ErrorAs(t, raw.Error(), &unknown)

	require.True(t, ev.NormalizeLaunch())
	r := app.Execute(context.Background(), ev, nil)
	require.NoError(t, r.Error())
	assert.Equal(t, []string{"Welcome! Do you like Voxa?"}, r.Statements())
}

func TestApp_AppIDAllowList(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		appID   string
		wantErr bool
	}{
		{"no allow list", nil, "anything", false},
		{"single id accepted", []string{"app-1"}, "app-1", false},
		{"single id rejected", []string{"app-1"}, "app-2", true},
		{"multiple ids accepted", []string{"app-1", "app-2"}, "app-2", false},
		{"multiple ids rejected", []string{"app-1", "app-2"}, "app-3", true},
		{"missing id rejected", []string{"app-1"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []parley.Option
			if tt.allowed != nil {
				opts = append(opts, parley.WithAppIDs(tt.allowed...))
			}
			app := newHelloWorld(t, opts...)

			ev := testutils.IntentEvent("s-1", domain.IntentLaunch)
			ev.Context.ApplicationID = tt.appID
			r := app.Execute(context.Background(), ev, nil)

			if !tt.wantErr {
				assert.NoError(t, r.Error())
				return
			}
			var invalid *domain.InvalidApplicationIDError
			require.ErrorAs(t, r.Error(), &invalid)
			assert.Equal(t, tt.appID, invalid.ApplicationID)
			assert.True(t, r.IsTerminated())
			assert.Equal(t, []string{parley.DefaultErrorMessage}, r.Statements())
		})
	}
}

func TestApp_HandlerErrorUsesDefaultReply(t *testing.T) {
	errBackend := errors.New("backend down")

	app, err := parley.New()
	require.NoError(t, err)
	require.NoError(t, app.OnIntent("LookupIntent", domain.HandlerFunc(
		func(ctx context.Context, ev *domain.Event) (*domain.Transition, error) {
			return nil, errBackend
		})))

	r := app.Execute(context.Background(), testutils.IntentEvent("s-1", "LookupIntent"), nil)
	assert.ErrorIs(t, r.Error(), errBackend)
	assert.True(t, r.IsTerminated())
	assert.Equal(t, []string{parley.DefaultErrorMessage}, r.Statements())
}

func TestApp_PanicIsRecovered(t *testing.T) {
	app, err := parley.New()
	require.NoError(t, err)
	require.NoError(t, app.OnIntent("CrashIntent", domain.HandlerFunc(
		func(ctx context.Context, ev *domain.Event) (*domain.Transition, error) {
			panic("boom")
		})))

	r := app.Execute(context.Background(), testutils.IntentEvent("s-1", "CrashIntent"), nil)
	require.Error(t, r.Error())
	assert.True(t, parley.IsPanic(r.Error()))
	assert.True(t, r.IsTerminated())
}

func TestApp_ErrorHooks(t *testing.T) {
	errStart := errors.New("cannot start")

	setup := func(t *testing.T, opts ...parley.Option) *parley.App {
		app, err := parley.New(opts...)
		require.NoError(t, err)
		require.NoError(t, app.OnIntent("AnyIntent", domain.Literal{}))
		app.OnRequestStarted(func(ctx context.Context, ev *domain.Event, r domain.Reply) error {
			r.AddStatement("partial")
			return nil
		})
		app.OnSessionStarted(func(ctx context.Context, ev *domain.Event, r domain.Reply) error {
			return errStart
		})
		return app
	}

	t.Run("first answer wins with a fresh reply", func(t *testing.T) {
		app := setup(t)
		var seen []error
		app.OnError(func(ctx context.Context, ev *domain.Event, err error, r domain.Reply) (domain.Reply, error) {
			seen = append(seen, err)
			return nil, nil
		})
		app.OnError(func(ctx context.Context, ev *domain.Event, err error, r domain.Reply) (domain.Reply, error) {
			return nil, errors.New("hook failed")
		})
		app.OnError(func(ctx context.Context, ev *domain.Event, err error, r domain.Reply) (domain.Reply, error) {
			r.AddStatement("Sorry, try again.")
			return r, nil
		})
		app.OnError(func(ctx context.Context, ev *domain.Event, err error, r domain.Reply) (domain.Reply, error) {
			t.Fatal("later error hooks must not run")
			return nil, nil
		})

		r := app.Execute(context.Background(), testutils.IntentEvent("s-1", "AnyIntent"), nil)
		assert.Equal(t, []string{"Sorry, try again."}, r.Statements())
		assert.False(t, r.IsTerminated())
		assert.ErrorIs(t, r.Error(), errStart)
		require.Len(t, seen, 1)
		assert.ErrorIs(t, seen[0], errStart)
	})

	t.Run("without default reply keeps the original", func(t *testing.T) {
		app := setup(t, parley.WithoutDefaultErrorReply())

		r := app.Execute(context.Background(), testutils.IntentEvent("s-1", "AnyIntent"), nil)
		assert.Equal(t, []string{"partial"}, r.Statements())
		assert.False(t, r.IsTerminated())
		assert.ErrorIs(t, r.Error(), errStart)
	})
}

func TestApp_SessionStartedRunsEveryTurn(t *testing.T) {
	app := newHelloWorld(t)
	var seenNew []bool
	app.OnSessionStarted(func(ctx context.Context, ev *domain.Event, r domain.Reply) error {
		seenNew = append(seenNew, ev.Session.New)
		return nil
	})

	first := app.Execute(context.Background(), testutils.IntentEvent("s-1", domain.IntentLaunch), nil)
	require.NoError(t, first.Error())
	assert.Equal(t, []bool{true}, seenNew)

	second := app.Execute(context.Background(), testutils.NextTurn(first, "s-1", "NoIntent"), nil)
	require.NoError(t, second.Error())
	assert.Equal(t, []bool{true, false}, seenNew)
	assert.Equal(t, []string{"Ok, try it again later."}, second.Statements())
}

// newFlakyHelloWorld adds a HelpIntent to likesVoxa? that always fails and an
// error hook that keeps the conversation open.
func newFlakyHelloWorld(t *testing.T, opts ...parley.Option) *parley.App {
	t.Helper()
	app := newHelloWorld(t, opts...)
	require.NoError(t, app.OnState("likesVoxa?", domain.HandlerFunc(
		func(ctx context.Context, ev *domain.Event) (*domain.Transition, error) {
			return nil, errors.New("backend down")
		}), "HelpIntent"))
	app.OnError(func(ctx context.Context, ev *domain.Event, err error, r domain.Reply) (domain.Reply, error) {
		r.AddStatement("Sorry, try again.")
		return r, nil
	})
	return app
}

func TestApp_FailedTurnKeepsConversation(t *testing.T) {
	ctx := context.Background()

	t.Run("client held attributes", func(t *testing.T) {
		app := newFlakyHelloWorld(t)

		first := app.Execute(ctx, testutils.IntentEvent("s-1", domain.IntentLaunch), reply.Factory)
		require.NoError(t, first.Error())

		failed := app.Execute(ctx, testutils.NextTurn(first, "s-1", "HelpIntent"), reply.Factory)
		require.Error(t, failed.Error())
		assert.False(t, failed.IsTerminated())
		assert.Equal(t, []string{"Sorry, try again."}, failed.Statements())
		assert.Equal(t, "likesVoxa?", persistedState(t, failed))

		third := app.Execute(ctx, testutils.NextTurn(failed, "s-1", "YesIntent"), reply.Factory)
		require.NoError(t, third.Error())
		assert.Equal(t, []string{"Great! Voxa is awesome."}, third.Statements())
	})

	t.Run("server held session", func(t *testing.T) {
		app := newFlakyHelloWorld(t)
		store := memory.NewStore()
		mgr := session.NewManager(store)
		turn := func(intent string) domain.Reply {
			ev := testutils.IntentEvent("s-1", intent)
			ev.Session.New = false
			r, err := mgr.Turn(ctx, ev, app, reply.Factory)
			require.NoError(t, err)
			return r
		}

		require.NoError(t, turn(domain.IntentLaunch).Error())
		require.Error(t, turn("HelpIntent").Error())

		stored, err := store.Load(ctx, "s-1")
		require.NoError(t, err)
		assert.Equal(t, "likesVoxa?", (&domain.Event{Session: domain.Session{Attributes: stored}}).PersistedState())

		third := turn("YesIntent")
		require.NoError(t, third.Error())
		assert.Equal(t, []string{"Great! Voxa is awesome."}, third.Statements())
	})
}

func TestApp_LogsLifecycleHooks(t *testing.T) {
	var buf bytes.Buffer
	app := newFlakyHelloWorld(t, parley.WithLogger(logging.NewWriter(&buf, slog.LevelDebug, logging.FormatText)))
	ctx := context.Background()

	first := app.Execute(ctx, testutils.IntentEvent("s-1", domain.IntentLaunch), reply.Factory)
	require.NoError(t, first.Error())
	for _, name := range []hooks.Name{hooks.RequestStarted, hooks.SessionStarted, hooks.BeforeReplySent} {
		assert.Contains(t, buf.String(), "hook="+name.String())
	}
	assert.NotContains(t, buf.String(), "hook="+hooks.Error.String())

	app.Execute(ctx, testutils.NextTurn(first, "s-1", "HelpIntent"), reply.Factory)
	assert.Contains(t, buf.String(), "hook="+hooks.Error.String())

	app.Execute(ctx, testutils.NextTurn(first, "s-1", "YesIntent"), reply.Factory)
	assert.Contains(t, buf.String(), "hook="+hooks.SessionEnded.String())
}

func TestApp_HookOrder(t *testing.T) {
	app, err := parley.New()
	require.NoError(t, err)
	require.NoError(t, app.OnIntent("StopIntent", domain.Literal{Flow: domain.FlowTerminate}))

	var order []string
	app.OnRequestStarted(func(ctx context.Context, ev *domain.Event, r domain.Reply) error {
		assert.NotNil(t, ev.Model, "model is hydrated before user hooks")
		order = append(order, "requestStarted")
		return nil
	})
	app.OnSessionStarted(func(ctx context.Context, ev *domain.Event, r domain.Reply) error {
		order = append(order, "sessionStarted")
		return nil
	})
	app.OnBeforeStateChanged(func(ctx context.Context, ev *domain.Event, r domain.Reply, s *domain.State) error {
		order = append(order, "before:"+s.Name)
		return nil
	})
	app.OnAfterStateChanged(func(ctx context.Context, ev *domain.Event, r domain.Reply, tr *domain.Transition) (*domain.Transition, error) {
		order = append(order, "after:"+string(tr.Flow))
		return nil, nil
	})
	app.OnSessionEnded(func(ctx context.Context, ev *domain.Event, r domain.Reply) (domain.Reply, error) {
		order = append(order, "sessionEnded")
		return nil, nil
	})
	app.OnBeforeReplySent(func(ctx context.Context, ev *domain.Event, r domain.Reply, tr *domain.Transition) error {
		order = append(order, "beforeReplySent")
		return nil
	})

	r := app.Execute(context.Background(), testutils.IntentEvent("s-1", "StopIntent"), nil)
	require.NoError(t, r.Error())
	assert.True(t, r.IsTerminated())
	assert.Equal(t, []string{
		"requestStarted",
		"sessionStarted",
		"before:entry",
		"after:continue",
		"before:StopIntent",
		"after:terminate",
		"sessionEnded",
		"beforeReplySent",
	}, order)
}

func TestApp_SessionEndedRequest(t *testing.T) {
	t.Run("normal end runs the session ended hooks", func(t *testing.T) {
		app := newHelloWorld(t)
		app.OnSessionEnded(func(ctx context.Context, ev *domain.Event, r domain.Reply) (domain.Reply, error) {
			r.AddStatement("Goodbye.")
			return r, nil
		})

		r := app.Execute(context.Background(), testutils.SessionEndedEvent("s-1", "USER_INITIATED"), nil)
		require.NoError(t, r.Error())
		assert.Equal(t, []string{"Goodbye."}, r.Statements())
	})

	t.Run("error end goes through the error hooks", func(t *testing.T) {
		app := newHelloWorld(t)
		ev := testutils.SessionEndedEvent("s-1", domain.SessionEndedReasonError)
		ev.Request.Error = map[string]any{"type": "INVALID_RESPONSE", "message": "bad ssml"}

		r := app.Execute(context.Background(), ev, nil)
		var ended *domain.SessionEndedError
		require.ErrorAs(t, r.Error(), &ended)
		assert.Equal(t, "INVALID_RESPONSE", ended.Payload["type"])
		assert.True(t, r.IsTerminated())
	})
}

func TestApp_CustomRequestTypes(t *testing.T) {
	const elementSelected = "Display.ElementSelected"

	app := newHelloWorld(t)
	started := 0
	app.OnRequestStarted(func(ctx context.Context, ev *domain.Event, r domain.Reply) error {
		started++
		return nil
	})

	err := app.OnRequest(elementSelected, func(ctx context.Context, ev *domain.Event, r domain.Reply) (domain.Reply, error) {
		return r, nil
	})
	var unknown *domain.UnknownRequestTypeError
	require.ErrorAs(t, err, &unknown)

	app.RegisterRequestType(elementSelected)
	require.NoError(t, app.OnRequest(elementSelected, func(ctx context.Context, ev *domain.Event, r domain.Reply) (domain.Reply, error) {
		r.AddText("first")
		return r, nil
	}))
	require.NoError(t, app.OnRequest(elementSelected, func(ctx context.Context, ev *domain.Event, r domain.Reply) (domain.Reply, error) {
		out := reply.New()
		out.AddText("second")
		return out, nil
	}))
	require.NoError(t, app.OnRequest(elementSelected, func(ctx context.Context, ev *domain.Event, r domain.Reply) (domain.Reply, error) {
		return nil, nil
	}))
	assert.Contains(t, app.RequestTypes(), elementSelected)

	ev := &domain.Event{
		Request: domain.Request{Type: elementSelected},
		Session: domain.Session{ID: "s-1", New: true},
	}
	r := app.Execute(context.Background(), ev, nil)
	require.NoError(t, r.Error())
	assert.Equal(t, []string{"second"}, r.Texts())
	assert.Equal(t, 0, started, "lifecycle hooks only run for intent and session ended requests")
}

func TestApp_UnhandledIntent(t *testing.T) {
	t.Run("without a hook the turn fails", func(t *testing.T) {
		app := newHelloWorld(t)
		first := app.Execute(context.Background(), testutils.IntentEvent("s-1", domain.IntentLaunch), nil)

		r := app.Execute(context.Background(), testutils.NextTurn(first, "s-1", "HelpIntent"), nil)
		var unhandled *domain.UnhandledIntentError
		require.ErrorAs(t, r.Error(), &unhandled)
	})

	t.Run("the last hook answer wins", func(t *testing.T) {
		app := newHelloWorld(t)
		app.OnUnhandledState(func(ctx context.Context, ev *domain.Event, r domain.Reply, s *domain.State) (*domain.Transition, error) {
			return &domain.Transition{To: s.Name, Directives: map[string]any{"sayp": "Ignored."}}, nil
		})
		app.OnUnhandledState(func(ctx context.Context, ev *domain.Event, r domain.Reply, s *domain.State) (*domain.Transition, error) {
			return &domain.Transition{To: s.Name, Directives: map[string]any{"sayp": "Sorry, yes or no?"}}, nil
		})
		app.OnUnhandledState(func(ctx context.Context, ev *domain.Event, r domain.Reply, s *domain.State) (*domain.Transition, error) {
			return nil, nil
		})

		first := app.Execute(context.Background(), testutils.IntentEvent("s-1", domain.IntentLaunch), nil)
		r := app.Execute(context.Background(), testutils.NextTurn(first, "s-1", "HelpIntent"), nil)
		require.NoError(t, r.Error())
		assert.Equal(t, []string{"Sorry, yes or no?"}, r.Statements())
		assert.Equal(t, "likesVoxa?", persistedState(t, r))
		assert.False(t, r.IsTerminated())
	})
}

func TestApp_AfterStateChangedReplacesTransition(t *testing.T) {
	app := newHelloWorld(t)
	app.OnAfterStateChanged(func(ctx context.Context, ev *domain.Event, r domain.Reply, tr *domain.Transition) (*domain.Transition, error) {
		if tr.Flow != domain.FlowTerminate {
			return nil, nil
		}
		return &domain.Transition{To: "likesVoxa?", Directives: map[string]any{"sayp": "Are you sure?"}}, nil
	})

	first := app.Execute(context.Background(), testutils.IntentEvent("s-1", domain.IntentLaunch), nil)
	r := app.Execute(context.Background(), testutils.NextTurn(first, "s-1", "YesIntent"), nil)
	require.NoError(t, r.Error())
	assert.Equal(t, []string{"Are you sure?"}, r.Statements())
	assert.False(t, r.IsTerminated())
}

type counter struct {
	Count int    `mapstructure:"count"`
	Name  string `mapstructure:"name"`
}

func TestApp_TypedModelRoundTrip(t *testing.T) {
	app, err := parley.New(parley.WithModel(model.TypedFactory(func() counter {
		return counter{Name: "guest"}
	})))
	require.NoError(t, err)

	require.NoError(t, app.OnIntent("CountIntent", domain.HandlerFunc(
		func(ctx context.Context, ev *domain.Event) (*domain.Transition, error) {
			c, ok := model.From[counter](ev)
			if !ok {
				return nil, errors.New("model not hydrated")
			}
			c.Count++
			return &domain.Transition{To: "CountIntent"}, nil
		})))

	first := app.Execute(context.Background(), testutils.IntentEvent("s-1", "CountIntent"), nil)
	require.NoError(t, first.Error())
	second := app.Execute(context.Background(), testutils.NextTurn(first, "s-1", "CountIntent"), nil)
	require.NoError(t, second.Error())

	data := second.SessionAttributes()[domain.KeyModel].(map[string]any)
	assert.EqualValues(t, 2, data["count"])
	assert.Equal(t, "guest", data["name"])
	assert.Equal(t, "CountIntent", data[domain.KeyState])
}

func TestApp_ReplayIsIdempotent(t *testing.T) {
	app := newHelloWorld(t)
	first := app.Execute(context.Background(), testutils.IntentEvent("s-1", domain.IntentLaunch), nil)

	a := app.Execute(context.Background(), testutils.NextTurn(first, "s-1", "HelpIntent"), nil)
	b := app.Execute(context.Background(), testutils.NextTurn(first, "s-1", "HelpIntent"), nil)
	assert.Equal(t, a.SessionAttributes(), b.SessionAttributes())

	c := app.Execute(context.Background(), testutils.NextTurn(first, "s-1", "YesIntent"), nil)
	d := app.Execute(context.Background(), testutils.NextTurn(first, "s-1", "YesIntent"), nil)
	assert.Equal(t, c.SessionAttributes(), d.SessionAttributes())
	assert.Equal(t, c.Statements(), d.Statements())
}

func TestApp_CustomDirective(t *testing.T) {
	app, err := parley.New(parley.WithDirective("card", func(ctx context.Context, ev *domain.Event, r domain.Reply, value any) error {
		r.AddDirective("card", value)
		return nil
	}))
	require.NoError(t, err)
	require.NoError(t, app.OnIntent("ShowIntent", domain.Literal{
		Directives: map[string]any{"card": "weather", "ignored": true},
	}))

	r := app.Execute(context.Background(), testutils.IntentEvent("s-1", "ShowIntent"), nil)
	require.NoError(t, r.Error())
	assert.Equal(t, map[string]any{"card": "weather"}, r.Directives())
}

func TestApp_StepLimit(t *testing.T) {
	app, err := parley.New(parley.WithMaxSteps(3))
	require.NoError(t, err)
	require.NoError(t, app.OnIntent("LoopIntent", domain.Literal{To: "LoopIntent", Flow: domain.FlowContinue}))

	r := app.Execute(context.Background(), testutils.IntentEvent("s-1", "LoopIntent"), nil)
	assert.ErrorIs(t, r.Error(), domain.ErrTransitionLoop)
}

func TestApp_GraphSealedAfterFirstTurn(t *testing.T) {
	app := newHelloWorld(t)
	require.NoError(t, app.Validate())

	_ = app.Execute(context.Background(), testutils.IntentEvent("s-1", domain.IntentLaunch), nil)

	assert.ErrorIs(t, app.OnState("late", domain.Literal{}), domain.ErrGraphSealed)
	assert.ErrorIs(t, app.OnIntent("LateIntent", domain.Literal{}), domain.ErrGraphSealed)
}

func TestApp_Inspect(t *testing.T) {
	app := newHelloWorld(t)

	var names []string
	for _, s := range app.Inspect() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{domain.StateEntry, domain.IntentLaunch, "likesVoxa?"}, names)
}

func TestNew_RejectsBadConfiguration(t *testing.T) {
	tests := []struct {
		name string
		opts []parley.Option
	}{
		{"nil model", []parley.Option{parley.WithModel(nil)}},
		{"zero steps", []parley.Option{parley.WithMaxSteps(0)}},
		{"empty directive key", []parley.Option{parley.WithDirective("", nil)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parley.New(tt.opts...)
			var cfg *domain.ConfigurationError
			assert.ErrorAs(t, err, &cfg)
		})
	}
}

func TestApp_WithSessionManager(t *testing.T) {
	app := newHelloWorld(t)
	store := memory.NewStore()
	mgr := session.NewManager(store)
	ctx := context.Background()

	ev := &domain.Event{
		Request: domain.Request{Type: domain.RequestIntent, Intent: &domain.Intent{Name: domain.IntentLaunch}},
		Session: domain.Session{ID: "s-1"},
	}
	first, err := mgr.Turn(ctx, ev, app, reply.Factory)
	require.NoError(t, err)
	require.NoError(t, first.Error())

	stored, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "likesVoxa?", (&domain.Event{Session: domain.Session{Attributes: stored}}).PersistedState())

	ev = &domain.Event{
		Request: domain.Request{Type: domain.RequestIntent, Intent: &domain.Intent{Name: "YesIntent"}},
		Session: domain.Session{ID: "s-1"},
	}
	second, err := mgr.Turn(ctx, ev, app, reply.Factory)
	require.NoError(t, err)
	assert.True(t, second.IsTerminated())

	_, err = store.Load(ctx, "s-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
