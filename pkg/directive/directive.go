// Package directive maps the fields of a resolved transition onto reply
// content. Each key (say, text, reply, or a custom one) has a Handler; keys
// without a handler are ignored.
package directive

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Built-in directive keys.
const (
	Say   = "say"
	Text  = "text"
	Reply = "reply"
	SayP  = "sayp"
	TextP = "textp"
)

// Handler applies one directive value to the reply.
type Handler func(ctx context.Context, ev *domain.Event, reply domain.Reply, value any) error

// Set is an ordered collection of directive handlers.
type Set struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	order    []string
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{handlers: make(map[string]Handler)}
}

// Defaults returns a set with the built-in handlers.
func Defaults() *Set {
	s := NewSet()
	s.Register(Say, renderInto(func(r domain.Reply, s string) { r.AddStatement(s) }))
	s.Register(Text, renderInto(func(r domain.Reply, s string) { r.AddText(s) }))
	s.Register(Reply, replyView)
	s.Register(SayP, plainInto(func(r domain.Reply, s string) { r.AddStatement(s) }))
	s.Register(TextP, plainInto(func(r domain.Reply, s string) { r.AddText(s) }))
	return s
}

// Register adds or replaces the handler for key. New keys run after the
// existing ones.
func (s *Set) Register(key string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handlers[key]; !ok {
		s.order = append(s.order, key)
	}
	s.handlers[key] = h
}

// Keys lists registered keys in application order.
func (s *Set) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Apply runs, in registration order, the handler of every key t carries.
func (s *Set) Apply(ctx context.Context, ev *domain.Event, reply domain.Reply, t *domain.Transition) error {
	if t == nil {
		return nil
	}
	values := valuesOf(t)

	s.mu.RLock()
	order := append([]string(nil), s.order...)
	handlers := make(map[string]Handler, len(s.handlers))
	for k, v := range s.handlers {
		handlers[k] = v
	}
	s.mu.RUnlock()

	for _, key := range order {
		v, ok := values[key]
		if !ok {
			continue
		}
		if err := handlers[key](ctx, ev, reply, v); err != nil {
			return fmt.Errorf("directive %q: %w", key, err)
		}
	}
	return nil
}

func valuesOf(t *domain.Transition) map[string]any {
	values := make(map[string]any, len(t.Directives)+3)
	for k, v := range t.Directives {
		values[k] = v
	}
	if len(t.Say) > 0 {
		values[Say] = t.Say
	}
	if len(t.Text) > 0 {
		values[Text] = t.Text
	}
	if len(t.Reply) > 0 {
		values[Reply] = t.Reply
	}
	return values
}

// Strings normalizes a directive value to a list of strings.
func Strings(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("expected strings, got %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected a string or list of strings, got %T", value)
	}
}

func renderInto(add func(domain.Reply, string)) Handler {
	return func(ctx context.Context, ev *domain.Event, reply domain.Reply, value any) error {
		keys, err := Strings(value)
		if err != nil {
			return err
		}
		if len(keys) > 0 && ev.Renderer == nil {
			return &domain.ConfigurationError{Reason: "no renderer configured"}
		}
		for _, key := range keys {
			out, err := ev.Renderer.RenderPath(ctx, key, ev)
			if err != nil {
				return err
			}
			add(reply, out)
		}
		return nil
	}
}

func plainInto(add func(domain.Reply, string)) Handler {
	return func(ctx context.Context, ev *domain.Event, reply domain.Reply, value any) error {
		lines, err := Strings(value)
		if err != nil {
			return err
		}
		for _, l := range lines {
			add(reply, l)
		}
		return nil
	}
}

// replyView renders a composite view: key.say becomes a statement and key.text
// a text. At least one of them must exist.
func replyView(ctx context.Context, ev *domain.Event, reply domain.Reply, value any) error {
	keys, err := Strings(value)
	if err != nil {
		return err
	}
	if len(keys) > 0 && ev.Renderer == nil {
		return &domain.ConfigurationError{Reason: "no renderer configured"}
	}
	for _, key := range keys {
		found := false
		for _, part := range []struct {
			suffix string
			add    func(string)
		}{
			{".say", reply.AddStatement},
			{".text", reply.AddText},
		} {
			out, err := ev.Renderer.RenderPath(ctx, key+part.suffix, ev)
			if errors.Is(err, domain.ErrMissingView) {
				continue
			}
			if err != nil {
				return err
			}
			part.add(out)
			found = true
		}
		if !found {
			return fmt.Errorf("%w: reply %q has neither say nor text", domain.ErrMissingView, key)
		}
	}
	return nil
}
