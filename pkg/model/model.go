// Package model provides default conversation models and their factories.
//
// Map keeps the model as plain attributes. Typed[T] hydrates a developer
// struct from the persisted data with mapstructure, so handlers work with
// fields instead of map lookups.
package model

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// Map is a Model backed by a plain map.
type Map map[string]any

// Serialize returns a shallow copy of m.
func (m Map) Serialize(context.Context) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

// MapFactory hydrates a Map from the previous turn's data.
func MapFactory() ports.ModelFactory {
	return ports.ModelFactoryFunc(func(ctx context.Context, ev *domain.Event) (domain.Model, error) {
		m := Map{}
		for k, v := range ev.ModelData() {
			if k == domain.KeyState {
				continue
			}
			m[k] = v
		}
		return m, nil
	})
}

// Typed is a Model wrapping a developer-defined struct.
// Fields are mapped with `mapstructure` tags.
type Typed[T any] struct {
	Value T
}

// Serialize encodes Value into a map.
func (t *Typed[T]) Serialize(context.Context) (map[string]any, error) {
	out := map[string]any{}
	if err := mapstructure.Decode(t.Value, &out); err != nil {
		return nil, fmt.Errorf("serialize model: %w", err)
	}
	return out, nil
}

// TypedFactory hydrates a Typed[T] from the previous turn's data. init
// provides the zero value for new sessions and may be nil.
//
// Decoding is weakly typed so JSON numbers (float64) land in int fields.
func TypedFactory[T any](init func() T) ports.ModelFactory {
	return ports.ModelFactoryFunc(func(ctx context.Context, ev *domain.Event) (domain.Model, error) {
		var v T
		if init != nil {
			v = init()
		}
		data := ev.ModelData()
		if len(data) == 0 {
			return &Typed[T]{Value: v}, nil
		}

		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &v,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(data); err != nil {
			return nil, fmt.Errorf("hydrate model: %w", err)
		}
		return &Typed[T]{Value: v}, nil
	})
}

// From returns the typed model attached to ev, or false if it is not a Typed[T].
func From[T any](ev *domain.Event) (*T, bool) {
	if ev == nil {
		return nil, false
	}
	t, ok := ev.Model.(*Typed[T])
	if !ok {
		return nil, false
	}
	return &t.Value, true
}
