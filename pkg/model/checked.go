package model

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/schema"
)

// CheckedFactory hydrates a Map seeded with defaults and rejects persisted
// data whose declared fields have the wrong type.
func CheckedFactory(s schema.Schema, defaults map[string]any) ports.ModelFactory {
	return ports.ModelFactoryFunc(func(ctx context.Context, ev *domain.Event) (domain.Model, error) {
		m := Map{}
		for k, v := range defaults {
			m[k] = v
		}
		for k, v := range ev.ModelData() {
			if k == domain.KeyState {
				continue
			}
			m[k] = v
		}
		if err := s.Check(m); err != nil {
			return nil, fmt.Errorf("hydrate model: %w", err)
		}
		return m, nil
	})
}
