// Package loader builds conversation graphs from YAML or JSON files.
//
// A graph file lists root intents and the states they lead to:
//
//	name: hello-world
//	intents:
//	  LaunchIntent:
//	    to: likesVoxa?
//	    say: Launch.AskIfLikesVoxa
//	states:
//	  likesVoxa?:
//	    YesIntent: { flow: terminate, say: doesLikeVoxa }
//	    NoIntent:  { flow: terminate, say: doesNotLikeVoxa }
//
// Each transition is decoded with mapstructure into a domain.Transition; keys
// other than to, flow, say, text and reply are kept as directives. The "entry"
// key of a state holds its default transition.
package loader

import (
	"fmt"
	"os"
	"sort"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/model"
	"github.com/aretw0/parley/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Definition is a parsed graph file.
type Definition struct {
	Name   string   `yaml:"name" mapstructure:"name"`
	AppIDs []string `yaml:"app_ids" mapstructure:"app_ids"`

	// Model declares field types of the conversation model; Defaults seeds
	// new sessions.
	Model    map[string]string `yaml:"model" mapstructure:"model"`
	Defaults map[string]any    `yaml:"defaults" mapstructure:"defaults"`

	Intents map[string]*domain.Transition            `yaml:"-" mapstructure:"-"`
	States  map[string]map[string]*domain.Transition `yaml:"-" mapstructure:"-"`
}

// Declarer is what a Definition is applied to. *parley.App satisfies it.
type Declarer interface {
	OnState(name string, h domain.Handler, intents ...string) error
	OnIntent(intent string, h domain.Handler) error
}

// LoadFile reads and parses a graph file.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Parse decodes a graph document. JSON is accepted as a subset of YAML.
func Parse(data []byte) (*Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}

	def := &Definition{
		Intents: make(map[string]*domain.Transition),
		States:  make(map[string]map[string]*domain.Transition),
	}
	if err := mapstructure.Decode(raw, def); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}

	intents, err := section(raw, "intents")
	if err != nil {
		return nil, err
	}
	for intent, v := range intents {
		t, err := decodeTransition(v)
		if err != nil {
			return nil, fmt.Errorf("intents.%s: %w", intent, err)
		}
		def.Intents[intent] = t
	}

	states, err := section(raw, "states")
	if err != nil {
		return nil, err
	}
	for name, v := range states {
		entries, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("states.%s: expected a map of intents, got %T", name, v)
		}
		def.States[name] = make(map[string]*domain.Transition, len(entries))
		for intent, tv := range entries {
			t, err := decodeTransition(tv)
			if err != nil {
				return nil, fmt.Errorf("states.%s.%s: %w", name, intent, err)
			}
			def.States[name][intent] = t
		}
	}
	return def, nil
}

func section(raw map[string]any, key string) (map[string]any, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a map, got %T", key, v)
	}
	return m, nil
}

// decodeTransition accepts a map or nil (an empty yield).
func decodeTransition(v any) (*domain.Transition, error) {
	t := &domain.Transition{}
	if v == nil {
		return t, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           t,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, err
	}
	if t.Flow != "" && !t.Flow.Valid() {
		return nil, fmt.Errorf("unknown flow %q", t.Flow)
	}
	return t, nil
}

// Schema parses the model field types.
func (d *Definition) Schema() (schema.Schema, error) {
	return schema.ParseTypeMap(d.Model)
}

// Options returns the App options the file implies: the allow-list and, when
// a model is declared, a type-checked model factory.
func (d *Definition) Options() ([]parley.Option, error) {
	var opts []parley.Option
	if len(d.AppIDs) > 0 {
		opts = append(opts, parley.WithAppIDs(d.AppIDs...))
	}
	if len(d.Model) > 0 || len(d.Defaults) > 0 {
		s, err := d.Schema()
		if err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		if err := s.Check(d.Defaults); err != nil {
			return nil, fmt.Errorf("defaults: %w", err)
		}
		opts = append(opts, parley.WithModel(model.CheckedFactory(s, d.Defaults)))
	}
	return opts, nil
}

// Apply declares every intent and state on app. Names are applied in sorted
// order so errors are reproducible.
func (d *Definition) Apply(app Declarer) error {
	for _, intent := range sortedKeys(d.Intents) {
		if err := app.OnIntent(intent, domain.Literal(*d.Intents[intent])); err != nil {
			return fmt.Errorf("intent %s: %w", intent, err)
		}
	}
	for _, name := range sortedKeys(d.States) {
		entries := d.States[name]
		for _, intent := range sortedKeys(entries) {
			h := domain.Literal(*entries[intent])
			var err error
			if intent == domain.StateEntry {
				err = app.OnState(name, h)
			} else {
				err = app.OnState(name, h, intent)
			}
			if err != nil {
				return fmt.Errorf("state %s.%s: %w", name, intent, err)
			}
		}
	}
	return nil
}

// Build creates an App from the definition, applies it and validates the graph.
// opts are applied after the ones the file implies.
func (d *Definition) Build(opts ...parley.Option) (*parley.App, error) {
	fileOpts, err := d.Options()
	if err != nil {
		return nil, err
	}
	app, err := parley.New(append(fileOpts, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := d.Apply(app); err != nil {
		return nil, err
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
