package loader

import (
	"github.com/invopop/jsonschema"
)

// fileDoc mirrors the graph file layout for schema generation only.
type fileDoc struct {
	Name     string                              `json:"name,omitempty" jsonschema:"description=Application name"`
	AppIDs   []string                            `json:"app_ids,omitempty" jsonschema:"description=Accepted application ids; empty accepts all"`
	Model    map[string]string                   `json:"model,omitempty" jsonschema:"description=Model field types (string/int/float/bool/any or [type])"`
	Defaults map[string]any                      `json:"defaults,omitempty" jsonschema:"description=Model values for new sessions"`
	Intents  map[string]transitionDoc            `json:"intents,omitempty" jsonschema:"description=Root intents; each becomes a state of the same name"`
	States   map[string]map[string]transitionDoc `json:"states,omitempty" jsonschema:"description=Transitions by state then intent; the entry key is the default"`
}

type transitionDoc struct {
	To    string `json:"to,omitempty" jsonschema:"description=Target state"`
	Flow  string `json:"flow,omitempty" jsonschema:"enum=yield,enum=continue,enum=terminate,default=yield"`
	Say   any    `json:"say,omitempty" jsonschema:"oneof_type=string;array,description=View keys rendered as statements"`
	Text  any    `json:"text,omitempty" jsonschema:"oneof_type=string;array,description=View keys rendered as texts"`
	Reply any    `json:"reply,omitempty" jsonschema:"oneof_type=string;array,description=Composite views with say and text parts"`
	SayP  any    `json:"sayp,omitempty" jsonschema:"oneof_type=string;array,description=Plain statements"`
	TextP any    `json:"textp,omitempty" jsonschema:"oneof_type=string;array,description=Plain texts"`
}

// JSONSchema describes graph files. Transitions allow extra keys for custom
// directives.
func JSONSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	s := r.Reflect(&fileDoc{})
	s.Title = "parley graph"
	return s
}
