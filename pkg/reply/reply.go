// Package reply provides the default, transport-neutral domain.Reply.
package reply

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

var _ domain.Reply = (*Reply)(nil)

// Reply accumulates the output of one turn and serializes to JSON for the
// HTTP, websocket and MCP transports.
type Reply struct {
	mu         sync.Mutex
	statements []string
	texts      []string
	directives map[string]any
	terminated bool
	attrs      map[string]any
	err        error
}

// New creates an empty reply.
func New() *Reply {
	return &Reply{}
}

// Factory is a ports.ReplyFactory producing *Reply.
func Factory(*domain.Event) domain.Reply {
	return New()
}

func (r *Reply) AddStatement(statement string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = append(r.statements, statement)
}

func (r *Reply) AddText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

// AddDirective records value under key. A second directive with the same key
// is appended to a list.
func (r *Reply) AddDirective(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.directives == nil {
		r.directives = make(map[string]any)
	}
	prev, ok := r.directives[key]
	if !ok {
		r.directives[key] = value
		return
	}
	if list, isList := prev.([]any); isList {
		r.directives[key] = append(list, value)
		return
	}
	r.directives[key] = []any{prev, value}
}

// Clear drops statements, texts and directives. Session state is kept.
func (r *Reply) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = nil
	r.texts = nil
	r.directives = nil
}

func (r *Reply) Terminate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminated = true
}

func (r *Reply) IsTerminated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminated
}

func (r *Reply) SetSessionAttributes(attrs map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attrs = attrs
}

// SessionAttributes never returns nil.
func (r *Reply) SessionAttributes() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attrs == nil {
		return map[string]any{}
	}
	return r.attrs
}

func (r *Reply) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Reply) Error() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Reply) Statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statements...)
}

func (r *Reply) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func (r *Reply) Directives() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]any, len(r.directives))
	for k, v := range r.directives {
		out[k] = v
	}
	return out
}

// Speech joins the statements the way a voice platform would speak them.
func (r *Reply) Speech() string {
	return strings.Join(r.Statements(), " ")
}

// View is the wire form of a Reply.
type View struct {
	Speech            string         `json:"speech,omitempty"`
	Statements        []string       `json:"statements,omitempty"`
	Texts             []string       `json:"texts,omitempty"`
	Directives        map[string]any `json:"directives,omitempty"`
	Terminated        bool           `json:"terminated"`
	SessionAttributes map[string]any `json:"session_attributes,omitempty"`
	Error             string         `json:"error,omitempty"`
}

// ViewOf builds the wire form of any domain.Reply.
func ViewOf(r domain.Reply) View {
	v := View{
		Statements:        r.Statements(),
		Texts:             r.Texts(),
		Directives:        r.Directives(),
		Terminated:        r.IsTerminated(),
		SessionAttributes: r.SessionAttributes(),
	}
	v.Speech = strings.Join(v.Statements, " ")
	if len(v.Directives) == 0 {
		v.Directives = nil
	}
	if err := r.Error(); err != nil {
		v.Error = err.Error()
	}
	return v
}

// MarshalJSON encodes the reply as a View.
func (r *Reply) MarshalJSON() ([]byte, error) {
	return json.Marshal(ViewOf(r))
}
