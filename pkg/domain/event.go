package domain

// Intent is the already-classified user intention carried by an IntentRequest.
type Intent struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// Request describes what the transport received.
type Request struct {
	Type   string  `json:"type"`
	Intent *Intent `json:"intent,omitempty"`
	Locale string  `json:"locale,omitempty"`

	// Reason and Error are only set on SessionEndedRequest.
	Reason string         `json:"reason,omitempty"`
	Error  map[string]any `json:"error,omitempty"`
}

// Session is the opaque conversation bag round-tripped by the transport.
type Session struct {
	ID         string         `json:"id"`
	New        bool           `json:"new"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// EventContext identifies the calling application.
type EventContext struct {
	ApplicationID string `json:"application_id,omitempty"`
}

// User identifies the end user.
type User struct {
	ID string `json:"id,omitempty"`
}

// Event is one inbound turn.
// Model and Renderer are attached by the pipeline and never serialized.
type Event struct {
	ID       string       `json:"id,omitempty"`
	Platform string       `json:"platform,omitempty"`
	Request  Request      `json:"request"`
	Session  Session      `json:"session"`
	Context  EventContext `json:"context"`
	User     User         `json:"user"`

	Model    Model    `json:"-"`
	Renderer Renderer `json:"-"`
}

// IntentName returns the intent of the request, or "" if none.
func (e *Event) IntentName() string {
	if e == nil || e.Request.Intent == nil {
		return ""
	}
	return e.Request.Intent.Name
}

// Locale returns the request locale.
func (e *Event) Locale() string {
	if e == nil {
		return ""
	}
	return e.Request.Locale
}

// PersistedState returns the state name stored by the previous turn
// (session.attributes.model._state), or "" when absent.
func (e *Event) PersistedState() string {
	if e == nil || e.Session.Attributes == nil {
		return ""
	}
	data, ok := e.Session.Attributes[KeyModel].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := data[KeyState].(string)
	return name
}

// ModelData returns the serialized model stored by the previous turn, or nil.
func (e *Event) ModelData() map[string]any {
	if e == nil || e.Session.Attributes == nil {
		return nil
	}
	data, _ := e.Session.Attributes[KeyModel].(map[string]any)
	return data
}

// NormalizeLaunch rewrites a LaunchRequest into an IntentRequest for
// LaunchIntent, the way voice platforms surface "open the app".
// It reports whether the event changed.
func (e *Event) NormalizeLaunch() bool {
	if e == nil || e.Request.Type != RequestLaunch {
		return false
	}
	e.Request.Type = RequestIntent
	e.Request.Intent = &Intent{Name: IntentLaunch}
	return true
}
