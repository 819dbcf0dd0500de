package ports

import "context"

// SessionStore persists the session attributes written by a turn.
//
// Transports whose platform round-trips attributes never need one; the HTTP,
// websocket and CLI transports use it to give clients a stateless protocol.
type SessionStore interface {
	// Save replaces the attributes stored for sessionID.
	Save(ctx context.Context, sessionID string, attrs map[string]any) error

	// Load returns the attributes stored for sessionID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (map[string]any, error)

	// Delete removes sessionID. Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the known session IDs.
	List(ctx context.Context) ([]string, error)
}
