package testutils

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/require"
)

// IntentEvent builds a fresh-session IntentRequest for intent.
func IntentEvent(sessionID, intent string) *domain.Event {
	return &domain.Event{
		Request: domain.Request{
			Type:   domain.RequestIntent,
			Intent: &domain.Intent{Name: intent},
			Locale: "en-US",
		},
		Session: domain.Session{ID: sessionID, New: true},
	}
}

// SessionEndedEvent builds a SessionEndedRequest with the given reason.
func SessionEndedEvent(sessionID, reason string) *domain.Event {
	return &domain.Event{
		Request: domain.Request{Type: domain.RequestSessionEnded, Reason: reason},
		Session: domain.Session{ID: sessionID},
	}
}

// NextTurn builds the event a transport would send after prev: same
// session, not new, carrying the attributes of prev.
func NextTurn(prev domain.Reply, sessionID, intent string) *domain.Event {
	ev := IntentEvent(sessionID, intent)
	ev.Session.New = false
	ev.Session.Attributes = prev.SessionAttributes()
	return ev
}

// TempDir returns an absolute temporary directory removed when t ends.
// It fails the test immediately on error.
func TempDir(t *testing.T) string {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")
	return absPath
}
