package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a session.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes turns of the same session and keeps their attributes in
// a SessionStore. Unused locks are garbage collected by reference counting.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager over store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu, then call release after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Key is the store key of sessionID within an application. An empty appID
// leaves sessionID as is.
func Key(appID, sessionID string) string {
	if appID == "" {
		return sessionID
	}
	return appID + "/" + sessionID
}

// Turn runs one turn of ev against exec while holding the session lock.
//
// Stored attributes are injected into the event unless the caller already
// sent some. A session with nothing stored is marked New. The reply's
// attributes are saved afterwards, except after a failed turn, which leaves
// the stored session as it was. A terminated reply or a SessionEndedRequest
// deletes the session.
func (m *Manager) Turn(ctx context.Context, ev *domain.Event, exec ports.TurnExecutor, newReply ports.ReplyFactory) (domain.Reply, error) {
	return m.TurnKey(ctx, ev.Session.ID, ev, exec, newReply)
}

// TurnKey is Turn with the session stored under key instead of the event's
// session id. Transports use it to keep the sessions of different
// applications apart.
func (m *Manager) TurnKey(ctx context.Context, key string, ev *domain.Event, exec ports.TurnExecutor, newReply ports.ReplyFactory) (domain.Reply, error) {
	if key == "" {
		return nil, errors.New("session id is required")
	}
	sessionID := key

	var reply domain.Reply
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if len(ev.Session.Attributes) == 0 {
			attrs, err := m.store.Load(ctx, sessionID)
			switch {
			case errors.Is(err, domain.ErrSessionNotFound):
				ev.Session.New = true
				ev.Session.Attributes = map[string]any{}
			case err != nil:
				return fmt.Errorf("load session: %w", err)
			default:
				ev.Session.Attributes = attrs
			}
		}

		reply = exec.Execute(ctx, ev, newReply)

		if reply.IsTerminated() || ev.Request.Type == domain.RequestSessionEnded {
			m.logger.Debug("session ended", "session_id", sessionID)
			if err := m.store.Delete(ctx, sessionID); err != nil {
				return fmt.Errorf("delete ended session: %w", err)
			}
			return nil
		}
		if reply.Error() != nil {
			m.logger.Debug("failed turn, stored session kept", "session_id", sessionID, "err", reply.Error())
			return nil
		}
		if err := m.store.Save(ctx, sessionID, reply.SessionAttributes()); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		return nil
	})
	return reply, err
}

// Load retrieves the attributes of a session.
func (m *Manager) Load(ctx context.Context, sessionID string) (map[string]any, error) {
	var attrs map[string]any
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		attrs, err = m.store.Load(ctx, sessionID)
		return err
	})
	return attrs, err
}

// Save persists the attributes of a session.
func (m *Manager) Save(ctx context.Context, sessionID string, attrs map[string]any) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, attrs)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes fn while holding the local and, if configured, the
// distributed lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// ctx may already be canceled; the unlock must still reach the backend.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
