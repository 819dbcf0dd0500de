package cli

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/adapters/sqlite"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// Store kinds accepted by OpenStore.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// StoreOptions select and configure a session store.
type StoreOptions struct {
	Kind string
	// URL is a directory (file), a database path (sqlite) or a redis:// URL.
	URL string
	// TTL expires redis sessions. Zero keeps them.
	TTL time.Duration
	// EncryptionKey, base64 encoded, seals attributes with AES-256-GCM.
	EncryptionKey string
	// Redact lists key patterns whose values are masked before storing.
	Redact []string
}

// Stores is an opened session store plus what the manager needs around it.
type Stores struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases the backend.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Manager creates a session manager over the store, distributed locking
// included when the backend supports it.
func (s *Stores) Manager(logger *slog.Logger) *session.Manager {
	opts := []session.Option{session.WithLogger(logger)}
	if s.Locker != nil {
		opts = append(opts, session.WithLocker(s.Locker))
	}
	return session.NewManager(s.Store, opts...)
}

// OpenStore opens the store described by opts.
func OpenStore(opts StoreOptions) (*Stores, error) {
	out := &Stores{}
	switch opts.Kind {
	case "", StoreMemory:
		out.Store = memory.NewStore()
	case StoreFile:
		dir := opts.URL
		if dir == "" {
			dir = ".parley/sessions"
		}
		out.Store = file.New(dir)
	case StoreSQLite:
		path := opts.URL
		if path == "" {
			path = "parley.db"
		}
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		out.Store, out.close = db, db.Close
	case StoreRedis:
		url := opts.URL
		if url == "" {
			url = "redis://localhost:6379/0"
		}
		redisOpts, err := backend.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		store := redis.NewFromClient(backend.NewClient(redisOpts), redis.WithTTL(opts.TTL))
		out.Store, out.close = store, store.Close
		out.Locker = redis.NewLocker(store.Client(), store.Prefix())
	default:
		return nil, fmt.Errorf("unknown store %q (want %s, %s, %s or %s)", opts.Kind, StoreMemory, StoreFile, StoreRedis, StoreSQLite)
	}

	var mws []middleware.Middleware
	if opts.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(opts.EncryptionKey)
		if err != nil {
			_ = out.Close()
			return nil, fmt.Errorf("encryption key is not base64: %w", err)
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		mws = append(mws, mw)
	}
	if len(opts.Redact) > 0 {
		mw, err := middleware.NewPIIMiddleware(opts.Redact)
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		// Masking is the outer layer; encryption sees masked values.
		mws = append([]middleware.Middleware{mw}, mws...)
	}
	out.Store = middleware.Wrap(out.Store, mws...)
	return out, nil
}
