// Package store persists daemon state as JSON values under string keys.
//
// Three backends are provided: SQLite (the default), a single JSON
// document written through afero, and an in-memory map. Open never fails:
// when the configured backend cannot be opened, or later fails to write,
// the daemon keeps running on memory and the problem is logged.
package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/warpdl/warplock/pkg/logger"
)

// Store is a key-value persistence layer with JSON-encoded values.
type Store interface {
	// Get decodes the value stored under key into dest. found is false,
	// and dest untouched, when the key has never been set.
	Get(key string, dest any) (found bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(key string, value any) error
	// Name identifies the backend ("sqlite", "json", "memory").
	Name() string
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
	BackendMemory = "memory"
)

// ErrUnknownBackend is returned for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Config selects and locates a backend.
type Config struct {
	Backend string
	// Dir holds the backend file when Path is empty.
	Dir string
	// Path overrides the backend file location.
	Path string
	// Fs is used by the json backend; nil means the OS filesystem.
	Fs afero.Fs
}

func (c Config) path(def string) string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(c.Dir, def)
}

// OpenBackend opens exactly the configured backend.
func OpenBackend(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendSQLite:
		return NewSQLite(cfg.path("warplock.db"))
	case BackendJSON:
		fs := cfg.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		return NewJSONFile(fs, cfg.path("schedules.json"))
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Open opens the configured backend wrapped so that write failures fall
// back to memory. durable is false when the backend could not be opened
// and state will not survive a restart.
func Open(cfg Config, l logger.Logger) (s *Fallback, durable bool) {
	primary, err := OpenBackend(cfg)
	if err != nil {
		l.Error("store: failed to open %s backend, using memory: %v", cfg.Backend, err)
		return WithFallback(NewMemory(), l), false
	}
	return WithFallback(primary, l), primary.Name() != BackendMemory
}
