package store

import (
	"sync"

	"github.com/warpdl/warplock/pkg/logger"
)

// Fallback wraps a Store so that persistence failures never reach the
// caller. A key whose write fails is served from memory from then on.
type Fallback struct {
	primary Store
	mem     *Memory
	log     logger.Logger

	mu      sync.Mutex
	shadow  map[string]struct{}
	failing bool
}

// WithFallback wraps primary.
func WithFallback(primary Store, l logger.Logger) *Fallback {
	return &Fallback{
		primary: primary,
		mem:     NewMemory(),
		log:     l,
		shadow:  make(map[string]struct{}),
	}
}

// Get reads key from memory if an earlier write of it failed, otherwise
// from the primary store. Read errors are logged and reported as not found.
func (f *Fallback) Get(key string, dest any) (bool, error) {
	f.mu.Lock()
	_, shadowed := f.shadow[key]
	f.mu.Unlock()
	if shadowed {
		return f.mem.Get(key, dest)
	}
	found, err := f.primary.Get(key, dest)
	if err != nil {
		f.log.Error("store: read %s: %v", key, err)
		return false, nil
	}
	return found, nil
}

// Set writes to the primary store, falling back to memory on error.
func (f *Fallback) Set(key string, value any) error {
	err := f.primary.Set(key, value)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.shadow, key)
		if f.failing {
			f.log.Info("store: %s backend writable again", f.primary.Name())
			f.failing = false
		}
		return nil
	}
	if !f.failing {
		f.log.Warning("store: write %s to %s failed, keeping it in memory: %v", key, f.primary.Name(), err)
		f.failing = true
	}
	f.shadow[key] = struct{}{}
	return f.mem.Set(key, value)
}

// Name reports the primary backend.
func (f *Fallback) Name() string {
	return f.primary.Name()
}

// Degraded reports whether any key is currently served from memory.
func (f *Fallback) Degraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.shadow) > 0
}

func (f *Fallback) Close() error {
	return f.primary.Close()
}

var _ Store = (*Fallback)(nil)
