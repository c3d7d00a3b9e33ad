// auditcfg/pkg/config/registry.go

package config

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Check is run against a freshly compiled snapshot before it is published.
type Check func(*Snapshot) error

// Registry holds the published snapshot. Loads are serialized; readers see
// either the previous snapshot or the new one, never a partial load.
type Registry struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	logger  zerolog.Logger
	checks  []Check
}

func NewRegistry(logger zerolog.Logger, checks ...Check) *Registry {
	return &Registry{logger: logger, checks: checks}
}

// Current returns the published snapshot, or nil before the first load.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Version counts successful publishes.
func (r *Registry) Version() uint64 {
	return r.version.Load()
}

// Load compiles text and publishes the result. On failure the previously
// published snapshot stays in effect.
func (r *Registry) Load(text string) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := compileText(r.logger, text)
	if err != nil {
		return nil, err
	}
	return r.publish(snap)
}

// LoadFile is Load for a policy file.
func (r *Registry) LoadFile(path string) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := compileFile(r.logger, path)
	if err != nil {
		return nil, err
	}
	return r.publish(snap)
}

func (r *Registry) publish(snap *Snapshot) (*Snapshot, error) {
	for _, check := range r.checks {
		if err := check(snap); err != nil {
			return nil, err
		}
	}
	r.current.Store(snap)
	v := r.version.Add(1)
	r.logger.Info().Uint64("version", v).Int("rules", len(snap.Rules)).Str("source", snap.Source).Msg("Published audit configuration")
	return snap, nil
}
