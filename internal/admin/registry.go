package admin

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultIdleTimeout = 2 * time.Hour

// RegistryConfig describes how consoles are created and expired.
type RegistryConfig struct {
	Records     Records
	Logger      *zap.Logger
	Clock       func() time.Time
	IdleTimeout time.Duration
}

// Registry keeps one console per operator session.
type Registry struct {
	mu          sync.Mutex
	consoles    map[string]*Console
	records     Records
	logger      *zap.Logger
	clock       func() time.Time
	idleTimeout time.Duration
}

// NewRegistry constructs an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	return &Registry{
		consoles:    make(map[string]*Console),
		records:     cfg.Records,
		logger:      logger,
		clock:       clock,
		idleTimeout: idle,
	}
}

// Console returns the session's console, creating it on first use. created
// reports whether it is new, so the caller can load the initial tab.
func (r *Registry) Console(sessionID string) (console *Console, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	if existing, ok := r.consoles[sessionID]; ok {
		return existing, false
	}
	console = NewConsole(r.records, r.logger.With(zap.String("session_id", sessionID)), r.clock)
	r.consoles[sessionID] = console
	return console, true
}

// Drop forgets the session's console.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.consoles, sessionID)
}

// Len reports the number of live consoles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.consoles)
}

func (r *Registry) pruneLocked() {
	cutoff := r.clock().Add(-r.idleTimeout)
	for sessionID, console := range r.consoles {
		if console.idleSince().Before(cutoff) {
			delete(r.consoles, sessionID)
			r.logger.Debug("console pruned", zap.String("session_id", sessionID))
		}
	}
}
