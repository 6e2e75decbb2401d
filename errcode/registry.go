package errcode

import (
	"fmt"
	"sync"
)

// Registry error code registry (prevents code conflicts)
type Registry struct {
	mu     sync.RWMutex
	codes  map[int]string // code -> module:msgKey
	locked bool
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{codes: make(map[int]string)}
}

// Register registers err in the global registry.
// Panics when the code is already taken by another module:msgKey.
func Register(err *LayeredError) *LayeredError {
	return globalRegistry.Register(err)
}

// Register adds err to the registry
func (r *Registry) Register(err *LayeredError) *LayeredError {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		panic(fmt.Sprintf("registry is locked, cannot register error code: %d", err.Code()))
	}

	code := err.Code()
	key := fmt.Sprintf("%s:%s", err.Module(), err.MsgKey())

	if existingKey, exists := r.codes[code]; exists {
		if existingKey != key {
			panic(fmt.Sprintf(
				"error code conflict: code %d is already registered as %s, cannot register as %s",
				code, existingKey, key,
			))
		}
		// same code and key: idempotent
		return err
	}

	r.codes[code] = key
	return err
}

// Lock blocks further registrations, usually after startup
func (r *Registry) Lock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
}

// Unlock allows registrations again
func (r *Registry) Unlock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = false
}

// IsLocked reports whether the registry is locked
func (r *Registry) IsLocked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locked
}

// GetAll returns a copy of all registered codes
func (r *Registry) GetAll() map[int]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make(map[int]string, len(r.codes))
	for k, v := range r.codes {
		codes[k] = v
	}
	return codes
}

// Count returns the number of registered codes
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codes)
}

// GetAllRegisteredCodes returns all codes in the global registry
func GetAllRegisteredCodes() map[int]string {
	return globalRegistry.GetAll()
}

// LockGlobalRegistry locks the global registry
func LockGlobalRegistry() {
	globalRegistry.Lock()
}

// UnlockGlobalRegistry unlocks the global registry
func UnlockGlobalRegistry() {
	globalRegistry.Unlock()
}
