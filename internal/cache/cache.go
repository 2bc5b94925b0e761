// Package cache provides the response cache used by the API layer for views
// that are identical across requests, such as regional flows for a fixed
// fiscal year.
package cache

import "sync"

// Cache is a string key/value store. Get reports whether the key was present.
type Cache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// Memory is the default in-process cache.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get returns the cached value for key.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Set stores value under key.
func (m *Memory) Set(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
