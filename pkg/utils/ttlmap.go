package utils

import (
	"sync"
	"time"
)

// TTLMap provides a thread-safe map with expiring entries.
// Entries use the map's default TTL unless set with SetWithTTL.
type TTLMap[K comparable, V any] struct {
	mu      sync.RWMutex
	data    map[K]V
	expires map[K]time.Time
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewTTLMap creates a new TTLMap with the specified TTL duration.
func NewTTLMap[K comparable, V any](ttl time.Duration) *TTLMap[K, V] {
	m := &TTLMap[K, V]{
		data:    make(map[K]V),
		expires: make(map[K]time.Time),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	go m.cleanup()

	return m
}

// WithClock replaces the time source. Used by tests.
func (m *TTLMap[K, V]) WithClock(now func() time.Time) *TTLMap[K, V] {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = now
	return m
}

// Get retrieves a value from the map.
// Returns the value and whether it exists/is valid.
func (m *TTLMap[K, V]) Get(key K) (V, bool) {
	value, _, ok := m.GetWithExpiry(key)
	return value, ok
}

// GetWithExpiry retrieves a value and the instant it expires.
func (m *TTLMap[K, V]) GetWithExpiry(key K) (V, time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var zero V

	value, exists := m.data[key]
	if !exists {
		return zero, time.Time{}, false
	}

	// Check if expired
	expires := m.expires[key]
	if !m.now().Before(expires) {
		return zero, time.Time{}, false
	}

	return value, expires, true
}

// Set adds or updates a value in the map using the default TTL.
func (m *TTLMap[K, V]) Set(key K, value V) {
	m.SetWithTTL(key, value, m.ttl)
}

// SetWithTTL adds or updates a value that expires after ttl.
func (m *TTLMap[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	m.expires[key] = m.now().Add(ttl)
}

// Take removes a key and returns its value if it had not yet expired.
func (m *TTLMap[K, V]) Take(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V

	value, exists := m.data[key]
	expires := m.expires[key]

	delete(m.data, key)
	delete(m.expires, key)

	if !exists || !m.now().Before(expires) {
		return zero, false
	}

	return value, true
}

// Delete removes a key from the map.
func (m *TTLMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.expires, key)
}

// Len returns the number of entries, including expired ones not yet swept.
func (m *TTLMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}

// Close stops the cleanup goroutine.
func (m *TTLMap[K, V]) Close() {
	m.once.Do(func() {
		close(m.stop)
	})
}

// cleanup periodically removes expired entries.
func (m *TTLMap[K, V]) cleanup() {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep removes all expired entries.
func (m *TTLMap[K, V]) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, expires := range m.expires {
		if !now.Before(expires) {
			delete(m.data, key)
			delete(m.expires, key)
		}
	}
}
