package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type entry struct {
	data      []byte
	counter   int64
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-process Store used when no redis address is configured
// and in tests. Expired entries are dropped lazily on access and swept by
// a janitor goroutine.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*entry
	done    chan struct{}
}

func NewMemory() *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		done:    make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *Memory) Close() {
	close(m.done)
}

func (m *Memory) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	e, ok := m.entries[key]
	if ok && e.expired(time.Now()) {
		delete(m.entries, key)
		ok = false
	}
	var data []byte
	if ok {
		data = e.data
	}
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(data, dest)
}

func (m *Memory) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	m.mu.Lock()
	m.entries[key] = &entry{data: data, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || e.expired(time.Now()) {
		e = &entry{expiresAt: time.Now().Add(ttl)}
		m.entries[key] = e
	}
	e.counter++
	return e.counter, nil
}

func (m *Memory) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, e := range m.entries {
				if e.expired(now) {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		}
	}
}
