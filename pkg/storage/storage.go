// Package storage defines the durable key/value surface collections persist to.
package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrUnavailable is returned by backends that cannot be reached or refuse writes.
var ErrUnavailable = errors.New("durable storage unavailable")

// Durable is the read/write/delete contract for persisted collection records.
// Read reports found=false for a missing key; that is not an error.
type Durable interface {
	Read(ctx context.Context, key string) (value string, found bool, err error)
	Write(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// CollectionKey builds "<namespace>:<session>:<collection>", skipping empty parts.
func CollectionKey(namespace, sessionID, collection string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{namespace, sessionID, collection} {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ":")
}

// Memory is an in-process Durable used for local runs and tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]string
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]string)}
}

func (m *Memory) Read(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.records[key]
	return value, ok, nil
}

func (m *Memory) Write(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
