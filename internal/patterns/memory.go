package patterns

import (
	"context"
	"sync"
)

// MemoryBackend keeps records in process memory.
type MemoryBackend struct {
	mu      sync.Mutex
	records map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: map[string][]byte{}}
}

func (m *MemoryBackend) GetRecord(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBackend) PutRecord(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = append([]byte(nil), data...)
	return nil
}
