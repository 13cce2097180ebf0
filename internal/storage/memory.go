package storage

import (
	"errors"
	"sync"
)

// Memory is an in-process Gateway. Used by the memory backend and in
// tests; nothing survives the process.
type Memory struct {
	mu     sync.RWMutex
	docs   map[string]string
	closed bool
}

// NewMemory returns an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]string)}
}

func (m *Memory) Load(key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, errors.New("storage: memory gateway closed")
	}
	v, ok := m.docs[key]
	return v, ok, nil
}

func (m *Memory) Save(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("storage: memory gateway closed")
	}
	m.docs[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("storage: memory gateway closed")
	}
	delete(m.docs, key)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Len reports the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
