package docstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	docs map[string]Document

	// FailWrites, when non-nil, is returned by every Put.
	FailWrites error
	// FailReads, when non-nil, is returned by every Get.
	FailReads error
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Document)}
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, key string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return Document{}, m.FailReads
	}
	doc, ok := m.docs[key]
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.Value = append([]byte(nil), doc.Value...)
	return doc, nil
}

// Put implements Store.
func (m *Memory) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return 0, m.FailWrites
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.docs[key].Revision != expected {
		return 0, ErrRevisionMismatch
	}
	rev := expected + 1
	m.docs[key] = Document{Value: append([]byte(nil), value...), Revision: rev}
	return rev, nil
}

// Ping implements Store.
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// SetFailWrites sets FailWrites under the store's lock.
func (m *Memory) SetFailWrites(err error) {
	m.mu.Lock()
	m.FailWrites = err
	m.mu.Unlock()
}

// SetFailReads sets FailReads under the store's lock.
func (m *Memory) SetFailReads(err error) {
	m.mu.Lock()
	m.FailReads = err
	m.mu.Unlock()
}

// Raw overwrites key with value regardless of revision. For tests that need
// to plant corrupt data.
func (m *Memory) Raw(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = Document{Value: append([]byte(nil), value...), Revision: m.docs[key].Revision + 1}
}
