package localcache

import (
	"context"
	"sync"

	"github.com/mmdatafocus/dispatch_forms/models"
)

// Memory keeps serialized drafts in process memory.
type Memory struct {
	mu      sync.Mutex
	entries map[models.FormKind][]byte
}

func NewMemory() *Memory {
	return &Memory{entries: map[models.FormKind][]byte{}}
}

func (m *Memory) Load(_ context.Context, kind models.FormKind) (models.DraftRecord, bool) {
	m.mu.Lock()
	data, ok := m.entries[kind]
	m.mu.Unlock()
	if !ok {
		return models.DraftRecord{}, false
	}
	return decodeRecord(kind, data)
}

func (m *Memory) Save(_ context.Context, kind models.FormKind, rec models.DraftRecord) error {
	data, err := encodeRecord(kind, rec)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[kind] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, kind models.FormKind) error {
	m.mu.Lock()
	delete(m.entries, kind)
	m.mu.Unlock()
	return nil
}

// Raw returns the stored bytes for kind.
func (m *Memory) Raw(kind models.FormKind) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[kind]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

// Put stores raw bytes for kind, bypassing encoding.
func (m *Memory) Put(kind models.FormKind, data []byte) {
	m.mu.Lock()
	m.entries[kind] = append([]byte(nil), data...)
	m.mu.Unlock()
}
