package history

import (
	"context"
	"sync"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/analysis"
)

const defaultCapacity = 200

// Memory keeps the most recent analyses in process. Safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	capacity int
	records  []*analysis.Record
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Memory{capacity: capacity}
}

func (m *Memory) Save(_ context.Context, r *analysis.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.records = append(m.records, &cp)
	if over := len(m.records) - m.capacity; over > 0 {
		m.records = append([]*analysis.Record(nil), m.records[over:]...)
	}
	return nil
}

// Latest returns up to limit records, newest first.
func (m *Memory) Latest(_ context.Context, limit int) ([]*analysis.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	out := make([]*analysis.Record, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.records[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (*analysis.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].ID == id {
			cp := *m.records[i]
			return &cp, nil
		}
	}
	return nil, analysis.ErrRecordNotFound
}
