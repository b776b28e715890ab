package state

import (
	"sync"

	"github.com/strata-db/strata/dataflow"
)

// Memory is an in-memory implementation of a materialized-state backend.
// Rows are held in one hash index per indexed column.
type Memory struct {
	mu      sync.RWMutex
	indexes map[int]map[dataflow.DataValue][]dataflow.Row
	rows    int
}

// NewMemory creates an in-memory backend indexed on the given columns.
func NewMemory(cols ...int) *Memory {
	m := &Memory{indexes: make(map[int]map[dataflow.DataValue][]dataflow.Row)}
	for _, c := range cols {
		m.AddIndex(c)
	}
	return m
}

// AddIndex adds a hash index over col. Must be called before any rows are
// written.
func (m *Memory) AddIndex(col int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indexes[col]; !ok {
		m.indexes[col] = make(map[dataflow.DataValue][]dataflow.Row)
	}
}

// ProcessUpdate applies a record batch: positive records insert their row
// into every index, negative records retract one matching occurrence.
func (m *Memory) ProcessUpdate(u *dataflow.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range u.Records {
		if r.Positive {
			m.insert(r.Row)
		} else {
			m.remove(r.Row)
		}
	}
	return nil
}

func (m *Memory) insert(row dataflow.Row) {
	for col, idx := range m.indexes {
		key := row[col]
		idx[key] = append(idx[key], row)
	}
	m.rows++
}

func (m *Memory) remove(row dataflow.Row) {
	removed := false
	for col, idx := range m.indexes {
		key := row[col]
		bucket := idx[key]
		for i, have := range bucket {
			if have.Equal(row) {
				idx[key] = append(bucket[:i], bucket[i+1:]...)
				removed = true
				break
			}
		}
	}
	if removed {
		m.rows--
	}
}

// Lookup returns the rows whose indexed column col equals key. The second
// return is false when col carries no index.
func (m *Memory) Lookup(col int, key dataflow.DataValue) ([]dataflow.Row, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indexes[col]
	if !ok {
		return nil, false
	}
	return idx[key], true
}

// Len returns the number of rows currently held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rows
}
