// Package state holds the materialized-state backends the engine caches
// node output in, and the per-domain map through which operators read it.
package state

import (
	"errors"
	"sync"

	"github.com/strata-db/strata/dataflow"
)

var (
	// ErrNotOpen is returned when a backend is used before Open or after
	// Close.
	ErrNotOpen = errors.New("state backend is not open")
)

// Writable is a state backend the engine can push record batches into.
// Positive records insert their row, negative records retract one matching
// occurrence.
type Writable interface {
	dataflow.State
	ProcessUpdate(u *dataflow.Update) error
}

// Map is the per-domain registry of materialized state, keyed by node
// address. It implements dataflow.StateMap for operator-side reads; the
// engine keeps the write side.
type Map struct {
	mu     sync.RWMutex
	states map[dataflow.NodeAddress]Writable
}

func NewMap() *Map {
	return &Map{states: make(map[dataflow.NodeAddress]Writable)}
}

// Set registers the state backend for a node.
func (m *Map) Set(addr dataflow.NodeAddress, st Writable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[addr] = st
}

// Get returns the read view of a node's materialized state.
func (m *Map) Get(addr dataflow.NodeAddress) (dataflow.State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[addr]
	if !ok {
		return nil, false
	}
	return st, true
}

// Writer returns the write side of a node's state, if any.
func (m *Map) Writer(addr dataflow.NodeAddress) (Writable, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[addr]
	return st, ok
}

// Remap rewrites the map's keys through a commit mapping, the same
// translation every operator applies to its stored addresses.
func (m *Map) Remap(mapping map[dataflow.NodeAddress]dataflow.NodeAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for old, to := range mapping {
		if st, ok := m.states[old]; ok {
			delete(m.states, old)
			m.states[to] = st
		}
	}
}
