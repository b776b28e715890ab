package dataflow

// State is read access to one node's materialized rows. Lookups are
// synchronous and in-memory; the only miss mode is "not found".
type State interface {
	// Lookup returns the rows whose value in the indexed column equals key.
	// The second return is false when the column is not indexed.
	Lookup(col int, key DataValue) ([]Row, bool)
}

// StateMap is the per-domain view over the materialized state of sibling
// nodes, passed to an operator only for the duration of one OnInput call.
type StateMap interface {
	Get(addr NodeAddress) (State, bool)
}

// DomainNodes is the per-domain view over sibling nodes themselves, for
// operators that need to reach an upstream node's schema or behavior while
// processing an input.
type DomainNodes interface {
	Get(addr NodeAddress) (*Node, bool)
}
