package dataflow

import "fmt"

// NodeAddress identifies a node in the dataflow graph. Addresses handed out
// while the graph is still being assembled are local and provisional; the
// commit step assigns global addresses and hands every operator an old→new
// mapping so it can rewrite anything it stored.
//
// The zero value is not a valid address.
type NodeAddress struct {
	idx    int
	global bool
	valid  bool
}

// LocalAddress builds a provisional, pre-commit address.
func LocalAddress(idx int) NodeAddress {
	return NodeAddress{idx: idx, valid: true}
}

// GlobalAddress builds a committed address.
func GlobalAddress(idx int) NodeAddress {
	return NodeAddress{idx: idx, global: true, valid: true}
}

func (a NodeAddress) IsGlobal() bool { return a.global }

func (a NodeAddress) IsValid() bool { return a.valid }

func (a NodeAddress) Index() int { return a.idx }

func (a NodeAddress) String() string {
	if !a.valid {
		return "?"
	}
	if a.global {
		return fmt.Sprintf("g%d", a.idx)
	}
	return fmt.Sprintf("l%d", a.idx)
}

// Remap translates the address through a commit mapping. Addresses absent
// from the mapping are untouched by the edit and returned unchanged, which
// also makes repeated application of the same mapping safe.
func (a NodeAddress) Remap(mapping map[NodeAddress]NodeAddress) NodeAddress {
	if to, ok := mapping[a]; ok {
		return to
	}
	return a
}
