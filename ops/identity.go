// Package ops holds the concrete operators of the dataflow graph. Identity
// and Permute double as reference implementations of the Ingredient
// contract: everything heavier (joins, filters, aggregations) must satisfy
// the same lifecycle and provenance semantics.
package ops

import (
	"fmt"

	"github.com/strata-db/strata/dataflow"
)

// Identity applies the identity operation to the view. Since it does
// nothing, it is the simplest possible operator; it exists mostly as a
// reference against which the propagation machinery is validated.
type Identity struct {
	us  dataflow.NodeAddress
	src dataflow.NodeAddress
}

// NewIdentity constructs an identity operator over the given source node.
func NewIdentity(src dataflow.NodeAddress) *Identity {
	return &Identity{src: src}
}

func (i *Identity) Ancestors() []dataflow.NodeAddress {
	return []dataflow.NodeAddress{i.src}
}

func (i *Identity) ShouldMaterialize() bool {
	return false
}

func (i *Identity) WillQuery(_ bool) bool {
	return false
}

func (i *Identity) OnConnected(_ *dataflow.Graph) {}

func (i *Identity) OnCommit(us dataflow.NodeAddress, remap map[dataflow.NodeAddress]dataflow.NodeAddress) {
	i.us = us
	i.src = i.src.Remap(remap)
}

func (i *Identity) OnInput(m *dataflow.Message, _ dataflow.DomainNodes, _ dataflow.StateMap) *dataflow.Update {
	if m.From != i.src {
		panic(fmt.Sprintf("ops: identity %s got update from %s, expected ancestor %s", i.us, m.From, i.src))
	}
	return m.Data
}

func (i *Identity) SuggestIndexes(_ dataflow.NodeAddress) map[dataflow.NodeAddress]int {
	return nil
}

func (i *Identity) Resolve(col int) []dataflow.NodeColumn {
	return []dataflow.NodeColumn{{Node: i.src, Column: col}}
}

func (i *Identity) Description() string {
	return "≡"
}
