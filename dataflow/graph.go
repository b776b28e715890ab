// Package dataflow defines the core of the view-maintenance engine: signed
// row deltas, the node graph they flow through, stable node addressing
// across graph edits, and the Ingredient contract every operator satisfies.
package dataflow

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Node is one vertex of the dataflow graph: a name, an ordered schema, and
// the ingredient that implements its behavior. Base tables carry no
// ingredient; their updates enter the graph from outside.
type Node struct {
	name   string
	fields []string
	op     Ingredient
	addr   NodeAddress
}

func (n *Node) Name() string { return n.name }

// Fields returns the node's ordered column names.
func (n *Node) Fields() []string { return n.fields }

// Ingredient returns the node's operator, or nil for a base table.
func (n *Node) Ingredient() Ingredient { return n.op }

// Address returns the node's current address: local before commit, global
// after.
func (n *Node) Address() NodeAddress { return n.addr }

// Graph is the DAG of dataflow nodes. Nodes are added with provisional local
// addresses; Commit finalizes the structure, assigns global addresses and
// pushes the old→new mapping into every operator.
type Graph struct {
	nodes  []*Node
	byAddr map[NodeAddress]*Node
}

func NewGraph() *Graph {
	return &Graph{byAddr: make(map[NodeAddress]*Node)}
}

// AddBase adds a base-table node: a source of updates with no operator.
func (g *Graph) AddBase(name string, fields []string) NodeAddress {
	return g.add(&Node{name: name, fields: fields})
}

// AddNode adds a transformation node. The returned address is local and must
// be treated as provisional until Commit supplies the authoritative mapping.
func (g *Graph) AddNode(name string, fields []string, op Ingredient) NodeAddress {
	return g.add(&Node{name: name, fields: fields, op: op})
}

func (g *Graph) add(n *Node) NodeAddress {
	n.addr = LocalAddress(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.byAddr[n.addr] = n
	log.Trace().Str("node", n.name).Stringer("addr", n.addr).Msg("added graph node")
	return n.addr
}

// Node looks a node up by its current address.
func (g *Graph) Node(addr NodeAddress) (*Node, bool) {
	n, ok := g.byAddr[addr]
	return n, ok
}

// Fields returns the schema of the node at addr. Referencing an address not
// present in the graph is a programming error.
func (g *Graph) Fields(addr NodeAddress) []string {
	n, ok := g.byAddr[addr]
	if !ok {
		panic(fmt.Sprintf("dataflow: no node at address %s", addr))
	}
	return n.fields
}

// Nodes returns the graph's nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

func (g *Graph) Size() int { return len(g.nodes) }

// Commit finalizes the current structural edit. Every node still holding a
// local address is connected (its operator sees the final ancestor schemas),
// then promoted to a global address, and finally every operator in the graph
// is handed the old→new mapping so it can rewrite the addresses it stored.
//
// Commit returns the mapping it applied. Nodes committed by an earlier edit
// keep their addresses and do not appear in it.
func (g *Graph) Commit() map[NodeAddress]NodeAddress {
	token := commitToken()

	// Schemas are final now; let fresh operators cache what they need while
	// their stored ancestor addresses are still valid lookup keys.
	for _, n := range g.nodes {
		if n.op != nil && !n.addr.IsGlobal() {
			n.op.OnConnected(g)
		}
	}

	remap := make(map[NodeAddress]NodeAddress)
	for _, n := range g.nodes {
		if n.addr.IsGlobal() {
			continue
		}
		old := n.addr
		n.addr = GlobalAddress(old.Index())
		remap[old] = n.addr
		// The local address is dead from here on; drop it so a stale holder
		// misses instead of silently hitting the wrong node.
		delete(g.byAddr, old)
		g.byAddr[n.addr] = n
	}

	for _, n := range g.nodes {
		if n.op != nil {
			n.op.OnCommit(n.addr, remap)
		}
	}

	log.Debug().
		Str("migration", token).
		Int("nodes", len(g.nodes)).
		Int("remapped", len(remap)).
		Msg("committed graph edit")
	return remap
}

func commitToken() string {
	id, err := uuid.NewV7()
	if err != nil {
		// v7 generation only fails when the entropy source does; fall back
		// to the zero id rather than failing the commit.
		log.Err(err).Msg("error when creating a migration token")
		return uuid.Nil.String()
	}
	return id.String()
}
