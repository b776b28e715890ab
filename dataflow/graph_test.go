package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probeOp records the lifecycle calls the graph makes on it.
type probeOp struct {
	src       NodeAddress
	us        NodeAddress
	connected int
	committed int
	colsSeen  int
}

func (p *probeOp) Ancestors() []NodeAddress { return []NodeAddress{p.src} }
func (p *probeOp) ShouldMaterialize() bool  { return false }
func (p *probeOp) WillQuery(_ bool) bool    { return false }
func (p *probeOp) Description() string      { return "probe" }
func (p *probeOp) Resolve(col int) []NodeColumn {
	return []NodeColumn{{Node: p.src, Column: col}}
}
func (p *probeOp) SuggestIndexes(_ NodeAddress) map[NodeAddress]int {
	return nil
}

func (p *probeOp) OnConnected(g *Graph) {
	p.connected++
	p.colsSeen = len(g.Fields(p.src))
}

func (p *probeOp) OnCommit(us NodeAddress, remap map[NodeAddress]NodeAddress) {
	p.committed++
	p.us = us
	p.src = p.src.Remap(remap)
}

func (p *probeOp) OnInput(m *Message, _ DomainNodes, _ StateMap) *Update {
	return m.Data
}

func TestGraphAddressesAreLocalUntilCommit(t *testing.T) {
	g := NewGraph()
	base := g.AddBase("source", []string{"x", "y"})
	assert.False(t, base.IsGlobal())

	remap := g.Commit()
	require.Contains(t, remap, base)
	assert.True(t, remap[base].IsGlobal())
}

func TestGraphCommitConnectsBeforeRemapping(t *testing.T) {
	g := NewGraph()
	base := g.AddBase("source", []string{"x", "y", "z"})
	op := &probeOp{src: base}
	g.AddNode("probe", []string{"x", "y", "z"}, op)

	remap := g.Commit()

	assert.Equal(t, 1, op.connected)
	assert.Equal(t, 3, op.colsSeen, "schema must be visible while the stored ancestor address is still live")
	assert.Equal(t, 1, op.committed)
	assert.Equal(t, remap[base], op.src)
	assert.True(t, op.us.IsGlobal())
}

func TestGraphCommitDropsLocalAddresses(t *testing.T) {
	g := NewGraph()
	base := g.AddBase("source", []string{"x"})

	remap := g.Commit()

	_, ok := g.Node(base)
	assert.False(t, ok, "stale local address must miss, not alias the committed node")
	n, ok := g.Node(remap[base])
	require.True(t, ok)
	assert.Equal(t, "source", n.Name())
}

func TestGraphSecondCommitOnlyMapsNewNodes(t *testing.T) {
	g := NewGraph()
	base := g.AddBase("source", []string{"x", "y"})
	first := g.Commit()
	base = base.Remap(first)

	op := &probeOp{src: base}
	added := g.AddNode("probe", []string{"x", "y"}, op)
	second := g.Commit()

	assert.NotContains(t, second, base, "committed nodes keep their addresses")
	require.Contains(t, second, added)
	assert.Equal(t, 1, op.connected)
	assert.Equal(t, base, op.src, "an ancestor absent from the mapping is untouched")
}

func TestGraphFieldsPanicsOnUnknownAddress(t *testing.T) {
	g := NewGraph()
	assert.Panics(t, func() {
		g.Fields(GlobalAddress(7))
	})
}

func TestAddressRemapKeepsUnmappedAddresses(t *testing.T) {
	a := GlobalAddress(3)
	assert.Equal(t, a, a.Remap(map[NodeAddress]NodeAddress{}))

	to := GlobalAddress(9)
	assert.Equal(t, to, a.Remap(map[NodeAddress]NodeAddress{a: to}))
}

func TestAddressDisplay(t *testing.T) {
	assert.Equal(t, "l2", LocalAddress(2).String())
	assert.Equal(t, "g2", GlobalAddress(2).String())
	assert.NotEqual(t, LocalAddress(2), GlobalAddress(2))
}
