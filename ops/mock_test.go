package ops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/dataflow"
	"github.com/strata-db/strata/state"
)

// mockNodes exposes graph nodes through the DomainNodes view.
type mockNodes struct {
	g *dataflow.Graph
}

func (m mockNodes) Get(addr dataflow.NodeAddress) (*dataflow.Node, bool) {
	return m.g.Node(addr)
}

// mockGraph wires one operator over one base table the way the engine would:
// add, connect, commit, then drive updates straight into OnInput.
type mockGraph struct {
	t      *testing.T
	g      *dataflow.Graph
	base   dataflow.NodeAddress
	us     dataflow.NodeAddress
	op     dataflow.Ingredient
	states *state.Map
}

func newMockGraph(t *testing.T) *mockGraph {
	return &mockGraph{t: t, g: dataflow.NewGraph(), states: state.NewMap()}
}

func (m *mockGraph) addBase(name string, fields ...string) dataflow.NodeAddress {
	m.base = m.g.AddBase(name, fields)
	return m.base
}

// setOp installs the operator and commits the graph, keeping the harness's
// stored addresses in sync the same way operators must.
func (m *mockGraph) setOp(name string, fields []string, op dataflow.Ingredient, materialized bool) {
	m.op = op
	m.us = m.g.AddNode(name, fields, op)

	remap := m.g.Commit()
	m.base = m.base.Remap(remap)
	m.us = m.us.Remap(remap)
	m.states.Remap(remap)

	if materialized {
		m.states.Set(m.us, state.NewMemory(0))
	}
}

func (m *mockGraph) nodes() dataflow.DomainNodes {
	return mockNodes{g: m.g}
}

// materializeBase gives the base table in-memory state indexed on cols and
// seeds it with rows.
func (m *mockGraph) materializeBase(rows []dataflow.Row, cols ...int) {
	st := state.NewMemory(cols...)
	records := make([]dataflow.Record, len(rows))
	for i, row := range rows {
		records[i] = dataflow.PositiveRecord(row)
	}
	require.NoError(m.t, st.ProcessUpdate(&dataflow.Update{Records: records}))
	m.states.Set(m.base, st)
}

// narrowOne pushes one update into the operator, optionally remembering the
// output in the operator's own state.
func (m *mockGraph) narrowOne(u *dataflow.Update, remember bool) *dataflow.Update {
	out := m.op.OnInput(&dataflow.Message{From: m.base, Data: u}, m.nodes(), m.states)
	if remember && out != nil {
		if st, ok := m.states.Writer(m.us); ok {
			require.NoError(m.t, st.ProcessUpdate(out))
		}
	}
	return out
}

func (m *mockGraph) narrowOneRow(row dataflow.Row, remember bool) *dataflow.Update {
	return m.narrowOne(dataflow.UpdateOf(dataflow.PositiveRecord(row)), remember)
}

func row(values ...any) dataflow.Row {
	out := make(dataflow.Row, len(values))
	for i, v := range values {
		switch tv := v.(type) {
		case int:
			out[i] = dataflow.IntValue(int64(tv))
		case string:
			out[i] = dataflow.TextValue(tv)
		default:
			out[i] = dataflow.NullValue()
		}
	}
	return out
}
