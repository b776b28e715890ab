package ops

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/strata-db/strata/dataflow"
)

// Permute permutes or omits columns from its source node. The emit spec
// lists, in output order, which source column each output column aliases; a
// nil spec means all columns pass through unchanged. Each source index may
// be emitted at most once; repeating one leaves the permutation undefined.
type Permute struct {
	us   dataflow.NodeAddress
	emit []int
	src  dataflow.NodeAddress
	cols int
}

// NewPermute constructs a permuter over the given source node.
func NewPermute(src dataflow.NodeAddress, emit []int) *Permute {
	var spec []int
	if emit != nil {
		spec = make([]int, len(emit))
		copy(spec, emit)
	}
	return &Permute{emit: spec, src: src}
}

func (p *Permute) resolveCol(col int) int {
	if p.emit == nil {
		return col
	}
	return p.emit[col]
}

// permute rewrites row to hold exactly the emitted columns in emit order,
// using only pairwise swaps, then truncates it to the emitted length.
//
// The emit spec is treated as a permutation-with-drops over 0..cols: each
// unsettled cycle i -> emit[i] -> emit[emit[i]] -> ... is walked with swaps,
// marking every visited position settled so nothing is processed twice.
// Because each source index is emitted at most once, the value being cycled
// can ride along in the swaps instead of being copied out first.
func (p *Permute) permute(row dataflow.Row) dataflow.Row {
	if p.emit == nil {
		return row
	}
	emit := p.emit
	done := make([]bool, p.cols)
	for start := 0; start < len(emit); start++ {
		if done[start] {
			// settled by an earlier cycle
			continue
		}
		if emit[start] == start {
			// already in place
			continue
		}
		i := start
		j := i
		for {
			done[j] = true
			if j >= len(emit) {
				// The walk has pushed the value originally at position i out
				// past the emitted prefix. It cannot stay unexamined: some
				// other output position may still want it. Search for the
				// output k that emits i; if one exists, hand the value over
				// and continue the walk as though it had started at k. If
				// none does, the value belongs to a dropped column and the
				// cycle is finished.
				swapped := false
				for k := i + 1; k < len(emit); k++ {
					if emit[k] == i {
						done[k] = true
						row[k], row[j] = row[j], row[k]
						i = k
						swapped = true
						break
					}
				}
				if !swapped {
					break
				}
			} else if emit[j] != i {
				// Another column is supposed to sit at j. Pull it in, then go
				// fill the hole this swap left behind.
				row[j], row[emit[j]] = row[emit[j]], row[j]
				j = emit[j]
			} else {
				// The cycle's own value is due here, and the swaps along the
				// way already delivered it. Cycle complete.
				break
			}
		}
	}
	return row[:len(emit)]
}

func (p *Permute) Ancestors() []dataflow.NodeAddress {
	return []dataflow.NodeAddress{p.src}
}

func (p *Permute) ShouldMaterialize() bool {
	return false
}

// WillQuery is true exactly when the node itself will not be materialized:
// an unmaterialized projection may still be queried through by a downstream
// consumer, which it can only serve by re-deriving rows from upstream state.
func (p *Permute) WillQuery(materialized bool) bool {
	return !materialized
}

func (p *Permute) OnConnected(g *dataflow.Graph) {
	p.cols = len(g.Fields(p.src))
}

func (p *Permute) OnCommit(us dataflow.NodeAddress, remap map[dataflow.NodeAddress]dataflow.NodeAddress) {
	p.us = us
	p.src = p.src.Remap(remap)

	// Collapse emit specs that ask for no permutation at all, so updates
	// skip the permute walk entirely: a no-op projection must cost nothing.
	if p.emit != nil && len(p.emit) == p.cols {
		sequential := true
		for i, j := range p.emit {
			if i != j {
				sequential = false
				break
			}
		}
		if sequential {
			p.emit = nil
		}
	}
}

func (p *Permute) OnInput(m *dataflow.Message, _ dataflow.DomainNodes, _ dataflow.StateMap) *dataflow.Update {
	if m.From != p.src {
		panic(fmt.Sprintf("ops: permute %s got update from %s, expected ancestor %s", p.us, m.From, p.src))
	}

	if p.emit != nil {
		for i := range m.Data.Records {
			m.Data.Records[i].Row = p.permute(m.Data.Records[i].Row)
		}
	}
	return m.Data
}

func (p *Permute) SuggestIndexes(_ dataflow.NodeAddress) map[dataflow.NodeAddress]int {
	return nil
}

func (p *Permute) Resolve(col int) []dataflow.NodeColumn {
	return []dataflow.NodeColumn{{Node: p.src, Column: p.resolveCol(col)}}
}

// QueryThrough answers a lookup on an output column by translating it
// through the emit spec, probing the source node's materialized state, and
// projecting the matching rows. Rows are gathered into fresh slices; state
// rows are shared and must not be rewritten in place.
func (p *Permute) QueryThrough(col int, key dataflow.DataValue, _ dataflow.DomainNodes, states dataflow.StateMap) ([]dataflow.Row, bool) {
	st, ok := states.Get(p.src)
	if !ok {
		return nil, false
	}
	rows, ok := st.Lookup(p.resolveCol(col), key)
	if !ok {
		return nil, false
	}
	if p.emit == nil {
		return rows, true
	}
	out := make([]dataflow.Row, len(rows))
	for i, r := range rows {
		projected := make(dataflow.Row, len(p.emit))
		for j, e := range p.emit {
			projected[j] = r[e]
		}
		out[i] = projected
	}
	return out, true
}

func (p *Permute) Description() string {
	if p.emit == nil {
		return "π[*]"
	}
	cols := make([]string, len(p.emit))
	for i, e := range p.emit {
		cols[i] = strconv.Itoa(e)
	}
	return "π[" + strings.Join(cols, ", ") + "]"
}
