// Package domain runs the per-domain delivery loop: one worker goroutine
// that feeds incoming updates to operators one at a time per node, writes
// materialized output through to the state map, and forwards the result
// along the graph's edges in production order.
package domain

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/strata-db/strata/dataflow"
	"github.com/strata-db/strata/internal/logger"
	"github.com/strata-db/strata/state"
)

// Envelope is one update addressed to a node in the domain.
type Envelope struct {
	To  dataflow.NodeAddress
	Msg dataflow.Message
}

// Stats is a snapshot of the worker's counters.
type Stats struct {
	Delivered  uint64
	Suppressed uint64
	Dropped    uint64
}

// Worker owns the operators of one execution domain. Each operator instance
// is driven by exactly one worker, so OnInput never runs concurrently with
// itself and updates from a given ancestor arrive in the order they were
// produced.
type Worker struct {
	logger zerolog.Logger

	graph    *dataflow.Graph
	states   *state.Map
	children map[dataflow.NodeAddress][]dataflow.NodeAddress

	inbox chan Envelope
	wg    sync.WaitGroup

	delivered  atomic.Uint64
	suppressed atomic.Uint64
	dropped    atomic.Uint64
}

// NewWorker builds a worker over a committed graph. Edges are derived from
// each operator's ancestor list, so the graph must have been committed
// first; local addresses in an ancestor list would wire the domain to dead
// nodes.
func NewWorker(g *dataflow.Graph, states *state.Map, buffer int) *Worker {
	if buffer <= 0 {
		buffer = 64
	}
	w := &Worker{
		logger:   logger.GetLogger("domain"),
		graph:    g,
		states:   states,
		children: make(map[dataflow.NodeAddress][]dataflow.NodeAddress),
		inbox:    make(chan Envelope, buffer),
	}
	for _, n := range g.Nodes() {
		op := n.Ingredient()
		if op == nil {
			continue
		}
		for _, anc := range op.Ancestors() {
			w.children[anc] = append(w.children[anc], n.Address())
		}
	}
	return w
}

// Get implements dataflow.DomainNodes.
func (w *Worker) Get(addr dataflow.NodeAddress) (*dataflow.Node, bool) {
	return w.graph.Node(addr)
}

// Inject enqueues an update for delivery. It reports false when the inbox
// is full; delivery never blocks the producer.
func (w *Worker) Inject(to dataflow.NodeAddress, msg dataflow.Message) bool {
	select {
	case w.inbox <- Envelope{To: to, Msg: msg}:
		return true
	default:
		w.dropped.Add(1)
		w.logger.Warn().Stringer("to", to).Msg("inbox full, dropping update")
		return false
	}
}

// Start launches the delivery loop. It drains until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case env := <-w.inbox:
				w.deliver(env.To, env.Msg)
			}
		}
	}()
}

// Wait blocks until the delivery loop has exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// Deliver processes one envelope synchronously, cascading through every
// downstream node. Exposed for tests and for callers that drive the domain
// without the goroutine loop.
func (w *Worker) Deliver(to dataflow.NodeAddress, msg dataflow.Message) {
	w.deliver(to, msg)
}

func (w *Worker) deliver(to dataflow.NodeAddress, msg dataflow.Message) {
	node, ok := w.graph.Node(to)
	if !ok {
		w.dropped.Add(1)
		w.logger.Error().Stringer("to", to).Msg("update addressed to unknown node")
		return
	}

	out := msg.Data
	if op := node.Ingredient(); op != nil {
		out = op.OnInput(&msg, w, w.states)
		w.delivered.Add(1)
		if out == nil {
			// operator suppressed propagation
			w.suppressed.Add(1)
			return
		}
	}

	children := w.children[to]

	if st, ok := w.states.Writer(to); ok {
		rows := out
		if len(children) > 0 {
			// the state keeps the rows it is given, and a downstream
			// operator may rewrite the forwarded ones in place
			rows = out.Clone()
		}
		if err := st.ProcessUpdate(rows); err != nil {
			w.logger.Err(err).Stringer("node", to).Msg("error materializing an update")
		}
	}

	for i, child := range children {
		data := out
		if i < len(children)-1 {
			// every consumer but the last gets its own copy; updates are
			// single-owner and the receiver may rewrite rows in place
			data = out.Clone()
		}
		w.deliver(child, dataflow.Message{From: node.Address(), Data: data})
	}
}

// Stats returns a snapshot of the worker's counters.
func (w *Worker) Stats() Stats {
	return Stats{
		Delivered:  w.delivered.Load(),
		Suppressed: w.suppressed.Load(),
		Dropped:    w.dropped.Load(),
	}
}
