package dataflow

// NodeColumn names one column of one node, used to express column
// provenance.
type NodeColumn struct {
	Node   NodeAddress
	Column int
}

// Ingredient is the contract every transformation node implements. The
// engine treats operators uniformly through it: the planner calls the
// read-only methods to decide materialization and indexing, the commit
// subsystem calls OnCommit after every structural graph edit, and the
// scheduler drives the OnInput hot path.
//
// An ingredient owns only its configuration (ancestor addresses, column
// specs); it holds no row data across calls. Precondition violations — an
// update arriving from a non-ancestor, a malformed column spec — are
// programming errors and panic rather than being reported, since carrying on
// would push corrupted rows into every downstream view.
type Ingredient interface {
	// Ancestors declares the upstream dependencies. The result is stable
	// for the operator's lifetime except across OnCommit, which may rewrite
	// the addresses.
	Ancestors() []NodeAddress

	// ShouldMaterialize reports whether this node's output should be cached
	// by the engine.
	ShouldMaterialize() bool

	// WillQuery reports whether the operator needs read access to
	// materialized state during OnInput, given the materialization decision
	// the planner is about to make for this node.
	WillQuery(materialized bool) bool

	// OnConnected fires once, when all ancestor schemas are final. The graph
	// may only be consulted here.
	OnConnected(g *Graph)

	// OnCommit fires once per structural graph edit. us is the node's own
	// final address; every address the operator has stored must be rewritten
	// through remap. A stale address silently reads or writes the wrong
	// node, so this is the one hook no operator may shortcut.
	OnCommit(us NodeAddress, remap map[NodeAddress]NodeAddress)

	// OnInput transforms one incoming update. Returning nil suppresses
	// propagation. The message must come from one of the current ancestors.
	// Lookups through nodes/states are synchronous, in-memory reads; OnInput
	// never blocks.
	OnInput(m *Message, nodes DomainNodes, states StateMap) *Update

	// SuggestIndexes tells the planner which columns of which nodes should
	// be indexed to serve the lookups this operator expects. An empty map
	// means nothing to report, not failure.
	SuggestIndexes(us NodeAddress) map[NodeAddress]int

	// Resolve maps one output column to the upstream (node, column) pairs it
	// aliases. It returns nil only when no single upstream source exists,
	// e.g. for a computed column.
	Resolve(col int) []NodeColumn

	// Description is a short human-readable label for diagnostics.
	Description() string
}

// QueryThrougher is implemented by operators that can answer lookups on
// their output without being materialized themselves, by re-deriving rows
// from upstream state. The planner consults it for nodes whose WillQuery
// contract requires read access.
type QueryThrougher interface {
	// QueryThrough looks up rows whose output column col equals key. The
	// boolean reports whether the lookup could be served (upstream state
	// present and indexed).
	QueryThrough(col int, key DataValue, nodes DomainNodes, states StateMap) ([]Row, bool)
}
