package components

import (
	"github.com/valisehq/valise/internal/core"
)

// NodeKind discriminates the variants a tree node can hold.
type NodeKind int

const (
	NodeCollection NodeKind = iota
	NodeEndpoint
	NodeVariable
)

// Node is a tagged union over the entity kinds the tree can display. Exactly
// one of the pointers is set, matching Kind.
type Node struct {
	Kind       NodeKind
	Collection *core.Collection
	Endpoint   *core.Endpoint
	Variable   *core.KeyValueItem
}

// Label returns the display text for the node.
func (n Node) Label() string {
	switch n.Kind {
	case NodeCollection:
		if n.Collection != nil {
			return n.Collection.Name()
		}
	case NodeEndpoint:
		if n.Endpoint != nil {
			return n.Endpoint.Name()
		}
	case NodeVariable:
		if n.Variable != nil {
			return n.Variable.Name
		}
	}
	return ""
}

// Bound reports whether the node still references a live entity.
func (n Node) Bound() bool {
	switch n.Kind {
	case NodeCollection:
		return n.Collection != nil
	case NodeEndpoint:
		return n.Endpoint != nil
	case NodeVariable:
		return n.Variable != nil
	}
	return false
}

// Row is a flattened, displayable tree row.
type Row struct {
	Node       Node
	Depth      int
	Expandable bool
	Expanded   bool
}

// rootState tracks the expand state of one root. Children are built lazily on
// expand and discarded on collapse; nil children under an expanded root mean
// the cache was invalidated and must be rebuilt from the entity model.
type rootState struct {
	expanded bool
	children []Node
	stop     func() // detaches the change subscription
}

// Forest projects a sequence of collections into flattened rows. Children are
// materialized only while their root is expanded; collapsing discards them so
// a later expand rebuilds from the current entity state.
type Forest struct {
	roots []*core.Collection
	state map[*core.Collection]*rootState
}

// NewForest creates an empty forest.
func NewForest() *Forest {
	return &Forest{
		roots: make([]*core.Collection, 0),
		state: make(map[*core.Collection]*rootState),
	}
}

// Roots returns the root sequence in order.
func (f *Forest) Roots() []*core.Collection {
	out := make([]*core.Collection, len(f.roots))
	copy(out, f.roots)
	return out
}

// AppendRoot adds a collection as a trailing collapsed root and subscribes to
// its change notifications so cached children stay fresh.
func (f *Forest) AppendRoot(c *core.Collection) {
	if c == nil {
		return
	}
	if _, ok := f.state[c]; ok {
		return
	}
	f.roots = append(f.roots, c)
	f.state[c] = &rootState{
		stop: c.OnChange(func() { f.invalidate(c) }),
	}
}

// InsertRoots appends each collection in order.
func (f *Forest) InsertRoots(cols []*core.Collection) {
	for _, c := range cols {
		f.AppendRoot(c)
	}
}

// SetRoots replaces the root sequence. All expand state is discarded, removed
// roots are unsubscribed from, and the new roots start collapsed.
func (f *Forest) SetRoots(cols []*core.Collection) {
	for _, st := range f.state {
		st.stop()
	}
	f.roots = make([]*core.Collection, 0, len(cols))
	f.state = make(map[*core.Collection]*rootState)
	f.InsertRoots(cols)
}

// invalidate drops the cached children of c. A root removed by SetRoots no
// longer has state, so stale subscriptions become no-ops.
func (f *Forest) invalidate(c *core.Collection) {
	if st, ok := f.state[c]; ok {
		st.children = nil
	}
}

// Expanded reports whether c is an expanded root.
func (f *Forest) Expanded(c *core.Collection) bool {
	st, ok := f.state[c]
	return ok && st.expanded
}

// Expand marks c expanded and materializes its children. Expanding an unknown
// or already-expanded root is a no-op.
func (f *Forest) Expand(c *core.Collection) {
	st, ok := f.state[c]
	if !ok || st.expanded {
		return
	}
	st.expanded = true
	st.children = buildChildren(c)
}

// Collapse marks c collapsed and discards its cached children.
func (f *Forest) Collapse(c *core.Collection) {
	st, ok := f.state[c]
	if !ok || !st.expanded {
		return
	}
	st.expanded = false
	st.children = nil
}

// Toggle flips the expand state of c.
func (f *Forest) Toggle(c *core.Collection) {
	if f.Expanded(c) {
		f.Collapse(c)
	} else {
		f.Expand(c)
	}
}

// Rows flattens the forest into displayable rows: each root followed by its
// children while expanded. Invalidated child caches are rebuilt here.
func (f *Forest) Rows() []Row {
	var rows []Row
	for _, c := range f.roots {
		st := f.state[c]
		rows = append(rows, Row{
			Node:       Node{Kind: NodeCollection, Collection: c},
			Depth:      0,
			Expandable: c.EndpointCount() > 0,
			Expanded:   st.expanded,
		})
		if !st.expanded {
			continue
		}
		if st.children == nil {
			st.children = buildChildren(c)
		}
		for _, child := range st.children {
			rows = append(rows, Row{Node: child, Depth: 1})
		}
	}
	return rows
}

// RowAt returns the row at index, or false if out of range.
func (f *Forest) RowAt(index int) (Row, bool) {
	rows := f.Rows()
	if index < 0 || index >= len(rows) {
		return Row{}, false
	}
	return rows[index], true
}

// buildChildren materializes the child nodes of a collection from the entity
// model, in endpoint order.
func buildChildren(c *core.Collection) []Node {
	children := make([]Node, 0, c.EndpointCount())
	for _, e := range c.Endpoints() {
		children = append(children, Node{Kind: NodeEndpoint, Endpoint: e})
	}
	return children
}
