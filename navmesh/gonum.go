package navmesh

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// GraphView exposes the navigation graph of an index as a gonum directed
// graph. Node ids are leaf ids.
type GraphView struct {
	idx *Index
	to  [][]LeafID
}

// NewGraphView returns a read-only view of the index graph.
func NewGraphView(idx *Index) *GraphView {
	to := make([][]LeafID, len(idx.leaves))
	for _, l := range idx.leaves {
		for _, n := range l.neighbors {
			to[n] = append(to[n], l.ID)
		}
	}

	return &GraphView{
		idx: idx,
		to:  to,
	}
}

func (v *GraphView) Node(id int64) graph.Node {
	if _, ok := v.idx.Leaf(LeafID(id)); !ok {
		return nil
	}
	return simple.Node(id)
}

func (v *GraphView) Nodes() graph.Nodes {
	nodes := make([]graph.Node, len(v.idx.leaves))
	for i := range v.idx.leaves {
		nodes[i] = simple.Node(i)
	}
	return iterator.NewOrderedNodes(nodes)
}

func (v *GraphView) From(id int64) graph.Nodes {
	l, ok := v.idx.Leaf(LeafID(id))
	if !ok {
		return graph.Empty
	}
	return leafNodes(l.neighbors)
}

func (v *GraphView) To(id int64) graph.Nodes {
	if _, ok := v.idx.Leaf(LeafID(id)); !ok {
		return graph.Empty
	}
	return leafNodes(v.to[id])
}

func (v *GraphView) HasEdgeBetween(xid, yid int64) bool {
	return v.HasEdgeFromTo(xid, yid) || v.HasEdgeFromTo(yid, xid)
}

func (v *GraphView) HasEdgeFromTo(uid, vid int64) bool {
	l, ok := v.idx.Leaf(LeafID(uid))
	if !ok {
		return false
	}
	return l.HasNeighbor(LeafID(vid))
}

func (v *GraphView) Edge(uid, vid int64) graph.Edge {
	if !v.HasEdgeFromTo(uid, vid) {
		return nil
	}
	return simple.Edge{F: simple.Node(uid), T: simple.Node(vid)}
}

func leafNodes(ids []LeafID) graph.Nodes {
	if len(ids) == 0 {
		return graph.Empty
	}

	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = simple.Node(id)
	}
	return iterator.NewOrderedNodes(nodes)
}

// Components returns the strongly connected components of the navigation
// graph, each as a list of leaf ids.
func (idx *Index) Components() [][]LeafID {
	sccs := topo.TarjanSCC(NewGraphView(idx))

	components := make([][]LeafID, len(sccs))
	for i, scc := range sccs {
		ids := make([]LeafID, len(scc))
		for j, n := range scc {
			ids[j] = LeafID(n.ID())
		}
		components[i] = ids
	}
	return components
}
