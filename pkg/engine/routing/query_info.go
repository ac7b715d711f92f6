package routing

import (
	"github.com/lintang-b-s/niceroute/pkg"
	da "github.com/lintang-b-s/niceroute/pkg/datastructure"
)

type vertexEdgePair struct {
	vertex da.Index
	edge   da.Index
}

func (ve *vertexEdgePair) getEdge() da.Index {
	return ve.edge
}

func (ve *vertexEdgePair) getVertex() da.Index {
	return ve.vertex
}

func newVertexEdgePair(vertex, edge da.Index) vertexEdgePair {
	return vertexEdgePair{
		vertex: vertex,
		edge:   edge,
	}
}

// VertexInfo is the search state of one node: tentative distance, the node and edge it was
// reached from and its entry in the priority queue.
type VertexInfo struct {
	dist     float64
	parent   vertexEdgePair
	heapNode *da.PriorityQueueNode[da.Index]
	settled  bool
}

func NewVertexInfo(dist float64, parent vertexEdgePair, heapNode *da.PriorityQueueNode[da.Index]) VertexInfo {
	return VertexInfo{
		dist:     dist,
		parent:   parent,
		heapNode: heapNode,
	}
}

func unreachedVertexInfo() VertexInfo {
	return NewVertexInfo(pkg.INF_WEIGHT, newVertexEdgePair(da.INVALID_INDEX, da.INVALID_INDEX), nil)
}

func (vi *VertexInfo) GetDist() float64 {
	return vi.dist
}

func (vi *VertexInfo) GetParent() vertexEdgePair {
	return vi.parent
}

func (vi *VertexInfo) IsSettled() bool {
	return vi.settled
}
