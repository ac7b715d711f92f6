package routing

import (
	"context"
	"fmt"

	"github.com/lintang-b-s/niceroute/pkg"
	da "github.com/lintang-b-s/niceroute/pkg/datastructure"
	"github.com/lintang-b-s/niceroute/pkg/util"
)

const ctxCheckInterval = 1024

// Dijkstra is a point to point search over an undirected road graph with fixed edge weights.
type Dijkstra struct {
	graph   *da.RoadGraph
	weights []float64 // indexed by edge id

	info []VertexInfo
	pq   *da.MinHeap[da.Index]

	numSettledNodes int
}

func NewDijkstra(graph *da.RoadGraph, weights []float64) *Dijkstra {
	return &Dijkstra{
		graph:   graph,
		weights: weights,
		pq:      da.NewFourAryHeap[da.Index](),
	}
}

func (d *Dijkstra) Preallocate() {
	n := d.graph.NumberOfNodes()
	d.info = make([]VertexInfo, n)
	for i := range d.info {
		d.info[i] = unreachedVertexInfo()
	}
	d.pq.Preallocate(n)
	d.numSettledNodes = 0
}

func (d *Dijkstra) GetNumSettledNodes() int {
	return d.numSettledNodes
}

// ShortestPath returns the node and edge sequence of a minimum weight path from s to t and its
// total weight. found is false when t is not reachable from s.
func (d *Dijkstra) ShortestPath(ctx context.Context, s, t da.Index) (nodes []da.Index, edges []da.Index,
	cost float64, found bool, err error) {
	d.Preallocate()

	sNode := da.NewPriorityQueueNode(0, s)
	d.pq.Insert(sNode)
	d.info[s] = NewVertexInfo(0, newVertexEdgePair(da.INVALID_INDEX, da.INVALID_INDEX), sNode)

	for !d.pq.IsEmpty() {
		if d.numSettledNodes%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, 0, false, err
			}
		}

		minNode, err := d.pq.ExtractMin()
		if err != nil {
			return nil, nil, 0, false, err
		}
		u := minNode.GetItem()
		d.info[u].settled = true
		d.numSettledNodes++

		if u == t {
			nodes, edges = d.retrievePath(s, t)
			return nodes, edges, d.info[t].dist, true, nil
		}

		if err := d.relax(u); err != nil {
			return nil, nil, 0, false, err
		}
	}

	return nil, nil, pkg.INF_WEIGHT, false, nil
}

func (d *Dijkstra) relax(u da.Index) error {
	var err error
	uDist := d.info[u].dist
	d.graph.ForEdgesOf(u, func(e *da.Edge, v da.Index) {
		if err != nil || d.info[v].IsSettled() {
			return
		}
		newDist := uDist + d.weights[e.GetID()]
		vInfo := &d.info[v]
		if !da.Lt(newDist, vInfo.dist) {
			return
		}

		vInfo.dist = newDist
		vInfo.parent = newVertexEdgePair(u, e.GetID())
		if vInfo.heapNode == nil {
			vInfo.heapNode = da.NewPriorityQueueNode(newDist, v)
			d.pq.Insert(vInfo.heapNode)
			return
		}
		if dkErr := d.pq.DecreaseKey(vInfo.heapNode, newDist); dkErr != nil {
			err = fmt.Errorf("decrease key of node %d to %f: %w", v, newDist, dkErr)
		}
	})
	return err
}

func (d *Dijkstra) retrievePath(s, t da.Index) ([]da.Index, []da.Index) {
	nodes := []da.Index{t}
	edges := make([]da.Index, 0)
	for cur := t; cur != s; {
		parent := d.info[cur].GetParent()
		edges = append(edges, parent.getEdge())
		cur = parent.getVertex()
		nodes = append(nodes, cur)
	}
	return util.ReverseG(nodes), util.ReverseG(edges)
}
