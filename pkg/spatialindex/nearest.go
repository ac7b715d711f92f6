package spatialindex

import (
	"math"

	"github.com/lintang-b-s/niceroute/pkg/datastructure"
	"github.com/paulmach/orb"
)

// NodeLocator finds the graph node a query coordinate snaps to.
type NodeLocator interface {
	Nearest(p orb.Point) datastructure.Index
}

// LinearScanLocator compares the query against every node using squared euclidean distance in
// degrees. Among equally distant nodes the first one in node order wins.
type LinearScanLocator struct {
	graph *datastructure.RoadGraph
}

func NewLinearScanLocator(graph *datastructure.RoadGraph) *LinearScanLocator {
	return &LinearScanLocator{graph: graph}
}

// Nearest returns INVALID_INDEX on an empty graph.
func (l *LinearScanLocator) Nearest(p orb.Point) datastructure.Index {
	nearest := datastructure.INVALID_INDEX
	best := math.Inf(1)
	for _, n := range l.graph.GetNodes() {
		dLon := n.GetLon() - p[0]
		dLat := n.GetLat() - p[1]
		d := dLon*dLon + dLat*dLat
		if d < best {
			best = d
			nearest = n.GetID()
		}
	}
	return nearest
}
