package routing

import (
	da "github.com/lintang-b-s/niceroute/pkg/datastructure"
	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
)

// Route is a planned path. An empty route has no nodes.
type Route struct {
	nodes  []da.Index
	edges  []da.Index
	points []orb.Point
	cost   float64
	length float64 // meter
}

func NewRoute(nodes, edges []da.Index, points []orb.Point, cost, length float64) *Route {
	return &Route{
		nodes:  nodes,
		edges:  edges,
		points: points,
		cost:   cost,
		length: length,
	}
}

func emptyRoute() *Route {
	return NewRoute([]da.Index{}, []da.Index{}, []orb.Point{}, 0, 0)
}

func (r *Route) GetNodes() []da.Index {
	return r.nodes
}

func (r *Route) GetEdges() []da.Index {
	return r.edges
}

// GetPoints returns the coordinates of the nodes of the route in order.
func (r *Route) GetPoints() []orb.Point {
	return r.points
}

func (r *Route) GetCost() float64 {
	return r.cost
}

func (r *Route) GetLength() float64 {
	return r.length
}

func (r *Route) IsEmpty() bool {
	return len(r.nodes) == 0
}

func (r *Route) LineString() orb.LineString {
	return orb.LineString(r.points)
}

// Polyline encodes the route with the google polyline algorithm.
func (r *Route) Polyline() string {
	coords := make([][]float64, len(r.points))
	for i, p := range r.points {
		coords[i] = []float64{p.Lat(), p.Lon()}
	}
	return string(polyline.EncodeCoords(coords))
}
