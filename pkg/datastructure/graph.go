package datastructure

import (
	"math"

	"github.com/paulmach/orb"
)

type Index uint32

const INVALID_INDEX Index = math.MaxUint32

// nodeKey is the identity of a node: its coordinate quantised to the precision of the graph.
type nodeKey struct {
	lon, lat int64
}

type Node struct {
	id    Index
	coord orb.Point // lon, lat
}

func NewNode(id Index, coord orb.Point) Node {
	return Node{id: id, coord: coord}
}

func (n *Node) GetID() Index {
	return n.id
}

func (n *Node) GetCoord() orb.Point {
	return n.coord
}

func (n *Node) GetLon() float64 {
	return n.coord[0]
}

func (n *Node) GetLat() float64 {
	return n.coord[1]
}

type EdgeAttributes struct {
	fclass   string
	maxSpeed int // km/h, 0 if unknown
	present  bool
}

func NewEdgeAttributes(fclass string, maxSpeed int) EdgeAttributes {
	return EdgeAttributes{fclass: fclass, maxSpeed: maxSpeed, present: true}
}

func (a EdgeAttributes) GetFclass() string {
	return a.fclass
}

func (a EdgeAttributes) GetMaxSpeed() int {
	return a.maxSpeed
}

// IsPresent is false for edges whose source feature had no attribute record.
func (a EdgeAttributes) IsPresent() bool {
	return a.present
}

// Edge is an undirected straight segment between two nodes.
type Edge struct {
	id         Index
	from, to   Index
	geometry   orb.LineString
	attributes EdgeAttributes
}

func (e *Edge) GetID() Index {
	return e.id
}

func (e *Edge) GetFrom() Index {
	return e.from
}

func (e *Edge) GetTo() Index {
	return e.to
}

// GetOther returns the endpoint of e that is not u.
func (e *Edge) GetOther(u Index) Index {
	if e.from == u {
		return e.to
	}
	return e.from
}

func (e *Edge) GetGeometry() orb.LineString {
	return e.geometry
}

func (e *Edge) GetAttributes() EdgeAttributes {
	return e.attributes
}

func (e *Edge) IsSelfLoop() bool {
	return e.from == e.to
}

// RoadGraph is an undirected multigraph of road segments. Two coordinates with the same quantised
// key are the same node; precision 0 keys nodes on the exact float64 bits.
type RoadGraph struct {
	nodes     []Node
	edges     []Edge
	adj       [][]Index // node id -> ids of incident edges
	nodeIndex map[nodeKey]Index
	precision int
	scale     float64
}

func NewRoadGraph(precision int) *RoadGraph {
	return &RoadGraph{
		nodes:     make([]Node, 0),
		edges:     make([]Edge, 0),
		adj:       make([][]Index, 0),
		nodeIndex: make(map[nodeKey]Index),
		precision: precision,
		scale:     math.Pow(10, float64(precision)),
	}
}

func (g *RoadGraph) key(p orb.Point) nodeKey {
	if g.precision == 0 {
		return nodeKey{lon: int64(math.Float64bits(p[0])), lat: int64(math.Float64bits(p[1]))}
	}
	return nodeKey{
		lon: int64(math.Round(p[0] * g.scale)),
		lat: int64(math.Round(p[1] * g.scale)),
	}
}

// AddNode returns the id of the node at p, creating it if needed. The first coordinate seen for
// a key is the one stored.
func (g *RoadGraph) AddNode(p orb.Point) Index {
	k := g.key(p)
	if id, ok := g.nodeIndex[k]; ok {
		return id
	}
	id := Index(len(g.nodes))
	g.nodes = append(g.nodes, NewNode(id, p))
	g.adj = append(g.adj, nil)
	g.nodeIndex[k] = id
	return id
}

func (g *RoadGraph) FindNode(p orb.Point) (Index, bool) {
	id, ok := g.nodeIndex[g.key(p)]
	return id, ok
}

func (g *RoadGraph) AddEdge(from, to Index, geometry orb.LineString, attributes EdgeAttributes) Index {
	id := Index(len(g.edges))
	g.edges = append(g.edges, Edge{
		id:         id,
		from:       from,
		to:         to,
		geometry:   geometry,
		attributes: attributes,
	})
	g.adj[from] = append(g.adj[from], id)
	if to != from {
		g.adj[to] = append(g.adj[to], id)
	}
	return id
}

func (g *RoadGraph) NumberOfNodes() int {
	return len(g.nodes)
}

func (g *RoadGraph) NumberOfEdges() int {
	return len(g.edges)
}

func (g *RoadGraph) GetNode(id Index) *Node {
	return &g.nodes[id]
}

func (g *RoadGraph) GetNodes() []Node {
	return g.nodes
}

func (g *RoadGraph) GetEdge(id Index) *Edge {
	return &g.edges[id]
}

func (g *RoadGraph) GetEdges() []Edge {
	return g.edges
}

func (g *RoadGraph) Degree(u Index) int {
	return len(g.adj[u])
}

// ForEdgesOf calls handle for every edge incident to u with the node on its other side.
func (g *RoadGraph) ForEdgesOf(u Index, handle func(e *Edge, head Index)) {
	for _, eId := range g.adj[u] {
		e := &g.edges[eId]
		handle(e, e.GetOther(u))
	}
}

// RemoveSelfLoops drops every edge whose endpoints are the same node and returns how many were
// dropped. edge ids are renumbered.
func (g *RoadGraph) RemoveSelfLoops() int {
	kept := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if e.IsSelfLoop() {
			continue
		}
		kept = append(kept, e)
	}
	removed := len(g.edges) - len(kept)
	if removed == 0 {
		return 0
	}

	g.edges = g.edges[:0]
	for i := range g.adj {
		g.adj[i] = g.adj[i][:0]
	}
	for _, e := range kept {
		g.AddEdge(e.from, e.to, e.geometry, e.attributes)
	}
	return removed
}

// Subgraph returns the graph induced by nodes. nodes are renumbered in ascending order of their
// old ids, edges keep their relative order.
func (g *RoadGraph) Subgraph(nodes []Index) *RoadGraph {
	inside := make([]bool, len(g.nodes))
	for _, v := range nodes {
		inside[v] = true
	}

	sub := NewRoadGraph(g.precision)
	newId := make([]Index, len(g.nodes))
	for v := range g.nodes {
		newId[v] = INVALID_INDEX
		if !inside[v] {
			continue
		}
		newId[v] = sub.AddNode(g.nodes[v].coord)
	}

	for _, e := range g.edges {
		if !inside[e.from] || !inside[e.to] {
			continue
		}
		sub.AddEdge(newId[e.from], newId[e.to], e.geometry, e.attributes)
	}
	return sub
}
