package routing

import (
	"context"

	"github.com/lintang-b-s/niceroute/pkg/costfunction"
	da "github.com/lintang-b-s/niceroute/pkg/datastructure"
	"github.com/lintang-b-s/niceroute/pkg/spatialindex"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

type State uint8

const (
	IDLE State = iota
	RESOLVING_ENDPOINTS
	ENDPOINTS_IDENTICAL
	BUILDING_WEIGHTS
	SEARCHING
	DONE
	FAILED
)

func (s State) String() string {
	switch s {
	case IDLE:
		return "idle"
	case RESOLVING_ENDPOINTS:
		return "resolving_endpoints"
	case ENDPOINTS_IDENTICAL:
		return "endpoints_identical"
	case BUILDING_WEIGHTS:
		return "building_weights"
	case SEARCHING:
		return "searching"
	case DONE:
		return "done"
	case FAILED:
		return "failed"
	default:
		return "unknown"
	}
}

// Planner answers point to point queries on one road graph. Edge weights are computed once, on
// the first query that needs them. A Planner is not safe for concurrent use.
type Planner struct {
	graph        *da.RoadGraph
	locator      spatialindex.NodeLocator
	costFunction costfunction.CostFunction
	log          *zap.Logger

	state   State
	weights []float64
}

func NewPlanner(graph *da.RoadGraph, locator spatialindex.NodeLocator, costFunction costfunction.CostFunction,
	log *zap.Logger) *Planner {
	return &Planner{
		graph:        graph,
		locator:      locator,
		costFunction: costFunction,
		log:          log,
		state:        IDLE,
	}
}

func (p *Planner) GetState() State {
	return p.state
}

func (p *Planner) transition(to State) {
	p.log.Debug("planner state", zap.Stringer("from", p.state), zap.Stringer("to", to))
	p.state = to
}

func (p *Planner) buildWeights() {
	if p.weights != nil {
		return
	}
	edges := p.graph.GetEdges()
	p.weights = make([]float64, len(edges))
	for i := range edges {
		p.weights[i] = p.costFunction.GetWeight(&edges[i])
	}
	p.log.Info("edge weights computed", zap.Int("edges", len(edges)))
}

// ShortestPath snaps start and end to their nearest nodes and returns the minimum weight route
// between them. Endpoints snapping to the same node give an empty route and no error. Unconnected
// endpoints give a *PathNotFoundError.
func (p *Planner) ShortestPath(ctx context.Context, start, end orb.Point) (*Route, error) {
	p.transition(RESOLVING_ENDPOINTS)
	if p.graph.NumberOfNodes() == 0 {
		p.transition(FAILED)
		return nil, ErrEmptyGraph
	}
	s := p.locator.Nearest(start)
	t := p.locator.Nearest(end)

	if s == t {
		p.transition(ENDPOINTS_IDENTICAL)
		p.log.Warn("Path nodes are identical.", zap.Uint32("node", uint32(s)),
			zap.Any("coord", p.graph.GetNode(s).GetCoord()))
		p.transition(DONE)
		return emptyRoute(), nil
	}

	p.transition(BUILDING_WEIGHTS)
	p.buildWeights()

	p.transition(SEARCHING)
	dijkstra := NewDijkstra(p.graph, p.weights)
	nodes, edges, cost, found, err := dijkstra.ShortestPath(ctx, s, t)
	if err != nil {
		p.transition(FAILED)
		return nil, err
	}
	if !found {
		p.transition(FAILED)
		return nil, &PathNotFoundError{Start: start, End: end, StartNode: s, EndNode: t}
	}

	points := make([]orb.Point, len(nodes))
	for i, v := range nodes {
		points[i] = p.graph.GetNode(v).GetCoord()
	}
	length := 0.0
	for i := 1; i < len(points); i++ {
		length += costfunction.SegmentLength(points[i-1], points[i])
	}

	p.log.Info("route found", zap.Int("nodes", len(nodes)), zap.Float64("cost", cost),
		zap.Float64("length_m", length), zap.Int("settled", dijkstra.GetNumSettledNodes()))
	p.transition(DONE)
	return NewRoute(nodes, edges, points, cost, length), nil
}

// ShortestPath plans a single route on graph, snapping endpoints with a linear scan.
func ShortestPath(ctx context.Context, graph *da.RoadGraph, start, end orb.Point, costFunction costfunction.CostFunction,
	log *zap.Logger) (*Route, error) {
	planner := NewPlanner(graph, spatialindex.NewLinearScanLocator(graph), costFunction, log)
	return planner.ShortestPath(ctx, start, end)
}
