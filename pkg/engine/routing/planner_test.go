package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/lintang-b-s/niceroute/pkg/costfunction"
	da "github.com/lintang-b-s/niceroute/pkg/datastructure"
	"github.com/lintang-b-s/niceroute/pkg/spatialindex"
	"github.com/lintang-b-s/niceroute/pkg/util"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func niceFunction(t *testing.T) costfunction.CostFunction {
	t.Helper()
	cfg := util.WeightConfig{
		Mode:            "nice",
		ReferenceSpeed:  50,
		ClassPenalty:    2,
		LowTrafficClass: []string{"residential"},
		NicenessRadius:  50,
		DefaultNiceness: 1,
		NicenessCache:   64,
	}
	nc, err := costfunction.NewNicenessContextFromConfig(spatialindex.NewRtree(), cfg)
	require.NoError(t, err)
	return costfunction.NewNiceCostFunction(nc, cfg)
}

// s --primary-- t directly, or s --residential-- a --residential-- t
func detourGraph() (*da.RoadGraph, []orb.Point) {
	g := da.NewRoadGraph(9)
	pts := []orb.Point{{0, 0}, {0.002, 0}, {0.001, 0.001}}
	for _, p := range pts {
		g.AddNode(p)
	}
	g.AddEdge(0, 1, orb.LineString{pts[0], pts[1]}, da.NewEdgeAttributes("primary", 50))
	g.AddEdge(0, 2, orb.LineString{pts[0], pts[2]}, da.NewEdgeAttributes("residential", 30))
	g.AddEdge(2, 1, orb.LineString{pts[2], pts[1]}, da.NewEdgeAttributes("residential", 30))
	return g, pts
}

func TestShortestPathPrefersNiceDetour(t *testing.T) {
	g, pts := detourGraph()

	testCases := []struct {
		name         string
		costFunction costfunction.CostFunction
		wantNodes    []da.Index
		wantEdges    []da.Index
	}{
		{name: "length", costFunction: costfunction.NewLengthCostFunction(), wantNodes: []da.Index{0, 1}, wantEdges: []da.Index{0}},
		{name: "nice", costFunction: niceFunction(t), wantNodes: []da.Index{0, 2, 1}, wantEdges: []da.Index{1, 2}},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			route, err := ShortestPath(context.Background(), g, orb.Point{-0.0001, 0}, orb.Point{0.0021, 0.0001},
				tt.costFunction, zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tt.wantNodes, route.GetNodes())
			assert.Equal(t, tt.wantEdges, route.GetEdges())
			assert.Equal(t, pts[0], route.GetPoints()[0])
			assert.Equal(t, pts[1], route.GetPoints()[len(route.GetPoints())-1])

			// consecutive route nodes are adjacent
			for i := 1; i < len(route.GetNodes()); i++ {
				e := g.GetEdge(route.GetEdges()[i-1])
				assert.Equal(t, route.GetNodes()[i], e.GetOther(route.GetNodes()[i-1]))
			}
			assert.GreaterOrEqual(t, route.GetCost(), route.GetLength()-1e-9)
		})
	}
}

// s --residential-- a --residential-- t is long and cheap, s --residential-- b --motorway-- t is
// short with one expensive edge.
func diamondGraph() *da.RoadGraph {
	g := da.NewRoadGraph(9)
	for _, p := range []orb.Point{{0, 0}, {0.001, 0.001}, {0.002, 0}, {0.001, -0.0002}} {
		g.AddNode(p)
	}
	g.AddEdge(0, 1, orb.LineString{{0, 0}, {0.001, 0.001}}, da.NewEdgeAttributes("residential", 30))
	g.AddEdge(1, 2, orb.LineString{{0.001, 0.001}, {0.002, 0}}, da.NewEdgeAttributes("residential", 30))
	g.AddEdge(0, 3, orb.LineString{{0, 0}, {0.001, -0.0002}}, da.NewEdgeAttributes("residential", 30))
	g.AddEdge(3, 2, orb.LineString{{0.001, -0.0002}, {0.002, 0}}, da.NewEdgeAttributes("motorway", 100))
	return g
}

func TestShortestPathDiamond(t *testing.T) {
	g := diamondGraph()

	testCases := []struct {
		name         string
		costFunction costfunction.CostFunction
		wantNodes    []da.Index
		wantEdges    []da.Index
	}{
		{name: "length takes the short side", costFunction: costfunction.NewLengthCostFunction(),
			wantNodes: []da.Index{0, 3, 2}, wantEdges: []da.Index{2, 3}},
		{name: "nice takes the long cheap side", costFunction: niceFunction(t),
			wantNodes: []da.Index{0, 1, 2}, wantEdges: []da.Index{0, 1}},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			route, err := ShortestPath(context.Background(), g, orb.Point{-0.0001, 0}, orb.Point{0.0021, 0},
				tt.costFunction, zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tt.wantNodes, route.GetNodes())
			assert.Equal(t, tt.wantEdges, route.GetEdges())
		})
	}
}

func TestShortestPathParallelEdges(t *testing.T) {
	g := da.NewRoadGraph(9)
	u := g.AddNode(orb.Point{0, 0})
	v := g.AddNode(orb.Point{0.001, 0})
	line := orb.LineString{{0, 0}, {0.001, 0}}
	g.AddEdge(u, v, line, da.NewEdgeAttributes("primary", 80))
	g.AddEdge(u, v, line, da.NewEdgeAttributes("residential", 30))

	route, err := ShortestPath(context.Background(), g, orb.Point{0, 0}, orb.Point{0.001, 0}, niceFunction(t), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []da.Index{1}, route.GetEdges())
	assert.InDelta(t, route.GetLength(), route.GetCost(), 1e-9)
}

func TestShortestPathIdenticalEndpoints(t *testing.T) {
	g, _ := detourGraph()
	planner := NewPlanner(g, spatialindex.NewLinearScanLocator(g), costfunction.NewLengthCostFunction(), zap.NewNop())
	assert.Equal(t, IDLE, planner.GetState())

	route, err := planner.ShortestPath(context.Background(), orb.Point{0.00001, 0}, orb.Point{-0.00001, 0.00001})
	require.NoError(t, err)
	assert.True(t, route.IsEmpty())
	assert.Empty(t, route.GetPoints())
	assert.Equal(t, DONE, planner.GetState())
}

func TestShortestPathNotFound(t *testing.T) {
	g, _ := detourGraph()
	far := g.AddNode(orb.Point{1, 1})
	g.AddEdge(far, g.AddNode(orb.Point{1.001, 1}), orb.LineString{{1, 1}, {1.001, 1}}, da.NewEdgeAttributes("residential", 30))

	planner := NewPlanner(g, spatialindex.NewLinearScanLocator(g), costfunction.NewLengthCostFunction(), zap.NewNop())
	start := orb.Point{0, 0}
	end := orb.Point{1, 1}
	_, err := planner.ShortestPath(context.Background(), start, end)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPathNotFound))
	assert.Equal(t, FAILED, planner.GetState())

	var notFound *PathNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, start, notFound.Start)
	assert.Equal(t, end, notFound.End)
	assert.Equal(t, da.Index(0), notFound.StartNode)
	assert.Equal(t, far, notFound.EndNode)
}

func TestShortestPathEmptyGraph(t *testing.T) {
	_, err := ShortestPath(context.Background(), da.NewRoadGraph(9), orb.Point{0, 0}, orb.Point{1, 1},
		costfunction.NewLengthCostFunction(), zap.NewNop())
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

func TestShortestPathCancelled(t *testing.T) {
	g, _ := detourGraph()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ShortestPath(ctx, g, orb.Point{0, 0}, orb.Point{0.002, 0}, costfunction.NewLengthCostFunction(), zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRoutePolyline(t *testing.T) {
	route := NewRoute([]da.Index{0, 1, 2}, []da.Index{0, 1},
		[]orb.Point{{-120.2, 38.5}, {-120.95, 40.7}, {-126.453, 43.252}}, 0, 0)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", route.Polyline())
	assert.Equal(t, "", emptyRoute().Polyline())
}
