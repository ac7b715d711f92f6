package shpparser

import (
	"path/filepath"
	"testing"

	"github.com/lintang-b-s/niceroute/pkg/datastructure"
	"github.com/lintang-b-s/niceroute/pkg/dbf"
	"github.com/lintang-b-s/niceroute/pkg/layer"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func road(row, code int, fclass string, maxSpeed int, geometry orb.Geometry) layer.Feature {
	return layer.NewFeatureWithAttributes(row, geometry, dbf.NewRecord(row, map[string]interface{}{
		"code":     code,
		"fclass":   fclass,
		"maxspeed": maxSpeed,
	}))
}

func roadsLayer() *layer.Layer {
	return layer.NewLayer("roads", dbf.LINE, []layer.Feature{
		road(0, 5122, "residential", 30, orb.LineString{{0, 0}, {0.001, 0}, {0.002, 0}}),
		road(1, 5113, "primary", 0, orb.LineString{{0.002, 0}, {0.002, 0.001}}),
		// point group code, skipped
		road(2, 2001, "bench", 0, orb.LineString{{0, 0}, {0, 0.001}}),
		// degenerate segment collapses into a self loop
		road(3, 5122, "residential", 30, orb.LineString{{0.002, 0.001}, {0.002, 0.001}}),
		// small island dropped with the smaller component
		road(4, 5141, "service", 20, orb.LineString{{1, 1}, {1.001, 1}}),
		road(5, 5122, "residential", 30, orb.MultiLineString{
			{{0.002, 0.001}, {0.003, 0.001}},
			{{0.003, 0.001}, {0.003, 0.002}},
		}),
		layer.NewFeature(6, orb.LineString{{0.003, 0.002}, {0.004, 0.002}}),
	})
}

func TestBuildGraph(t *testing.T) {
	b := NewGraphBuilder(9, true, zap.NewNop())
	g, err := b.BuildGraph(roadsLayer())
	require.NoError(t, err)

	assert.Equal(t, 7, g.NumberOfNodes())
	assert.Equal(t, 6, g.NumberOfEdges())
	assert.Len(t, g.ConnectedComponents(), 1)

	_, ok := g.FindNode(orb.Point{0, 0.001})
	assert.False(t, ok)
	_, ok = g.FindNode(orb.Point{1, 1})
	assert.False(t, ok)

	classes := map[string]int{}
	for _, e := range g.GetEdges() {
		assert.False(t, e.IsSelfLoop())
		assert.Len(t, e.GetGeometry(), 2)
		classes[e.GetAttributes().GetFclass()]++
		if e.GetAttributes().GetFclass() == "primary" {
			// maxspeed 0 takes the class default
			assert.Equal(t, 65, e.GetAttributes().GetMaxSpeed())
		}
	}
	assert.Equal(t, map[string]int{"residential": 4, "primary": 1, "": 1}, classes)
}

func TestBuildGraphWithoutImpute(t *testing.T) {
	g, err := NewGraphBuilder(9, false, zap.NewNop()).BuildGraph(roadsLayer())
	require.NoError(t, err)
	for _, e := range g.GetEdges() {
		if e.GetAttributes().GetFclass() == "primary" {
			assert.Equal(t, 0, e.GetAttributes().GetMaxSpeed())
		}
	}
}

func TestBuildGraphRejectsPolygons(t *testing.T) {
	landUse := layer.NewLayer("landuse", dbf.POLYGON, nil)
	_, err := NewGraphBuilder(9, true, zap.NewNop()).BuildGraph(landUse)
	assert.ErrorIs(t, err, ErrNotLineLayer)
}

func nodeSet(g *datastructure.RoadGraph) map[orb.Point]struct{} {
	set := make(map[orb.Point]struct{}, g.NumberOfNodes())
	for _, n := range g.GetNodes() {
		set[n.GetCoord()] = struct{}{}
	}
	return set
}

func TestGraphToLayerRoundTrip(t *testing.T) {
	b := NewGraphBuilder(9, true, zap.NewNop())
	g, err := b.BuildGraph(roadsLayer())
	require.NoError(t, err)

	l := GraphToLayer("roads", g)
	assert.Equal(t, g.NumberOfEdges(), l.NumberOfFeatures())

	again, err := b.BuildGraph(l)
	require.NoError(t, err)
	assert.Equal(t, nodeSet(g), nodeSet(again))
	assert.Equal(t, g.NumberOfEdges(), again.NumberOfEdges())

	// and through a shapefile on disk
	path := filepath.Join(t.TempDir(), "graph.shp")
	require.NoError(t, layer.WriteShapefile(path, l))
	read, err := layer.ReadShapefile(path)
	require.NoError(t, err)
	table, err := dbf.ReadTable(filepath.Join(filepath.Dir(path), "graph.dbf"), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, l.NumberOfFeatures(), read.AttachTable(table))

	fromDisk, err := b.BuildGraph(read)
	require.NoError(t, err)
	assert.Equal(t, nodeSet(g), nodeSet(fromDisk))
}
