package shpparser

import (
	"errors"
	"strconv"

	"github.com/jonas-p/go-shp"
	"github.com/lintang-b-s/niceroute/pkg"
	"github.com/lintang-b-s/niceroute/pkg/datastructure"
	"github.com/lintang-b-s/niceroute/pkg/dbf"
	"github.com/lintang-b-s/niceroute/pkg/layer"
	"github.com/lintang-b-s/niceroute/pkg/util"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

var ErrNotLineLayer = errors.New("layer does not hold line geometries")

// GraphBuilder turns a road line layer into a routable graph.
type GraphBuilder struct {
	precision      int
	imputeMaxSpeed bool
	log            *zap.Logger
}

func NewGraphBuilder(precision int, imputeMaxSpeed bool, log *zap.Logger) *GraphBuilder {
	return &GraphBuilder{
		precision:      precision,
		imputeMaxSpeed: imputeMaxSpeed,
		log:            log,
	}
}

// acceptFeature. features with a code column are kept only when the code belongs to a line group.
func acceptFeature(f *layer.Feature) bool {
	rec, ok := f.GetAttributes()
	if !ok {
		return true
	}
	if _, ok := rec.Get("code"); !ok {
		return true
	}
	return dbf.ClassifyGeometry(rec.GetInt("code")) == dbf.LINE
}

func (b *GraphBuilder) edgeAttributes(f *layer.Feature) datastructure.EdgeAttributes {
	if !f.HasAttributes() {
		return datastructure.EdgeAttributes{}
	}
	fclass := f.GetString("fclass")
	maxSpeed := f.GetInt("maxspeed")
	if maxSpeed <= 0 && b.imputeMaxSpeed {
		maxSpeed = pkg.DefaultMaxSpeed(pkg.GetRoadClass(fclass))
	}
	return datastructure.NewEdgeAttributes(fclass, maxSpeed)
}

// BuildGraph adds one edge per straight segment of every accepted line, drops self loops and
// returns the largest connected component.
func (b *GraphBuilder) BuildGraph(roads *layer.Layer) (*datastructure.RoadGraph, error) {
	if roads.GetKind() != dbf.LINE {
		return nil, util.WrapErrorf(ErrNotLineLayer, util.ErrBadParamInput, "cannot build a graph from %q (%s)",
			roads.GetName(), roads.GetKind())
	}

	b.log.Info("building road graph...", zap.String("layer", roads.GetName()),
		zap.Int("features", roads.NumberOfFeatures()))

	g := datastructure.NewRoadGraph(b.precision)
	skipped := 0
	features := roads.GetFeatures()
	for i := range features {
		f := &features[i]
		if !acceptFeature(f) {
			skipped++
			continue
		}
		attrs := b.edgeAttributes(f)
		for _, line := range f.Lines() {
			for _, seg := range datastructure.Segment(line) {
				u := g.AddNode(seg[0])
				v := g.AddNode(seg[1])
				g.AddEdge(u, v, seg, attrs)
			}
		}
	}

	selfLoops := g.RemoveSelfLoops()
	largest := g.LargestComponent()

	b.log.Info("road graph built", zap.Int("nodes", g.NumberOfNodes()), zap.Int("edges", g.NumberOfEdges()),
		zap.Int("skipped_features", skipped), zap.Int("self_loops", selfLoops),
		zap.Int("largest_component_nodes", largest.NumberOfNodes()),
		zap.Int("largest_component_edges", largest.NumberOfEdges()))
	return largest, nil
}

// GraphToLayer converts graph back into a line layer, one feature per edge. Segment endpoints are
// the stored node coordinates.
func GraphToLayer(name string, graph *datastructure.RoadGraph) *layer.Layer {
	edges := graph.GetEdges()
	features := make([]layer.Feature, len(edges))
	raw := make([][]string, len(edges))
	for i := range edges {
		e := &edges[i]
		line := orb.LineString{graph.GetNode(e.GetFrom()).GetCoord(), graph.GetNode(e.GetTo()).GetCoord()}
		attrs := e.GetAttributes()
		rec := dbf.NewRecord(i, map[string]interface{}{
			"fclass":   attrs.GetFclass(),
			"maxspeed": attrs.GetMaxSpeed(),
		})
		features[i] = layer.NewFeatureWithAttributes(i, line, rec)
		raw[i] = []string{attrs.GetFclass(), strconv.Itoa(attrs.GetMaxSpeed())}
	}

	l := layer.NewLayer(name, dbf.LINE, features)
	l.SetFields([]shp.Field{shp.StringField("fclass", 28), shp.NumberField("maxspeed", 3)}, raw)
	return l
}
