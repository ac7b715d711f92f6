package engine

import (
	"context"
	"os"
	"slices"

	"github.com/lintang-b-s/niceroute/pkg/costfunction"
	"github.com/lintang-b-s/niceroute/pkg/datastructure"
	"github.com/lintang-b-s/niceroute/pkg/dbf"
	"github.com/lintang-b-s/niceroute/pkg/engine/routing"
	"github.com/lintang-b-s/niceroute/pkg/layer"
	"github.com/lintang-b-s/niceroute/pkg/shpparser"
	"github.com/lintang-b-s/niceroute/pkg/spatialcache"
	"github.com/lintang-b-s/niceroute/pkg/spatialindex"
	"github.com/lintang-b-s/niceroute/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// Engine runs the whole pipeline: clip the source datasets into the cache, decode them, build
// the road graph and plan a route on it.
type Engine struct {
	cfg   *util.Config
	cache *spatialcache.Cache
	log   *zap.Logger
}

func NewEngine(cfg *util.Config, logger *zap.Logger) (*Engine, error) {
	for _, name := range []string{cfg.RoadsDataset, cfg.LandUseDataset} {
		if !slices.Contains(cfg.Datasets, name) {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "dataset %q is not in the cached datasets %v",
				name, cfg.Datasets)
		}
	}
	return &Engine{
		cfg:   cfg,
		cache: spatialcache.New(cfg.CacheDir, logger),
		log:   logger,
	}, nil
}

func (e *Engine) bound() orb.Bound {
	b := e.cfg.BoundingBox
	return orb.Bound{Min: orb.Point{b.MinLon, b.MinLat}, Max: orb.Point{b.MaxLon, b.MaxLat}}
}

// loadLayer reads a cached dataset and joins its attribute table.
func (e *Engine) loadLayer(name string) (*layer.Layer, error) {
	l, err := e.cache.LoadCached(name)
	if err != nil {
		return nil, err
	}
	table, err := dbf.ReadTable(e.cache.TablePath(name), e.log)
	if err != nil {
		return nil, err
	}
	matched := l.AttachTable(table)
	if matched < l.NumberOfFeatures() {
		e.log.Warn("features without attribute record", zap.String("dataset", name),
			zap.Int("features", l.NumberOfFeatures()), zap.Int("matched", matched))
	}
	return l, nil
}

// BuildGraph prepares the cache and returns the road graph and the land-use layer of the configured
// bounding box.
func (e *Engine) BuildGraph(sourceFolder string) (*datastructure.RoadGraph, *layer.Layer, error) {
	if err := e.cache.Prepare(sourceFolder, e.cfg.Datasets, e.bound()); err != nil {
		return nil, nil, err
	}

	roads, err := e.loadLayer(e.cfg.RoadsDataset)
	if err != nil {
		return nil, nil, err
	}
	landUse, err := e.loadLayer(e.cfg.LandUseDataset)
	if err != nil {
		return nil, nil, err
	}

	builder := shpparser.NewGraphBuilder(e.cfg.CoordinatePrecision, e.cfg.ImputeMaxSpeed, e.log)
	graph, err := builder.BuildGraph(roads)
	if err != nil {
		return nil, nil, err
	}
	return graph, landUse, nil
}

func (e *Engine) costFunction(landUse *layer.Layer) (costfunction.CostFunction, error) {
	if e.cfg.Weight.Mode == "length" {
		return costfunction.NewLengthCostFunction(), nil
	}
	rtree := spatialindex.NewRtree()
	rtree.Build(landUse, e.log)
	niceness, err := costfunction.NewNicenessContextFromConfig(rtree, e.cfg.Weight)
	if err != nil {
		return nil, err
	}
	return costfunction.NewNiceCostFunction(niceness, e.cfg.Weight), nil
}

// Run plans a route from start to end with the datasets of sourceFolder.
func (e *Engine) Run(ctx context.Context, sourceFolder string, start, end orb.Point) (*routing.Route, error) {
	graph, landUse, err := e.BuildGraph(sourceFolder)
	if err != nil {
		return nil, err
	}

	cf, err := e.costFunction(landUse)
	if err != nil {
		return nil, err
	}

	planner := routing.NewPlanner(graph, spatialindex.NewLinearScanLocator(graph), cf, e.log)
	route, err := planner.ShortestPath(ctx, start, end)
	if err != nil {
		return nil, err
	}

	if e.cfg.GeoJSONOutput != "" {
		if err := e.writeGeoJSON(graph, route); err != nil {
			return nil, err
		}
	}
	return route, nil
}

// writeGeoJSON exports the road graph with the route as one extra feature.
func (e *Engine) writeGeoJSON(graph *datastructure.RoadGraph, route *routing.Route) error {
	fc := shpparser.GraphToLayer(e.cfg.RoadsDataset, graph).ToFeatureCollection()
	if !route.IsEmpty() {
		f := geojson.NewFeature(route.LineString())
		f.Properties["kind"] = "route"
		f.Properties["cost"] = route.GetCost()
		f.Properties["length_m"] = route.GetLength()
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(e.cfg.GeoJSONOutput, data, 0644); err != nil {
		return err
	}
	e.log.Info("wrote geojson", zap.String("path", e.cfg.GeoJSONOutput), zap.Int("features", len(fc.Features)))
	return nil
}
