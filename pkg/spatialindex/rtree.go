package spatialindex

import (
	"github.com/lintang-b-s/niceroute/pkg/geo"
	"github.com/lintang-b-s/niceroute/pkg/layer"
	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

// Area is one land-use polygon with its class.
type Area struct {
	id      int
	fclass  string
	polygon orb.Polygon
}

func (a Area) GetID() int {
	return a.id
}

func (a Area) GetFclass() string {
	return a.fclass
}

func (a Area) GetPolygon() orb.Polygon {
	return a.polygon
}

// Rtree indexes land-use polygons by their bounding box.
type Rtree struct {
	tr    *rtree.RTreeG[int]
	areas []Area
}

func NewRtree() *Rtree {
	var tr rtree.RTreeG[int]
	return &Rtree{
		tr:    &tr,
		areas: make([]Area, 0),
	}
}

func (rt *Rtree) Insert(fclass string, polygon orb.Polygon) {
	if len(polygon) == 0 || len(polygon[0]) == 0 {
		return
	}
	id := len(rt.areas)
	rt.areas = append(rt.areas, Area{id: id, fclass: fclass, polygon: polygon})
	b := polygon.Bound()
	rt.tr.Insert([2]float64{b.Min[0], b.Min[1]}, [2]float64{b.Max[0], b.Max[1]}, id)
}

// Build. indexes every polygon of a land-use layer, multipolygons are split into their parts.
func (rt *Rtree) Build(landUse *layer.Layer, log *zap.Logger) {
	log.Info("Building R-tree spatial index...", zap.String("layer", landUse.GetName()))
	for _, f := range landUse.GetFeatures() {
		fclass := f.GetString("fclass")
		for _, p := range f.Polygons() {
			rt.Insert(fclass, p)
		}
	}
	log.Info("R-tree spatial index built.", zap.Int("areas", len(rt.areas)))
}

func (rt *Rtree) Len() int {
	return len(rt.areas)
}

// SearchWithinRadius returns the areas whose bounding box intersects the box of radius (in km)
// around (qLat, qLon).
func (rt *Rtree) SearchWithinRadius(qLat, qLon, radius float64) []Area {
	minLat, minLon, maxLat, maxLon := geo.BoundingBoxAround(qLat, qLon, radius)

	results := make([]Area, 0, 8)
	rt.tr.Search([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat},
		func(min, max [2]float64, id int) bool {
			results = append(results, rt.areas[id])
			return true
		})
	return results
}
