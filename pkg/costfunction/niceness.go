package costfunction

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lintang-b-s/niceroute/pkg/geo"
	"github.com/lintang-b-s/niceroute/pkg/spatialindex"
	"github.com/lintang-b-s/niceroute/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// landUseScores is how unpleasant it is to ride next to a land-use class. 0 is the nicest.
var landUseScores = map[string]float64{
	"park":              0.0,
	"forest":            0.0,
	"nature_reserve":    0.0,
	"recreation_ground": 0.0,
	"grass":             0.1,
	"meadow":            0.1,
	"scrub":             0.2,
	"heath":             0.2,
	"orchard":           0.2,
	"vineyard":          0.2,
	"allotments":        0.2,
	"cemetery":          0.3,
	"residential":       0.5,
	"farmland":          0.5,
	"farmyard":          0.6,
	"retail":            1.0,
	"commercial":        1.0,
	"military":          2.0,
	"industrial":        2.0,
	"quarry":            2.0,
}

// NicenessContext scores points by the land use around them. It is passed explicitly to the cost
// function instead of living in package state.
type NicenessContext struct {
	index           *spatialindex.Rtree
	radius          float64 // meter
	defaultNiceness float64
	cache           *lru.Cache[orb.Point, float64]
}

func NewNicenessContext(index *spatialindex.Rtree, radius, defaultNiceness float64, cacheSize int) (*NicenessContext, error) {
	if radius <= 0 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "niceness radius must be positive, got %v", radius)
	}
	cache, err := lru.New[orb.Point, float64](cacheSize)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "niceness cache")
	}
	return &NicenessContext{
		index:           index,
		radius:          radius,
		defaultNiceness: defaultNiceness,
		cache:           cache,
	}, nil
}

func NewNicenessContextFromConfig(index *spatialindex.Rtree, cfg util.WeightConfig) (*NicenessContext, error) {
	return NewNicenessContext(index, cfg.NicenessRadius, cfg.DefaultNiceness, cfg.NicenessCache)
}

// Score returns the score of a land-use class, the default for classes without one.
func (nc *NicenessContext) Score(fclass string) float64 {
	if s, ok := landUseScores[fclass]; ok {
		return s
	}
	return nc.defaultNiceness
}

// Niceness sums the scores of every land-use area that intersects the circle of the context radius
// around p.
func (nc *NicenessContext) Niceness(p orb.Point) float64 {
	if v, ok := nc.cache.Get(p); ok {
		return v
	}

	total := 0.0
	candidates := nc.index.SearchWithinRadius(p[1], p[0], nc.radius/1000)
	for _, a := range candidates {
		if nc.touches(a.GetPolygon(), p) {
			total += nc.Score(a.GetFclass())
		}
	}

	nc.cache.Add(p, total)
	return total
}

func (nc *NicenessContext) touches(polygon orb.Polygon, p orb.Point) bool {
	if planar.PolygonContains(polygon, p) {
		return true
	}
	for _, ring := range polygon {
		for i := 0; i+1 < len(ring); i++ {
			a, b := ring[i], ring[i+1]
			if geo.PointSegmentDistance(a[1], a[0], b[1], b[0], p[1], p[0]) <= nc.radius {
				return true
			}
		}
	}
	return false
}
