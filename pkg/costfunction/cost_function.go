package costfunction

import (
	"github.com/lintang-b-s/niceroute/pkg/datastructure"
	"github.com/lintang-b-s/niceroute/pkg/geo"
	"github.com/lintang-b-s/niceroute/pkg/util"
	"github.com/paulmach/orb"
)

type CostFunction interface {
	GetWeight(e *datastructure.Edge) float64
}

// SegmentLength returns the great circle length of u-v in meter.
func SegmentLength(u, v orb.Point) float64 {
	return geo.CalculateHaversineDistance(u[1], u[0], v[1], v[0]) * 1000
}

func endpoints(e *datastructure.Edge) (orb.Point, orb.Point) {
	line := e.GetGeometry()
	return line[0], line[len(line)-1]
}

// LengthFunction routes on distance alone.
type LengthFunction struct {
}

func NewLengthCostFunction() *LengthFunction {
	return &LengthFunction{}
}

func (lf *LengthFunction) GetWeight(e *datastructure.Edge) float64 {
	u, v := endpoints(e)
	return SegmentLength(u, v)
}

// NiceFunction stretches the length of a segment by penalties for fast traffic, busy road classes
// and unpleasant land use at both ends.
type NiceFunction struct {
	niceness       *NicenessContext
	referenceSpeed float64 // km/h
	classPenalty   float64
	lowTraffic     map[string]struct{}
}

func NewNiceCostFunction(niceness *NicenessContext, cfg util.WeightConfig) *NiceFunction {
	lowTraffic := make(map[string]struct{}, len(cfg.LowTrafficClass))
	for _, c := range cfg.LowTrafficClass {
		lowTraffic[c] = struct{}{}
	}
	return &NiceFunction{
		niceness:       niceness,
		referenceSpeed: cfg.ReferenceSpeed,
		classPenalty:   cfg.ClassPenalty,
		lowTraffic:     lowTraffic,
	}
}

func (nf *NiceFunction) speedPenalty(maxSpeed int) float64 {
	if maxSpeed <= 0 || nf.referenceSpeed <= 0 {
		return 0
	}
	return util.Max(0, float64(maxSpeed)-nf.referenceSpeed) / nf.referenceSpeed
}

func (nf *NiceFunction) roadClassPenalty(fclass string) float64 {
	if _, ok := nf.lowTraffic[fclass]; ok {
		return 0
	}
	return nf.classPenalty
}

// EdgeWeight is length(u,v) * (1 + speed penalty + class penalty + niceness(u) + niceness(v)). It
// is symmetric in u and v and never below the plain length.
func (nf *NiceFunction) EdgeWeight(u, v orb.Point, maxSpeed int, fclass string) float64 {
	factor := 1 + nf.speedPenalty(maxSpeed) + nf.roadClassPenalty(fclass) +
		nf.niceness.Niceness(u) + nf.niceness.Niceness(v)
	return SegmentLength(u, v) * factor
}

func (nf *NiceFunction) GetWeight(e *datastructure.Edge) float64 {
	u, v := endpoints(e)
	attrs := e.GetAttributes()
	return nf.EdgeWeight(u, v, attrs.GetMaxSpeed(), attrs.GetFclass())
}
