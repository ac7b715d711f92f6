package main

import (
	"strconv"

	"github.com/lintang-b-s/niceroute/pkg/util"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

type routeRequest struct {
	StartLon float64 `validate:"min=-180,max=180"`
	StartLat float64 `validate:"min=-90,max=90"`
	EndLon   float64 `validate:"min=-180,max=180"`
	EndLat   float64 `validate:"min=-90,max=90"`
}

func parseRouteRequest(args []string) (routeRequest, error) {
	if len(args) != 4 {
		return routeRequest{}, util.WrapErrorf(nil, util.ErrBadParamInput,
			"expected start_lon start_lat end_lon end_lat, got %d values", len(args))
	}
	vals := make([]float64, 4)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return routeRequest{}, util.WrapErrorf(err, util.ErrBadParamInput, "coordinate %q is not a number", a)
		}
		vals[i] = v
	}
	req := routeRequest{StartLon: vals[0], StartLat: vals[1], EndLon: vals[2], EndLat: vals[3]}
	if err := util.ValidateStruct(req); err != nil {
		return routeRequest{}, util.WrapErrorf(err, util.ErrBadParamInput, "invalid coordinates")
	}
	return req, nil
}

// resolveEndpoints returns the route endpoints from the command line, falling back to the
// configured defaults when they are missing, malformed or outside the bounding box.
func resolveEndpoints(args []string, cfg *util.Config, log *zap.Logger) (orb.Point, orb.Point) {
	start := orb.Point{cfg.DefaultStart.Lon, cfg.DefaultStart.Lat}
	end := orb.Point{cfg.DefaultEnd.Lon, cfg.DefaultEnd.Lat}
	if len(args) == 0 {
		log.Info("no coordinates given, using defaults", zap.Any("start", start), zap.Any("end", end))
		return start, end
	}

	req, err := parseRouteRequest(args)
	if err != nil {
		log.Warn("cannot use coordinates, using defaults", zap.Error(err),
			zap.Any("start", start), zap.Any("end", end))
		return start, end
	}

	bbox := cfg.BoundingBox
	if !bbox.Contains(req.StartLon, req.StartLat) || !bbox.Contains(req.EndLon, req.EndLat) {
		log.Warn("coordinates outside of the bounding box, using defaults", zap.Any("bounding_box", bbox),
			zap.Any("start", start), zap.Any("end", end))
		return start, end
	}
	return orb.Point{req.StartLon, req.StartLat}, orb.Point{req.EndLon, req.EndLat}
}
