package layer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/lintang-b-s/niceroute/pkg/dbf"
	"github.com/paulmach/orb"
)

func kindOf(t shp.ShapeType) (dbf.GeometryKind, error) {
	switch t {
	case shp.POINT:
		return dbf.POINT, nil
	case shp.POLYLINE:
		return dbf.LINE, nil
	case shp.POLYGON:
		return dbf.POLYGON, nil
	default:
		return dbf.POINT, fmt.Errorf("unsupported shape type %d", t)
	}
}

func shapeTypeOf(kind dbf.GeometryKind) shp.ShapeType {
	switch kind {
	case dbf.LINE:
		return shp.POLYLINE
	case dbf.POLYGON:
		return shp.POLYGON
	default:
		return shp.POINT
	}
}

func layerName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// splitParts cuts the flat point list of a multi part shape at its part offsets.
func splitParts(parts []int32, points []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i := range parts {
		start := int(parts[i])
		end := len(points)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		ps := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			ps = append(ps, orb.Point{p.X, p.Y})
		}
		out = append(out, ps)
	}
	return out
}

func toGeometry(shape shp.Shape) orb.Geometry {
	switch s := shape.(type) {
	case *shp.Point:
		return orb.Point{s.X, s.Y}
	case *shp.PolyLine:
		parts := splitParts(s.Parts, s.Points)
		if len(parts) == 1 {
			return orb.LineString(parts[0])
		}
		mls := make(orb.MultiLineString, 0, len(parts))
		for _, p := range parts {
			mls = append(mls, orb.LineString(p))
		}
		return mls
	case *shp.Polygon:
		return toPolygons(splitParts(s.Parts, s.Points))
	default:
		return nil
	}
}

// toPolygons groups shapefile rings into polygons: a clockwise ring opens a new polygon, counter
// clockwise rings are holes of the polygon opened before them.
func toPolygons(rings [][]orb.Point) orb.Geometry {
	polygons := make(orb.MultiPolygon, 0, 1)
	for _, r := range rings {
		ring := orb.Ring(r)
		if len(polygons) == 0 || ring.Orientation() == orb.CW {
			polygons = append(polygons, orb.Polygon{ring})
			continue
		}
		last := len(polygons) - 1
		polygons[last] = append(polygons[last], ring)
	}
	if len(polygons) == 1 {
		return polygons[0]
	}
	return polygons
}

func toPoints(ps []orb.Point) []shp.Point {
	out := make([]shp.Point, len(ps))
	for i, p := range ps {
		out[i] = shp.Point{X: p[0], Y: p[1]}
	}
	return out
}

func toShape(g orb.Geometry) shp.Shape {
	switch geom := g.(type) {
	case orb.Point:
		return &shp.Point{X: geom[0], Y: geom[1]}
	case orb.LineString:
		return shp.NewPolyLine([][]shp.Point{toPoints(geom)})
	case orb.MultiLineString:
		parts := make([][]shp.Point, 0, len(geom))
		for _, ls := range geom {
			parts = append(parts, toPoints(ls))
		}
		return shp.NewPolyLine(parts)
	case orb.Polygon:
		return toShape(orb.MultiPolygon{geom})
	case orb.MultiPolygon:
		parts := make([][]shp.Point, 0, len(geom))
		for _, poly := range geom {
			for _, ring := range poly {
				parts = append(parts, toPoints(ring))
			}
		}
		polygon := shp.Polygon(*shp.NewPolyLine(parts))
		return &polygon
	default:
		return nil
	}
}

// ReadShapefile reads the geometry of a shapefile. attributes are left to the dbf decoder.
func ReadShapefile(path string) (*Layer, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	kind, err := kindOf(r.GeometryType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	features := make([]Feature, 0, 1024)
	for r.Next() {
		n, shape := r.Shape()
		geometry := toGeometry(shape)
		if geometry == nil {
			continue
		}
		features = append(features, NewFeature(n, geometry))
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("%s: %w", path, r.Err())
	}

	return NewLayer(layerName(path), kind, features), nil
}

// ReadShapefileWithFields reads geometry together with the raw attribute columns so the layer can
// be written back unchanged.
func ReadShapefileWithFields(path string) (*Layer, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	kind, err := kindOf(r.GeometryType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	fields := r.Fields()
	features := make([]Feature, 0, 1024)
	for r.Next() {
		n, shape := r.Shape()
		geometry := toGeometry(shape)
		if geometry == nil {
			continue
		}
		f := NewFeature(n, geometry)
		f.raw = make([]string, len(fields))
		for j := range fields {
			f.raw[j] = trimAttribute(r.ReadAttribute(n, j))
		}
		features = append(features, f)
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("%s: %w", path, r.Err())
	}

	l := NewLayer(layerName(path), kind, features)
	l.fields = fields
	return l, nil
}

// trimAttribute strips the NUL and space padding of a raw dBase value.
func trimAttribute(v string) string {
	return strings.TrimSpace(strings.TrimRight(v, "\x00"))
}

// WriteShapefile writes l to path (.shp, .shx and, when l has fields, .dbf). features are
// renumbered from zero in write order.
func WriteShapefile(path string, l *Layer) error {
	w, err := shp.Create(path, shapeTypeOf(l.kind))
	if err != nil {
		return err
	}
	err = writeFeatures(w, l)
	w.Close()
	if err != nil {
		return err
	}
	if len(l.fields) == 0 {
		return nil
	}
	return fixTableName(path)
}

func writeFeatures(w *shp.Writer, l *Layer) error {
	if len(l.fields) > 0 {
		if err := w.SetFields(l.fields); err != nil {
			return err
		}
	}

	for _, f := range l.features {
		shape := toShape(f.geometry)
		if shape == nil {
			return fmt.Errorf("feature %d: unsupported geometry %T", f.row, f.geometry)
		}
		row := w.Write(shape)
		if len(l.fields) == 0 {
			continue
		}
		for j, v := range f.raw {
			if j >= len(l.fields) {
				break
			}
			if err := w.WriteAttribute(int(row), j, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// fixTableName moves the attribute table go-shp v0.1.1 writes as "<base>dbf" to "<base>.dbf".
func fixTableName(path string) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	written := base + "dbf"
	if _, err := os.Stat(written); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.Rename(written, base+".dbf")
}
