package layer

import (
	"github.com/jonas-p/go-shp"
	"github.com/lintang-b-s/niceroute/pkg/dbf"
	"github.com/paulmach/orb"
)

// Feature is one geometry of a layer. row is the position of the shape in its source file and the
// key used to join it with the row of the attribute table.
type Feature struct {
	row           int
	geometry      orb.Geometry
	attributes    dbf.Record
	hasAttributes bool
	raw           []string
}

func NewFeature(row int, geometry orb.Geometry) Feature {
	return Feature{row: row, geometry: geometry}
}

func NewFeatureWithAttributes(row int, geometry orb.Geometry, attributes dbf.Record) Feature {
	return Feature{row: row, geometry: geometry, attributes: attributes, hasAttributes: true}
}

func (f *Feature) GetRow() int {
	return f.row
}

func (f *Feature) GetGeometry() orb.Geometry {
	return f.geometry
}

func (f *Feature) GetAttributes() (dbf.Record, bool) {
	return f.attributes, f.hasAttributes
}

func (f *Feature) HasAttributes() bool {
	return f.hasAttributes
}

func (f *Feature) GetString(name string) string {
	return f.attributes.GetString(name)
}

func (f *Feature) GetInt(name string) int {
	return f.attributes.GetInt(name)
}

// Lines returns the line strings of a line feature, nil for any other geometry.
func (f *Feature) Lines() []orb.LineString {
	switch g := f.geometry.(type) {
	case orb.LineString:
		return []orb.LineString{g}
	case orb.MultiLineString:
		return g
	default:
		return nil
	}
}

// Polygons returns the polygons of an area feature, nil for any other geometry.
func (f *Feature) Polygons() []orb.Polygon {
	switch g := f.geometry.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}
	case orb.MultiPolygon:
		return g
	default:
		return nil
	}
}

// Layer is a named set of features sharing one geometry kind.
type Layer struct {
	name     string
	kind     dbf.GeometryKind
	features []Feature
	fields   []shp.Field
}

func NewLayer(name string, kind dbf.GeometryKind, features []Feature) *Layer {
	return &Layer{name: name, kind: kind, features: features}
}

func (l *Layer) GetName() string {
	return l.name
}

func (l *Layer) SetName(name string) {
	l.name = name
}

func (l *Layer) GetKind() dbf.GeometryKind {
	return l.kind
}

func (l *Layer) GetFeatures() []Feature {
	return l.features
}

func (l *Layer) NumberOfFeatures() int {
	return len(l.features)
}

func (l *Layer) GetFields() []shp.Field {
	return l.fields
}

// SetFields sets the attribute columns written next to the geometry. raw holds one string per
// field for every feature, in feature order.
func (l *Layer) SetFields(fields []shp.Field, raw [][]string) {
	l.fields = fields
	for i := range l.features {
		if i < len(raw) {
			l.features[i].raw = raw[i]
		}
	}
}

// AttachTable joins the decoded attribute table to the features by row and returns the number of
// features that found their record.
func (l *Layer) AttachTable(table *dbf.Table) int {
	matched := 0
	for i := range l.features {
		rec, ok := table.Lookup(l.features[i].row)
		if !ok {
			continue
		}
		l.features[i].attributes = rec
		l.features[i].hasAttributes = true
		matched++
	}
	return matched
}

// Filter returns a layer holding the features whose bound intersects bound. rows are kept, the
// attribute columns are shared with l.
func (l *Layer) Filter(bound orb.Bound) *Layer {
	features := make([]Feature, 0, len(l.features))
	for _, f := range l.features {
		if f.geometry == nil {
			continue
		}
		if f.geometry.Bound().Intersects(bound) {
			features = append(features, f)
		}
	}
	return &Layer{name: l.name, kind: l.kind, features: features, fields: l.fields}
}
