package dbf

type GeometryKind uint8

const (
	POINT GeometryKind = iota
	LINE
	POLYGON
)

func (k GeometryKind) String() string {
	switch k {
	case LINE:
		return "line"
	case POLYGON:
		return "polygon"
	default:
		return "point"
	}
}

// CodeGroupGeometry maps the hundreds group of a geofabrik feature code (code / 100) to the kind of
// geometry carrying it. This follows version 0.7 of the geofabrik shapefile schema and may break
// with newer editions, replace the map to support another one.
var CodeGroupGeometry = map[int]GeometryKind{
	// polygons
	12: POLYGON, // places
	15: POLYGON, // buildings
	72: POLYGON, // landuse
	82: POLYGON, // water

	// lines
	11: LINE,
	51: LINE, // roads
	53: LINE,
	54: LINE,
	55: LINE,
	56: LINE,
	61: LINE, // railways
	62: LINE,
	63: LINE,
	64: LINE,
	65: LINE,
	66: LINE,
	67: LINE,
	81: LINE, // waterways
	83: LINE,
	90: LINE,
	91: LINE,
}

// ClassifyGeometry returns the geometry kind of a feature code, POINT when its group is unknown.
func ClassifyGeometry(code int) GeometryKind {
	if kind, ok := CodeGroupGeometry[code/100]; ok {
		return kind
	}
	return POINT
}
