package pkg

const (
	INF_WEIGHT float64 = 1e15

	DEFAULT_COORDINATE_PRECISION = 9
)

type RoadClass uint8

// geofabrik fclass values of the roads layer that matter for routing:
// https://download.geofabrik.de/osm-data-in-gis-formats-free.pdf
const (
	MOTORWAY RoadClass = iota
	TRUNK
	PRIMARY
	SECONDARY
	TERTIARY
	UNCLASSIFIED
	RESIDENTIAL
	LIVING_STREET
	PEDESTRIAN
	SERVICE
	MOTORWAY_LINK
	TRUNK_LINK
	PRIMARY_LINK
	SECONDARY_LINK
	TERTIARY_LINK
	TRACK
	CYCLEWAY
	FOOTWAY
	PATH
	STEPS
	UNKNOWN
)

func GetRoadClass(fclass string) RoadClass {
	switch fclass {
	case "motorway":
		return MOTORWAY
	case "trunk":
		return TRUNK
	case "primary":
		return PRIMARY
	case "secondary":
		return SECONDARY
	case "tertiary":
		return TERTIARY
	case "unclassified":
		return UNCLASSIFIED
	case "residential":
		return RESIDENTIAL
	case "living_street":
		return LIVING_STREET
	case "pedestrian":
		return PEDESTRIAN
	case "service":
		return SERVICE
	case "motorway_link":
		return MOTORWAY_LINK
	case "trunk_link":
		return TRUNK_LINK
	case "primary_link":
		return PRIMARY_LINK
	case "secondary_link":
		return SECONDARY_LINK
	case "tertiary_link":
		return TERTIARY_LINK
	case "track", "track_grade1", "track_grade2", "track_grade3", "track_grade4", "track_grade5":
		return TRACK
	case "cycleway":
		return CYCLEWAY
	case "footway", "bridleway":
		return FOOTWAY
	case "path":
		return PATH
	case "steps":
		return STEPS
	default:
		return UNKNOWN
	}
}

// DefaultMaxSpeed is the speed (km/h) assumed for a road class when the maxspeed column is 0.
func DefaultMaxSpeed(class RoadClass) int {
	switch class {
	case MOTORWAY:
		return 100
	case TRUNK, MOTORWAY_LINK:
		return 70
	case PRIMARY, TRUNK_LINK:
		return 65
	case SECONDARY, PRIMARY_LINK:
		return 60
	case TERTIARY, SECONDARY_LINK:
		return 50
	case UNCLASSIFIED, TERTIARY_LINK:
		return 40
	case RESIDENTIAL:
		return 30
	case SERVICE:
		return 20
	case TRACK:
		return 15
	case LIVING_STREET, PEDESTRIAN:
		return 5
	default:
		return 0
	}
}
