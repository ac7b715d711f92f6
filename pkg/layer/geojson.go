package layer

import (
	"os"

	"github.com/paulmach/orb/geojson"
)

// ToFeatureCollection converts l to geojson, decoded attributes become feature properties.
func (l *Layer) ToFeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range l.features {
		f := &l.features[i]
		gf := geojson.NewFeature(f.geometry)
		if f.hasAttributes {
			for k, v := range f.attributes.Values() {
				gf.Properties[k] = v
			}
		}
		fc.Append(gf)
	}
	return fc
}

// WriteGeoJSON writes l as a geojson feature collection, for plotting in any gis viewer.
func (l *Layer) WriteGeoJSON(path string) error {
	data, err := l.ToFeatureCollection().MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
