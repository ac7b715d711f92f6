package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/lintang-b-s/niceroute/pkg"
	"github.com/spf13/viper"
)

type BoundingBox struct {
	MinLon float64 `mapstructure:"min_lon" validate:"min=-180,max=180"`
	MinLat float64 `mapstructure:"min_lat" validate:"min=-90,max=90"`
	MaxLon float64 `mapstructure:"max_lon" validate:"min=-180,max=180,gtfield=MinLon"`
	MaxLat float64 `mapstructure:"max_lat" validate:"min=-90,max=90,gtfield=MinLat"`
}

// Contains reports whether (lon, lat) lies inside the box, borders included.
func (b BoundingBox) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

type Coordinate struct {
	Lon float64 `mapstructure:"lon" validate:"min=-180,max=180"`
	Lat float64 `mapstructure:"lat" validate:"min=-90,max=90"`
}

// WeightConfig. ReferenceSpeed is in km/h, NicenessRadius in meter. Mode "length" ignores every
// penalty and routes on plain distance.
type WeightConfig struct {
	Mode            string   `mapstructure:"mode" validate:"oneof=nice length"`
	ReferenceSpeed  float64  `mapstructure:"reference_speed" validate:"gt=0"`
	ClassPenalty    float64  `mapstructure:"class_penalty" validate:"gte=0"`
	LowTrafficClass []string `mapstructure:"low_traffic_classes"`
	NicenessRadius  float64  `mapstructure:"niceness_radius" validate:"gt=0"`
	DefaultNiceness float64  `mapstructure:"default_niceness" validate:"gte=0"`
	NicenessCache   int      `mapstructure:"niceness_cache_size" validate:"gt=0"`
}

type Config struct {
	CacheDir            string       `mapstructure:"cache_dir" validate:"required"`
	Datasets            []string     `mapstructure:"datasets" validate:"min=1,dive,required"`
	RoadsDataset        string       `mapstructure:"roads_dataset" validate:"required"`
	LandUseDataset      string       `mapstructure:"landuse_dataset" validate:"required"`
	BoundingBox         BoundingBox  `mapstructure:"bounding_box"`
	DefaultStart        Coordinate   `mapstructure:"default_start"`
	DefaultEnd          Coordinate   `mapstructure:"default_end"`
	CoordinatePrecision int          `mapstructure:"coordinate_precision" validate:"min=0,max=15"`
	ImputeMaxSpeed      bool         `mapstructure:"impute_maxspeed"`
	Weight              WeightConfig `mapstructure:"weight"`
	GeoJSONOutput       string       `mapstructure:"geojson_output"`
}

func setDefaults() {
	viper.SetDefault("cache_dir", "cache")
	viper.SetDefault("datasets", []string{"railways", "traffic", "roads", "landuse"})
	viper.SetDefault("roads_dataset", "roads")
	viper.SetDefault("landuse_dataset", "landuse")

	// downtown vancouver, small enough to clip quickly
	viper.SetDefault("bounding_box.min_lon", -123.145)
	viper.SetDefault("bounding_box.max_lon", -123.116)
	viper.SetDefault("bounding_box.min_lat", 49.271)
	viper.SetDefault("bounding_box.max_lat", 49.288)

	viper.SetDefault("default_start.lon", -123.1400)
	viper.SetDefault("default_start.lat", 49.2750)
	viper.SetDefault("default_end.lon", -123.1200)
	viper.SetDefault("default_end.lat", 49.2850)

	viper.SetDefault("coordinate_precision", pkg.DEFAULT_COORDINATE_PRECISION)
	viper.SetDefault("impute_maxspeed", true)

	viper.SetDefault("weight.mode", "nice")
	viper.SetDefault("weight.reference_speed", 50.0)
	viper.SetDefault("weight.class_penalty", 2.0)
	viper.SetDefault("weight.low_traffic_classes", []string{
		"residential", "living_street", "service", "pedestrian", "unclassified",
		"track", "track_grade1", "track_grade2", "track_grade3", "track_grade4", "track_grade5",
		"path", "footway", "cycleway", "bridleway", "steps",
	})
	viper.SetDefault("weight.niceness_radius", 50.0)
	viper.SetDefault("weight.default_niceness", 1.0)
	viper.SetDefault("weight.niceness_cache_size", 1<<16)

	viper.SetDefault("geojson_output", "")
}

// ReadConfig loads config.yaml from ./data/ or the working directory when present,
// overlays NICEROUTE_* environment variables and validates the result.
func ReadConfig() (*Config, error) {
	setDefaults()
	viper.SetConfigName("config")
	viper.AddConfigPath("./data/")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("NICEROUTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("fatal error config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("fatal error decoding config: %w", err)
	}

	if err := ValidateStruct(cfg); err != nil {
		return nil, WrapErrorf(err, ErrBadParamInput, "invalid config")
	}
	return &cfg, nil
}

// ValidateStruct runs the validate tags of s and flattens the failures into
// english messages.
func ValidateStruct(s interface{}) error {
	validate := validator.New()
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, e.Translate(trans))
	}
	return fmt.Errorf("validation error: %v", msgs)
}
