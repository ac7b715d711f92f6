package spatialcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lintang-b-s/niceroute/pkg/layer"
	"github.com/lintang-b-s/niceroute/pkg/util"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

var (
	ErrSourceNotFound = errors.New("source dataset not found")
	ErrCacheMismatch  = errors.New("cache does not match the requested datasets")
	ErrForeignContent = errors.New("cache directory holds files it did not write")
)

const (
	entryFile       = "data.shp"
	entryIndex      = "data.shx"
	entryTable      = "data.dbf"
	fingerprintFile = "bbox"
)

// ownedFiles are the only files a cache entry ever holds.
var ownedFiles = map[string]struct{}{
	entryFile:       {},
	entryIndex:      {},
	entryTable:      {},
	fingerprintFile: {},
}

// Cache keeps bounding box clipped copies of geofabrik shapefile layers, one sub directory per
// dataset. It is not safe for concurrent use by several processes sharing the same directory.
type Cache struct {
	dir string
	log *zap.Logger
}

func New(dir string, log *zap.Logger) *Cache {
	return &Cache{dir: dir, log: log}
}

func (c *Cache) GetDir() string {
	return c.dir
}

func (c *Cache) entryDir(name string) string {
	return filepath.Join(c.dir, name)
}

// LayerPath returns the path of the cached shapefile of dataset name.
func (c *Cache) LayerPath(name string) string {
	return filepath.Join(c.entryDir(name), entryFile)
}

// TablePath returns the path of the cached attribute table of dataset name.
func (c *Cache) TablePath(name string) string {
	return filepath.Join(c.entryDir(name), entryTable)
}

// fingerprint encodes the clipping box so a cache built for another area is never reused.
func fingerprint(bbox orb.Bound) string {
	parts := []float64{bbox.Min[0], bbox.Min[1], bbox.Max[0], bbox.Max[1]}
	ss := make([]string, len(parts))
	for i, p := range parts {
		ss[i] = strconv.FormatFloat(p, 'f', -1, 64)
	}
	return strings.Join(ss, " ")
}

// SourcePath returns the shapefile of dataset name in folder. geofabrik names area layers with an
// extra "_a", both variants are tried.
func SourcePath(folder, name string) (string, error) {
	candidates := []string{
		filepath.Join(folder, fmt.Sprintf("gis_osm_%s_free_1.shp", name)),
		filepath.Join(folder, fmt.Sprintf("gis_osm_%s_a_free_1.shp", name)),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", util.WrapErrorf(nil, ErrSourceNotFound,
		"cannot find file 'gis_osm_%s_free_1.shp' or 'gis_osm_%s_a_free_1.shp' in %s", name, name, folder)
}

// IsValid reports whether the cache directory holds exactly expected entries, each clipped to bbox.
// Nothing is checked about the content of the entries.
func (c *Cache) IsValid(expected int, bbox orb.Bound) bool {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return false
	}
	if len(entries) != expected {
		c.log.Warn("cache entry count mismatch", zap.Int("expected", expected), zap.Int("found", len(entries)))
		return false
	}

	want := fingerprint(bbox)
	for _, e := range entries {
		if !e.IsDir() {
			return false
		}
		got, err := os.ReadFile(filepath.Join(c.dir, e.Name(), fingerprintFile))
		if err != nil || strings.TrimSpace(string(got)) != want {
			c.log.Warn("cache entry clipped to another bounding box", zap.String("dataset", e.Name()))
			return false
		}
	}
	return true
}

// resolveSources checks that sourceFolder exists and holds every dataset of names.
func resolveSources(sourceFolder string, names []string) ([]string, error) {
	info, err := os.Stat(sourceFolder)
	if err != nil {
		return nil, util.WrapErrorf(err, ErrSourceNotFound, "%q does not exist", sourceFolder)
	}
	if !info.IsDir() {
		return nil, util.WrapErrorf(nil, ErrSourceNotFound, "%q is not a folder", sourceFolder)
	}

	sources := make([]string, len(names))
	for i, name := range names {
		sources[i], err = SourcePath(sourceFolder, name)
		if err != nil {
			return nil, err
		}
	}
	return sources, nil
}

// EnsureCached clips every dataset of sourceFolder to bbox and persists it in the cache. the
// source folder and every dataset are checked before anything is written.
func (c *Cache) EnsureCached(sourceFolder string, names []string, bbox orb.Bound) error {
	sources, err := resolveSources(sourceFolder, names)
	if err != nil {
		return err
	}
	return c.clipAll(sourceFolder, sources, names, bbox)
}

func (c *Cache) clipAll(sourceFolder string, sources, names []string, bbox orb.Bound) error {
	c.log.Sugar().Infof("clipping %d datasets from %s", len(names), sourceFolder)
	for i, name := range names {
		if err := c.cacheDataset(sources[i], name, bbox); err != nil {
			return err
		}
	}
	return nil
}

// ownedEntries lists the entries of the cache directory. every entry must be a directory holding
// nothing but cache files, otherwise the directory is not treated as a cache and nothing is returned.
func (c *Cache) ownedEntries() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	owned := make([]string, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(c.dir, e.Name())
		if !e.IsDir() {
			return nil, util.WrapErrorf(nil, ErrForeignContent, "%s is not a cache entry", path)
		}
		files, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if _, ok := ownedFiles[f.Name()]; !ok || f.IsDir() {
				return nil, util.WrapErrorf(nil, ErrForeignContent, "%s is not a cache file",
					filepath.Join(path, f.Name()))
			}
		}
		owned = append(owned, path)
	}
	return owned, nil
}

func (c *Cache) cacheDataset(sourcePath, name string, bbox orb.Bound) error {
	source, err := layer.ReadShapefileWithFields(sourcePath)
	if err != nil {
		return err
	}
	clipped := source.Filter(bbox)

	dir := c.entryDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := layer.WriteShapefile(c.LayerPath(name), clipped); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, fingerprintFile), []byte(fingerprint(bbox)+"\n"), 0644); err != nil {
		return err
	}

	c.log.Info("cached file", zap.String("dataset", name), zap.Int("features", clipped.NumberOfFeatures()),
		zap.Int("source_features", source.NumberOfFeatures()))
	return nil
}

// Prepare makes sure the cache holds names clipped to bbox. An invalid cache is removed and
// rebuilt from scratch, entries are never reused partially. The sources are checked and the cache
// directory must hold only cache entries before anything is removed.
func (c *Cache) Prepare(sourceFolder string, names []string, bbox orb.Bound) error {
	if c.IsValid(len(names), bbox) {
		c.log.Info("using cached datasets", zap.String("dir", c.dir))
		return nil
	}

	sources, err := resolveSources(sourceFolder, names)
	if err != nil {
		return err
	}
	stale, err := c.ownedEntries()
	if err != nil {
		return err
	}

	c.log.Warn("cache is absent or stale, clipping source datasets", zap.String("dir", c.dir),
		zap.Int("stale_entries", len(stale)), zap.Error(ErrCacheMismatch))
	for _, path := range stale {
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return c.clipAll(sourceFolder, sources, names, bbox)
}

// LoadCached reads the geometry of a cached dataset.
func (c *Cache) LoadCached(name string) (*layer.Layer, error) {
	l, err := layer.ReadShapefile(c.LayerPath(name))
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrNotFound, "dataset %q is not cached", name)
	}
	l.SetName(name)
	return l, nil
}
