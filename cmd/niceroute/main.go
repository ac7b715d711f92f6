package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/lintang-b-s/niceroute/pkg/dbf"
	"github.com/lintang-b-s/niceroute/pkg/engine"
	"github.com/lintang-b-s/niceroute/pkg/logger"
	"github.com/lintang-b-s/niceroute/pkg/util"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	// allow short (-h) help
	kingpin.CommandLine.HelpFlag.Short('h')
	kingpin.CommandLine.Help = "Plans pleasant routes over geofabrik OpenStreetMap shapefiles."

	runCmd := kingpin.Command("run", "clips the datasets, builds the road graph and plans a route")
	runFolder := runCmd.Arg("source-folder", "folder holding the gis_osm_*_free_1 shapefiles").Required().String()
	runCoords := runCmd.Arg("coords", "start_lon start_lat end_lon end_lat").Strings()
	runMode := runCmd.Flag("mode", "edge weight: nice or length").String()
	runGeoJSON := runCmd.Flag("geojson", "write the road graph and the route to this geojson file").String()

	cacheCmd := kingpin.Command("cache", "clips the datasets into the cache without routing")
	cacheFolder := cacheCmd.Arg("source-folder", "folder holding the gis_osm_*_free_1 shapefiles").Required().String()

	dbfCmd := kingpin.Command("dbf", "decodes attribute tables and prints a summary")
	dbfFolder := dbfCmd.Arg("folder", "folder holding the tables").Required().ExistingDir()
	dbfFiles := dbfCmd.Arg("files", "table file names").Required().Strings()

	command := kingpin.Parse()

	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := util.ReadConfig()
	if err != nil {
		log.Fatal("cannot read config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "run":
		if *runMode != "" {
			cfg.Weight.Mode = *runMode
		}
		if *runGeoJSON != "" {
			cfg.GeoJSONOutput = *runGeoJSON
		}
		err = runRoute(ctx, cfg, *runFolder, *runCoords, log)
	case "cache":
		err = runCache(cfg, *cacheFolder, log)
	case "dbf":
		err = runDbf(*dbfFolder, *dbfFiles, log)
	}
	if err != nil {
		log.Error("niceroute failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}

func runRoute(ctx context.Context, cfg *util.Config, folder string, coords []string, log *zap.Logger) error {
	if err := util.ValidateStruct(cfg); err != nil {
		return util.WrapErrorf(err, util.ErrBadParamInput, "invalid flags")
	}
	start, end := resolveEndpoints(coords, cfg, log)

	e, err := engine.NewEngine(cfg, log)
	if err != nil {
		return err
	}
	route, err := e.Run(ctx, folder, start, end)
	if err != nil {
		return err
	}
	if route.IsEmpty() {
		return nil
	}

	log.Info("route", zap.Int("nodes", len(route.GetNodes())), zap.Float64("cost", route.GetCost()),
		zap.String("length", fmt.Sprintf("%.0f m", route.GetLength())))
	for _, p := range route.GetPoints() {
		fmt.Printf("%.7f %.7f\n", p.Lon(), p.Lat())
	}
	fmt.Println(route.Polyline())
	return nil
}

func runCache(cfg *util.Config, folder string, log *zap.Logger) error {
	e, err := engine.NewEngine(cfg, log)
	if err != nil {
		return err
	}
	graph, _, err := e.BuildGraph(folder)
	if err != nil {
		return err
	}
	log.Info("cache ready", zap.String("dir", cfg.CacheDir), zap.Int("nodes", graph.NumberOfNodes()),
		zap.Int("edges", graph.NumberOfEdges()))
	return nil
}

func runDbf(folder string, files []string, log *zap.Logger) error {
	tables, err := dbf.ReadMany(folder, files, log)
	if err != nil {
		return err
	}
	for _, t := range tables {
		names := make([]string, 0, t.GetSchema().NumberOfAttributes())
		for _, a := range t.GetSchema().GetAttributes() {
			names = append(names, fmt.Sprintf("%s(%s,%d)", a.GetName(), a.GetType(), a.GetSize()))
		}
		fmt.Printf("%s: %s records, fields %v\n", t.GetFilename(), humanize.Comma(int64(t.NumberOfRecords())), names)
	}
	return nil
}
