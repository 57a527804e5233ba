// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main contains the implementation and entry point for the
// subgrid_query command. It loads cell passes from a text file into an
// in-memory site and prints the filtered values of its subgrids.
//
// Example usage:
// $ ./subgrid_query --passes=passes.txt --data_type=Height --start=2026-04-01T06:00:00Z
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/terrain-ops/subgrid/cellpass"
	"github.com/terrain-ops/subgrid/cmd"
	"github.com/terrain-ops/subgrid/monitoring"
	"github.com/terrain-ops/subgrid/monitoring/prometheus"
	"github.com/terrain-ops/subgrid/retriever"
	"github.com/terrain-ops/subgrid/storage"
	"github.com/terrain-ops/subgrid/subgridtree"
	"github.com/terrain-ops/subgrid/types"
	"github.com/terrain-ops/subgrid/util"
	"k8s.io/klog/v2"

	// Register supported storage providers.
	_ "github.com/terrain-ops/subgrid/storage/memory"
	_ "github.com/terrain-ops/subgrid/storage/mysql"
	_ "github.com/terrain-ops/subgrid/storage/redisstore"
)

var (
	passesFile   = flag.String("passes", "", "File of cell passes, one per line: x y time height [key=value...]")
	dataType     = flag.String("data_type", "Height", "Grid data type to retrieve")
	cellSize     = flag.Float64("cell_size", subgridtree.DefaultCellSize, "Cell size in world units")
	numLevels    = flag.Uint("num_levels", subgridtree.DefaultNumLevels, "Number of levels in the site tree")
	siteID       = flag.String("site_id", "", "Site UUID, random if empty")
	cell         = flag.String("cell", "", "World position x,y; only the subgrid holding it is retrieved")
	concurrency  = flag.Int("concurrency", 4, "Number of subgrids retrieved in parallel")
	httpEndpoint = flag.String("http_endpoint", "", "Endpoint for HTTP metrics (host:port, empty means disabled)")
	configFile   = flag.String("config", "", "Config file containing flags, file contents can be overridden by command line flags")

	storageSystem     = flag.String("storage_system", "", "Storage provider for the existence map, one of memory, mysql or redis; empty means none")
	existenceMapName  = flag.String("existence_map_name", "existence", "Name the existence map is stored under")
	existenceRevision = flag.Int64("existence_revision", 0, "If positive, retrieve the subgrids named by this stored revision of the existence map")

	q query
)

func init() {
	flag.StringVar(&q.start, "start", "", "Start of the time window (RFC 3339), empty for none")
	flag.StringVar(&q.end, "end", "", "End of the time window (RFC 3339), empty for none")
	flag.BoolVar(&q.overrideTimeBoundary, "override_time_boundary", false, "Search forward past the start of the window when nothing qualifies inside it")
	flag.BoolVar(&q.earliest, "earliest", false, "Return the earliest qualifying pass instead of the latest")
	flag.StringVar(&q.elevationType, "elevation_type", "", "One of Last, First, Highest or Lowest")
	flag.StringVar(&q.machines, "machines", "", "Comma separated machine ids to accept, empty for all")
	flag.StringVar(&q.rect, "rect", "", "World rectangle minX,minY,maxX,maxY restricting cells")
	flag.StringVar(&q.fence, "fence", "", "Polygon fence restricting cells, as space separated x,y vertices")
	flag.Float64Var(&q.pixelSize, "pixel_size", 0, "Display pixel size in world units; enables sieving when larger than a cell")
	flag.BoolVar(&q.integerSieve, "integer_sieve", false, "Use the integer sieve rather than the rotated floating point one")
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if *configFile != "" {
		if err := cmd.ParseFlagFile(*configFile); err != nil {
			klog.Exitf("Failed to load flags from config file %q: %s", *configFile, err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go util.AwaitSignal(ctx, func(os.Signal) { cancel() })

	var mf monitoring.MetricFactory = monitoring.InertMetricFactory{}
	if *httpEndpoint != "" {
		mf = prometheus.MetricFactory{}
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			klog.Infof("HTTP metrics listening on %v", *httpEndpoint)
			if err := http.ListenAndServe(*httpEndpoint, nil); err != nil {
				klog.Errorf("HTTP server stopped: %v", err)
			}
		}()
	}

	dt, err := types.ParseGridDataType(*dataType)
	if err != nil {
		klog.Exitf("Bad --data_type: %v", err)
	}
	f, err := q.filter()
	if err != nil {
		klog.Exitf("Bad filter flags: %v", err)
	}

	site, err := loadSite()
	if err != nil {
		klog.Exitf("Failed to load site: %v", err)
	}

	existence := site.ExistenceMap()
	if *storageSystem != "" {
		existence, err = persistExistenceMap(ctx, site, mf)
		if err != nil {
			klog.Exitf("Existence map storage: %v", err)
		}
	}
	if *cell != "" {
		existence, err = singleSubGrid(site, *cell)
		if err != nil {
			klog.Exitf("Bad --cell: %v", err)
		}
	}

	start := time.Now()
	results, err := retriever.Batch(ctx, site, existence, f, retriever.BatchOptions{
		Options:     retriever.Options{MetricFactory: mf},
		DataType:    dt,
		Area:        q.area(),
		Concurrency: *concurrency,
	})
	if err != nil {
		klog.Exitf("Retrieval failed: %v", err)
	}
	klog.Infof("Retrieved %d subgrids in %v", len(results), time.Since(start))

	w := bufio.NewWriter(os.Stdout)
	for _, r := range results {
		if err := printResult(w, r); err != nil {
			klog.Exitf("Writing results: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		klog.Exitf("Writing results: %v", err)
	}
}

func loadSite() (*cellpass.Site, error) {
	id := uuid.Nil
	if *siteID != "" {
		var err error
		if id, err = uuid.Parse(*siteID); err != nil {
			return nil, err
		}
	}
	site := cellpass.NewSite(id, byte(*numLevels), *cellSize)
	if *passesFile == "" {
		klog.Warning("No --passes file given, the site is empty")
		return site, nil
	}
	file, err := os.Open(*passesFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	n, err := readPasses(file, site)
	if err != nil {
		return nil, err
	}
	if err := site.RefreshLatest(); err != nil {
		return nil, err
	}
	klog.Infof("Loaded %d cell passes into site %v", n, site.ID)
	return site, nil
}

// persistExistenceMap saves the site's existence map and returns the map
// the retrieval should use: the one just saved, or the requested stored
// revision.
func persistExistenceMap(ctx context.Context, site *cellpass.Site, mf monitoring.MetricFactory) (*subgridtree.BitMask, error) {
	sp, err := storage.NewProvider(*storageSystem, mf)
	if err != nil {
		return nil, err
	}
	defer sp.Close()
	es := sp.ExistenceMapStorage()

	rev, err := storage.SaveBitMask(ctx, es, site.ID, *existenceMapName, site.ExistenceMap())
	if err != nil {
		return nil, err
	}
	klog.Infof("Saved existence map %s/%s revision %d", site.ID, *existenceMapName, rev)
	if *existenceRevision <= 0 {
		return site.ExistenceMap(), nil
	}
	m, _, err := storage.LoadBitMask(ctx, es, site.ID, *existenceMapName, *existenceRevision)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// singleSubGrid returns an existence map naming only the subgrid holding
// world position xy.
func singleSubGrid(site *cellpass.Site, xy string) (*subgridtree.BitMask, error) {
	p, err := parseFloats(xy, 2)
	if err != nil {
		return nil, err
	}
	a, ok := site.Tree().CellContaining(p[0], p[1])
	if !ok {
		return nil, fmt.Errorf("(%v, %v) is outside the site", p[0], p[1])
	}
	m := subgridtree.NewExistenceMap(site.Tree().NumLevels(), site.CellSize())
	m.SetCell(subgridtree.Address{X: a.X >> subgridtree.IndexBitsPerLevel, Y: a.Y >> subgridtree.IndexBitsPerLevel}, true)
	return m, nil
}
