// Command floodmap delineates flooded surface water from a Sentinel-1 SAR
// amplitude image and a DEM, following Martinis/Kersten/Twele (2015)
// augmented with DEM- and blob-size-aware fuzzy refinement.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/smartinis/floodmap/internal/pipeline"
	"github.com/smartinis/floodmap/internal/progress"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		demPath         string
		scratchDir      string
		configPath      string
		tileSize        int
		tileExpand      int
		concurrency     int
		finalThreshold  float64
		growThreshold   float64
		maxNumTiles     int
		strictQA        bool
		retryOnNoTiles  bool
		metricsAddr     string
		verbose         bool
		logFile         string
		showVersion     bool
		cpuProfile      string
		memProfile      string
	)

	flag.StringVar(&demPath, "dem", "", "Path to the DEM raster (required)")
	flag.StringVar(&scratchDir, "scratch-dir", "", "Scratch directory for intermediate rasters (default: .floodmap-scratch next to the output)")
	flag.StringVar(&configPath, "config", "", "Optional YAML config file overlaying the defaults")
	flag.IntVar(&tileSize, "tile-size", 512, "Grid stride for statistics, blob sizing, and flood fill")
	flag.IntVar(&tileExpand, "tile-expand", 256, "Halo width for blob-sizing and flood-fill tile independence")
	flag.IntVar(&concurrency, "concurrency", runtime.NumCPU(), "Number of parallel tile workers")
	flag.Float64Var(&finalThreshold, "final-flood-threshold", 0.60, "Seed threshold for the flood-fill stage")
	flag.Float64Var(&growThreshold, "water-grow-threshold", 0.45, "Grow threshold for the flood-fill stage")
	flag.IntVar(&maxNumTiles, "max-num-tiles", 5, "Maximum number of heterogeneous tiles selected for thresholding")
	flag.BoolVar(&strictQA, "strict-qa", false, "Turn the documented threshold QA gates into fatal errors")
	flag.BoolVar(&retryOnNoTiles, "retry-on-no-heterogeneous-tiles", false, "Halve tile_size once and retry tile selection on failure")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus /metrics on (default: disabled)")
	flag.BoolVar(&verbose, "verbose", false, "Verbose stage logging")
	flag.StringVar(&logFile, "log-file", "", "Write verbose logs to this rotating file instead of stderr")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	flag.StringVar(&memProfile, "memprofile", "", "Write memory profile to file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: floodmap [flags] <input.tif> <output.tif>\n\n")
		fmt.Fprintf(os.Stderr, "Detect flooded surface water in a Sentinel-1 SAR amplitude raster.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("floodmap %s (commit %s, built %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if logFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Fatalf("Creating CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("Starting CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
		if verbose {
			log.Printf("CPU profiling enabled → %s", cpuProfile)
		}
	}

	if memProfile != "" {
		defer func() {
			f, err := os.Create(memProfile)
			if err != nil {
				log.Fatalf("Creating memory profile: %v", err)
			}
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Fatalf("Writing memory profile: %v", err)
			}
			if verbose {
				log.Printf("Memory profile written → %s", memProfile)
			}
		}()
	}

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}
	if demPath == "" {
		log.Fatal("-dem is required")
	}
	inputPath, outputPath := args[0], args[1]

	cfg := pipeline.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = pipeline.LoadYAML(cfg, configPath)
		if err != nil {
			log.Fatalf("Config: %v", err)
		}
	}
	cfg.TileSize = tileSize
	cfg.TileExpand = tileExpand
	cfg.Concurrency = concurrency
	cfg.FinalFloodThreshold = finalThreshold
	cfg.WaterGrowThreshold = growThreshold
	cfg.MaxNumTiles = maxNumTiles
	cfg.StrictQA = strictQA
	cfg.RetryOnNoHeterogeneousTiles = retryOnNoTiles
	cfg.Verbose = verbose

	if scratchDir == "" {
		scratchDir = filepath.Join(filepath.Dir(outputPath), ".floodmap-scratch")
	}

	metrics := pipeline.NewMetrics()
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
		if verbose {
			log.Printf("Serving metrics on %s/metrics", metricsAddr)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Signal received, cancelling pipeline")
		cancel()
	}()

	var reporter progress.Reporter = progress.Noop{}
	if verbose {
		reporter = progress.NewBar("floodmap", 6)
	}

	result, err := pipeline.Run(ctx, cfg, inputPath, demPath, scratchDir, outputPath, reporter, metrics, verbose)
	if err != nil {
		log.Fatalf("floodmap: %v", err)
	}

	log.Printf("Done: threshold=%.2f (stddev=%.2f across %d tiles), water height mean=%.2f stddev=%.2f, output=%s",
		result.Threshold.Threshold, result.Threshold.StdDev, len(result.SelectedTiles),
		result.WaterHeight, result.WaterHeightStd, result.OutputPath)
}
