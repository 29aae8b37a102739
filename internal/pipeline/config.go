// Package pipeline sequences components A-I into the end-to-end orchestrator
// of §4.J: read raster and georeference, preprocess to the rescaled dB
// domain, run the tiled statistics/selector/aggregator to find a global
// threshold, build an initial water mask, size its blobs, reproject the DEM
// for the elevation/slope fuzzy channels, fuse all four channels, and flood
// fill into the final classified raster.
package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config enumerates every tunable named in spec.md §6, with the same
// defaults. Fields are populated from flags by the CLI and may additionally
// be loaded from a YAML file via LoadYAML, the way the teacher's sibling
// elevation service loads its runtime config.
type Config struct {
	TileSize   int `yaml:"tile_size"`
	TileExpand int `yaml:"tile_expand"`

	MinBlobSizeMeters float64 `yaml:"min_blob_size_meters"`
	MaxBlobSizeMeters float64 `yaml:"max_blob_size_meters"`

	DEMStatsSubsampleFactor int `yaml:"dem_stats_subsample_factor"`

	FinalFloodThreshold float64 `yaml:"final_flood_threshold"`
	WaterGrowThreshold  float64 `yaml:"water_grow_threshold"`

	MinPercentValid        float64 `yaml:"min_percent_valid"`
	TileStdDevPercentile   float64 `yaml:"tile_stddev_percentile_cutoff"`
	MaxNumTiles            int     `yaml:"max_num_tiles"`

	GlobalMinDB float64 `yaml:"global_min_db"`
	GlobalMaxDB float64 `yaml:"global_max_db"`
	ProcMin     float64 `yaml:"proc_min"`
	ProcMax     float64 `yaml:"proc_max"`

	Concurrency int `yaml:"concurrency"`

	// StrictQA turns the documented-but-unenforced threshold QA gates
	// (§9) into a fatal Algorithmic error instead of a diagnostic log
	// line. Off by default.
	StrictQA bool `yaml:"strict_qa"`

	// RetryOnNoHeterogeneousTiles halves tile_size once and retries the
	// tile-selection stages when the selector returns zero candidates,
	// exercising the "open hook, not presently invoked" of §7. Off by
	// default.
	RetryOnNoHeterogeneousTiles bool `yaml:"retry_on_no_heterogeneous_tiles"`

	Verbose bool `yaml:"-"`
}

// DefaultConfig returns the §6 defaults.
func DefaultConfig() Config {
	return Config{
		TileSize:   512,
		TileExpand: 256,

		MinBlobSizeMeters: 250,
		MaxBlobSizeMeters: 1000,

		DEMStatsSubsampleFactor: 10,

		FinalFloodThreshold: 0.60,
		WaterGrowThreshold:  0.45,

		MinPercentValid:      0.9,
		TileStdDevPercentile: 0.95,
		MaxNumTiles:          5,

		GlobalMinDB: 0.0,
		GlobalMaxDB: 35.0,
		ProcMin:     0,
		ProcMax:     400,

		Concurrency: 0, // 0 means runtime.NumCPU() at the call site
	}
}

// LoadYAML overlays fields set in the file at path onto cfg's current
// values, matching the sibling elevation service's configuration loading.
func LoadYAML(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	return cfg, nil
}

// Validate reports a *ferrors.Error of kind Configuration for any
// nonsensical tuning parameter (§7 "Configuration covers an invalid tile
// size or threshold parameter").
func (c Config) Validate() error {
	if c.TileSize <= 0 {
		return configErr("tile_size must be positive", c.TileSize)
	}
	if c.TileExpand < 0 {
		return configErr("tile_expand must be non-negative", c.TileExpand)
	}
	if c.MinBlobSizeMeters <= 0 || c.MaxBlobSizeMeters <= c.MinBlobSizeMeters {
		return configErr("blob size bounds must satisfy 0 < min < max",
			[2]float64{c.MinBlobSizeMeters, c.MaxBlobSizeMeters})
	}
	if c.FinalFloodThreshold <= c.WaterGrowThreshold {
		return configErr("final_flood_threshold must exceed water_grow_threshold",
			[2]float64{c.FinalFloodThreshold, c.WaterGrowThreshold})
	}
	if c.MinPercentValid <= 0 || c.MinPercentValid > 1 {
		return configErr("min_percent_valid must be in (0, 1]", c.MinPercentValid)
	}
	if c.MaxNumTiles <= 0 {
		return configErr("max_num_tiles must be positive", c.MaxNumTiles)
	}
	if c.GlobalMaxDB <= c.GlobalMinDB {
		return configErr("global_max_db must exceed global_min_db",
			[2]float64{c.GlobalMinDB, c.GlobalMaxDB})
	}
	return nil
}
