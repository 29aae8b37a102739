package pipeline

import (
	"errors"
	"testing"

	"github.com/smartinis/floodmap/internal/ferrors"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	base := DefaultConfig()

	cases := []struct {
		name string
		mod  func(c Config) Config
	}{
		{"non-positive tile size", func(c Config) Config { c.TileSize = 0; return c }},
		{"negative tile expand", func(c Config) Config { c.TileExpand = -1; return c }},
		{"zero min blob size", func(c Config) Config { c.MinBlobSizeMeters = 0; return c }},
		{"max blob size not greater than min", func(c Config) Config {
			c.MinBlobSizeMeters = 1000
			c.MaxBlobSizeMeters = 1000
			return c
		}},
		{"final threshold not above grow threshold", func(c Config) Config {
			c.FinalFloodThreshold = 0.4
			c.WaterGrowThreshold = 0.4
			return c
		}},
		{"min percent valid zero", func(c Config) Config { c.MinPercentValid = 0; return c }},
		{"min percent valid above one", func(c Config) Config { c.MinPercentValid = 1.5; return c }},
		{"non-positive max num tiles", func(c Config) Config { c.MaxNumTiles = 0; return c }},
		{"global max db not above min", func(c Config) Config {
			c.GlobalMinDB = 35
			c.GlobalMaxDB = 35
			return c
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.mod(base).Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want an error")
			}
			var ferr *ferrors.Error
			if !errors.As(err, &ferr) || ferr.Kind != ferrors.Configuration {
				t.Fatalf("err = %v, want *ferrors.Error of kind Configuration", err)
			}
		})
	}
}
