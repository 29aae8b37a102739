// Package scratch owns the lifecycle of the orchestrator's intermediate
// rasters (§3 "Raster lifetimes", §5 "Shared resources"): a single
// directory holds every scratch artifact for one pipeline run; stages hand
// off by path plus an opened read handle, never by sharing a raster
// object. The directory's artifacts are deleted on a clean pipeline
// completion or a clean (returned-error) failure, and left in place for
// inspection if the process crashes before cleanup runs.
package scratch

import (
	"log"
	"os"
	"path/filepath"
)

// Store is the scratch-directory owner for one pipeline run.
type Store struct {
	dir     string
	verbose bool
	created []string
}

// New creates (or reuses) dir as the scratch directory for one run.
func New(dir string, verbose bool) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, verbose: verbose}, nil
}

// Path returns the scratch path for a named artifact (e.g.
// "preprocessed_image.tif") and records it for later cleanup.
func (s *Store) Path(name string) string {
	p := filepath.Join(s.dir, name)
	s.created = append(s.created, p)
	return p
}

// Dir returns the scratch directory root.
func (s *Store) Dir() string { return s.dir }

// Close removes every tracked scratch artifact. Call it via defer once the
// pipeline has either finished successfully or returned a clean
// (non-panic) error — per spec.md §5, a process crash that skips the
// deferred Close intentionally leaves artifacts behind for inspection.
func (s *Store) Close() error {
	var firstErr error
	for _, p := range s.created {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if s.verbose {
			log.Printf("scratch: removed %s", p)
		}
	}
	s.created = nil
	return firstErr
}

// Keep forgets about a tracked artifact so Close will not delete it — used
// for the final classified output, which is never scratch.
func (s *Store) Keep(path string) {
	for i, p := range s.created {
		if p == path {
			s.created = append(s.created[:i], s.created[i+1:]...)
			return
		}
	}
}
