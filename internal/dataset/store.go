package dataset

import (
	"context"
	"log/slog"
	"sync"
)

// Store caches loaded datasets keyed by file path. Repeated loads of the
// same path return the in-memory Dataset without re-reading the file; a
// cached entry is only replaced by an explicit Invalidate or a new path.
type Store struct {
	mu     sync.Mutex
	logger *slog.Logger
	cache  map[string]*Dataset
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		logger: logger,
		cache:  make(map[string]*Dataset),
	}
}

// Load returns the cached dataset for path, reading the file on first use.
func (s *Store) Load(ctx context.Context, path string) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ds, ok := s.cache[path]; ok {
		return ds, nil
	}

	ds, err := Load(ctx, path)
	if err != nil {
		return nil, err
	}

	s.logger.Info("dataset loaded",
		"path", path,
		"rows", ds.Len(),
		"columns", len(ds.Header),
		"coerced_cells", ds.CoercedCells,
	)

	s.cache[path] = ds
	return ds, nil
}

// Invalidate drops the cached dataset for path, forcing the next Load to
// re-read the file.
func (s *Store) Invalidate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, path)
}
