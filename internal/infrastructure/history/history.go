// Package history keeps the most recent generation records in a bounded
// in-memory buffer. It exists for diagnostics only; eviction or a restart
// loses records and nothing is persisted.
package history

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/pixelforge-ai/generation-api/internal/domain/generation"
)

// Store is an LRU-bounded record buffer. It satisfies generation.History.
type Store struct {
	cache *lru.Cache
	log   zerolog.Logger
}

// NewStore creates a store holding up to size records.
func NewStore(size int, log zerolog.Logger) (*Store, error) {
	if size < 1 {
		return nil, fmt.Errorf("history size must be at least 1, got %d", size)
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create history cache: %w", err)
	}
	return &Store{
		cache: cache,
		log:   log.With().Str("component", "generation-history").Logger(),
	}, nil
}

// Put stores a record under its generation id.
func (s *Store) Put(rec *generation.Record) {
	if rec == nil || rec.ID == "" {
		return
	}
	if evicted := s.cache.Add(rec.ID, rec); evicted {
		s.log.Debug().Str("generation_id", rec.ID).Msg("history entry evicted")
	}
}

// Get looks up a record by generation id.
func (s *Store) Get(id string) (*generation.Record, bool) {
	val, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	rec, ok := val.(*generation.Record)
	return rec, ok
}

// Len returns the number of buffered records.
func (s *Store) Len() int {
	return s.cache.Len()
}
