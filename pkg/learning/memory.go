package learning

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store using in-memory maps keyed by
// (dataset, hash). Useful for tests.
type MemoryStore struct {
	mu      sync.Mutex
	queries map[string]*LearnedQuery
}

// NewMemoryStore creates an in-memory learned-query store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{queries: make(map[string]*LearnedQuery)}
}

func key(datasetID, hash string) string {
	return datasetID + ":" + hash
}

// RecordOutcome persists one execution outcome.
func (s *MemoryStore) RecordOutcome(_ context.Context, o Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := HashQuery(o.QueryText)
	now := time.Now()

	if existing, ok := s.queries[key(o.DatasetID, hash)]; ok {
		if o.Success {
			existing.TimesUsed++
			existing.LastUsedAt = now
			existing.Success = true
			existing.ExecutionMS = o.ElapsedMS
			existing.RowCount = o.RowCount
		}
		return nil
	}

	s.queries[key(o.DatasetID, hash)] = &LearnedQuery{
		ID:          uuid.NewString(),
		DatasetID:   o.DatasetID,
		GroupID:     o.GroupID,
		Intent:      o.Intent,
		Question:    o.Question,
		QueryText:   o.QueryText,
		QueryHash:   hash,
		Success:     o.Success,
		ErrorText:   o.Error,
		ExecutionMS: o.ElapsedMS,
		RowCount:    o.RowCount,
		TimesUsed:   1,
		LastUsedAt:  now,
		CreatedAt:   now,
	}
	return nil
}

// WorkingQueries returns successful query texts ordered by reuse count.
func (s *MemoryStore) WorkingQueries(_ context.Context, datasetID, intent string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultWorkingLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*LearnedQuery
	for _, q := range s.queries {
		if q.DatasetID == datasetID && q.Intent == intent && q.Success {
			matched = append(matched, q)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].TimesUsed > matched[j].TimesUsed
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	texts := make([]string, 0, len(matched))
	for _, q := range matched {
		texts = append(texts, q.QueryText)
	}
	return texts, nil
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
