package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryLister implements Lister over an in-memory slice. Useful for tests
// and file-configured single-tenant deployments.
type MemoryLister struct {
	mu       sync.RWMutex
	datasets []AvailableDataset
}

// NewMemoryLister creates an in-memory lister.
func NewMemoryLister(datasets ...AvailableDataset) *MemoryLister {
	return &MemoryLister{datasets: datasets}
}

// Add appends an authorization row.
func (l *MemoryLister) Add(d AvailableDataset) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.datasets = append(l.datasets, d)
}

// ListForPhone returns authorizations for the phone, ordered by OptionNumber.
func (l *MemoryLister) ListForPhone(_ context.Context, phone string) ([]AvailableDataset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []AvailableDataset
	for _, d := range l.datasets {
		if d.Phone == phone {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OptionNumber < result[j].OptionNumber
	})
	return result, nil
}

// Verify interface compliance.
var _ Lister = (*MemoryLister)(nil)
