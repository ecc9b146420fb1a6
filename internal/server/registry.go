package server

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/shapegen-mcp/internal/shapes"
)

// ErrUnknownDataset is returned for a dataset ID the registry does not hold.
var ErrUnknownDataset = errors.New("unknown dataset")

// DatasetEntry is one generated dataset held by the server.
type DatasetEntry struct {
	ID        string
	Name      string
	Seed      uint64
	CreatedAt time.Time
	Dataset   *shapes.Dataset
}

// DatasetInfo is the JSON summary of a DatasetEntry.
type DatasetInfo struct {
	ID        string        `json:"dataset_id"`
	Name      string        `json:"name,omitempty"`
	Seed      uint64        `json:"seed"`
	Count     int           `json:"count"`
	CreatedAt time.Time     `json:"created_at"`
	Params    shapes.Params `json:"params"`
}

// Info summarizes the entry.
func (e *DatasetEntry) Info() DatasetInfo {
	return DatasetInfo{
		ID:        e.ID,
		Name:      e.Name,
		Seed:      e.Seed,
		Count:     e.Dataset.Len(),
		CreatedAt: e.CreatedAt,
		Params:    e.Dataset.Params(),
	}
}

// Registry maps dataset IDs to datasets. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*DatasetEntry
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*DatasetEntry), now: time.Now}
}

// Create builds a dataset from p seeded with seed and registers it under a
// fresh random ID.
func (r *Registry) Create(name string, p shapes.Params, seed uint64) (*DatasetEntry, error) {
	ds, err := shapes.NewDataset(p, shapes.NewSource(seed))
	if err != nil {
		return nil, err
	}
	e := &DatasetEntry{
		ID:        uuid.NewString(),
		Name:      name,
		Seed:      seed,
		CreatedAt: r.now().UTC(),
		Dataset:   ds,
	}

	r.mu.Lock()
	r.entries[e.ID] = e
	r.mu.Unlock()
	return e, nil
}

// Get returns the dataset registered under id.
func (r *Registry) Get(id string) (*DatasetEntry, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, id)
	}
	return e, nil
}

// List returns every dataset, oldest first.
func (r *Registry) List() []*DatasetEntry {
	r.mu.RLock()
	out := make([]*DatasetEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Drop removes the dataset registered under id.
func (r *Registry) Drop(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDataset, id)
	}
	delete(r.entries, id)
	return nil
}

// checkID rejects strings that cannot be a dataset ID.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q is not a dataset id", ErrUnknownDataset, id)
	}
	return nil
}
