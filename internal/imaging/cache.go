package imaging

import (
	"container/list"
	"fmt"
	"image"
	"sync"

	"github.com/ironsheep/shapegen-mcp/internal/shapes"
)

// Rendered is one sample's derived pixels.
type Rendered struct {
	Image *image.RGBA
	Masks *shapes.MaskStack
}

// RenderCache keeps recently rendered samples so repeated tool calls on the
// same sample do not re-rasterize it.
//
// Entries are keyed by dataset handle and image ID. When the cache holds more
// than its capacity, the least recently used entry is evicted. A capacity of
// 0 disables caching.
//
// RenderCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache := imaging.NewRenderCache(128)
//	r, err := cache.Load("ds-1", 7, dataset)
//	if err != nil {
//	    return err
//	}
//	// Use r.Image, r.Masks...
//	cache.EvictDataset("ds-1") // when the dataset is dropped
type RenderCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type cacheEntry struct {
	key      string
	dataset  string
	rendered *Rendered
}

// SampleSource is the part of shapes.Dataset the cache needs.
type SampleSource interface {
	Spec(id int) (shapes.ImageSpec, error)
}

// NewRenderCache creates an empty cache holding at most capacity samples.
func NewRenderCache(capacity int) *RenderCache {
	return &RenderCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func cacheKey(dataset string, id int) string {
	return fmt.Sprintf("%s/%d", dataset, id)
}

// Load returns the rendered image and masks of sample id, rendering them from
// src on a miss.
//
// Returned values are shared with the cache and must not be modified.
func (c *RenderCache) Load(dataset string, id int, src SampleSource) (*Rendered, error) {
	key := cacheKey(dataset, id)

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		r := el.Value.(*cacheEntry).rendered
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	spec, err := src.Spec(id)
	if err != nil {
		return nil, err
	}
	r := &Rendered{Image: spec.Render(), Masks: spec.Masks()}

	if c.capacity <= 0 {
		return r, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		// Another goroutine rendered it first.
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).rendered, nil
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, dataset: dataset, rendered: r})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	return r, nil
}

// Len returns the number of cached samples.
func (c *RenderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// EvictDataset removes every cached sample of one dataset.
func (c *RenderCache) EvictDataset(dataset string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if e := el.Value.(*cacheEntry); e.dataset == dataset {
			c.order.Remove(el)
			delete(c.entries, e.key)
		}
		el = next
	}
}
