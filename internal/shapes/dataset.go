package shapes

import (
	"fmt"
	"image"
	"sync"
)

// Source name recorded for every class and image the dataset registers.
const SourceName = "shapes"

// ClassInfo describes one entry in the class list.
type ClassInfo struct {
	Source string `json:"source" yaml:"source"`
	ID     int32  `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
}

// Classes returns the class list, background first.
func Classes() []ClassInfo {
	classes := []ClassInfo{{Source: "", ID: 0, Name: "BG"}}
	for _, k := range Kinds {
		classes = append(classes, ClassInfo{Source: SourceName, ID: k.ClassID(), Name: k.String()})
	}
	return classes
}

// ClassNames returns the class names indexed by class ID.
func ClassNames() []string {
	classes := Classes()
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name
	}
	return names
}

// Dataset generates and serves synthetic samples by integer ID.
//
// Only the ImageSpec of each sample is stored. LoadImage and LoadMask render
// from the spec on every call.
//
// # Example Usage
//
//	ds, err := shapes.NewDataset(shapes.DefaultParams(128, 128), shapes.NewSource(42))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ds.Generate(500)
//	img, _ := ds.LoadImage(0)
//	masks, _ := ds.LoadMask(0)
type Dataset struct {
	mu      sync.RWMutex
	params  Params
	sampler *Sampler
	specs   []ImageSpec
}

// NewDataset validates p and returns an empty dataset drawing from src.
func NewDataset(p Params, src Source) (*Dataset, error) {
	sampler, err := NewSampler(p, src)
	if err != nil {
		return nil, err
	}
	return &Dataset{params: p, sampler: sampler}, nil
}

// Params returns the generation parameters.
func (d *Dataset) Params() Params {
	return d.params
}

// Generate appends count new samples and returns their IDs.
func (d *Dataset) Generate(count int) []int {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]int, 0, count)
	for i := 0; i < count; i++ {
		ids = append(ids, len(d.specs))
		d.specs = append(d.specs, d.sampler.Image())
	}
	return ids
}

// Add registers a hand-made ImageSpec and returns its ID. Its size must
// match the dataset's and every shape must have a known Kind.
func (d *Dataset) Add(spec ImageSpec) (int, error) {
	if spec.Height != d.params.Height || spec.Width != d.params.Width {
		return 0, fmt.Errorf("%w: image is %dx%d, dataset is %dx%d",
			ErrInvalidConfig, spec.Width, spec.Height, d.params.Width, d.params.Height)
	}
	for i, sh := range spec.Shapes {
		if !sh.Kind.Valid() {
			return 0, fmt.Errorf("%w: shape %d has unknown kind %d", ErrInvalidConfig, i, int(sh.Kind))
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.specs = append(d.specs, spec)
	return len(d.specs) - 1, nil
}

// Len returns the number of generated samples.
func (d *Dataset) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.specs)
}

// ImageIDs returns every sample ID in order.
func (d *Dataset) ImageIDs() []int {
	n := d.Len()
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// Spec returns the recipe of sample id.
func (d *Dataset) Spec(id int) (ImageSpec, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id < 0 || id >= len(d.specs) {
		return ImageSpec{}, fmt.Errorf("%w: %d (dataset has %d images)", ErrUnknownImage, id, len(d.specs))
	}
	return d.specs[id], nil
}

// LoadImage renders sample id.
func (d *Dataset) LoadImage(id int) (*image.RGBA, error) {
	spec, err := d.Spec(id)
	if err != nil {
		return nil, err
	}
	return spec.Render(), nil
}

// LoadMask builds the instance masks and class IDs of sample id.
func (d *Dataset) LoadMask(id int) (*MaskStack, error) {
	spec, err := d.Spec(id)
	if err != nil {
		return nil, err
	}
	return spec.Masks(), nil
}

// ImageReference returns the shapes of sample id for debugging and display.
func (d *Dataset) ImageReference(id int) ([]Shape, error) {
	spec, err := d.Spec(id)
	if err != nil {
		return nil, err
	}
	out := make([]Shape, len(spec.Shapes))
	copy(out, spec.Shapes)
	return out, nil
}
