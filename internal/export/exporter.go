// Package export writes generated datasets to disk as PNG images, one PNG per
// instance mask, and a YAML manifest describing every sample.
//
// Layout under <OutputDir>/<Name>:
//
//	manifest.yaml
//	train/images/000000.png
//	train/masks/000000_00.png
//	val/images/...
//	val/masks/...
package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/shapegen-mcp/internal/config"
	"github.com/ironsheep/shapegen-mcp/internal/logger"
	"github.com/ironsheep/shapegen-mcp/internal/shapes"
)

// ManifestFile is the name of the manifest written at the dataset root.
const ManifestFile = "manifest.yaml"

// Split names.
const (
	SplitTrain = "train"
	SplitVal   = "val"
)

// Options controls an export run.
type Options struct {
	OutputDir  string
	Name       string
	TrainCount int
	ValCount   int
	Workers    int
	// Reset removes an existing dataset directory before writing.
	Reset bool
	// Seed seeds the train split; the val split uses Seed+1.
	Seed   uint64
	Params shapes.Params
}

// OptionsFromConfig builds export options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		OutputDir:  cfg.Export.OutputDir,
		Name:       cfg.Export.Name,
		TrainCount: cfg.Export.TrainCount,
		ValCount:   cfg.Export.ValCount,
		Workers:    cfg.Export.Workers,
		Reset:      cfg.Export.Reset,
		Seed:       cfg.Dataset.Seed,
		Params:     cfg.Dataset.Params(),
	}
}

func (o Options) validate() error {
	if o.Name == "" {
		return fmt.Errorf("%w: export name is empty", shapes.ErrInvalidConfig)
	}
	if o.TrainCount < 0 || o.ValCount < 0 {
		return fmt.Errorf("%w: export counts must not be negative", shapes.ErrInvalidConfig)
	}
	if o.Workers < 1 {
		return fmt.Errorf("%w: workers %d must be at least 1", shapes.ErrInvalidConfig, o.Workers)
	}
	return o.Params.Validate()
}

// Manifest describes an exported dataset.
type Manifest struct {
	Name    string             `yaml:"name"`
	Source  string             `yaml:"source"`
	Params  shapes.Params      `yaml:"params"`
	Classes []shapes.ClassInfo `yaml:"classes"`
	Splits  []SplitManifest    `yaml:"splits"`
}

// SplitManifest lists the samples of one split.
type SplitManifest struct {
	Name   string        `yaml:"name"`
	Seed   uint64        `yaml:"seed"`
	Images []ImageRecord `yaml:"images"`
}

// ImageRecord is one exported sample. Paths are relative to the dataset root.
type ImageRecord struct {
	ID         int            `yaml:"id"`
	File       string         `yaml:"file"`
	Masks      []string       `yaml:"masks"`
	ClassIDs   []int32        `yaml:"class_ids"`
	Boxes      []shapes.Box   `yaml:"boxes"`
	Background shapes.Color   `yaml:"background"`
	Shapes     []shapes.Shape `yaml:"shapes"`
}

// Result summarizes a finished export.
type Result struct {
	Dir      string
	Manifest string
	Train    int
	Val      int
}

// Export generates the train and val splits and writes them under
// opts.OutputDir/opts.Name. It stops at the first write error or when ctx is
// cancelled.
func Export(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := logger.L().Named("export")

	root := filepath.Join(opts.OutputDir, opts.Name)
	if err := ensureDir(root, opts.Reset); err != nil {
		return nil, err
	}

	manifest := &Manifest{
		Name:    opts.Name,
		Source:  shapes.SourceName,
		Params:  opts.Params,
		Classes: shapes.Classes(),
	}
	splits := []struct {
		name  string
		count int
		seed  uint64
	}{
		{SplitTrain, opts.TrainCount, opts.Seed},
		{SplitVal, opts.ValCount, opts.Seed + 1},
	}
	for _, sp := range splits {
		log.Info("exporting split",
			zap.String("split", sp.name),
			zap.Int("count", sp.count),
			zap.Uint64("seed", sp.seed),
			zap.Int("workers", opts.Workers))

		records, err := exportSplit(ctx, root, sp.name, sp.count, sp.seed, opts)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", sp.name, err)
		}
		manifest.Splits = append(manifest.Splits, SplitManifest{Name: sp.name, Seed: sp.seed, Images: records})
	}

	path := filepath.Join(root, ManifestFile)
	if err := writeManifest(path, manifest); err != nil {
		return nil, err
	}
	log.Info("export finished", zap.String("dir", root), zap.String("manifest", path))
	return &Result{Dir: root, Manifest: path, Train: opts.TrainCount, Val: opts.ValCount}, nil
}

func exportSplit(ctx context.Context, root, split string, count int, seed uint64, opts Options) ([]ImageRecord, error) {
	for _, sub := range []string{"images", "masks"} {
		if err := ensureDir(filepath.Join(root, split, sub), false); err != nil {
			return nil, err
		}
	}

	ds, err := shapes.NewDataset(opts.Params, shapes.NewSource(seed))
	if err != nil {
		return nil, err
	}
	ids := ds.Generate(count)
	records := make([]ImageRecord, len(ids))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				rec, err := writeSample(root, split, ds, id)
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					continue
				}
				records[id] = *rec
			}
		}()
	}

feed:
	for _, id := range ids {
		select {
		case jobs <- id:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// writeSample renders sample id and saves its image and masks.
func writeSample(root, split string, ds *shapes.Dataset, id int) (*ImageRecord, error) {
	spec, err := ds.Spec(id)
	if err != nil {
		return nil, err
	}
	stack := spec.Masks()

	rec := &ImageRecord{
		ID:         id,
		File:       filepath.ToSlash(filepath.Join(split, "images", fmt.Sprintf("%06d.png", id))),
		ClassIDs:   stack.ClassIDs,
		Boxes:      stack.Boxes(),
		Background: spec.Background,
		Shapes:     spec.Shapes,
		Masks:      make([]string, stack.Len()),
	}
	if err := imaging.Save(spec.Render(), filepath.Join(root, rec.File)); err != nil {
		return nil, fmt.Errorf("failed to save image %d: %w", id, err)
	}
	for i, m := range stack.Masks {
		rec.Masks[i] = filepath.ToSlash(filepath.Join(split, "masks", fmt.Sprintf("%06d_%02d.png", id, i)))
		if err := imaging.Save(m.Gray(), filepath.Join(root, rec.Masks[i])); err != nil {
			return nil, fmt.Errorf("failed to save mask %d of image %d: %w", i, id, err)
		}
	}
	return rec, nil
}

// ensureDir makes sure path is a directory. A regular file in the way is
// removed; with reset an existing directory is emptied.
func ensureDir(path string, reset bool) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove file %s: %w", path, err)
		}
	case err == nil && reset:
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to reset %s: %w", path, err)
		}
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return nil
}

func writeManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by Export.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}
