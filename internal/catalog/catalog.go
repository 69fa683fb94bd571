package catalog

import (
	"fmt"
	"os"
	"time"

	"github.com/gis-hub/landcover-classifier-poc/internal/properties"
	"github.com/gis-hub/landcover-classifier-poc/internal/raster"
	"github.com/gocarina/gocsv"
	"golang.org/x/sync/errgroup"
)

// SceneMeta is one row of the scene index. AcquiredAt is RFC3339 in the csv.
type SceneMeta struct {
	ID         string    `csv:"scene_id"`
	Path       int       `csv:"path"`
	Row        int       `csv:"row"`
	AcquiredAt time.Time `csv:"acquired_at"`
	CloudCover float64   `csv:"cloud_cover"`
	File       string    `csv:"file"`
}

// QualityScore ranks scenes for compositing. Clearer scenes score higher.
func (m SceneMeta) QualityScore() float64 {
	return 100 - m.CloudCover
}

// Scene is a scene with its raster loaded: the six reflectance bands plus the
// QA bit channel, in that order.
type Scene struct {
	SceneMeta
	Raster *raster.Raster
}

var sceneBands = append(append([]string{}, raster.ReflectanceBands...), raster.BandQA)

type Catalog struct {
	dir    string
	scenes []SceneMeta
}

// Open reads a scene index csv. Scene GeoTIFF paths in the index are relative
// to the index file's directory.
func Open(indexPath, dir string) (*Catalog, error) {
	file, err := os.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("error opening scene index: %w", err)
	}
	defer file.Close()

	var scenes []SceneMeta
	if err := gocsv.UnmarshalFile(file, &scenes); err != nil {
		return nil, fmt.Errorf("error unmarshalling scene index: %w", err)
	}
	return &Catalog{dir: dir, scenes: scenes}, nil
}

func (c *Catalog) Scenes() []SceneMeta {
	return c.scenes
}

// Query selects scenes whose tile is in the list and whose acquisition date
// falls inside [month start, next month start). Index order is preserved; it
// is the scan order used to break compositing ties.
func (c *Catalog) Query(tiles []properties.Tile, year int, month time.Month) []SceneMeta {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	wanted := make(map[properties.Tile]bool, len(tiles))
	for _, tile := range tiles {
		wanted[tile] = true
	}

	var matched []SceneMeta
	for _, scene := range c.scenes {
		if !wanted[properties.Tile{Path: scene.Path, Row: scene.Row}] {
			continue
		}
		if scene.AcquiredAt.Before(start) || !scene.AcquiredAt.Before(end) {
			continue
		}
		matched = append(matched, scene)
	}
	return matched
}

// LoadScenes loads scene rasters in parallel. A scene whose GeoTIFF cannot be
// read is excluded with a warning instead of failing the whole run; only a
// fully empty result is an error for the caller to judge.
func (c *Catalog) LoadScenes(metas []SceneMeta) []*Scene {
	loaded := make([]*Scene, len(metas))

	var g errgroup.Group
	g.SetLimit(4)
	for i, meta := range metas {
		g.Go(func() error {
			r, err := raster.LoadGeoTIFF(c.dir+"/"+meta.File, sceneBands)
			if err != nil {
				fmt.Printf("Warning: skipping scene %s: %v\n", meta.ID, err)
				return nil
			}
			loaded[i] = &Scene{SceneMeta: meta, Raster: r}
			return nil
		})
	}
	g.Wait()

	scenes := make([]*Scene, 0, len(loaded))
	for _, scene := range loaded {
		if scene != nil {
			scenes = append(scenes, scene)
		}
	}
	return scenes
}
