package composite

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/gis-hub/landcover-classifier-poc/internal/catalog"
	"github.com/gis-hub/landcover-classifier-poc/internal/properties"
	"github.com/gis-hub/landcover-classifier-poc/internal/raster"
	"github.com/schollz/progressbar/v3"
)

// maskedScene is one scene after QA masking and reflectance rescaling. A
// masked pixel is unset across every band.
type maskedScene struct {
	meta  catalog.SceneMeta
	bands map[string]*raster.Grid
}

// Build reduces a month of scenes to one composite: per pixel and band, the
// value comes from the clearest contributing scene with an unmasked pixel
// there. Scenes tied on quality keep their scan order. An empty scene set
// yields a fully unset composite, not an error.
func Build(scenes []*catalog.Scene, cfg properties.RunConfig) *raster.Raster {
	if len(scenes) == 0 {
		empty := raster.New(0, 0, raster.GeoTransform{})
		for _, name := range raster.ReflectanceBands {
			empty.NewBand(name)
		}
		return empty
	}

	width := scenes[0].Raster.Width
	height := scenes[0].Raster.Height
	transform := scenes[0].Raster.Transform

	masked := maskAndRescale(scenes, width, height, cfg)

	// Clearest first; equal scores keep scan order.
	sort.SliceStable(masked, func(i, j int) bool {
		return masked[i].meta.QualityScore() > masked[j].meta.QualityScore()
	})

	result := raster.New(width, height, transform)
	grids := make([]*raster.Grid, len(raster.ReflectanceBands))
	for i, name := range raster.ReflectanceBands {
		grids[i], _ = result.NewBand(name)
	}

	progressBar := progressbar.Default(int64(height), "Compositing")
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for _, scene := range masked {
				anchor, ok := scene.bands[raster.ReflectanceBands[0]].At(x, y)
				if !ok {
					continue
				}
				grids[0].Set(x, y, anchor)
				for i := 1; i < len(raster.ReflectanceBands); i++ {
					if v, ok := scene.bands[raster.ReflectanceBands[i]].At(x, y); ok {
						grids[i].Set(x, y, v)
					}
				}
				break
			}
		}
		progressBar.Add(1)
	}
	progressBar.Finish()

	return result
}

// maskAndRescale processes scenes in parallel: pixels whose QA channel has any
// cloud/shadow bit set are dropped, the rest are rescaled into reflectance
// units. Scenes whose grid does not match the first scene are excluded.
func maskAndRescale(scenes []*catalog.Scene, width, height int, cfg properties.RunConfig) []maskedScene {
	qaMask := cfg.CloudShadowMask()

	var mu sync.Mutex
	var masked []maskedScene

	wp := workerpool.New(runtime.NumCPU())
	for _, scene := range scenes {
		s := scene
		wp.Submit(func() {
			if s.Raster.Width != width || s.Raster.Height != height {
				fmt.Printf("Warning: scene %s is %dx%d, expected %dx%d, excluding\n",
					s.ID, s.Raster.Width, s.Raster.Height, width, height)
				return
			}
			qa, ok := s.Raster.Band(raster.BandQA)
			if !ok {
				fmt.Printf("Warning: scene %s has no QA band, excluding\n", s.ID)
				return
			}

			bands := make(map[string]*raster.Grid, len(raster.ReflectanceBands))
			for _, name := range raster.ReflectanceBands {
				source, ok := s.Raster.Band(name)
				if !ok {
					fmt.Printf("Warning: scene %s has no %s band, excluding\n", s.ID, name)
					return
				}
				grid := raster.NewGrid(width, height)
				for y := 0; y < height; y++ {
					for x := 0; x < width; x++ {
						qaValue, qaSet := qa.At(x, y)
						if !qaSet || uint64(qaValue)&qaMask != 0 {
							continue
						}
						if v, set := source.At(x, y); set {
							grid.Set(x, y, v*cfg.ReflectanceScale+cfg.ReflectanceOffset)
						}
					}
				}
				bands[name] = grid
			}

			mu.Lock()
			masked = append(masked, maskedScene{meta: s.SceneMeta, bands: bands})
			mu.Unlock()
		})
	}
	wp.StopWait()

	// Restore scan order after the parallel collection.
	order := make(map[string]int, len(scenes))
	for i, scene := range scenes {
		order[scene.ID] = i
	}
	sort.Slice(masked, func(i, j int) bool {
		return order[masked[i].meta.ID] < order[masked[j].meta.ID]
	})
	return masked
}
