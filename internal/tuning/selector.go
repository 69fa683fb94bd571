package tuning

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/gammazero/workerpool"
	"github.com/gis-hub/landcover-classifier-poc/internal/features"
	"github.com/gis-hub/landcover-classifier-poc/internal/forest"
	"github.com/gis-hub/landcover-classifier-poc/internal/properties"
	"github.com/gis-hub/landcover-classifier-poc/internal/raster"
	"github.com/gis-hub/landcover-classifier-poc/internal/sampling"
	"github.com/schollz/progressbar/v3"
)

// UnsetClass is the class code of pixels the classifier never saw a value
// for.
const UnsetClass = -1

// Select picks the best-scoring candidate. Ties go to the earliest candidate
// in the list.
func Select(candidates []Candidate) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, errors.New("no candidates to select from")
	}
	best := candidates[0]
	for _, candidate := range candidates[1:] {
		if candidate.Accuracy > best.Accuracy {
			best = candidate
		}
	}
	return best, nil
}

// ClassRaster is the classified map: one class code per pixel, UnsetClass
// where the feature stack had no value.
type ClassRaster struct {
	Width     int
	Height    int
	Transform raster.GeoTransform
	codes     []int
}

func NewClassRaster(width, height int, transform raster.GeoTransform) *ClassRaster {
	codes := make([]int, width*height)
	for i := range codes {
		codes[i] = UnsetClass
	}
	return &ClassRaster{Width: width, Height: height, Transform: transform, codes: codes}
}

func (c *ClassRaster) At(x, y int) (int, bool) {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return UnsetClass, false
	}
	code := c.codes[y*c.Width+x]
	return code, code != UnsetClass
}

func (c *ClassRaster) set(x, y, code int) {
	c.codes[y*c.Width+x] = code
}

// ClassRasterFromBand rebuilds a class raster from a single-band raster, as
// read back from a saved classified GeoTIFF. Unset cells and negative codes
// stay UnsetClass.
func ClassRasterFromBand(r *raster.Raster, band string) (*ClassRaster, error) {
	grid, ok := r.Band(band)
	if !ok {
		return nil, fmt.Errorf("raster has no %s band", band)
	}
	result := NewClassRaster(r.Width, r.Height, r.Transform)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			if v, set := grid.At(x, y); set && v >= 0 {
				result.set(x, y, int(v))
			}
		}
	}
	return result, nil
}

// Retrain fits a fresh classifier with the winning tree count on the full
// train set. The sweep's model instance is never reused.
func Retrain(best Candidate, train []sampling.Example, cfg properties.RunConfig) (*forest.Forest, error) {
	vectors, classes := toVectors(train)
	model, err := forest.Train(vectors, classes, len(properties.ClassNames), forest.Config{
		Trees: best.TreeCount,
		Seed:  cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("retraining with %d trees: %w", best.TreeCount, err)
	}
	return model, nil
}

// ClassifyStack applies the model to every set pixel of the feature stack,
// row-parallel. Unset input pixels stay unset in the output.
func ClassifyStack(model *forest.Forest, stack *raster.Raster) *ClassRaster {
	result := NewClassRaster(stack.Width, stack.Height, stack.Transform)

	progressBar := progressbar.Default(int64(stack.Height), "Classifying")
	wp := workerpool.New(runtime.NumCPU())
	for y := 0; y < stack.Height; y++ {
		row := y
		wp.Submit(func() {
			for x := 0; x < stack.Width; x++ {
				vector, ok := stack.PixelVector(x, row, features.StackBands)
				if !ok {
					continue
				}
				result.set(x, row, model.Classify(vector))
			}
			progressBar.Add(1)
		})
	}
	wp.StopWait()
	progressBar.Finish()

	return result
}
