package sampling

import (
	"github.com/gis-hub/landcover-classifier-poc/internal/features"
	"github.com/gis-hub/landcover-classifier-poc/internal/labels"
	"github.com/gis-hub/landcover-classifier-poc/internal/raster"
)

// Example is one (feature vector, class) pair. Features follow the
// features.StackBands order.
type Example struct {
	PointID  string
	Features []float64
	Class    int
}

// Sample extracts one example per point whose covering pixel is fully set
// across the sixteen stack bands. Points outside the raster or on pixels with
// any unset band are skipped silently; the count of skips is returned for
// reporting.
func Sample(stack *raster.Raster, points []labels.Point) (examples []Example, skipped int) {
	for _, point := range points {
		x, y, inside := stack.Transform.PixelAt(point.Location[0], point.Location[1], stack.Width, stack.Height)
		if !inside {
			skipped++
			continue
		}
		vector, ok := stack.PixelVector(x, y, features.StackBands)
		if !ok {
			skipped++
			continue
		}
		examples = append(examples, Example{
			PointID:  point.ID,
			Features: vector,
			Class:    point.Class,
		})
	}
	return examples, skipped
}
