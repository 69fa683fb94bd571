package raster

import (
	"fmt"
	"math"
)

// Landsat surface reflectance band names, in storage order.
const (
	BandBlue  = "blue"
	BandGreen = "green"
	BandRed   = "red"
	BandNIR   = "nir"
	BandSWIR1 = "swir1"
	BandSWIR2 = "swir2"

	// BandQA is the per-pixel quality-assurance bit channel. It rides along
	// with the reflectance bands but is never rescaled.
	BandQA = "qa_pixel"
)

var ReflectanceBands = []string{BandBlue, BandGreen, BandRed, BandNIR, BandSWIR1, BandSWIR2}

// GeoTransform is the affine transform of a north-up raster, laid out the way
// GDAL reports it: origin x, pixel width, 0, origin y, 0, pixel height
// (negative for north-up images).
type GeoTransform [6]float64

// PixelAt maps a lon/lat to the covering pixel, reporting false when the
// location falls outside the raster.
func (gt GeoTransform) PixelAt(lon, lat float64, width, height int) (int, int, bool) {
	if gt[1] == 0 || gt[5] == 0 {
		return 0, 0, false
	}
	col := int(math.Floor((lon - gt[0]) / gt[1]))
	row := int(math.Floor((lat - gt[3]) / gt[5]))
	if col < 0 || col >= width || row < 0 || row >= height {
		return 0, 0, false
	}
	return col, row, true
}

// LonLatAt returns the center coordinate of a pixel.
func (gt GeoTransform) LonLatAt(x, y int) (float64, float64) {
	lon := gt[0] + gt[1]*(float64(x)+0.5)
	lat := gt[3] + gt[5]*(float64(y)+0.5)
	return lon, lat
}

// Raster is a multi-band grid with named bands in a fixed order.
type Raster struct {
	Width     int
	Height    int
	Transform GeoTransform

	names []string
	grids map[string]*Grid
}

func New(width, height int, transform GeoTransform) *Raster {
	return &Raster{
		Width:     width,
		Height:    height,
		Transform: transform,
		grids:     make(map[string]*Grid),
	}
}

func (r *Raster) AddBand(name string, grid *Grid) error {
	if grid.Width != r.Width || grid.Height != r.Height {
		return fmt.Errorf("band %s is %dx%d, raster is %dx%d", name, grid.Width, grid.Height, r.Width, r.Height)
	}
	if _, exists := r.grids[name]; exists {
		return fmt.Errorf("band %s already present", name)
	}
	r.names = append(r.names, name)
	r.grids[name] = grid
	return nil
}

// NewBand adds and returns an all-unset band.
func (r *Raster) NewBand(name string) (*Grid, error) {
	grid := NewGrid(r.Width, r.Height)
	if err := r.AddBand(name, grid); err != nil {
		return nil, err
	}
	return grid, nil
}

func (r *Raster) Band(name string) (*Grid, bool) {
	g, ok := r.grids[name]
	return g, ok
}

func (r *Raster) BandNames() []string {
	return r.names
}

// PixelVector collects the values of the given bands at a pixel, in band
// order. The second return is false when any band is unset there.
func (r *Raster) PixelVector(x, y int, bands []string) ([]float64, bool) {
	vector := make([]float64, len(bands))
	for i, name := range bands {
		grid, ok := r.grids[name]
		if !ok {
			return nil, false
		}
		v, set := grid.At(x, y)
		if !set {
			return nil, false
		}
		vector[i] = v
	}
	return vector, true
}
