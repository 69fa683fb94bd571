package raster

import (
	"fmt"
	"math"

	"github.com/airbusgeo/godal"
	"github.com/gis-hub/landcover-classifier-poc/internal/utils"
)

// LoadGeoTIFF reads a GeoTIFF into memory, naming its bands after the given
// list. The file must carry at least len(names) bands; extras are ignored.
func LoadGeoTIFF(path string, names []string) (*Raster, error) {
	var result *Raster
	var err error
	utils.ExecuteWithGDALLock(func() {
		result, err = loadGeoTIFF(path, names)
	})
	return result, err
}

func loadGeoTIFF(path string, names []string) (*Raster, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoTIFF %s: %w", path, err)
	}
	defer ds.Close()

	geoTransform, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("failed to read geotransform of %s: %w", path, err)
	}

	width := ds.Structure().SizeX
	height := ds.Structure().SizeY
	bands := ds.Bands()
	if len(bands) < len(names) {
		return nil, fmt.Errorf("%s has %d bands, need %d", path, len(bands), len(names))
	}

	result := New(width, height, GeoTransform(geoTransform))
	for i, name := range names {
		data := make([]float64, width*height)
		if err := bands[i].Read(0, 0, data, width, height); err != nil {
			return nil, fmt.Errorf("failed to read band %s of %s: %w", name, path, err)
		}
		if noData, ok := bands[i].NoData(); ok {
			for j, v := range data {
				if v == noData {
					data[j] = math.NaN()
				}
			}
		}
		if err := result.AddBand(name, NewGridFromValues(width, height, data)); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// WriteGeoTIFF saves the raster's bands to a GeoTIFF, writing unset cells as
// the given nodata value.
func WriteGeoTIFF(r *Raster, path string, noData float64) error {
	var err error
	utils.ExecuteWithGDALLock(func() {
		err = writeGeoTIFF(r, path, noData)
	})
	return err
}

func writeGeoTIFF(r *Raster, path string, noData float64) error {
	ds, err := godal.Create(godal.GTiff, path, len(r.BandNames()), godal.Float64, r.Width, r.Height)
	if err != nil {
		return fmt.Errorf("failed to create GeoTIFF %s: %w", path, err)
	}
	defer ds.Close()

	if err := ds.SetGeoTransform([6]float64(r.Transform)); err != nil {
		return fmt.Errorf("failed to set geotransform on %s: %w", path, err)
	}

	bands := ds.Bands()
	for i, name := range r.BandNames() {
		grid, _ := r.Band(name)
		data := make([]float64, len(grid.Values()))
		copy(data, grid.Values())
		for j, v := range data {
			if math.IsNaN(v) {
				data[j] = noData
			}
		}
		if err := bands[i].SetNoData(noData); err != nil {
			return fmt.Errorf("failed to set nodata on band %s: %w", name, err)
		}
		if err := bands[i].Write(0, 0, data, r.Width, r.Height); err != nil {
			return fmt.Errorf("failed to write band %s of %s: %w", name, path, err)
		}
	}
	return nil
}
