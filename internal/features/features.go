package features

import (
	"fmt"

	"github.com/gis-hub/landcover-classifier-poc/internal/raster"
)

// DerivedBands are the spectral indices, in their frozen stack order.
var DerivedBands = []string{
	"ndvi", "ndwi", "savi", "pri", "cai",
	"evi", "evi2", "hallcover", "hallheight", "gcvi",
}

// StackBands is the full 16-band feature order: raw reflectance first, then
// the derived indices. Feature vectors everywhere follow this order.
var StackBands = append(append([]string{}, raster.ReflectanceBands...), DerivedBands...)

type bandValues struct {
	blue, green, red, nir, swir1, swir2 float64
}

// formulas computes every derived index from one pixel's reflectance values.
// A zero denominator leaves that index unset; the rest still compute.
var formulas = map[string]func(bandValues) (float64, bool){
	"ndvi": func(b bandValues) (float64, bool) {
		return ratio(b.nir-b.red, b.nir+b.red)
	},
	"ndwi": func(b bandValues) (float64, bool) {
		return ratio(b.nir-b.swir1, b.nir+b.swir1)
	},
	"savi": func(b bandValues) (float64, bool) {
		return ratio(1.5*(b.nir-b.red), 0.5+b.nir+b.red)
	},
	"pri": func(b bandValues) (float64, bool) {
		return ratio(b.blue-b.green, b.blue+b.green)
	},
	"cai": func(b bandValues) (float64, bool) {
		return ratio(b.swir2, b.swir1)
	},
	"evi": func(b bandValues) (float64, bool) {
		return ratio(2.5*(b.nir-b.red), b.nir+6*b.red-7.5*b.blue+1)
	},
	"evi2": func(b bandValues) (float64, bool) {
		return ratio(2.5*(b.nir-b.red), b.nir+2.4*b.red+1)
	},
	"hallcover": func(b bandValues) (float64, bool) {
		return -0.017*b.red - 0.007*b.nir - 0.079*b.swir2 + 5.22, true
	},
	"hallheight": func(b bandValues) (float64, bool) {
		return -0.039*b.red - 0.011*b.nir - 0.026*b.swir1 + 4.13, true
	},
	"gcvi": func(b bandValues) (float64, bool) {
		v, ok := ratio(b.nir, b.green)
		if !ok {
			return 0, false
		}
		return v - 1, true
	},
}

func ratio(numerator, denominator float64) (float64, bool) {
	if denominator == 0 {
		return 0, false
	}
	return numerator / denominator, true
}

// Stack derives the ten index bands from a six-band composite and returns the
// sixteen-band feature stack. Pixels unset in the composite stay unset; a
// division by zero leaves only the affected index unset at that pixel.
func Stack(composite *raster.Raster) (*raster.Raster, error) {
	for _, name := range raster.ReflectanceBands {
		if _, ok := composite.Band(name); !ok {
			return nil, fmt.Errorf("composite is missing the %s band", name)
		}
	}

	stack := raster.New(composite.Width, composite.Height, composite.Transform)
	for _, name := range raster.ReflectanceBands {
		grid, _ := composite.Band(name)
		if err := stack.AddBand(name, grid); err != nil {
			return nil, err
		}
	}

	derived := make(map[string]*raster.Grid, len(DerivedBands))
	for _, name := range DerivedBands {
		grid, err := stack.NewBand(name)
		if err != nil {
			return nil, err
		}
		derived[name] = grid
	}

	for y := 0; y < composite.Height; y++ {
		for x := 0; x < composite.Width; x++ {
			raw, ok := composite.PixelVector(x, y, raster.ReflectanceBands)
			if !ok {
				continue
			}
			b := bandValues{
				blue: raw[0], green: raw[1], red: raw[2],
				nir: raw[3], swir1: raw[4], swir2: raw[5],
			}
			for _, name := range DerivedBands {
				if v, defined := formulas[name](b); defined {
					derived[name].Set(x, y, v)
				}
			}
		}
	}
	return stack, nil
}
