package features

import (
	"testing"

	"github.com/gis-hub/landcover-classifier-poc/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeComposite(t *testing.T, width, height int) *raster.Raster {
	t.Helper()
	composite := raster.New(width, height, raster.GeoTransform{0, 1, 0, 0, 0, -1})
	for _, name := range raster.ReflectanceBands {
		_, err := composite.NewBand(name)
		require.NoError(t, err)
	}
	return composite
}

func setPixel(composite *raster.Raster, x, y int, blue, green, red, nir, swir1, swir2 float64) {
	values := []float64{blue, green, red, nir, swir1, swir2}
	for i, name := range raster.ReflectanceBands {
		grid, _ := composite.Band(name)
		grid.Set(x, y, values[i])
	}
}

func TestStackBandOrder(t *testing.T) {
	expected := []string{
		"blue", "green", "red", "nir", "swir1", "swir2",
		"ndvi", "ndwi", "savi", "pri", "cai",
		"evi", "evi2", "hallcover", "hallheight", "gcvi",
	}
	assert.Equal(t, expected, StackBands)

	composite := makeComposite(t, 1, 1)
	stack, err := Stack(composite)
	require.NoError(t, err)
	assert.Equal(t, expected, stack.BandNames())
}

func TestDerivedIndexValues(t *testing.T) {
	composite := makeComposite(t, 1, 1)
	setPixel(composite, 0, 0, 0.1, 0.3, 0.2, 0.4, 0.25, 0.05)

	stack, err := Stack(composite)
	require.NoError(t, err)

	at := func(name string) float64 {
		grid, ok := stack.Band(name)
		require.True(t, ok, "band %s missing", name)
		v, set := grid.At(0, 0)
		require.True(t, set, "band %s unset", name)
		return v
	}

	assert.InDelta(t, 1.0/3.0, at("ndvi"), 1e-9)
	assert.InDelta(t, -0.5, at("pri"), 1e-9)
	assert.InDelta(t, (0.4-0.25)/(0.4+0.25), at("ndwi"), 1e-9)
	assert.InDelta(t, 1.5*0.2/1.1, at("savi"), 1e-9)
	assert.InDelta(t, 0.05/0.25, at("cai"), 1e-9)
	assert.InDelta(t, 2.5*0.2/(0.4+6*0.2-7.5*0.1+1), at("evi"), 1e-9)
	assert.InDelta(t, 2.5*0.2/(0.4+2.4*0.2+1), at("evi2"), 1e-9)
	assert.InDelta(t, -0.017*0.2-0.007*0.4-0.079*0.05+5.22, at("hallcover"), 1e-9)
	assert.InDelta(t, -0.039*0.2-0.011*0.4-0.026*0.25+4.13, at("hallheight"), 1e-9)
	assert.InDelta(t, 0.4/0.3-1, at("gcvi"), 1e-9)
}

func TestZeroDenominatorLeavesIndexUnset(t *testing.T) {
	composite := makeComposite(t, 1, 1)
	// nir = red = 0 makes the ndvi denominator zero.
	setPixel(composite, 0, 0, 0.1, 0.3, 0, 0, 0.25, 0.05)

	stack, err := Stack(composite)
	require.NoError(t, err)

	ndvi, _ := stack.Band("ndvi")
	_, set := ndvi.At(0, 0)
	assert.False(t, set, "ndvi should be unset on zero denominator")

	// The unaffected indices still compute.
	pri, _ := stack.Band("pri")
	v, set := pri.At(0, 0)
	require.True(t, set)
	assert.InDelta(t, -0.5, v, 1e-9)
}

func TestUnsetPixelStaysUnset(t *testing.T) {
	composite := makeComposite(t, 2, 1)
	setPixel(composite, 0, 0, 0.1, 0.3, 0.2, 0.4, 0.25, 0.05)
	// Pixel (1,0) never gets a value.

	stack, err := Stack(composite)
	require.NoError(t, err)

	for _, name := range DerivedBands {
		grid, _ := stack.Band(name)
		_, set := grid.At(1, 0)
		assert.False(t, set, "band %s should be unset at the empty pixel", name)
	}
}

func TestStackRequiresReflectanceBands(t *testing.T) {
	composite := raster.New(1, 1, raster.GeoTransform{})
	_, err := Stack(composite)
	assert.Error(t, err)
}
