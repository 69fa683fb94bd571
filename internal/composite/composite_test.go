package composite

import (
	"testing"
	"time"

	"github.com/gis-hub/landcover-classifier-poc/internal/catalog"
	"github.com/gis-hub/landcover-classifier-poc/internal/properties"
	"github.com/gis-hub/landcover-classifier-poc/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeScene builds a width x 1 scene where every reflectance band holds the
// given raw values and the QA channel holds the given bit patterns.
func makeScene(t *testing.T, id string, cloudCover float64, values []float64, qa []float64) *catalog.Scene {
	t.Helper()
	width := len(values)
	r := raster.New(width, 1, raster.GeoTransform{0, 1, 0, 0, 0, -1})
	for _, name := range raster.ReflectanceBands {
		grid, err := r.NewBand(name)
		require.NoError(t, err)
		for x, v := range values {
			grid.Set(x, 0, v)
		}
	}
	qaGrid, err := r.NewBand(raster.BandQA)
	require.NoError(t, err)
	for x, v := range qa {
		qaGrid.Set(x, 0, v)
	}
	return &catalog.Scene{
		SceneMeta: catalog.SceneMeta{
			ID:         id,
			Path:       135,
			Row:        41,
			AcquiredAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			CloudCover: cloudCover,
		},
		Raster: r,
	}
}

func compositeValue(t *testing.T, c *raster.Raster, band string, x int) (float64, bool) {
	t.Helper()
	grid, ok := c.Band(band)
	require.True(t, ok)
	return grid.At(x, 0)
}

func TestBuildRescalesReflectance(t *testing.T) {
	cfg := properties.DefaultRunConfig()
	scene := makeScene(t, "s1", 0, []float64{10000}, []float64{0})

	result := Build([]*catalog.Scene{scene}, cfg)

	v, set := compositeValue(t, result, raster.BandBlue, 0)
	require.True(t, set)
	assert.InDelta(t, 10000*0.0000275-0.2, v, 1e-9)
}

func TestBuildMasksCloudShadowBits(t *testing.T) {
	cfg := properties.DefaultRunConfig()

	cases := []struct {
		qa     float64
		masked bool
	}{
		{0, false},
		{1 << 0, false},
		{1 << 1, true},
		{1 << 2, false},
		{1 << 3, true},
		{1 << 4, true},
		{1 << 5, false},
		{1<<2 | 1<<4, true},
	}
	for _, tc := range cases {
		scene := makeScene(t, "s1", 0, []float64{10000}, []float64{tc.qa})
		result := Build([]*catalog.Scene{scene}, cfg)
		_, set := compositeValue(t, result, raster.BandRed, 0)
		assert.Equal(t, !tc.masked, set, "qa bits %b", int(tc.qa))
	}
}

func TestBuildPrefersClearestScene(t *testing.T) {
	cfg := properties.DefaultRunConfig()
	hazy := makeScene(t, "hazy", 40, []float64{1000}, []float64{0})
	clear := makeScene(t, "clear", 5, []float64{2000}, []float64{0})

	// Scan order deliberately puts the worse scene first.
	result := Build([]*catalog.Scene{hazy, clear}, cfg)

	v, set := compositeValue(t, result, raster.BandNIR, 0)
	require.True(t, set)
	assert.InDelta(t, 2000*0.0000275-0.2, v, 1e-9)
}

func TestBuildMaskedPixelLosesDespiteQuality(t *testing.T) {
	cfg := properties.DefaultRunConfig()
	// The clearest scene is cloud-flagged at the pixel, so the hazier scene
	// must contribute the value.
	best := makeScene(t, "best", 0, []float64{1000}, []float64{1 << 3})
	backup := makeScene(t, "backup", 50, []float64{3000}, []float64{0})

	result := Build([]*catalog.Scene{best, backup}, cfg)

	v, set := compositeValue(t, result, raster.BandSWIR2, 0)
	require.True(t, set)
	assert.InDelta(t, 3000*0.0000275-0.2, v, 1e-9)
}

func TestBuildScanOrderBreaksTies(t *testing.T) {
	cfg := properties.DefaultRunConfig()
	first := makeScene(t, "first", 10, []float64{1000}, []float64{0})
	second := makeScene(t, "second", 10, []float64{2000}, []float64{0})

	result := Build([]*catalog.Scene{first, second}, cfg)

	v, set := compositeValue(t, result, raster.BandGreen, 0)
	require.True(t, set)
	assert.InDelta(t, 1000*0.0000275-0.2, v, 1e-9)
}

func TestBuildAllMaskedPixelIsUnset(t *testing.T) {
	cfg := properties.DefaultRunConfig()
	a := makeScene(t, "a", 0, []float64{1000, 1000}, []float64{1 << 1, 0})
	b := makeScene(t, "b", 20, []float64{2000, 2000}, []float64{1 << 4, 0})

	result := Build([]*catalog.Scene{a, b}, cfg)

	_, set := compositeValue(t, result, raster.BandBlue, 0)
	assert.False(t, set, "pixel masked in every scene must stay unset")

	v, set := compositeValue(t, result, raster.BandBlue, 1)
	require.True(t, set)
	assert.InDelta(t, 1000*0.0000275-0.2, v, 1e-9)
}

func TestBuildEmptySceneSet(t *testing.T) {
	cfg := properties.DefaultRunConfig()
	result := Build(nil, cfg)

	assert.Equal(t, 0, result.Width)
	assert.Equal(t, 0, result.Height)
	for _, name := range raster.ReflectanceBands {
		_, ok := result.Band(name)
		assert.True(t, ok, "band %s should exist on the empty composite", name)
	}
}
