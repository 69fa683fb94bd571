package output

import (
	"fmt"

	"github.com/fogleman/gg"
	"github.com/gis-hub/landcover-classifier-poc/internal/properties"
	"github.com/gis-hub/landcover-classifier-poc/internal/tuning"
)

const legendRowHeight = 18

// CreateClassifiedMap renders the classified raster as a PNG using the class
// palette, with a legend strip below the map. Unset pixels stay transparent.
func CreateClassifiedMap(classified *tuning.ClassRaster, outputPath string) error {
	if classified.Width == 0 || classified.Height == 0 {
		return fmt.Errorf("classified raster is empty, nothing to render")
	}

	legendHeight := legendRowHeight*len(properties.ClassNames) + 10
	dc := gg.NewContext(classified.Width, classified.Height+legendHeight)

	for y := 0; y < classified.Height; y++ {
		for x := 0; x < classified.Width; x++ {
			code, ok := classified.At(x, y)
			if !ok {
				continue
			}
			c := properties.ClassPalette[code]
			dc.SetRGB255(int(c.R), int(c.G), int(c.B))
			dc.SetPixel(x, y)
		}
	}

	dc.SetRGB(1, 1, 1)
	dc.DrawRectangle(0, float64(classified.Height), float64(classified.Width), float64(legendHeight))
	dc.Fill()

	for code, name := range properties.ClassNames {
		y := float64(classified.Height + 5 + code*legendRowHeight)
		c := properties.ClassPalette[code]
		dc.SetRGB255(int(c.R), int(c.G), int(c.B))
		dc.DrawRectangle(5, y, 12, 12)
		dc.Fill()
		dc.SetRGB(0, 0, 0)
		dc.DrawString(name, 22, y+11)
	}

	if err := dc.SavePNG(outputPath); err != nil {
		return fmt.Errorf("failed to save classified map: %w", err)
	}
	fmt.Println("Classified map created successfully at", outputPath)
	return nil
}
