package delivery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gis-hub/landcover-classifier-poc/internal/catalog"
	"github.com/gis-hub/landcover-classifier-poc/internal/composite"
	"github.com/gis-hub/landcover-classifier-poc/internal/properties"
	"github.com/gis-hub/landcover-classifier-poc/internal/raster"
	"github.com/gis-hub/landcover-classifier-poc/internal/tuning"
	"github.com/gis-hub/landcover-classifier-poc/output"
)

const compositeNoData = -9999

// RunCompositeOnly builds the month composite and saves it as a GeoTIFF
// without running the tuning stages. Returns the written path.
func RunCompositeOnly(cfg properties.RunConfig) (string, error) {
	sceneDir := filepath.Join(properties.RootPath(), "data", "scenes")
	cat, err := catalog.Open(filepath.Join(sceneDir, cfg.SceneIndexFile), sceneDir)
	if err != nil {
		return "", fmt.Errorf("failed to open scene catalog: %w", err)
	}

	metas := cat.Query(cfg.Tiles, cfg.Year, cfg.Month)
	fmt.Printf("Catalog matched %d scenes\n", len(metas))
	cat.EnsureLocal(metas)
	scenes := cat.LoadScenes(metas)

	comp := composite.Build(scenes, cfg)
	if comp.Width == 0 || comp.Height == 0 {
		return "", fmt.Errorf("no scenes available for %d-%02d, composite is empty", cfg.Year, cfg.Month)
	}

	resultDir := filepath.Join(properties.RootPath(), "data", "result")
	if err := os.MkdirAll(resultDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create result directory: %w", err)
	}
	path := filepath.Join(resultDir, fmt.Sprintf("composite_%d-%02d.tif", cfg.Year, cfg.Month))
	if err := raster.WriteGeoTIFF(comp, path, compositeNoData); err != nil {
		return "", err
	}
	return path, nil
}

// RenderLastMap re-renders the most recently written classified GeoTIFF as a
// PNG with the class palette and legend. Returns the rendered path.
func RenderLastMap() (string, error) {
	resultDir := filepath.Join(properties.RootPath(), "data", "result")
	entries, err := os.ReadDir(resultDir)
	if err != nil {
		return "", fmt.Errorf("failed to read result directory: %w", err)
	}

	var latest string
	var latestModTime int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "_map.tif") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().UnixNano() > latestModTime {
			latest = entry.Name()
			latestModTime = info.ModTime().UnixNano()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no classified map GeoTIFF found in %s", resultDir)
	}

	tiffPath := filepath.Join(resultDir, latest)
	r, err := raster.LoadGeoTIFF(tiffPath, []string{"class_code"})
	if err != nil {
		return "", err
	}
	classified, err := tuning.ClassRasterFromBand(r, "class_code")
	if err != nil {
		return "", err
	}

	pngPath := strings.TrimSuffix(tiffPath, ".tif") + ".png"
	if err := output.CreateClassifiedMap(classified, pngPath); err != nil {
		return "", err
	}
	return pngPath, nil
}
