package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gis-hub/landcover-classifier-poc/internal/labels"
	"github.com/gis-hub/landcover-classifier-poc/internal/properties"
	"github.com/paulmach/orb/geojson"
)

// CreateSamplesGeoJSON writes the surviving training points as a GeoJSON
// FeatureCollection, one point feature per sample with its class attached.
func CreateSamplesGeoJSON(points []labels.Point, outputPath string) error {
	collection := geojson.NewFeatureCollection()
	for _, point := range points {
		feature := geojson.NewFeature(point.Location)
		feature.Properties["point_id"] = point.ID
		feature.Properties["class_code"] = point.Class
		feature.Properties["class_name"] = properties.ClassNames[point.Class]
		collection.Append(feature)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("error creating samples GeoJSON: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(collection); err != nil {
		return fmt.Errorf("error encoding samples GeoJSON: %w", err)
	}
	fmt.Println("Samples GeoJSON created successfully at", outputPath)
	return nil
}
